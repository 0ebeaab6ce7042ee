package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/talentandco/recrutia/internal/models"
)

// Action identifies an operation checked by the organisation policy.
type Action string

const (
	// ActionViewAny lists organisations.
	ActionViewAny Action = "viewAny"
	// ActionCreate creates an organisation.
	ActionCreate Action = "create"
	// ActionView shows a single organisation.
	ActionView Action = "view"
	// ActionUpdate mutates an organisation.
	ActionUpdate Action = "update"
	// ActionDelete soft-deletes an organisation.
	ActionDelete Action = "delete"
)

var (
	// ErrUnauthenticated is returned when no actor is present. Callers must
	// redirect to the login flow rather than emit a generic rejection.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrPermissionDenied is returned when the policy denies an action.
	ErrPermissionDenied = errors.New("permission denied")
)

// PermissionStore resolves the permission grants an actor inherits from its role.
type PermissionStore interface {
	UserHasPermission(ctx context.Context, userID uuid.UUID, permission string) (bool, error)
}

// MembershipStore resolves per-organisation membership.
type MembershipStore interface {
	IsOrganisationMember(ctx context.Context, orgID, userID uuid.UUID) (bool, error)
}

// OrganisationPolicy decides whether an actor may perform an action on an
// organisation. Global permission grants and per-resource ownership or
// membership are checked independently: holding "manage organisations" is
// never enough on its own to touch an organisation the actor does not belong
// to.
type OrganisationPolicy struct {
	perms   PermissionStore
	members MembershipStore
}

// NewOrganisationPolicy creates a new OrganisationPolicy.
func NewOrganisationPolicy(perms PermissionStore, members MembershipStore) *OrganisationPolicy {
	return &OrganisationPolicy{perms: perms, members: members}
}

// Decide returns nil if actor may perform action, ErrUnauthenticated for a
// nil actor, and ErrPermissionDenied otherwise. org is required for view,
// update, and delete; it is ignored for viewAny and create.
func (p *OrganisationPolicy) Decide(ctx context.Context, actor *models.User, action Action, org *models.Organisation) error {
	if actor == nil {
		return ErrUnauthenticated
	}

	canManage, err := p.perms.UserHasPermission(ctx, actor.ID, models.PermManageOrganisations)
	if err != nil {
		return fmt.Errorf("check permission: %w", err)
	}
	if !canManage {
		return ErrPermissionDenied
	}

	switch action {
	case ActionViewAny, ActionCreate:
		return nil
	case ActionView, ActionUpdate, ActionDelete:
		if org == nil {
			return fmt.Errorf("policy action %q requires an organisation", action)
		}
		if org.OwnerID == actor.ID {
			return nil
		}
		member, err := p.members.IsOrganisationMember(ctx, org.ID, actor.ID)
		if err != nil {
			return fmt.Errorf("check membership: %w", err)
		}
		if member {
			return nil
		}
		return ErrPermissionDenied
	default:
		return fmt.Errorf("unknown policy action %q", action)
	}
}
