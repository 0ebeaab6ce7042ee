package organisations

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/talentandco/recrutia/internal/auth"
	"github.com/talentandco/recrutia/internal/models"
	"github.com/talentandco/recrutia/internal/slug"
)

// PerPage is the fixed page size for organisation listings.
const PerPage = 10

// Store defines the persistence operations the service needs.
type Store interface {
	GetOrganisationBySlug(ctx context.Context, slug string) (*models.Organisation, error)
	ListOrganisationsForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.OrganisationSummary, int, error)
	CreateOrganisationWithOwner(ctx context.Context, org *models.Organisation) error
	UpdateOrganisation(ctx context.Context, org *models.Organisation) error
	SoftDeleteOrganisation(ctx context.Context, id uuid.UUID) error
	OrganisationSlugExists(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error)
	ListOrganisationMembers(ctx context.Context, orgID uuid.UUID) ([]models.PublicProfile, error)
	ListEstablishments(ctx context.Context, orgID uuid.UUID) ([]*models.Establishment, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Policy authorizes organisation actions for an actor.
type Policy interface {
	Decide(ctx context.Context, actor *models.User, action auth.Action, org *models.Organisation) error
}

// Service implements the organisation lifecycle.
type Service struct {
	store  Store
	policy Policy
	logger zerolog.Logger
}

// NewService creates a new organisation service.
func NewService(store Store, policy Policy, logger zerolog.Logger) *Service {
	return &Service{
		store:  store,
		policy: policy,
		logger: logger.With().Str("component", "organisations").Logger(),
	}
}

// slugChecker adapts the store to the slug.Checker interface.
type slugChecker struct {
	store Store
}

func (c slugChecker) SlugExists(ctx context.Context, s string, excludeID uuid.UUID) (bool, error) {
	return c.store.OrganisationSlugExists(ctx, s, excludeID)
}

// List returns one page of the organisations the actor belongs to, newest
// first. Pages are 1-based; out-of-range pages return an empty data slice.
func (s *Service) List(ctx context.Context, actor *models.User, page int) (*models.OrganisationPage, error) {
	if err := s.policy.Decide(ctx, actor, auth.ActionViewAny, nil); err != nil {
		return nil, err
	}

	if page < 1 {
		page = 1
	}

	summaries, total, err := s.store.ListOrganisationsForUser(ctx, actor.ID, PerPage, (page-1)*PerPage)
	if err != nil {
		return nil, fmt.Errorf("list organisations: %w", err)
	}

	lastPage := (total + PerPage - 1) / PerPage
	if lastPage < 1 {
		lastPage = 1
	}
	if summaries == nil {
		summaries = []*models.OrganisationSummary{}
	}

	return &models.OrganisationPage{
		Data: summaries,
		Meta: models.PageMeta{
			Page:     page,
			PerPage:  PerPage,
			Total:    total,
			LastPage: lastPage,
		},
	}, nil
}

// AuthorizeCreate applies the create policy without persisting anything. Used
// by the creation form endpoint.
func (s *Service) AuthorizeCreate(ctx context.Context, actor *models.User) error {
	return s.policy.Decide(ctx, actor, auth.ActionCreate, nil)
}

// Create validates the input, derives a unique slug from the name, and
// persists the organisation with the actor as owner and first member.
func (s *Service) Create(ctx context.Context, actor *models.User, in Input) (*models.Organisation, error) {
	if err := s.policy.Decide(ctx, actor, auth.ActionCreate, nil); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	uniqueSlug, err := slug.Unique(ctx, slugChecker{s.store}, in.Name, uuid.Nil)
	if err != nil {
		return nil, fmt.Errorf("generate slug: %w", err)
	}

	org := models.NewOrganisation(in.Name, uniqueSlug, actor.ID)
	org.Description = in.Description
	org.Email = in.Email
	org.Phone = in.Phone
	org.Website = in.Website
	org.Address = in.Address

	if err := s.store.CreateOrganisationWithOwner(ctx, org); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("organisation_id", org.ID.String()).
		Str("owner_id", actor.ID.String()).
		Str("slug", org.Slug).
		Msg("organisation created")
	return org, nil
}

// Show returns the detail view of an organisation: the record with its owner
// profile, establishments newest first, and member profiles.
func (s *Service) Show(ctx context.Context, actor *models.User, orgSlug string) (*models.OrganisationDetail, error) {
	org, err := s.store.GetOrganisationBySlug(ctx, orgSlug)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Decide(ctx, actor, auth.ActionView, org); err != nil {
		return nil, err
	}

	owner, err := s.store.GetUserByID(ctx, org.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("load owner: %w", err)
	}

	establishments, err := s.store.ListEstablishments(ctx, org.ID)
	if err != nil {
		return nil, fmt.Errorf("load establishments: %w", err)
	}
	if establishments == nil {
		establishments = []*models.Establishment{}
	}

	members, err := s.store.ListOrganisationMembers(ctx, org.ID)
	if err != nil {
		return nil, fmt.Errorf("load members: %w", err)
	}
	if members == nil {
		members = []models.PublicProfile{}
	}

	return &models.OrganisationDetail{
		Organisation:   *org,
		Owner:          owner.Public(),
		Establishments: establishments,
		Members:        members,
	}, nil
}

// AuthorizeUpdate resolves the organisation and applies the update policy
// without persisting anything. Callers with side effects of their own, such
// as the logo upload, must authorize through this before doing any work.
func (s *Service) AuthorizeUpdate(ctx context.Context, actor *models.User, orgSlug string) (*models.Organisation, error) {
	org, err := s.store.GetOrganisationBySlug(ctx, orgSlug)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Decide(ctx, actor, auth.ActionUpdate, org); err != nil {
		return nil, err
	}
	return org, nil
}

// Edit returns the organisation for the edit form, applying the update policy.
func (s *Service) Edit(ctx context.Context, actor *models.User, orgSlug string) (*models.Organisation, error) {
	return s.AuthorizeUpdate(ctx, actor, orgSlug)
}

// Update validates the input and persists the changes. The slug is
// regenerated only when the name changed; renaming back to a name whose slug
// the organisation already holds keeps the slug without a suffix.
func (s *Service) Update(ctx context.Context, actor *models.User, orgSlug string, in Input) (*models.Organisation, error) {
	org, err := s.store.GetOrganisationBySlug(ctx, orgSlug)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Decide(ctx, actor, auth.ActionUpdate, org); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	if in.Name != org.Name {
		uniqueSlug, err := slug.Unique(ctx, slugChecker{s.store}, in.Name, org.ID)
		if err != nil {
			return nil, fmt.Errorf("generate slug: %w", err)
		}
		org.Slug = uniqueSlug
	}

	org.Name = in.Name
	org.Description = in.Description
	org.Email = in.Email
	org.Phone = in.Phone
	org.Website = in.Website
	org.Address = in.Address

	if err := s.store.UpdateOrganisation(ctx, org); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("organisation_id", org.ID.String()).
		Str("slug", org.Slug).
		Msg("organisation updated")
	return org, nil
}

// SetLogo stores the logo URL for an organisation, applying the update policy.
func (s *Service) SetLogo(ctx context.Context, actor *models.User, orgSlug, logoURL string) (*models.Organisation, error) {
	org, err := s.store.GetOrganisationBySlug(ctx, orgSlug)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Decide(ctx, actor, auth.ActionUpdate, org); err != nil {
		return nil, err
	}

	org.Logo = &logoURL
	if err := s.store.UpdateOrganisation(ctx, org); err != nil {
		return nil, err
	}
	return org, nil
}

// Destroy soft-deletes an organisation. Establishments and membership pivot
// rows are left in place.
func (s *Service) Destroy(ctx context.Context, actor *models.User, orgSlug string) error {
	org, err := s.store.GetOrganisationBySlug(ctx, orgSlug)
	if err != nil {
		return err
	}
	if err := s.policy.Decide(ctx, actor, auth.ActionDelete, org); err != nil {
		return err
	}

	if err := s.store.SoftDeleteOrganisation(ctx, org.ID); err != nil {
		return err
	}

	s.logger.Info().
		Str("organisation_id", org.ID.String()).
		Str("actor_id", actor.ID.String()).
		Msg("organisation deleted")
	return nil
}
