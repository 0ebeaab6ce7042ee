// Package establishments implements the establishment lifecycle. An
// establishment belongs to exactly one organisation and is authorized through
// its parent: any action requires the corresponding permission on the
// organisation.
package establishments

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/talentandco/recrutia/internal/auth"
	"github.com/talentandco/recrutia/internal/models"
	"github.com/talentandco/recrutia/internal/organisations"
	"github.com/talentandco/recrutia/internal/slug"
)

// Store defines the persistence operations the service needs.
type Store interface {
	GetOrganisationBySlug(ctx context.Context, slug string) (*models.Organisation, error)
	GetEstablishmentBySlug(ctx context.Context, orgID uuid.UUID, slug string) (*models.Establishment, error)
	ListEstablishments(ctx context.Context, orgID uuid.UUID) ([]*models.Establishment, error)
	CreateEstablishment(ctx context.Context, est *models.Establishment) error
	UpdateEstablishment(ctx context.Context, est *models.Establishment) error
	DeleteEstablishment(ctx context.Context, id uuid.UUID) error
	EstablishmentSlugExists(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error)
}

// Policy authorizes actions against the parent organisation.
type Policy interface {
	Decide(ctx context.Context, actor *models.User, action auth.Action, org *models.Organisation) error
}

// Input carries the submitted establishment fields. The shared organisation
// validation rules apply; settings is an optional JSON document.
type Input struct {
	organisations.Input
	Settings json.RawMessage `json:"settings" form:"settings"`
}

// Service implements the establishment lifecycle.
type Service struct {
	store  Store
	policy Policy
	logger zerolog.Logger
}

// NewService creates a new establishment service.
func NewService(store Store, policy Policy, logger zerolog.Logger) *Service {
	return &Service{
		store:  store,
		policy: policy,
		logger: logger.With().Str("component", "establishments").Logger(),
	}
}

type slugChecker struct {
	store Store
}

func (c slugChecker) SlugExists(ctx context.Context, s string, excludeID uuid.UUID) (bool, error) {
	return c.store.EstablishmentSlugExists(ctx, s, excludeID)
}

// parent loads the organisation and applies the policy for the given action.
func (s *Service) parent(ctx context.Context, actor *models.User, orgSlug string, action auth.Action) (*models.Organisation, error) {
	org, err := s.store.GetOrganisationBySlug(ctx, orgSlug)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Decide(ctx, actor, action, org); err != nil {
		return nil, err
	}
	return org, nil
}

// List returns the establishments of an organisation, newest first.
func (s *Service) List(ctx context.Context, actor *models.User, orgSlug string) ([]*models.Establishment, error) {
	org, err := s.parent(ctx, actor, orgSlug, auth.ActionView)
	if err != nil {
		return nil, err
	}

	ests, err := s.store.ListEstablishments(ctx, org.ID)
	if err != nil {
		return nil, fmt.Errorf("list establishments: %w", err)
	}
	if ests == nil {
		ests = []*models.Establishment{}
	}
	return ests, nil
}

// Show returns one establishment of an organisation by slug.
func (s *Service) Show(ctx context.Context, actor *models.User, orgSlug, estSlug string) (*models.Establishment, error) {
	org, err := s.parent(ctx, actor, orgSlug, auth.ActionView)
	if err != nil {
		return nil, err
	}
	return s.store.GetEstablishmentBySlug(ctx, org.ID, estSlug)
}

// Create validates the input and persists a new establishment under the
// organisation, deriving a unique slug from the name.
func (s *Service) Create(ctx context.Context, actor *models.User, orgSlug string, in Input) (*models.Establishment, error) {
	org, err := s.parent(ctx, actor, orgSlug, auth.ActionUpdate)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	uniqueSlug, err := slug.Unique(ctx, slugChecker{s.store}, in.Name, uuid.Nil)
	if err != nil {
		return nil, fmt.Errorf("generate slug: %w", err)
	}

	est := models.NewEstablishment(org.ID, in.Name, uniqueSlug)
	est.Description = in.Description
	est.Settings = in.Settings
	est.Email = in.Email
	est.Phone = in.Phone
	est.Website = in.Website
	est.Address = in.Address

	if err := s.store.CreateEstablishment(ctx, est); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("establishment_id", est.ID.String()).
		Str("organisation_id", org.ID.String()).
		Str("slug", est.Slug).
		Msg("establishment created")
	return est, nil
}

// Update validates the input and persists the changes. As with organisations,
// the slug is regenerated only when the name changed.
func (s *Service) Update(ctx context.Context, actor *models.User, orgSlug, estSlug string, in Input) (*models.Establishment, error) {
	org, err := s.parent(ctx, actor, orgSlug, auth.ActionUpdate)
	if err != nil {
		return nil, err
	}
	est, err := s.store.GetEstablishmentBySlug(ctx, org.ID, estSlug)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	if in.Name != est.Name {
		uniqueSlug, err := slug.Unique(ctx, slugChecker{s.store}, in.Name, est.ID)
		if err != nil {
			return nil, fmt.Errorf("generate slug: %w", err)
		}
		est.Slug = uniqueSlug
	}

	est.Name = in.Name
	est.Description = in.Description
	if in.Settings != nil {
		est.Settings = in.Settings
	}
	est.Email = in.Email
	est.Phone = in.Phone
	est.Website = in.Website
	est.Address = in.Address

	if err := s.store.UpdateEstablishment(ctx, est); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("establishment_id", est.ID.String()).
		Str("slug", est.Slug).
		Msg("establishment updated")
	return est, nil
}

// Destroy removes an establishment from its organisation.
func (s *Service) Destroy(ctx context.Context, actor *models.User, orgSlug, estSlug string) error {
	org, err := s.parent(ctx, actor, orgSlug, auth.ActionDelete)
	if err != nil {
		return err
	}
	est, err := s.store.GetEstablishmentBySlug(ctx, org.ID, estSlug)
	if err != nil {
		return err
	}

	if err := s.store.DeleteEstablishment(ctx, est.ID); err != nil {
		return err
	}

	s.logger.Info().
		Str("establishment_id", est.ID.String()).
		Str("organisation_id", org.ID.String()).
		Msg("establishment deleted")
	return nil
}
