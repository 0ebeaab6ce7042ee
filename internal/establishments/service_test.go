package establishments

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/talentandco/recrutia/internal/auth"
	"github.com/talentandco/recrutia/internal/models"
	"github.com/talentandco/recrutia/internal/organisations"
)

type mockStore struct {
	org        *models.Organisation
	estBySlug  map[string]*models.Establishment
	takenSlugs map[string]uuid.UUID
	created    *models.Establishment
	updated    *models.Establishment
	deleted    []uuid.UUID
}

func newMockStore(org *models.Organisation) *mockStore {
	return &mockStore{
		org:        org,
		estBySlug:  map[string]*models.Establishment{},
		takenSlugs: map[string]uuid.UUID{},
	}
}

func (m *mockStore) GetOrganisationBySlug(_ context.Context, slug string) (*models.Organisation, error) {
	if m.org != nil && m.org.Slug == slug {
		return m.org, nil
	}
	return nil, models.ErrNotFound
}

func (m *mockStore) GetEstablishmentBySlug(_ context.Context, orgID uuid.UUID, slug string) (*models.Establishment, error) {
	if est, ok := m.estBySlug[slug]; ok && est.OrganisationID == orgID {
		return est, nil
	}
	return nil, models.ErrNotFound
}

func (m *mockStore) ListEstablishments(_ context.Context, orgID uuid.UUID) ([]*models.Establishment, error) {
	var ests []*models.Establishment
	for _, est := range m.estBySlug {
		if est.OrganisationID == orgID {
			ests = append(ests, est)
		}
	}
	return ests, nil
}

func (m *mockStore) CreateEstablishment(_ context.Context, est *models.Establishment) error {
	m.created = est
	if m.estBySlug == nil {
		m.estBySlug = map[string]*models.Establishment{}
	}
	m.estBySlug[est.Slug] = est
	m.takenSlugs[est.Slug] = est.ID
	return nil
}

func (m *mockStore) UpdateEstablishment(_ context.Context, est *models.Establishment) error {
	m.updated = est
	return nil
}

func (m *mockStore) DeleteEstablishment(_ context.Context, id uuid.UUID) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockStore) EstablishmentSlugExists(_ context.Context, slug string, excludeID uuid.UUID) (bool, error) {
	owner, taken := m.takenSlugs[slug]
	return taken && owner != excludeID, nil
}

// stubPolicy returns its configured error for any authenticated actor.
type stubPolicy struct {
	err error
}

func (p stubPolicy) Decide(_ context.Context, actor *models.User, _ auth.Action, _ *models.Organisation) error {
	if actor == nil {
		return auth.ErrUnauthenticated
	}
	return p.err
}

func strptr(s string) *string { return &s }

func testSetup(t *testing.T) (*mockStore, *Service, *models.User, *models.Organisation) {
	t.Helper()
	actor := models.NewUser("Claire Martin", "claire@example.com")
	org := models.NewOrganisation("Acme", "acme", actor.ID)
	store := newMockStore(org)
	svc := NewService(store, stubPolicy{}, zerolog.Nop())
	return store, svc, actor, org
}

func TestCreateEstablishment(t *testing.T) {
	store, svc, actor, org := testSetup(t)

	est, err := svc.Create(context.Background(), actor, "acme", Input{
		Input: organisations.Input{Name: "Agence Île-de-France"},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if est.Slug != "agence-ile-de-france" {
		t.Errorf("expected slug agence-ile-de-france, got %s", est.Slug)
	}
	if est.OrganisationID != org.ID {
		t.Errorf("expected organisation %s, got %s", org.ID, est.OrganisationID)
	}
	if store.created == nil {
		t.Fatal("expected establishment to be persisted")
	}
}

func TestCreateEstablishmentSlugCollision(t *testing.T) {
	_, svc, actor, _ := testSetup(t)

	first, err := svc.Create(context.Background(), actor, "acme", Input{
		Input: organisations.Input{Name: "Agence Paris"},
	})
	if err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	if first.Slug != "agence-paris" {
		t.Fatalf("expected slug agence-paris, got %s", first.Slug)
	}

	second, err := svc.Create(context.Background(), actor, "acme", Input{
		Input: organisations.Input{Name: "Agence Paris"},
	})
	if err != nil {
		t.Fatalf("second Create failed: %v", err)
	}
	if second.Slug != "agence-paris-1" {
		t.Errorf("expected slug agence-paris-1, got %s", second.Slug)
	}
}

func TestCreateEstablishmentUnknownOrganisation(t *testing.T) {
	_, svc, actor, _ := testSetup(t)

	_, err := svc.Create(context.Background(), actor, "missing", Input{
		Input: organisations.Input{Name: "Agence Paris"},
	})
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateEstablishmentDenied(t *testing.T) {
	store, _, actor, org := testSetup(t)
	svc := NewService(store, stubPolicy{err: auth.ErrPermissionDenied}, zerolog.Nop())
	_ = org

	_, err := svc.Create(context.Background(), actor, "acme", Input{
		Input: organisations.Input{Name: "Agence Paris"},
	})
	if !errors.Is(err, auth.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestCreateEstablishmentValidation(t *testing.T) {
	_, svc, actor, _ := testSetup(t)

	_, err := svc.Create(context.Background(), actor, "acme", Input{
		Input: organisations.Input{Name: "", Website: strptr("nope")},
	})
	var verr *organisations.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestUpdateEstablishmentRename(t *testing.T) {
	store, svc, actor, org := testSetup(t)

	est := models.NewEstablishment(org.ID, "Agence Paris", "agence-paris")
	store.estBySlug = map[string]*models.Establishment{"agence-paris": est}
	store.takenSlugs["agence-paris"] = est.ID

	updated, err := svc.Update(context.Background(), actor, "acme", "agence-paris", Input{
		Input: organisations.Input{Name: "Agence Lyon"},
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Slug != "agence-lyon" {
		t.Errorf("expected slug agence-lyon, got %s", updated.Slug)
	}
}

func TestUpdateEstablishmentKeepsSettingsWhenAbsent(t *testing.T) {
	store, svc, actor, org := testSetup(t)

	est := models.NewEstablishment(org.ID, "Agence Paris", "agence-paris")
	est.Settings = []byte(`{"timezone":"Europe/Paris"}`)
	store.estBySlug = map[string]*models.Establishment{"agence-paris": est}
	store.takenSlugs["agence-paris"] = est.ID

	updated, err := svc.Update(context.Background(), actor, "acme", "agence-paris", Input{
		Input: organisations.Input{Name: "Agence Paris"},
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if string(updated.Settings) != `{"timezone":"Europe/Paris"}` {
		t.Errorf("expected settings to be preserved, got %s", updated.Settings)
	}
}

func TestDestroyEstablishment(t *testing.T) {
	store, svc, actor, org := testSetup(t)

	est := models.NewEstablishment(org.ID, "Agence Paris", "agence-paris")
	store.estBySlug = map[string]*models.Establishment{"agence-paris": est}

	if err := svc.Destroy(context.Background(), actor, "acme", "agence-paris"); err != nil {
		t.Fatalf("Destroy failed: %v", err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != est.ID {
		t.Errorf("expected establishment %s to be deleted", est.ID)
	}
}

func TestListEstablishmentsUnauthenticated(t *testing.T) {
	_, svc, _, _ := testSetup(t)

	_, err := svc.List(context.Background(), nil, "acme")
	if !errors.Is(err, auth.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}
