package organisations

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/talentandco/recrutia/internal/auth"
	"github.com/talentandco/recrutia/internal/models"
)

type mockStore struct {
	orgBySlug    map[string]*models.Organisation
	summaries    []*models.OrganisationSummary
	total        int
	members      map[uuid.UUID][]models.PublicProfile
	ests         map[uuid.UUID][]*models.Establishment
	users        map[uuid.UUID]*models.User
	takenSlugs   map[string]uuid.UUID
	permsByUser  map[uuid.UUID][]string
	memberOf     map[string]bool // "orgID|userID"
	created      *models.Organisation
	updated      *models.Organisation
	softDeleted  []uuid.UUID
	createErr    error
	updateErr    error
	listErr      error
	slugCheckErr error
}

func newMockStore() *mockStore {
	return &mockStore{
		orgBySlug:   map[string]*models.Organisation{},
		members:     map[uuid.UUID][]models.PublicProfile{},
		ests:        map[uuid.UUID][]*models.Establishment{},
		users:       map[uuid.UUID]*models.User{},
		takenSlugs:  map[string]uuid.UUID{},
		permsByUser: map[uuid.UUID][]string{},
		memberOf:    map[string]bool{},
	}
}

func (m *mockStore) GetOrganisationBySlug(_ context.Context, slug string) (*models.Organisation, error) {
	if org, ok := m.orgBySlug[slug]; ok {
		return org, nil
	}
	return nil, models.ErrNotFound
}

func (m *mockStore) ListOrganisationsForUser(_ context.Context, _ uuid.UUID, _, _ int) ([]*models.OrganisationSummary, int, error) {
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	return m.summaries, m.total, nil
}

func (m *mockStore) CreateOrganisationWithOwner(_ context.Context, org *models.Organisation) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = org
	m.orgBySlug[org.Slug] = org
	m.takenSlugs[org.Slug] = org.ID
	return nil
}

func (m *mockStore) UpdateOrganisation(_ context.Context, org *models.Organisation) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updated = org
	return nil
}

func (m *mockStore) SoftDeleteOrganisation(_ context.Context, id uuid.UUID) error {
	m.softDeleted = append(m.softDeleted, id)
	return nil
}

func (m *mockStore) OrganisationSlugExists(_ context.Context, slug string, excludeID uuid.UUID) (bool, error) {
	if m.slugCheckErr != nil {
		return false, m.slugCheckErr
	}
	owner, taken := m.takenSlugs[slug]
	return taken && owner != excludeID, nil
}

func (m *mockStore) ListOrganisationMembers(_ context.Context, orgID uuid.UUID) ([]models.PublicProfile, error) {
	return m.members[orgID], nil
}

func (m *mockStore) ListEstablishments(_ context.Context, orgID uuid.UUID) ([]*models.Establishment, error) {
	return m.ests[orgID], nil
}

func (m *mockStore) GetUserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, models.ErrNotFound
}

func (m *mockStore) UserHasPermission(_ context.Context, userID uuid.UUID, permission string) (bool, error) {
	for _, p := range m.permsByUser[userID] {
		if p == permission {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockStore) IsOrganisationMember(_ context.Context, orgID, userID uuid.UUID) (bool, error) {
	return m.memberOf[orgID.String()+"|"+userID.String()], nil
}

func newTestService(store *mockStore) *Service {
	policy := auth.NewOrganisationPolicy(store, store)
	return NewService(store, policy, zerolog.Nop())
}

// manager returns a user holding the manage organisations permission and
// registers it in the store.
func manager(store *mockStore) *models.User {
	user := models.NewUser("Claire Martin", "claire@example.com")
	store.users[user.ID] = user
	store.permsByUser[user.ID] = []string{models.PermManageOrganisations, models.PermViewOrganisations}
	return user
}

func strptr(s string) *string { return &s }

func TestCreateOrganisation(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store)
	actor := manager(store)

	org, err := svc.Create(context.Background(), actor, Input{
		Name:    "Nouvelle Organisation",
		Email:   strptr("contact@nouvelle.fr"),
		Website: strptr("https://nouvelle.fr"),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if org.Slug != "nouvelle-organisation" {
		t.Errorf("expected slug nouvelle-organisation, got %s", org.Slug)
	}
	if org.OwnerID != actor.ID {
		t.Errorf("expected owner %s, got %s", actor.ID, org.OwnerID)
	}
	if store.created == nil {
		t.Fatal("expected organisation to be persisted")
	}
}

func TestCreateOrganisationSlugCollision(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store)
	actor := manager(store)

	first, err := svc.Create(context.Background(), actor, Input{Name: "Acme"})
	if err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	if first.Slug != "acme" {
		t.Fatalf("expected slug acme, got %s", first.Slug)
	}

	second, err := svc.Create(context.Background(), actor, Input{Name: "Acme"})
	if err != nil {
		t.Fatalf("second Create failed: %v", err)
	}
	if second.Slug != "acme-1" {
		t.Errorf("expected slug acme-1, got %s", second.Slug)
	}
}

func TestCreateOrganisationValidation(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store)
	actor := manager(store)

	_, err := svc.Create(context.Background(), actor, Input{
		Name:    "",
		Email:   strptr("not-an-email"),
		Website: strptr("not a url"),
	})

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Fields["name"] != "Le nom de l'organisation est obligatoire." {
		t.Errorf("unexpected name message: %q", verr.Fields["name"])
	}
	if verr.Fields["email"] != "L'email doit être une adresse valide." {
		t.Errorf("unexpected email message: %q", verr.Fields["email"])
	}
	if verr.Fields["website"] != "Le site web doit être une URL valide." {
		t.Errorf("unexpected website message: %q", verr.Fields["website"])
	}
	if store.created != nil {
		t.Error("invalid input must not be persisted")
	}
}

func TestCreateOrganisationDeniedWithoutPermission(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store)

	candidate := models.NewUser("Paul Durand", "paul@example.com")
	store.users[candidate.ID] = candidate

	_, err := svc.Create(context.Background(), candidate, Input{Name: "Acme"})
	if !errors.Is(err, auth.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestListPagination(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store)
	actor := manager(store)

	store.total = 23
	for i := 0; i < PerPage; i++ {
		store.summaries = append(store.summaries, &models.OrganisationSummary{})
	}

	page, err := svc.List(context.Background(), actor, 1)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if page.Meta.Total != 23 {
		t.Errorf("expected total 23, got %d", page.Meta.Total)
	}
	if page.Meta.LastPage != 3 {
		t.Errorf("expected last page 3, got %d", page.Meta.LastPage)
	}
	if page.Meta.PerPage != PerPage {
		t.Errorf("expected per_page %d, got %d", PerPage, page.Meta.PerPage)
	}
}

func TestListEmptyPageIsNotNil(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store)
	actor := manager(store)

	page, err := svc.List(context.Background(), actor, 7)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if page.Data == nil {
		t.Error("expected empty data slice, got nil")
	}
	if page.Meta.LastPage != 1 {
		t.Errorf("expected last page 1, got %d", page.Meta.LastPage)
	}
}

func TestListUnauthenticated(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store)

	_, err := svc.List(context.Background(), nil, 1)
	if !errors.Is(err, auth.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestShowLoadsRelations(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store)
	actor := manager(store)

	org := models.NewOrganisation("Acme", "acme", actor.ID)
	store.orgBySlug["acme"] = org
	store.members[org.ID] = []models.PublicProfile{actor.Public()}
	store.ests[org.ID] = []*models.Establishment{
		models.NewEstablishment(org.ID, "Agence Paris", "agence-paris"),
	}

	detail, err := svc.Show(context.Background(), actor, "acme")
	if err != nil {
		t.Fatalf("Show failed: %v", err)
	}
	if detail.Owner.ID != actor.ID {
		t.Errorf("expected owner %s, got %s", actor.ID, detail.Owner.ID)
	}
	if len(detail.Establishments) != 1 {
		t.Errorf("expected 1 establishment, got %d", len(detail.Establishments))
	}
	if len(detail.Members) != 1 {
		t.Errorf("expected 1 member, got %d", len(detail.Members))
	}
}

func TestShowNotFound(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store)
	actor := manager(store)

	_, err := svc.Show(context.Background(), actor, "missing")
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestShowDeniedForNonMemberManager(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store)

	owner := manager(store)
	outsider := manager(store)

	org := models.NewOrganisation("Acme", "acme", owner.ID)
	store.orgBySlug["acme"] = org

	_, err := svc.Show(context.Background(), outsider, "acme")
	if !errors.Is(err, auth.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestShowAllowedForMember(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store)

	owner := manager(store)
	member := manager(store)

	org := models.NewOrganisation("Acme", "acme", owner.ID)
	store.orgBySlug["acme"] = org
	store.users[owner.ID] = owner
	store.memberOf[org.ID.String()+"|"+member.ID.String()] = true

	if _, err := svc.Show(context.Background(), member, "acme"); err != nil {
		t.Fatalf("expected member access, got %v", err)
	}
}

func TestAuthorizeUpdate(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store)

	owner := manager(store)
	outsider := manager(store)

	org := models.NewOrganisation("Acme", "acme", owner.ID)
	store.orgBySlug["acme"] = org

	got, err := svc.AuthorizeUpdate(context.Background(), owner, "acme")
	if err != nil {
		t.Fatalf("expected owner access, got %v", err)
	}
	if got.ID != org.ID {
		t.Fatalf("expected organisation %s, got %s", org.ID, got.ID)
	}

	if _, err := svc.AuthorizeUpdate(context.Background(), outsider, "acme"); !errors.Is(err, auth.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied for a non-member, got %v", err)
	}

	if _, err := svc.AuthorizeUpdate(context.Background(), owner, "inconnue"); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateRegeneratesSlugOnRename(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store)
	actor := manager(store)

	org := models.NewOrganisation("Acme", "acme", actor.ID)
	store.orgBySlug["acme"] = org
	store.takenSlugs["acme"] = org.ID

	updated, err := svc.Update(context.Background(), actor, "acme", Input{Name: "Acme France"})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Slug != "acme-france" {
		t.Errorf("expected slug acme-france, got %s", updated.Slug)
	}
	if updated.Name != "Acme France" {
		t.Errorf("expected name Acme France, got %s", updated.Name)
	}
}

func TestUpdateKeepsSlugWhenNameUnchanged(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store)
	actor := manager(store)

	org := models.NewOrganisation("Acme", "acme", actor.ID)
	store.orgBySlug["acme"] = org
	store.takenSlugs["acme"] = org.ID

	updated, err := svc.Update(context.Background(), actor, "acme", Input{
		Name:        "Acme",
		Description: strptr("Cabinet de recrutement"),
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Slug != "acme" {
		t.Errorf("expected slug to stay acme, got %s", updated.Slug)
	}
	if updated.Description == nil || *updated.Description != "Cabinet de recrutement" {
		t.Error("expected description to be updated")
	}
}

func TestUpdateOwnSlugNotTreatedAsCollision(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store)
	actor := manager(store)

	org := models.NewOrganisation("Acme Conseil", "acme-conseil", actor.ID)
	store.orgBySlug["acme-conseil"] = org
	store.takenSlugs["acme-conseil"] = org.ID

	// Renaming through a different name and back must not append a suffix.
	updated, err := svc.Update(context.Background(), actor, "acme-conseil", Input{Name: "Acme Conseil SARL"})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Slug != "acme-conseil-sarl" {
		t.Fatalf("expected slug acme-conseil-sarl, got %s", updated.Slug)
	}

	store.orgBySlug["acme-conseil-sarl"] = updated
	store.takenSlugs["acme-conseil-sarl"] = updated.ID

	back, err := svc.Update(context.Background(), actor, "acme-conseil-sarl", Input{Name: "Acme Conseil"})
	if err != nil {
		t.Fatalf("Update back failed: %v", err)
	}
	if back.Slug != "acme-conseil" {
		t.Errorf("expected slug acme-conseil, got %s", back.Slug)
	}
}

func TestDestroySoftDeletes(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store)
	actor := manager(store)

	org := models.NewOrganisation("Acme", "acme", actor.ID)
	store.orgBySlug["acme"] = org

	if err := svc.Destroy(context.Background(), actor, "acme"); err != nil {
		t.Fatalf("Destroy failed: %v", err)
	}
	if len(store.softDeleted) != 1 || store.softDeleted[0] != org.ID {
		t.Errorf("expected organisation %s to be soft deleted", org.ID)
	}
}

func TestDestroyDeniedForNonMember(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store)

	owner := manager(store)
	outsider := manager(store)

	org := models.NewOrganisation("Acme", "acme", owner.ID)
	store.orgBySlug["acme"] = org

	err := svc.Destroy(context.Background(), outsider, "acme")
	if !errors.Is(err, auth.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
	if len(store.softDeleted) != 0 {
		t.Error("denied destroy must not delete")
	}
}

func TestCreateConflictPropagates(t *testing.T) {
	store := newMockStore()
	svc := newTestService(store)
	actor := manager(store)
	store.createErr = models.ErrConflict

	_, err := svc.Create(context.Background(), actor, Input{Name: "Acme"})
	if !errors.Is(err, models.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}
