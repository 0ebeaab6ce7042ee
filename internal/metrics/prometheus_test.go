package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/talentandco/recrutia/internal/db"
)

type mockTenantStore struct {
	counts *db.TenantCounts
	calls  int
}

func (m *mockTenantStore) GetTenantCounts(_ context.Context) (*db.TenantCounts, error) {
	m.calls++
	return m.counts, nil
}

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/metrics", nil)
	m.Handler().ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	return w.Body.String()
}

func TestScrapeExportsTenantGauges(t *testing.T) {
	store := &mockTenantStore{counts: &db.TenantCounts{
		Users:                12,
		Organisations:        4,
		DeletedOrganisations: 1,
		Establishments:       9,
		OrganisationMembers:  17,
	}}
	m := New(store, zerolog.Nop())

	body := scrape(t, m)

	for _, want := range []string{
		"recrutia_users_total 12",
		"recrutia_organisations_total 4",
		"recrutia_organisations_deleted_total 1",
		"recrutia_establishments_total 9",
		"recrutia_organisation_members_total 17",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected exposition to contain %q", want)
		}
	}
}

func TestScrapeCachesCounts(t *testing.T) {
	store := &mockTenantStore{counts: &db.TenantCounts{}}
	m := New(store, zerolog.Nop())

	scrape(t, m)
	scrape(t, m)

	if store.calls != 1 {
		t.Errorf("expected a single count query within the cache window, got %d", store.calls)
	}
}

func TestMiddlewareRecordsRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)

	store := &mockTenantStore{counts: &db.TenantCounts{}}
	m := New(store, zerolog.Nop())

	router := gin.New()
	router.Use(m.Middleware())
	router.GET("/organisations/:slug", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/organisations/acme", nil))

	body := scrape(t, m)
	if !strings.Contains(body, `recrutia_http_requests_total{method="GET",path="/organisations/:slug",status="200"} 1`) {
		t.Errorf("expected request counter with route template, got:\n%s", body)
	}
}
