package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/talentandco/recrutia/internal/api/middleware"
	"github.com/talentandco/recrutia/internal/auth"
	"github.com/talentandco/recrutia/internal/models"
)

type mockAuthStore struct {
	usersByEmail   map[string]*models.User
	usersBySubject map[string]*models.User
	roles          map[models.RoleName]*models.Role
	created        []*models.User
	createErr      error
}

func newMockAuthStore() *mockAuthStore {
	return &mockAuthStore{
		usersByEmail:   map[string]*models.User{},
		usersBySubject: map[string]*models.User{},
		roles: map[models.RoleName]*models.Role{
			models.RoleCandidate: {ID: uuid.New(), Name: models.RoleCandidate},
		},
	}
}

func (m *mockAuthStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	if u, ok := m.usersByEmail[email]; ok {
		return u, nil
	}
	return nil, models.ErrNotFound
}

func (m *mockAuthStore) GetUserByOIDCSubject(_ context.Context, subject string) (*models.User, error) {
	if u, ok := m.usersBySubject[subject]; ok {
		return u, nil
	}
	return nil, models.ErrNotFound
}

func (m *mockAuthStore) GetRoleByName(_ context.Context, name models.RoleName) (*models.Role, error) {
	if r, ok := m.roles[name]; ok {
		return r, nil
	}
	return nil, models.ErrNotFound
}

func (m *mockAuthStore) CreateUser(_ context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, user)
	m.usersByEmail[user.Email] = user
	return nil
}

func setupAuthTestRouter(t *testing.T, store *mockAuthStore, user *models.User) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := NewAuthHandler(store, testSessionStore(t), nil, zerolog.Nop())
	handler.RegisterPublicRoutes(r)
	authed := r.Group("")
	authed.Use(func(c *gin.Context) {
		if user != nil {
			c.Set(string(middleware.UserContextKey), user)
		}
		c.Next()
	})
	handler.RegisterRoutes(authed)
	return r
}

func TestLogin(t *testing.T) {
	hash, err := auth.HashPassword("motdepasse123")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	user := models.NewUser("Alice Martin", "alice@example.com")
	user.PasswordHash = &hash

	store := newMockAuthStore()
	store.usersByEmail[user.Email] = user

	postLogin := func(r *gin.Engine, body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/login", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		return w
	}

	t.Run("success", func(t *testing.T) {
		r := setupAuthTestRouter(t, store, nil)
		w := postLogin(r, `{"email":"alice@example.com","password":"motdepasse123"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
		if len(w.Result().Cookies()) == 0 {
			t.Fatal("expected a session cookie")
		}
		if strings.Contains(w.Body.String(), "password_hash") {
			t.Fatal("response must not expose the password hash")
		}
	})

	t.Run("email is normalised", func(t *testing.T) {
		r := setupAuthTestRouter(t, store, nil)
		w := postLogin(r, `{"email":"  Alice@Example.com ","password":"motdepasse123"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		r := setupAuthTestRouter(t, store, nil)
		w := postLogin(r, `{"email":"alice@example.com","password":"mauvais"}`)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", w.Code)
		}
		if !strings.Contains(w.Body.String(), "Identifiants incorrects.") {
			t.Fatalf("expected uniform failure message, got %s", w.Body.String())
		}
	})

	t.Run("unknown user gets the same message", func(t *testing.T) {
		r := setupAuthTestRouter(t, store, nil)
		w := postLogin(r, `{"email":"nobody@example.com","password":"motdepasse123"}`)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", w.Code)
		}
		if !strings.Contains(w.Body.String(), "Identifiants incorrects.") {
			t.Fatalf("expected uniform failure message, got %s", w.Body.String())
		}
	})

	t.Run("oidc-only account cannot password login", func(t *testing.T) {
		subject := "oidc|123"
		oidcUser := models.NewUser("Bob", "bob@example.com")
		oidcUser.OIDCSubject = &subject
		s := newMockAuthStore()
		s.usersByEmail[oidcUser.Email] = oidcUser

		r := setupAuthTestRouter(t, s, nil)
		w := postLogin(r, `{"email":"bob@example.com","password":"motdepasse123"}`)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", w.Code)
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		r := setupAuthTestRouter(t, store, nil)
		w := postLogin(r, `{"email":"alice@example.com"}`)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})
}

func TestLogout(t *testing.T) {
	user := models.NewUser("Alice Martin", "alice@example.com")
	r := setupAuthTestRouter(t, newMockAuthStore(), user)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/logout", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	cleared := false
	for _, c := range w.Result().Cookies() {
		if c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Fatal("expected the session cookie to be expired")
	}
}

func TestMe(t *testing.T) {
	user := models.NewUser("Alice Martin", "alice@example.com")

	t.Run("authenticated", func(t *testing.T) {
		r := setupAuthTestRouter(t, newMockAuthStore(), user)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/me", nil)
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
		if !strings.Contains(w.Body.String(), "alice@example.com") {
			t.Fatalf("expected user in body, got %s", w.Body.String())
		}
	})

	t.Run("unauthenticated", func(t *testing.T) {
		r := setupAuthTestRouter(t, newMockAuthStore(), nil)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/me", nil)
		r.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", w.Code)
		}
	})
}

func TestOIDCRoutesAbsentWithoutProvider(t *testing.T) {
	r := setupAuthTestRouter(t, newMockAuthStore(), nil)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/auth/oidc/login", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 when OIDC is not configured, got %d", w.Code)
	}
}

func TestCreateUserFailurePropagates(t *testing.T) {
	store := newMockAuthStore()
	store.createErr = errors.New("db error")

	handler := NewAuthHandler(store, testSessionStore(t), nil, zerolog.Nop())
	claims := &auth.IDTokenClaims{Subject: "oidc|42", Email: "carol@example.com", Name: "Carol"}
	if _, err := handler.findOrCreateUser(context.Background(), claims); err == nil {
		t.Fatal("expected create failure to propagate")
	}
}
