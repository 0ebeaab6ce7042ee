package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/talentandco/recrutia/internal/api/middleware"
	"github.com/talentandco/recrutia/internal/auth"
	"github.com/talentandco/recrutia/internal/models"
)

// AuthStore defines the persistence operations the auth handler needs.
type AuthStore interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByOIDCSubject(ctx context.Context, subject string) (*models.User, error)
	GetRoleByName(ctx context.Context, name models.RoleName) (*models.Role, error)
	CreateUser(ctx context.Context, user *models.User) error
}

// AuthHandler handles login, logout, and the OIDC flow.
type AuthHandler struct {
	store    AuthStore
	sessions *auth.SessionStore
	oidc     *auth.OIDC
	logger   zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler. oidc may be nil when no provider
// is configured.
func NewAuthHandler(store AuthStore, sessions *auth.SessionStore, oidc *auth.OIDC, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		store:    store,
		sessions: sessions,
		oidc:     oidc,
		logger:   logger.With().Str("component", "auth_handler").Logger(),
	}
}

// RegisterPublicRoutes registers the unauthenticated auth routes.
func (h *AuthHandler) RegisterPublicRoutes(r *gin.Engine) {
	r.POST("/login", h.Login)
	if h.oidc != nil {
		r.GET("/auth/oidc/login", h.OIDCLogin)
		r.GET("/auth/oidc/callback", h.OIDCCallback)
	}
}

// RegisterRoutes registers the authenticated auth routes.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/logout", h.Logout)
	r.GET("/me", h.Me)
}

type loginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// Login authenticates with email and password and opens a session.
// POST /login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	user, err := h.store.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil || user.PasswordHash == nil {
		// Same response for unknown user and wrong password
		h.logger.Debug().Str("email", req.Email).Msg("login failed")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Identifiants incorrects."})
		return
	}

	if err := auth.VerifyPassword(req.Password, *user.PasswordHash); err != nil {
		h.logger.Debug().Str("user_id", user.ID.String()).Msg("login failed")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Identifiants incorrects."})
		return
	}

	if err := h.openSession(c, user); err != nil {
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// Logout closes the session.
// POST /logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.sessions.ClearUser(c.Request, c.Writer); err != nil {
		h.logger.Warn().Err(err).Msg("failed to clear session")
	}
	c.JSON(http.StatusOK, gin.H{"logged_out": true})
}

// Me returns the authenticated user.
// GET /me
func (h *AuthHandler) Me(c *gin.Context) {
	user := middleware.RequireUser(c)
	if user == nil {
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// OIDCLogin starts the OIDC flow.
// GET /auth/oidc/login
func (h *AuthHandler) OIDCLogin(c *gin.Context) {
	state, err := auth.GenerateState()
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to generate OIDC state")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start login"})
		return
	}

	if err := h.sessions.SetOIDCState(c.Request, c.Writer, state); err != nil {
		h.logger.Error().Err(err).Msg("failed to store OIDC state")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start login"})
		return
	}

	c.Redirect(http.StatusFound, h.oidc.AuthorizationURL(state))
}

// OIDCCallback finishes the OIDC flow: it verifies the state, exchanges the
// code, and finds or creates the user. New users get the candidate role.
// GET /auth/oidc/callback
func (h *AuthHandler) OIDCCallback(c *gin.Context) {
	state, err := h.sessions.GetOIDCState(c.Request, c.Writer)
	if err != nil || state == "" || state != c.Query("state") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid state parameter"})
		return
	}

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing authorization code"})
		return
	}

	token, err := h.oidc.Exchange(c.Request.Context(), code)
	if err != nil {
		h.logger.Warn().Err(err).Msg("OIDC code exchange failed")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication failed"})
		return
	}

	claims, err := h.oidc.VerifyIDToken(c.Request.Context(), token)
	if err != nil {
		h.logger.Warn().Err(err).Msg("OIDC token verification failed")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication failed"})
		return
	}

	user, err := h.findOrCreateUser(c.Request.Context(), claims)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to resolve OIDC user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "authentication failed"})
		return
	}

	if err := h.openSession(c, user); err != nil {
		return
	}

	c.Redirect(http.StatusSeeOther, "/organisations")
}

// findOrCreateUser matches the OIDC claims to a user by subject, then by
// email, creating a candidate account when neither matches.
func (h *AuthHandler) findOrCreateUser(ctx context.Context, claims *auth.IDTokenClaims) (*models.User, error) {
	if user, err := h.store.GetUserByOIDCSubject(ctx, claims.Subject); err == nil {
		return user, nil
	}

	if user, err := h.store.GetUserByEmail(ctx, claims.Email); err == nil {
		return user, nil
	}

	name := claims.Name
	if name == "" {
		name = claims.Email
	}

	user := models.NewUser(name, claims.Email)
	subject := claims.Subject
	user.OIDCSubject = &subject

	role, err := h.store.GetRoleByName(ctx, models.RoleCandidate)
	if err == nil {
		roleID := role.ID
		roleName := role.Name
		user.RoleID = &roleID
		user.RoleName = &roleName
	}

	if err := h.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	h.logger.Info().
		Str("user_id", user.ID.String()).
		Str("email", user.Email).
		Msg("user created from OIDC login")
	return user, nil
}

func (h *AuthHandler) openSession(c *gin.Context, user *models.User) error {
	err := h.sessions.SetUser(c.Request, c.Writer, &auth.SessionUser{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
	})
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", user.ID.String()).Msg("failed to open session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open session"})
		return err
	}

	h.logger.Info().Str("user_id", user.ID.String()).Msg("user logged in")
	return nil
}
