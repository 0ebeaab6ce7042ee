// Package middleware provides HTTP middleware for the Recrutia API.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/talentandco/recrutia/internal/auth"
	"github.com/talentandco/recrutia/internal/models"
)

// UserStore loads the full user record behind a session.
type UserStore interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// ContextKey is the type for context keys used by this package.
type ContextKey string

// UserContextKey is the context key for the authenticated user.
const UserContextKey ContextKey = "user"

// wantsHTML reports whether the client is a browser navigation rather than an
// API call, in which case unauthenticated requests are redirected to login.
func wantsHTML(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "text/html")
}

// rejectUnauthenticated redirects browser requests to the login page and
// returns 401 for API clients.
func rejectUnauthenticated(c *gin.Context) {
	if wantsHTML(c) {
		c.Redirect(http.StatusSeeOther, "/login")
		c.Abort()
		return
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
}

// AuthMiddleware returns a Gin middleware that requires a valid session and
// loads the user record, including its role, for downstream policy checks.
// Stale sessions whose user no longer exists are cleared.
func AuthMiddleware(sessions *auth.SessionStore, store UserStore, logger zerolog.Logger) gin.HandlerFunc {
	log := logger.With().Str("component", "auth_middleware").Logger()

	return func(c *gin.Context) {
		sessionUser, err := sessions.GetUser(c.Request)
		if err != nil {
			log.Debug().Err(err).Str("path", c.Request.URL.Path).Msg("unauthenticated request")
			rejectUnauthenticated(c)
			return
		}

		user, err := store.GetUserByID(c.Request.Context(), sessionUser.ID)
		if err != nil {
			log.Warn().
				Str("user_id", sessionUser.ID.String()).
				Msg("session user not found, clearing stale session")
			if clearErr := sessions.ClearUser(c.Request, c.Writer); clearErr != nil {
				log.Warn().Err(clearErr).Msg("failed to clear stale session")
			}
			rejectUnauthenticated(c)
			return
		}

		c.Set(string(UserContextKey), user)

		log.Debug().
			Str("user_id", user.ID.String()).
			Str("path", c.Request.URL.Path).
			Msg("authenticated request")

		c.Next()
	}
}

// AdminMiddleware aborts with 403 unless the authenticated user holds the
// admin role. Must run after AuthMiddleware.
func AdminMiddleware(logger zerolog.Logger) gin.HandlerFunc {
	log := logger.With().Str("component", "admin_middleware").Logger()

	return func(c *gin.Context) {
		user := GetUser(c)
		if user == nil {
			rejectUnauthenticated(c)
			return
		}
		if !user.HasRole(models.RoleAdmin) {
			log.Debug().
				Str("user_id", user.ID.String()).
				Str("path", c.Request.URL.Path).
				Msg("admin access denied")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}

// GetUser retrieves the authenticated user from the Gin context. Returns nil
// if no user is authenticated.
func GetUser(c *gin.Context) *models.User {
	value, exists := c.Get(string(UserContextKey))
	if !exists {
		return nil
	}
	user, ok := value.(*models.User)
	if !ok {
		return nil
	}
	return user
}

// RequireUser is a helper that gets the authenticated user or aborts with 401.
// Use this in handlers that expect AuthMiddleware to have already run.
func RequireUser(c *gin.Context) *models.User {
	user := GetUser(c)
	if user == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return nil
	}
	return user
}
