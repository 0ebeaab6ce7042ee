// Package api provides the HTTP API for the Recrutia server.
package api

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/talentandco/recrutia/internal/api/handlers"
	"github.com/talentandco/recrutia/internal/api/middleware"
	"github.com/talentandco/recrutia/internal/auth"
	"github.com/talentandco/recrutia/internal/config"
	"github.com/talentandco/recrutia/internal/db"
	"github.com/talentandco/recrutia/internal/establishments"
	"github.com/talentandco/recrutia/internal/metrics"
	"github.com/talentandco/recrutia/internal/monitoring"
	"github.com/talentandco/recrutia/internal/organisations"
)

// RouterConfig holds configuration for the API router.
type RouterConfig struct {
	Environment Environment
	// AllowedOrigins for CORS. Empty means all origins allowed in dev mode.
	AllowedOrigins []string
	// RateLimitRequests is the number of requests allowed per period.
	RateLimitRequests int64
	// RateLimitPeriod is the duration string for rate limiting (e.g. "1m", "1h").
	RateLimitPeriod string
	// RedisURL enables a shared rate limit store when set.
	RedisURL string
}

// Environment aliases the config environment for callers of this package.
type Environment = config.Environment

// Router wraps a Gin engine with configured middleware and routes.
type Router struct {
	Engine *gin.Engine
	logger zerolog.Logger
}

// NewRouter creates a new Router with the given dependencies. oidc and
// uploader may be nil when the corresponding feature is not configured.
func NewRouter(
	cfg RouterConfig,
	database *db.DB,
	sessions *auth.SessionStore,
	oidc *auth.OIDC,
	uploader handlers.LogoUploader,
	logger zerolog.Logger,
) (*Router, error) {
	r := &Router{
		Engine: gin.New(),
		logger: logger.With().Str("component", "router").Logger(),
	}

	appMetrics := metrics.New(database, logger)

	// Global middleware
	r.Engine.Use(gin.Recovery())
	r.Engine.Use(middleware.RequestLogger(logger))
	r.Engine.Use(middleware.CORS(cfg.AllowedOrigins, cfg.Environment))
	r.Engine.Use(appMetrics.Middleware())

	rateLimiter, err := middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitPeriod, cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	r.Engine.Use(rateLimiter)

	// Public endpoints
	healthHandler := handlers.NewHealthHandler(database, logger)
	healthHandler.RegisterPublicRoutes(r.Engine)

	r.Engine.GET("/metrics", gin.WrapH(appMetrics.Handler()))

	authHandler := handlers.NewAuthHandler(database, sessions, oidc, logger)
	authHandler.RegisterPublicRoutes(r.Engine)

	// Authenticated endpoints
	authed := r.Engine.Group("/")
	authed.Use(middleware.AuthMiddleware(sessions, database, logger))

	authHandler.RegisterRoutes(authed)

	policy := auth.NewOrganisationPolicy(database, database)

	orgService := organisations.NewService(database, policy, logger)
	orgHandler := handlers.NewOrganisationHandler(orgService, sessions, uploader, logger)
	orgHandler.RegisterRoutes(authed)

	estService := establishments.NewService(database, policy, logger)
	estHandler := handlers.NewEstablishmentHandler(estService, sessions, logger)
	estHandler.RegisterRoutes(authed)

	// Admin endpoints
	admin := r.Engine.Group("/admin")
	admin.Use(middleware.AuthMiddleware(sessions, database, logger))
	admin.Use(middleware.AdminMiddleware(logger))

	systemHandler := handlers.NewSystemHandler(monitoring.NewCollector(), database, logger)
	systemHandler.RegisterRoutes(admin)

	return r, nil
}
