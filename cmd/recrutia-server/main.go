// Package main is the entrypoint for the Recrutia server.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/talentandco/recrutia/internal/api"
	"github.com/talentandco/recrutia/internal/auth"
	"github.com/talentandco/recrutia/internal/config"
	"github.com/talentandco/recrutia/internal/db"
	"github.com/talentandco/recrutia/internal/storage"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to YAML config file (optional)")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("version", Version).Logger()
	if os.Getenv("ENV") != string(config.EnvProduction) {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	logger.Info().Str("version", Version).Msg("Starting Recrutia server")

	cfg, err := config.LoadServerConfig(*configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return 1
	}

	if cfg.Environment == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	database, err := db.New(ctx, db.DefaultConfig(cfg.DatabaseURL), logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to connect to database")
		return 1
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		logger.Error().Err(err).Msg("Failed to run database migrations")
		return 1
	}

	sessionCfg := auth.DefaultSessionConfig([]byte(cfg.SessionSecret), cfg.Environment == config.EnvProduction)
	sessionCfg.MaxAge = cfg.SessionMaxAge
	sessions, err := auth.NewSessionStore(sessionCfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create session store")
		return 1
	}

	var oidc *auth.OIDC
	if cfg.OIDC.Enabled() {
		oidc, err = auth.NewOIDC(ctx, auth.DefaultOIDCConfig(
			cfg.OIDC.IssuerURL,
			cfg.OIDC.ClientID,
			cfg.OIDC.ClientSecret,
			cfg.OIDC.RedirectURL,
		), logger)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to initialize OIDC provider")
			return 1
		}
	}

	var uploader *storage.S3Store
	if cfg.S3.Enabled() {
		uploader, err = storage.NewS3Store(ctx, storage.S3Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			Endpoint:        cfg.S3.Endpoint,
			UseSSL:          cfg.S3.UseSSL,
			PublicBaseURL:   cfg.S3.PublicBaseURL,
		}, logger)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to initialize object storage")
			return 1
		}
	}

	routerCfg := api.RouterConfig{
		Environment:       cfg.Environment,
		AllowedOrigins:    cfg.CORSOrigins,
		RateLimitRequests: cfg.RateLimitRequests,
		RateLimitPeriod:   cfg.RateLimitPeriod,
		RedisURL:          cfg.RedisURL,
	}

	var router *api.Router
	if uploader != nil {
		router, err = api.NewRouter(routerCfg, database, sessions, oidc, uploader, logger)
	} else {
		router, err = api.NewRouter(routerCfg, database, sessions, oidc, nil, logger)
	}
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create router")
		return 1
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router.Engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.ListenAddr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	logger.Info().Str("signal", sig.String()).Msg("Shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server shutdown error")
		return 1
	}

	logger.Info().Msg("Server stopped gracefully")
	return 0
}
