// Package config provides configuration management for Recrutia.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment represents the deployment environment.
type Environment string

const (
	// EnvDevelopment is the default local development environment.
	EnvDevelopment Environment = "development"
	// EnvStaging is the staging/pre-production environment.
	EnvStaging Environment = "staging"
	// EnvProduction is the production environment.
	EnvProduction Environment = "production"
)

// ServerConfig holds server configuration. Values come from an optional YAML
// file overridden by environment variables.
type ServerConfig struct {
	Environment   Environment `yaml:"environment,omitempty"`
	ListenAddr    string      `yaml:"listen_addr,omitempty"`
	PublicURL     string      `yaml:"public_url,omitempty"`
	DatabaseURL   string      `yaml:"database_url,omitempty"`
	RedisURL      string      `yaml:"redis_url,omitempty"`
	SessionSecret string      `yaml:"session_secret,omitempty"`
	SessionMaxAge int         `yaml:"session_max_age,omitempty"` // seconds
	CORSOrigins   []string    `yaml:"cors_origins,omitempty"`

	RateLimitRequests int64  `yaml:"rate_limit_requests,omitempty"`
	RateLimitPeriod   string `yaml:"rate_limit_period,omitempty"`

	OIDC OIDCConfig `yaml:"oidc,omitempty"`
	S3   S3Config   `yaml:"s3,omitempty"`
}

// OIDCConfig holds the optional OpenID Connect provider settings.
type OIDCConfig struct {
	IssuerURL    string `yaml:"issuer_url,omitempty"`
	ClientID     string `yaml:"client_id,omitempty"`
	ClientSecret string `yaml:"client_secret,omitempty"`
	RedirectURL  string `yaml:"redirect_url,omitempty"`
}

// Enabled reports whether OIDC login is configured.
func (c OIDCConfig) Enabled() bool {
	return c.IssuerURL != "" && c.ClientID != ""
}

// S3Config holds the optional object storage settings for logo uploads.
type S3Config struct {
	Bucket          string `yaml:"bucket,omitempty"`
	Region          string `yaml:"region,omitempty"`
	AccessKeyID     string `yaml:"access_key_id,omitempty"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty"`
	Endpoint        string `yaml:"endpoint,omitempty"`
	UseSSL          bool   `yaml:"use_ssl,omitempty"`
	PublicBaseURL   string `yaml:"public_base_url,omitempty"`
}

// Enabled reports whether logo uploads are configured.
func (c S3Config) Enabled() bool {
	return c.Bucket != ""
}

// LoadServerConfig reads the optional YAML file at path (empty path skips the
// file), applies environment variable overrides, then validates.
func LoadServerConfig(path string) (*ServerConfig, error) {
	cfg := &ServerConfig{
		Environment:       EnvDevelopment,
		ListenAddr:        ":8080",
		SessionMaxAge:     86400,
		RateLimitRequests: 300,
		RateLimitPeriod:   "1m",
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *ServerConfig) applyEnv() {
	if v := os.Getenv("ENV"); v != "" {
		c.Environment = Environment(v)
	}
	switch c.Environment {
	case EnvDevelopment, EnvStaging, EnvProduction:
		// valid
	default:
		c.Environment = EnvDevelopment
	}

	setEnvString(&c.ListenAddr, "LISTEN_ADDR")
	setEnvString(&c.PublicURL, "PUBLIC_URL")
	setEnvString(&c.DatabaseURL, "DATABASE_URL")
	setEnvString(&c.RedisURL, "REDIS_URL")
	setEnvString(&c.SessionSecret, "SESSION_SECRET")
	c.SessionMaxAge = getEnvInt("SESSION_MAX_AGE", c.SessionMaxAge)
	if c.SessionMaxAge < 0 {
		c.SessionMaxAge = 86400
	}

	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.CORSOrigins = origins
	}

	c.RateLimitRequests = int64(getEnvInt("RATE_LIMIT_REQUESTS", int(c.RateLimitRequests)))
	setEnvString(&c.RateLimitPeriod, "RATE_LIMIT_PERIOD")

	setEnvString(&c.OIDC.IssuerURL, "OIDC_ISSUER_URL")
	setEnvString(&c.OIDC.ClientID, "OIDC_CLIENT_ID")
	setEnvString(&c.OIDC.ClientSecret, "OIDC_CLIENT_SECRET")
	setEnvString(&c.OIDC.RedirectURL, "OIDC_REDIRECT_URL")

	setEnvString(&c.S3.Bucket, "S3_BUCKET")
	setEnvString(&c.S3.Region, "S3_REGION")
	setEnvString(&c.S3.AccessKeyID, "S3_ACCESS_KEY_ID")
	setEnvString(&c.S3.SecretAccessKey, "S3_SECRET_ACCESS_KEY")
	setEnvString(&c.S3.Endpoint, "S3_ENDPOINT")
	c.S3.UseSSL = getEnvBool("S3_USE_SSL", c.S3.UseSSL)
	setEnvString(&c.S3.PublicBaseURL, "S3_PUBLIC_BASE_URL")
}

// Validate checks that required settings are present.
func (c *ServerConfig) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if len(c.SessionSecret) < 32 {
		return errors.New("SESSION_SECRET must be at least 32 characters")
	}
	return nil
}

func setEnvString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// getEnvBool reads a boolean from an environment variable, returning the default if unset or invalid.
func getEnvBool(key string, defaultVal bool) bool {
	val := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch val {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	default:
		return defaultVal
	}
}

// getEnvInt reads an integer from an environment variable, returning the default if unset or invalid.
func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}
