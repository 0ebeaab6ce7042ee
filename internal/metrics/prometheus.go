// Package metrics exposes Prometheus metrics for the API server.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/talentandco/recrutia/internal/db"
)

// TenantStore retrieves the row counts exported as gauges.
type TenantStore interface {
	GetTenantCounts(ctx context.Context) (*db.TenantCounts, error)
}

// Metrics holds all Prometheus metrics.
type Metrics struct {
	registry *prometheus.Registry
	store    TenantStore
	logger   zerolog.Logger

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Tenant gauges, refreshed from the database on scrape
	UsersTotal                prometheus.Gauge
	OrganisationsTotal        prometheus.Gauge
	OrganisationsDeletedTotal prometheus.Gauge
	EstablishmentsTotal       prometheus.Gauge
	OrganisationMembersTotal  prometheus.Gauge

	// Scrape cache
	mu          sync.Mutex
	lastRefresh time.Time
	cacheExpiry time.Duration
}

// New creates and registers all metrics on a fresh registry.
func New(store TenantStore, logger zerolog.Logger) *Metrics {
	m := &Metrics{
		registry:    prometheus.NewRegistry(),
		store:       store,
		logger:      logger.With().Str("component", "metrics").Logger(),
		cacheExpiry: 15 * time.Second,

		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recrutia_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "recrutia_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		UsersTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "recrutia_users_total",
				Help: "Total number of registered users",
			},
		),
		OrganisationsTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "recrutia_organisations_total",
				Help: "Number of live organisations",
			},
		),
		OrganisationsDeletedTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "recrutia_organisations_deleted_total",
				Help: "Number of soft-deleted organisations",
			},
		),
		EstablishmentsTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "recrutia_establishments_total",
				Help: "Total number of establishments",
			},
		),
		OrganisationMembersTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "recrutia_organisation_members_total",
				Help: "Total number of organisation memberships",
			},
		),
	}

	m.registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.UsersTotal,
		m.OrganisationsTotal,
		m.OrganisationsDeletedTotal,
		m.EstablishmentsTotal,
		m.OrganisationMembersTotal,
	)

	return m
}

// refresh updates the tenant gauges from the database, at most once per
// cacheExpiry.
func (m *Metrics) refresh(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if time.Since(m.lastRefresh) < m.cacheExpiry {
		return
	}

	counts, err := m.store.GetTenantCounts(ctx)
	if err != nil {
		m.logger.Warn().Err(err).Msg("failed to collect tenant counts")
		return
	}

	m.UsersTotal.Set(float64(counts.Users))
	m.OrganisationsTotal.Set(float64(counts.Organisations))
	m.OrganisationsDeletedTotal.Set(float64(counts.DeletedOrganisations))
	m.EstablishmentsTotal.Set(float64(counts.Establishments))
	m.OrganisationMembersTotal.Set(float64(counts.OrganisationMembers))
	m.lastRefresh = time.Now()
}

// Handler returns the scrape endpoint handler. Tenant gauges are refreshed
// before serving the exposition.
func (m *Metrics) Handler() http.Handler {
	promHandler := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.refresh(r.Context())
		promHandler.ServeHTTP(w, r)
	})
}

// Middleware instruments requests with the HTTP metrics. Unmatched routes are
// recorded under their raw path.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		status := strconv.Itoa(c.Writer.Status())

		m.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
