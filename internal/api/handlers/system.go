package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/talentandco/recrutia/internal/monitoring"
)

// SystemCollector gathers host metrics.
type SystemCollector interface {
	Collect(ctx context.Context) (*monitoring.SystemMetrics, error)
}

// SystemHandler exposes host metrics to admins.
type SystemHandler struct {
	collector SystemCollector
	db        DatabaseHealthChecker
	logger    zerolog.Logger
}

// NewSystemHandler creates a new SystemHandler.
func NewSystemHandler(collector SystemCollector, db DatabaseHealthChecker, logger zerolog.Logger) *SystemHandler {
	return &SystemHandler{
		collector: collector,
		db:        db,
		logger:    logger.With().Str("component", "system_handler").Logger(),
	}
}

// RegisterRoutes registers the system routes on an admin-only group.
func (h *SystemHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/system", h.Show)
}

// Show returns host metrics and database pool statistics.
// GET /admin/system
func (h *SystemHandler) Show(c *gin.Context) {
	metrics, err := h.collector.Collect(c.Request.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to collect system metrics")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to collect system metrics"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"system":   metrics,
		"database": h.db.Health(),
	})
}
