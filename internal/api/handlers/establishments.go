package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/talentandco/recrutia/internal/api/middleware"
	"github.com/talentandco/recrutia/internal/auth"
	"github.com/talentandco/recrutia/internal/establishments"
	"github.com/talentandco/recrutia/internal/models"
)

// EstablishmentService defines the service operations the handler needs.
type EstablishmentService interface {
	List(ctx context.Context, actor *models.User, orgSlug string) ([]*models.Establishment, error)
	Show(ctx context.Context, actor *models.User, orgSlug, estSlug string) (*models.Establishment, error)
	Create(ctx context.Context, actor *models.User, orgSlug string, in establishments.Input) (*models.Establishment, error)
	Update(ctx context.Context, actor *models.User, orgSlug, estSlug string, in establishments.Input) (*models.Establishment, error)
	Destroy(ctx context.Context, actor *models.User, orgSlug, estSlug string) error
}

// EstablishmentHandler handles the nested establishment resource endpoints.
type EstablishmentHandler struct {
	service  EstablishmentService
	sessions *auth.SessionStore
	logger   zerolog.Logger
}

// NewEstablishmentHandler creates a new EstablishmentHandler.
func NewEstablishmentHandler(service EstablishmentService, sessions *auth.SessionStore, logger zerolog.Logger) *EstablishmentHandler {
	return &EstablishmentHandler{
		service:  service,
		sessions: sessions,
		logger:   logger.With().Str("component", "establishment_handler").Logger(),
	}
}

// RegisterRoutes registers establishment routes under their organisation.
func (h *EstablishmentHandler) RegisterRoutes(r *gin.RouterGroup) {
	ests := r.Group("/organisations/:slug/establishments")
	{
		ests.GET("", h.Index)
		ests.POST("", h.Store)
		ests.GET("/:estSlug", h.Show)
		ests.PUT("/:estSlug", h.Update)
		ests.PATCH("/:estSlug", h.Update)
		ests.DELETE("/:estSlug", h.Destroy)
	}
}

// Index lists the establishments of an organisation, newest first.
// GET /organisations/:slug/establishments
func (h *EstablishmentHandler) Index(c *gin.Context) {
	user := middleware.RequireUser(c)
	if user == nil {
		return
	}

	ests, err := h.service.List(c.Request.Context(), user, c.Param("slug"))
	if err != nil {
		renderError(c, err)
		return
	}

	payload := gin.H{"establishments": ests}
	attachFlash(c, h.sessions, payload)
	c.JSON(http.StatusOK, payload)
}

// Show returns one establishment.
// GET /organisations/:slug/establishments/:estSlug
func (h *EstablishmentHandler) Show(c *gin.Context) {
	user := middleware.RequireUser(c)
	if user == nil {
		return
	}

	est, err := h.service.Show(c.Request.Context(), user, c.Param("slug"), c.Param("estSlug"))
	if err != nil {
		renderError(c, err)
		return
	}

	payload := gin.H{"establishment": est}
	attachFlash(c, h.sessions, payload)
	c.JSON(http.StatusOK, payload)
}

// Store creates an establishment under the organisation.
// POST /organisations/:slug/establishments
func (h *EstablishmentHandler) Store(c *gin.Context) {
	user := middleware.RequireUser(c)
	if user == nil {
		return
	}

	var in establishments.Input
	if err := c.ShouldBind(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	est, err := h.service.Create(c.Request.Context(), user, c.Param("slug"), in)
	if err != nil {
		renderError(c, err)
		return
	}

	redirectWithSuccess(c, h.sessions, h.logger, "/organisations/"+c.Param("slug")+"/establishments",
		"Établissement créé avec succès.", http.StatusCreated, gin.H{"establishment": est})
}

// Update mutates an establishment.
// PUT /organisations/:slug/establishments/:estSlug
func (h *EstablishmentHandler) Update(c *gin.Context) {
	user := middleware.RequireUser(c)
	if user == nil {
		return
	}

	var in establishments.Input
	if err := c.ShouldBind(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	est, err := h.service.Update(c.Request.Context(), user, c.Param("slug"), c.Param("estSlug"), in)
	if err != nil {
		renderError(c, err)
		return
	}

	redirectWithSuccess(c, h.sessions, h.logger, "/organisations/"+c.Param("slug")+"/establishments/"+est.Slug,
		"Établissement mis à jour avec succès.", http.StatusOK, gin.H{"establishment": est})
}

// Destroy removes an establishment.
// DELETE /organisations/:slug/establishments/:estSlug
func (h *EstablishmentHandler) Destroy(c *gin.Context) {
	user := middleware.RequireUser(c)
	if user == nil {
		return
	}

	if err := h.service.Destroy(c.Request.Context(), user, c.Param("slug"), c.Param("estSlug")); err != nil {
		renderError(c, err)
		return
	}

	redirectWithSuccess(c, h.sessions, h.logger, "/organisations/"+c.Param("slug")+"/establishments",
		"Établissement supprimé avec succès.", http.StatusOK, gin.H{"deleted": true})
}
