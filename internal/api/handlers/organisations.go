package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/talentandco/recrutia/internal/api/middleware"
	"github.com/talentandco/recrutia/internal/auth"
	"github.com/talentandco/recrutia/internal/models"
	"github.com/talentandco/recrutia/internal/organisations"
)

// maxLogoSize caps logo uploads at 2 MiB.
const maxLogoSize = 2 << 20

// OrganisationService defines the service operations the handler needs.
type OrganisationService interface {
	List(ctx context.Context, actor *models.User, page int) (*models.OrganisationPage, error)
	AuthorizeCreate(ctx context.Context, actor *models.User) error
	AuthorizeUpdate(ctx context.Context, actor *models.User, slug string) (*models.Organisation, error)
	Create(ctx context.Context, actor *models.User, in organisations.Input) (*models.Organisation, error)
	Show(ctx context.Context, actor *models.User, slug string) (*models.OrganisationDetail, error)
	Edit(ctx context.Context, actor *models.User, slug string) (*models.Organisation, error)
	Update(ctx context.Context, actor *models.User, slug string, in organisations.Input) (*models.Organisation, error)
	SetLogo(ctx context.Context, actor *models.User, slug, logoURL string) (*models.Organisation, error)
	Destroy(ctx context.Context, actor *models.User, slug string) error
}

// LogoUploader stores an uploaded logo and returns its public URL.
type LogoUploader interface {
	UploadLogo(ctx context.Context, body io.Reader, contentType string) (string, error)
	DeleteObject(ctx context.Context, publicURL string) error
}

// OrganisationHandler handles the organisation resource endpoints.
type OrganisationHandler struct {
	service  OrganisationService
	sessions *auth.SessionStore
	uploader LogoUploader
	logger   zerolog.Logger
}

// NewOrganisationHandler creates a new OrganisationHandler. uploader may be
// nil when object storage is not configured.
func NewOrganisationHandler(service OrganisationService, sessions *auth.SessionStore, uploader LogoUploader, logger zerolog.Logger) *OrganisationHandler {
	return &OrganisationHandler{
		service:  service,
		sessions: sessions,
		uploader: uploader,
		logger:   logger.With().Str("component", "organisation_handler").Logger(),
	}
}

// RegisterRoutes registers the organisation routes on an authenticated group.
func (h *OrganisationHandler) RegisterRoutes(r *gin.RouterGroup) {
	orgs := r.Group("/organisations")
	{
		orgs.GET("", h.Index)
		orgs.GET("/create", h.CreateForm)
		orgs.POST("", h.Store)
		orgs.GET("/:slug", h.Show)
		orgs.GET("/:slug/edit", h.EditForm)
		orgs.PUT("/:slug", h.Update)
		orgs.PATCH("/:slug", h.Update)
		orgs.DELETE("/:slug", h.Destroy)
		orgs.POST("/:slug/logo", h.UploadLogo)
	}
}

// renderError maps service errors onto HTTP responses.
func renderError(c *gin.Context, err error) {
	var verr *organisations.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Les données fournies ne sont pas valides.", "errors": verr.Fields})
	case errors.Is(err, auth.ErrUnauthenticated):
		c.Redirect(http.StatusSeeOther, "/login")
	case errors.Is(err, auth.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": "Cette action n'est pas autorisée."})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Organisation introuvable."})
	case errors.Is(err, models.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Une organisation avec ce nom existe déjà."})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Une erreur interne est survenue."})
	}
}

// redirectWithSuccess flashes a success message and redirects browser
// requests; API clients get a JSON body instead.
func redirectWithSuccess(c *gin.Context, sessions *auth.SessionStore, logger zerolog.Logger, location, message string, status int, payload any) {
	if strings.Contains(c.GetHeader("Accept"), "text/html") {
		if err := sessions.AddFlash(c.Request, c.Writer, auth.FlashSuccess, message); err != nil {
			logger.Warn().Err(err).Msg("failed to flash message")
		}
		c.Redirect(http.StatusSeeOther, location)
		return
	}
	c.JSON(status, payload)
}

// attachFlash moves pending flash messages into the response payload so
// redirect targets can surface them once.
func attachFlash(c *gin.Context, sessions *auth.SessionStore, payload gin.H) {
	flashes, err := sessions.PopFlashes(c.Request, c.Writer, auth.FlashSuccess)
	if err != nil || len(flashes) == 0 {
		return
	}
	payload["flash"] = gin.H{auth.FlashSuccess: flashes[len(flashes)-1]}
}

// Index returns one page of the actor's organisations.
// GET /organisations?page=N
func (h *OrganisationHandler) Index(c *gin.Context) {
	user := middleware.RequireUser(c)
	if user == nil {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	result, err := h.service.List(c.Request.Context(), user, page)
	if err != nil {
		renderError(c, err)
		return
	}

	payload := gin.H{"organisations": result}
	attachFlash(c, h.sessions, payload)
	c.JSON(http.StatusOK, payload)
}

// CreateForm authorizes and returns the creation form props.
// GET /organisations/create
func (h *OrganisationHandler) CreateForm(c *gin.Context) {
	user := middleware.RequireUser(c)
	if user == nil {
		return
	}

	// The policy check is the whole point of this endpoint; the form itself
	// is rendered client side.
	if err := h.service.AuthorizeCreate(c.Request.Context(), user); err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{})
}

// Store creates an organisation.
// POST /organisations
func (h *OrganisationHandler) Store(c *gin.Context) {
	user := middleware.RequireUser(c)
	if user == nil {
		return
	}

	var in organisations.Input
	if err := c.ShouldBind(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	org, err := h.service.Create(c.Request.Context(), user, in)
	if err != nil {
		renderError(c, err)
		return
	}

	redirectWithSuccess(c, h.sessions, h.logger, "/organisations", "Organisation créée avec succès.",
		http.StatusCreated, gin.H{"organisation": org})
}

// Show returns an organisation with its owner, establishments, and members.
// GET /organisations/:slug
func (h *OrganisationHandler) Show(c *gin.Context) {
	user := middleware.RequireUser(c)
	if user == nil {
		return
	}

	detail, err := h.service.Show(c.Request.Context(), user, c.Param("slug"))
	if err != nil {
		renderError(c, err)
		return
	}

	payload := gin.H{"organisation": detail}
	attachFlash(c, h.sessions, payload)
	c.JSON(http.StatusOK, payload)
}

// EditForm returns the organisation for the edit form.
// GET /organisations/:slug/edit
func (h *OrganisationHandler) EditForm(c *gin.Context) {
	user := middleware.RequireUser(c)
	if user == nil {
		return
	}

	org, err := h.service.Edit(c.Request.Context(), user, c.Param("slug"))
	if err != nil {
		renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"organisation": org})
}

// Update mutates an organisation.
// PUT /organisations/:slug, PATCH /organisations/:slug
func (h *OrganisationHandler) Update(c *gin.Context) {
	user := middleware.RequireUser(c)
	if user == nil {
		return
	}

	var in organisations.Input
	if err := c.ShouldBind(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	org, err := h.service.Update(c.Request.Context(), user, c.Param("slug"), in)
	if err != nil {
		renderError(c, err)
		return
	}

	redirectWithSuccess(c, h.sessions, h.logger, "/organisations/"+org.Slug, "Organisation mise à jour avec succès.",
		http.StatusOK, gin.H{"organisation": org})
}

// Destroy soft-deletes an organisation.
// DELETE /organisations/:slug
func (h *OrganisationHandler) Destroy(c *gin.Context) {
	user := middleware.RequireUser(c)
	if user == nil {
		return
	}

	if err := h.service.Destroy(c.Request.Context(), user, c.Param("slug")); err != nil {
		renderError(c, err)
		return
	}

	redirectWithSuccess(c, h.sessions, h.logger, "/organisations", "Organisation supprimée avec succès.",
		http.StatusOK, gin.H{"deleted": true})
}

// UploadLogo stores a logo image and attaches its URL to the organisation.
// POST /organisations/:slug/logo
func (h *OrganisationHandler) UploadLogo(c *gin.Context) {
	user := middleware.RequireUser(c)
	if user == nil {
		return
	}
	if h.uploader == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "object storage is not configured"})
		return
	}

	// Authorize before touching the bucket; a denied actor must not leave
	// an object behind.
	current, err := h.service.AuthorizeUpdate(c.Request.Context(), user, c.Param("slug"))
	if err != nil {
		renderError(c, err)
		return
	}

	file, header, err := c.Request.FormFile("logo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "logo file is required"})
		return
	}
	defer file.Close()

	if header.Size > maxLogoSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "logo must be smaller than 2 MiB"})
		return
	}

	url, err := h.uploader.UploadLogo(c.Request.Context(), io.LimitReader(file, maxLogoSize), header.Header.Get("Content-Type"))
	if err != nil {
		h.logger.Error().Err(err).Msg("logo upload failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": "logo upload failed"})
		return
	}

	org, err := h.service.SetLogo(c.Request.Context(), user, c.Param("slug"), url)
	if err != nil {
		if delErr := h.uploader.DeleteObject(c.Request.Context(), url); delErr != nil {
			h.logger.Warn().Err(delErr).Str("url", url).Msg("failed to clean up uploaded logo")
		}
		renderError(c, err)
		return
	}

	if current.Logo != nil && *current.Logo != url {
		if err := h.uploader.DeleteObject(c.Request.Context(), *current.Logo); err != nil {
			h.logger.Warn().Err(err).Str("url", *current.Logo).Msg("failed to delete replaced logo")
		}
	}

	c.JSON(http.StatusOK, gin.H{"organisation": org})
}
