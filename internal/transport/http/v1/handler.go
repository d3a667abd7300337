// Package v1 provides the HTTP handlers of the guide API.
package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tourify/guide-api/internal/adapter/auth"
	"github.com/tourify/guide-api/internal/config"
	"github.com/tourify/guide-api/internal/logger"
	"github.com/tourify/guide-api/internal/service"
)

// Handler handles HTTP requests.
type Handler struct {
	service  *service.Service
	verifier *auth.Verifier
	config   *config.Config
	log      *logger.Logger
}

// NewHandler creates a new handler.
func NewHandler(service *service.Service, verifier *auth.Verifier, cfg *config.Config, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{
		service:  service,
		verifier: verifier,
		config:   cfg,
		log:      log,
	}
}

// RegisterRoutes registers the API routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Health)

	// Authenticated
	authed := e.Group("", h.RequireBearer)
	authed.POST("/createGuide", h.CreateGuide)
	authed.POST("/createActivity", h.CreateActivity)
	authed.POST("/editActivity", h.EditActivity)
	authed.POST("/renewActivity", h.RenewActivity)
	authed.GET("/cityImage", h.CityImage)
	authed.POST("/verify-location", h.VerifyLocation)
	authed.GET("/place-details/:placeId", h.PlaceDetails)

	// Anonymous, identified by device fingerprint
	anon := e.Group("/anonymous", Fingerprint)
	anon.POST("/generateGuide", h.GenerateAnonymousGuide)
	anon.GET("/guides/:guideId", h.GetAnonymousGuide)

	// Public discovery
	e.GET("/discover/:city", h.Discover)
	e.GET("/discover/:city/:lang", h.Discover)
	e.GET("/ws/discover/:city", h.DiscoverWebSocket)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"message": "API running",
	})
}
