package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tourify/guide-api/internal/domain"
)

// VerifyLocation geocodes an address, optionally against a city.
// POST /verify-location
func (h *Handler) VerifyLocation(c echo.Context) error {
	var req domain.VerifyLocationRequest
	if err := c.Bind(&req); err != nil {
		return h.respondError(c, domain.NewClientError("body", "invalid request body"))
	}
	out, err := h.service.VerifyLocation(c.Request().Context(), req)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// PlaceDetails returns the details of a place.
// GET /place-details/:placeId
func (h *Handler) PlaceDetails(c echo.Context) error {
	out, err := h.service.PlaceDetails(c.Request().Context(), c.Param("placeId"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"place":   out,
	})
}

// CityImage returns a photo of a city.
// GET /cityImage?city=
func (h *Handler) CityImage(c echo.Context) error {
	url, err := h.service.CityImage(c.Request().Context(), c.QueryParam("city"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success":  true,
		"imageUrl": url,
	})
}
