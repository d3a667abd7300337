package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tourify/guide-api/internal/domain"
)

type activityResponse struct {
	Success bool                      `json:"success"`
	Data    *domain.GeneratedActivity `json:"data"`
}

// CreateActivity generates a single activity.
// POST /createActivity
func (h *Handler) CreateActivity(c echo.Context) error {
	var req domain.CreateActivityRequest
	if err := c.Bind(&req); err != nil {
		return h.respondError(c, domain.NewClientError("body", "invalid request body"))
	}
	out, err := h.service.CreateActivity(c.Request().Context(), req)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, activityResponse{Success: true, Data: out})
}

// EditActivity regenerates an activity under a new title.
// POST /editActivity
func (h *Handler) EditActivity(c echo.Context) error {
	var req domain.EditActivityRequest
	if err := c.Bind(&req); err != nil {
		return h.respondError(c, domain.NewClientError("body", "invalid request body"))
	}
	out, err := h.service.EditActivity(c.Request().Context(), req)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, activityResponse{Success: true, Data: out})
}

// RenewActivity generates a new activity that is not among the existing ones.
// POST /renewActivity
func (h *Handler) RenewActivity(c echo.Context) error {
	var req domain.RenewActivityRequest
	if err := c.Bind(&req); err != nil {
		return h.respondError(c, domain.NewClientError("body", "invalid request body"))
	}
	out, err := h.service.RenewActivity(c.Request().Context(), req)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, activityResponse{Success: true, Data: out})
}
