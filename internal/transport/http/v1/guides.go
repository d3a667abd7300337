package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/tourify/guide-api/internal/domain"
	"github.com/tourify/guide-api/internal/service"
	"github.com/tourify/guide-api/internal/stream"
	"github.com/tourify/guide-api/internal/transport/http/sink"
)

func sseOpener(c echo.Context) service.OpenSink {
	return func() (stream.Sink, error) {
		return sink.NewSSE(c)
	}
}

func bindGuideRequest(c echo.Context) (domain.GuideRequest, error) {
	var req domain.GuideRequest
	if err := c.Bind(&req); err != nil {
		return req, domain.NewClientError("body", "invalid request body")
	}
	return req, nil
}

// CreateGuide generates an itinerary for an authenticated user.
// POST /createGuide
func (h *Handler) CreateGuide(c echo.Context) error {
	req, err := bindGuideRequest(c)
	if err != nil {
		return h.respondError(c, err)
	}
	ctx := c.Request().Context()

	if streamed, _ := strconv.ParseBool(c.QueryParam("stream")); streamed || req.Stream {
		if err := h.service.StreamGuide(ctx, req, sseOpener(c)); err != nil {
			return h.streamFailed(c, err)
		}
		return nil
	}

	out, err := h.service.CreateGuide(ctx, req)
	if err != nil {
		return h.respondError(c, err)
	}
	resp := map[string]any{
		"success": true,
		"data": map[string]string{
			"role":    out.Role,
			"content": out.Content,
		},
	}
	if out.Itinerary != nil {
		resp["itinerary"] = out.Itinerary
	}
	return c.JSON(http.StatusOK, resp)
}

// GenerateAnonymousGuide streams an itinerary for an anonymous device and persists it.
// POST /anonymous/generateGuide
func (h *Handler) GenerateAnonymousGuide(c echo.Context) error {
	req, err := bindGuideRequest(c)
	if err != nil {
		return h.respondError(c, err)
	}
	fp := fingerprintOf(c)

	outcome, err := h.service.GenerateAnonymousGuide(c.Request().Context(), fp, req, sseOpener(c))
	if err != nil {
		return h.streamFailed(c, err)
	}
	h.log.Info("anonymous guide finished", "guide_id", outcome.GuideID, "status", outcome.Status)
	return nil
}

// GetAnonymousGuide returns a persisted guide to the device that created it.
// GET /anonymous/guides/:guideId
func (h *Handler) GetAnonymousGuide(c echo.Context) error {
	guide, err := h.service.GetGuide(c.Request().Context(), c.Param("guideId"))
	if err != nil {
		return h.respondError(c, err)
	}
	if guide.DeviceFingerprint != fingerprintOf(c) {
		return h.respondError(c, domain.ErrNotFound)
	}
	guide.DeviceFingerprint = ""
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"guide":   guide,
	})
}
