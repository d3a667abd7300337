package v1

import (
	"github.com/labstack/echo/v4"

	"github.com/tourify/guide-api/internal/stream"
	"github.com/tourify/guide-api/internal/transport/http/sink"
)

func discoverLang(c echo.Context) string {
	if lang := c.Param("lang"); lang != "" {
		return lang
	}
	return c.QueryParam("lang")
}

// Discover streams image-enriched suggestions for a city over SSE.
// GET /discover/:city[/:lang]
func (h *Handler) Discover(c echo.Context) error {
	err := h.service.Discover(c.Request().Context(), c.Param("city"), discoverLang(c), sseOpener(c))
	if err != nil {
		return h.streamFailed(c, err)
	}
	return nil
}

// DiscoverWebSocket delivers the discovery stream as WebSocket text messages.
// GET /ws/discover/:city
func (h *Handler) DiscoverWebSocket(c echo.Context) error {
	open := func() (stream.Sink, error) {
		return sink.NewWebSocket(c)
	}
	err := h.service.Discover(c.Request().Context(), c.Param("city"), discoverLang(c), open)
	if err != nil {
		return h.streamFailed(c, err)
	}
	return nil
}
