package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tourify/guide-api/internal/domain"
)

type errorBody struct {
	Success bool                    `json:"success"`
	Error   string                  `json:"error"`
	Field   string                  `json:"field,omitempty"`
	Blocked bool                    `json:"blocked,omitempty"`
	Metrics *domain.ActivityMetrics `json:"metrics,omitempty"`
	Details string                  `json:"details,omitempty"`
}

// respondError maps a service error onto a status code and error body.
func (h *Handler) respondError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	body := errorBody{Error: "internal server error"}

	var (
		clientErr    *domain.ClientError
		rejectedErr  *domain.ActivityRejectedError
		upstreamErr  *domain.UpstreamError
		reconcileErr *domain.ReconciliationError
	)
	switch {
	case errors.As(err, &clientErr):
		status = http.StatusBadRequest
		body.Error, body.Field = clientErr.Message, clientErr.Field
	case errors.Is(err, domain.ErrAdmissionDenied):
		status = http.StatusTooManyRequests
		body.Error, body.Blocked = domain.ErrAdmissionDenied.Error(), true
	case errors.As(err, &rejectedErr):
		status = http.StatusBadRequest
		body.Error, body.Metrics = rejectedErr.Error(), &rejectedErr.Metrics
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrNoImage):
		status = http.StatusNotFound
		body.Error = err.Error()
	case errors.As(err, &upstreamErr):
		status = http.StatusBadGateway
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		body.Error = "upstream service failed"
	case errors.As(err, &reconcileErr):
		body.Error = "could not process the generated content"
	}

	if status >= http.StatusInternalServerError {
		h.log.Error("request failed", "path", c.Path(), "status", status, "error", err)
		if !h.config.Production() {
			body.Details = err.Error()
		}
	}
	return c.JSON(status, body)
}

// streamFailed handles an error returned after the response may have been committed.
func (h *Handler) streamFailed(c echo.Context, err error) error {
	if c.Response().Committed {
		h.log.Warn("stream ended with error", "path", c.Path(), "error", err)
		return nil
	}
	return h.respondError(c, err)
}
