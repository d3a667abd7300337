package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrAdmissionDenied is returned when a device exceeded its daily quota.
	ErrAdmissionDenied = errors.New("device blocked")
	// ErrNotFound is returned by stores and lookups when nothing matches.
	ErrNotFound = errors.New("not found")
	// ErrOutsideCity is returned when an activity does not belong to the requested city.
	ErrOutsideCity = errors.New("activity does not belong to the specified city")
	// ErrAlreadyExists is returned by stores when an insert-only write hits an existing document.
	ErrAlreadyExists = errors.New("already exists")
	// ErrNoImage is returned by image search when no result matched.
	ErrNoImage = errors.New("no image found")
)

// ClientError is a missing or malformed request field.
type ClientError struct {
	Field   string
	Message string
}

// NewClientError creates a new ClientError.
func NewClientError(field, message string) *ClientError {
	return &ClientError{Field: field, Message: message}
}

func (e *ClientError) Error() string {
	return e.Message
}

// UpstreamError wraps a failure of the LLM, maps, or image provider.
type UpstreamError struct {
	Provider string
	Err      error
}

// NewUpstreamError creates a new UpstreamError.
func NewUpstreamError(provider string, err error) *UpstreamError {
	return &UpstreamError{Provider: provider, Err: err}
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// ReconciliationError means a completed LLM response did not parse into an itinerary.
type ReconciliationError struct {
	Reason string
	Err    error
}

func (e *ReconciliationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("reconcile itinerary: %s: %v", e.Reason, e.Err)
	}
	return "reconcile itinerary: " + e.Reason
}

func (e *ReconciliationError) Unwrap() error {
	return e.Err
}

// ErrNotConfigured is returned when an optional provider has no credentials.
var ErrNotConfigured = errors.New("provider not configured")

// ActivityRejectedError reports that the city pre-check answered false.
type ActivityRejectedError struct {
	Metrics ActivityMetrics
}

func (e *ActivityRejectedError) Error() string {
	return ErrOutsideCity.Error()
}

func (e *ActivityRejectedError) Is(target error) bool {
	return target == ErrOutsideCity
}
