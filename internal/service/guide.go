package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/tourify/guide-api/internal/domain"
	"github.com/tourify/guide-api/internal/itinerary"
	"github.com/tourify/guide-api/internal/prompt"
	"github.com/tourify/guide-api/internal/stream"
)

// Messages persisted on a guide that ended in error.
const (
	GuideErrClientGone     = "client disconnected"
	GuideErrGeneration     = "generation failed"
	GuideErrReconciliation = "could not build itinerary"
	GuideErrPersistence    = "could not save itinerary"
)

// OpenSink commits the response to streaming and returns the client connection.
type OpenSink func() (stream.Sink, error)

var guideCallOptions = callOptions{temperature: 0.7, maxTokens: 4096}

// GuideOutcome describes how an anonymous generation ended once the stream was opened.
type GuideOutcome struct {
	GuideID string
	Status  domain.GuideStatus
	Days    []domain.Day
	// Err is the cause of an error status; the client already received its frames.
	Err error
}

// GenerateAnonymousGuide runs the anonymous pipeline: validate, record the
// device, admit, persist a pending guide, relay the stream, reconcile and
// persist the days. An error is returned only before the sink was opened;
// after that the outcome carries the terminal status.
func (s *Service) GenerateAnonymousGuide(ctx context.Context, fingerprint string, req domain.GuideRequest, open OpenSink) (*GuideOutcome, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if strings.Contains(req.GuideID, "/") {
		return nil, domain.NewClientError("guideId", "guideId must not contain '/'")
	}

	s.RecordDevice(ctx, fingerprint)

	admission := s.Admit(ctx, fingerprint)
	if !admission.Allowed {
		s.log.Info("device blocked", "fingerprint", fingerprint, "recent", admission.RecentCount, "reason", admission.Reason)
		return nil, domain.ErrAdmissionDenied
	}

	guideID := strings.TrimSpace(req.GuideID)
	if guideID == "" {
		guideID = uuid.NewString()
	}
	req.GuideID = guideID

	ctx, span := s.tracer.Start(ctx, "guide.generate")
	span.SetAttributes(attribute.String("guide.id", guideID), attribute.String("guide.city", req.City))
	defer span.End()

	guide := &domain.Guide{
		GuideID:           guideID,
		DeviceFingerprint: fingerprint,
		City:              req.City,
		Request:           &req,
	}
	if err := s.guides.CreatePending(ctx, guide); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, domain.NewClientError("guideId", "guide already exists")
		}
		return nil, fmt.Errorf("create pending guide: %w", err)
	}

	sink, err := open()
	if err != nil {
		s.markError(ctx, guideID, GuideErrGeneration)
		return nil, fmt.Errorf("open stream: %w", err)
	}

	src, finish := s.openStream(ctx, s.newRequest(domain.LLMPurposeGuide, prompt.BuildGuide(req), guideCallOptions))
	res, relayErr := stream.Relay(ctx, src, sink, s.relayOptions())
	finish()

	// The client may be gone; persistence still completes.
	persistCtx := context.WithoutCancel(ctx)
	outcome := &GuideOutcome{GuideID: guideID}

	switch {
	case errors.Is(relayErr, stream.ErrClientGone):
		outcome.Status, outcome.Err = domain.GuideStatusError, relayErr
		s.markError(persistCtx, guideID, GuideErrClientGone)
	case relayErr != nil:
		outcome.Status, outcome.Err = domain.GuideStatusError, relayErr
		s.log.Warn("guide stream failed", "guide_id", guideID, "error", relayErr)
		s.markError(persistCtx, guideID, GuideErrGeneration)
	default:
		s.reconcile(persistCtx, guideID, res.Buffer, outcome)
	}

	if outcome.Err != nil {
		span.RecordError(outcome.Err)
		span.SetStatus(codes.Error, string(outcome.Status))
	}
	return outcome, nil
}

func (s *Service) reconcile(ctx context.Context, guideID, buffer string, outcome *GuideOutcome) {
	days, err := itinerary.Reconcile(buffer)
	if err != nil {
		s.log.Error("itinerary reconciliation failed", "guide_id", guideID, "error", err, "buffer", buffer)
		outcome.Status, outcome.Err = domain.GuideStatusError, err
		s.markError(ctx, guideID, GuideErrReconciliation)
		return
	}
	if err := s.guides.SaveDays(ctx, guideID, days); err != nil {
		s.log.Error("failed to save days", "guide_id", guideID, "error", err)
		outcome.Status, outcome.Err = domain.GuideStatusError, err
		s.markError(ctx, guideID, GuideErrPersistence)
		return
	}
	if err := s.guides.MarkCompleted(ctx, guideID); err != nil {
		s.log.Error("failed to mark guide completed", "guide_id", guideID, "error", err)
		outcome.Status, outcome.Err = domain.GuideStatusError, err
		return
	}
	outcome.Status, outcome.Days = domain.GuideStatusCompleted, days
	s.log.Info("guide completed", "guide_id", guideID, "days", len(days))
}

func (s *Service) markError(ctx context.Context, guideID, message string) {
	if err := s.guides.MarkError(ctx, guideID, message); err != nil {
		s.log.Error("failed to mark guide error", "guide_id", guideID, "error", err)
	}
}

func (s *Service) relayOptions() stream.Options {
	opts := stream.Options{MaxDuration: s.config.StreamMaxDuration}
	if s.config.Production() {
		opts.ErrorMessage = func(error) string { return GuideErrGeneration }
	}
	return opts
}

// GuideCompletion is the non-streaming result of CreateGuide.
type GuideCompletion struct {
	Role    string
	Content string
	// Itinerary is set when the content reconciled; clients fall back to Content.
	Itinerary []domain.Day
}

// CreateGuide generates an itinerary in one completion for an authenticated user.
func (s *Service) CreateGuide(ctx context.Context, req domain.GuideRequest) (*GuideCompletion, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	resp, err := s.complete(ctx, s.newRequest(domain.LLMPurposeGuide, prompt.BuildGuide(req), guideCallOptions))
	if err != nil {
		return nil, err
	}

	out := &GuideCompletion{Role: "assistant", Content: resp.Content()}
	if days, err := itinerary.Reconcile(out.Content); err != nil {
		s.log.Warn("guide content did not reconcile", "city", req.City, "error", err)
	} else {
		out.Itinerary = days
	}
	return out, nil
}

// StreamGuide relays an itinerary generation for an authenticated user. Nothing is persisted.
func (s *Service) StreamGuide(ctx context.Context, req domain.GuideRequest, open OpenSink) error {
	if err := req.Validate(); err != nil {
		return err
	}
	sink, err := open()
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}
	src, finish := s.openStream(ctx, s.newRequest(domain.LLMPurposeGuide, prompt.BuildGuide(req), guideCallOptions))
	_, relayErr := stream.Relay(ctx, src, sink, s.relayOptions())
	finish()
	if relayErr != nil && !errors.Is(relayErr, stream.ErrClientGone) {
		s.log.Warn("guide stream failed", "city", req.City, "error", relayErr)
	}
	return nil
}
