// Package service implements the guide, activity, discovery and place operations.
package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/tourify/guide-api/internal/adapter/images"
	"github.com/tourify/guide-api/internal/adapter/llm"
	"github.com/tourify/guide-api/internal/config"
	"github.com/tourify/guide-api/internal/domain"
	"github.com/tourify/guide-api/internal/logger"
	"github.com/tourify/guide-api/policy"
)

// GuideStore persists anonymous guides and their days.
type GuideStore interface {
	CreatePending(ctx context.Context, guide *domain.Guide) error
	SaveDays(ctx context.Context, guideID string, days []domain.Day) error
	MarkCompleted(ctx context.Context, guideID string) error
	MarkError(ctx context.Context, guideID, message string) error
	Get(ctx context.Context, guideID string) (*domain.Guide, error)
	CountRecent(ctx context.Context, fingerprint string, since time.Time) (int, error)
	ListStalePending(ctx context.Context, before time.Time, limit int) ([]domain.Guide, error)
}

// DeviceStore records anonymous devices.
type DeviceStore interface {
	Record(ctx context.Context, fingerprint string) (*domain.DeviceRecord, error)
}

// CallLedger records LLM calls.
type CallLedger interface {
	Record(ctx context.Context, call *domain.LLMCall) error
}

// AdmissionPolicy decides whether a device may start another generation.
type AdmissionPolicy interface {
	Evaluate(ctx context.Context, input policy.Input) (policy.Decision, error)
}

// Geocoder resolves addresses and place ids.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (domain.Place, error)
	PlaceDetails(ctx context.Context, placeID string) (domain.PlaceDetails, error)
}

// Dependencies are the collaborators of a Service. Geocoder, CityImages and
// DiscoverImages may be nil when the provider is not configured.
type Dependencies struct {
	LLM            llm.LLMClient
	Guides         GuideStore
	Devices        DeviceStore
	Calls          CallLedger
	Policy         AdmissionPolicy
	Geocoder       Geocoder
	CityImages     images.Searcher
	DiscoverImages images.Searcher
}

type Service struct {
	llmClient      llm.LLMClient
	guides         GuideStore
	devices        DeviceStore
	calls          CallLedger
	policy         AdmissionPolicy
	geocoder       Geocoder
	cityImages     images.Searcher
	discoverImages images.Searcher
	config         *config.Config
	log            *logger.Logger
	tracer         trace.Tracer
	now            func() time.Time
}

func New(deps Dependencies, cfg *config.Config, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		llmClient:      deps.LLM,
		guides:         deps.Guides,
		devices:        deps.Devices,
		calls:          deps.Calls,
		policy:         deps.Policy,
		geocoder:       deps.Geocoder,
		cityImages:     deps.CityImages,
		discoverImages: deps.DiscoverImages,
		config:         cfg,
		log:            log,
		tracer:         otel.Tracer("github.com/tourify/guide-api/internal/service"),
		now:            time.Now,
	}
}

// GetGuide reads back a persisted anonymous guide with its days.
func (s *Service) GetGuide(ctx context.Context, guideID string) (*domain.Guide, error) {
	if guideID == "" {
		return nil, domain.NewClientError("guideId", "guideId is required")
	}
	return s.guides.Get(ctx, guideID)
}
