package service

import (
	"context"
	"strings"
	"time"

	"github.com/tourify/guide-api/internal/domain"
	"github.com/tourify/guide-api/internal/itinerary"
	"github.com/tourify/guide-api/internal/prompt"
)

var (
	verifyCallOptions   = callOptions{temperature: 0.3, maxTokens: 10}
	activityCallOptions = callOptions{temperature: 0.5, maxTokens: 500, jsonObject: true}
	renewCallOptions    = callOptions{temperature: 0.6, maxTokens: 500, jsonObject: true}
)

// CreateActivity generates a single activity after checking that it belongs to the city.
func (s *Service) CreateActivity(ctx context.Context, req domain.CreateActivityRequest) (*domain.GeneratedActivity, error) {
	if strings.TrimSpace(req.ActivityName) == "" {
		return nil, domain.NewClientError("activityName", "activityName is required")
	}
	if strings.TrimSpace(req.CityName) == "" {
		return nil, domain.NewClientError("cityName", "cityName is required")
	}

	out, err := s.generateActivity(ctx, req.ActivityName, req.CityName, prompt.BuildCreateActivity(req))
	if err != nil {
		return nil, err
	}
	out.CreatedAt = s.now().UnixMilli()
	return out, nil
}

// EditActivity regenerates an activity under a new title.
func (s *Service) EditActivity(ctx context.Context, req domain.EditActivityRequest) (*domain.GeneratedActivity, error) {
	if strings.TrimSpace(req.NewTitle) == "" {
		return nil, domain.NewClientError("newTitle", "newTitle is required")
	}
	if strings.TrimSpace(req.CityName) == "" {
		return nil, domain.NewClientError("cityName", "cityName is required")
	}

	out, err := s.generateActivity(ctx, req.NewTitle, req.CityName, prompt.BuildEditActivity(req))
	if err != nil {
		return nil, err
	}
	out.UpdatedAt = s.now().UnixMilli()
	return out, nil
}

// generateActivity runs the city pre-check and then the generation call.
func (s *Service) generateActivity(ctx context.Context, activity, city string, p prompt.Prompt) (*domain.GeneratedActivity, error) {
	start := time.Now()

	check, err := s.complete(ctx, s.newRequest(domain.LLMPurposeActivityVerify,
		prompt.Prompt{User: prompt.BuildActivityCheck(activity, city)}, verifyCallOptions))
	if err != nil {
		return nil, err
	}
	verification := time.Since(start)
	if strings.ToLower(check.Content()) != "true" {
		return nil, &domain.ActivityRejectedError{Metrics: domain.ActivityMetrics{
			VerificationTime: verification.Seconds(),
			TotalTime:        verification.Seconds(),
		}}
	}

	genStart := time.Now()
	resp, err := s.complete(ctx, s.newRequest(domain.LLMPurposeActivity, p, activityCallOptions))
	if err != nil {
		return nil, err
	}
	generation := time.Since(genStart)

	parsed, err := itinerary.ParseActivity(resp.Content())
	if err != nil {
		s.log.Error("activity did not parse", "activity", activity, "city", city, "error", err, "content", resp.Content())
		return nil, err
	}

	return &domain.GeneratedActivity{
		Activity: parsed,
		City:     city,
		Metrics: domain.ActivityMetrics{
			VerificationTime: verification.Seconds(),
			GenerationTime:   generation.Seconds(),
			TotalTime:        time.Since(start).Seconds(),
		},
	}, nil
}

// RenewActivity generates a new activity of a category that is not among the existing ones.
func (s *Service) RenewActivity(ctx context.Context, req domain.RenewActivityRequest) (*domain.GeneratedActivity, error) {
	if strings.TrimSpace(req.Category) == "" {
		return nil, domain.NewClientError("category", "category is required")
	}
	if strings.TrimSpace(req.City) == "" {
		return nil, domain.NewClientError("city", "city is required")
	}
	if req.ExistingActivities == nil {
		return nil, domain.NewClientError("existingActivities", "existingActivities must be an array")
	}

	start := time.Now()
	resp, err := s.complete(ctx, s.newRequest(domain.LLMPurposeActivity, prompt.BuildRenewActivity(req), renewCallOptions))
	if err != nil {
		return nil, err
	}
	generation := time.Since(start)

	parsed, err := itinerary.ParseActivity(resp.Content())
	if err != nil {
		s.log.Error("renewed activity did not parse", "city", req.City, "error", err, "content", resp.Content())
		return nil, err
	}
	for _, existing := range req.ExistingActivities {
		if strings.EqualFold(strings.TrimSpace(existing), strings.TrimSpace(parsed.Name)) {
			return nil, &domain.ReconciliationError{Reason: "duplicate activity " + parsed.Name}
		}
	}

	return &domain.GeneratedActivity{
		Activity:  parsed,
		City:      req.City,
		CreatedAt: s.now().UnixMilli(),
		Metrics: domain.ActivityMetrics{
			GenerationTime: generation.Seconds(),
			TotalTime:      generation.Seconds(),
		},
	}, nil
}
