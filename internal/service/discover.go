package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tourify/guide-api/internal/domain"
	"github.com/tourify/guide-api/internal/prompt"
	"github.com/tourify/guide-api/internal/stream"
)

// MaxSuggestions caps the suggestions forwarded per discovery stream.
const MaxSuggestions = 10

var discoverCallOptions = callOptions{temperature: 0.7, maxTokens: 2000, frequencyPenalty: 0.5}

// Discover streams single-line suggestions for a city. Each suggestion is
// enriched with an image before it is forwarded; suggestions without an image
// are skipped.
func (s *Service) Discover(ctx context.Context, city, lang string, open OpenSink) error {
	city = strings.TrimSpace(city)
	if city == "" {
		return domain.NewClientError("city", "city is required")
	}
	sink, err := open()
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}

	src, finish := s.openStream(ctx, s.newRequest(domain.LLMPurposeDiscover, prompt.BuildDiscover(city, lang), discoverCallOptions))
	opts := s.relayOptions()
	opts.MaxFrames = MaxSuggestions
	res, relayErr := stream.RelayLines(ctx, src, sink, opts, func(ctx context.Context, line string) (any, bool) {
		return s.suggestion(ctx, city, line)
	})
	finish()

	if relayErr != nil && !errors.Is(relayErr, stream.ErrClientGone) {
		s.log.Warn("discover stream failed", "city", city, "error", relayErr)
	}
	s.log.Debug("discover finished", "city", city, "frames", res.Frames, "disconnected", res.Disconnected)
	return nil
}

// suggestion parses one output line and attaches an image to it.
func (s *Service) suggestion(ctx context.Context, city, line string) (any, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "{") || !strings.HasSuffix(line, "}") {
		return nil, false
	}
	var sg domain.Suggestion
	if err := json.Unmarshal([]byte(line), &sg); err != nil {
		s.log.Debug("skipping malformed suggestion", "line", line, "error", err)
		return nil, false
	}
	if sg.Title == "" || sg.Description == "" {
		return nil, false
	}
	if s.discoverImages == nil {
		return nil, false
	}
	image, err := s.discoverImages.Search(ctx, sg.Title+" "+city)
	if err != nil || image == "" {
		s.log.Debug("skipping suggestion without image", "title", sg.Title, "error", err)
		return nil, false
	}
	sg.Image = image
	return sg, true
}
