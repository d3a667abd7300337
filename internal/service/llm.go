package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tourify/guide-api/internal/adapter/llm"
	"github.com/tourify/guide-api/internal/domain"
	"github.com/tourify/guide-api/internal/prompt"
)

// callOptions are the sampling parameters of one LLM call.
type callOptions struct {
	temperature      float64
	maxTokens        int
	frequencyPenalty float64
	jsonObject       bool
}

func (s *Service) newRequest(purpose domain.LLMPurpose, p prompt.Prompt, opts callOptions) *llm.ChatCompletionRequest {
	req := &llm.ChatCompletionRequest{
		Model:   s.config.Model,
		Purpose: string(purpose),
	}
	if p.System != "" {
		req.Messages = append(req.Messages, llm.ChatMessage{Role: "system", Content: p.System})
	}
	req.Messages = append(req.Messages, llm.ChatMessage{Role: "user", Content: p.User})
	if opts.temperature > 0 {
		t := opts.temperature
		req.Temperature = &t
	}
	if opts.maxTokens > 0 {
		m := opts.maxTokens
		req.MaxTokens = &m
	}
	if opts.frequencyPenalty != 0 {
		f := opts.frequencyPenalty
		req.FrequencyPenalty = &f
	}
	if opts.jsonObject {
		req.ResponseFormat = &llm.ResponseFormat{Type: "json_object"}
	}
	return req
}

func newRequestID() string {
	return "llm_" + uuid.New().String()[:8]
}

// complete runs a non-streaming completion and records it in the call ledger.
func (s *Service) complete(ctx context.Context, req *llm.ChatCompletionRequest) (*llm.ChatCompletionResponse, error) {
	requestID := newRequestID()
	ctx, span := s.tracer.Start(ctx, "llm.complete", trace.WithAttributes(
		attribute.String("llm.request_id", requestID),
		attribute.String("llm.purpose", req.Purpose),
		attribute.String("llm.model", req.Model),
	))
	defer span.End()

	if s.config.LLMTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.LLMTimeout)
		defer cancel()
	}

	startTime := time.Now()
	resp, err := s.llmClient.CreateChatCompletion(ctx, req)

	call := &domain.LLMCall{
		RequestID: requestID,
		Purpose:   domain.LLMPurpose(req.Purpose),
		Model:     req.Model,
		LatencyMs: time.Since(startTime).Milliseconds(),
	}
	if err != nil {
		call.Error = err.Error()
		s.recordCall(ctx, call)
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")
		return nil, domain.NewUpstreamError("llm", err)
	}
	if resp.Model != "" {
		call.Model = resp.Model
	}
	setUsage(call, resp.Usage)
	s.recordCall(ctx, call)
	span.SetAttributes(attribute.Int("llm.total_tokens", call.TotalTokens))
	return resp, nil
}

// openStream starts a streaming completion. The returned finish func must be
// called once the stream was consumed; it records the call in the ledger.
func (s *Service) openStream(ctx context.Context, req *llm.ChatCompletionRequest) (*llm.Stream, func()) {
	requestID := newRequestID()
	ctx, span := s.tracer.Start(ctx, "llm.stream", trace.WithAttributes(
		attribute.String("llm.request_id", requestID),
		attribute.String("llm.purpose", req.Purpose),
		attribute.String("llm.model", req.Model),
	))

	startTime := time.Now()
	stream := llm.OpenStream(ctx, s.llmClient, req)

	finish := func() {
		defer span.End()
		stream.Close()

		call := &domain.LLMCall{
			RequestID: requestID,
			Purpose:   domain.LLMPurpose(req.Purpose),
			Model:     req.Model,
			Stream:    true,
			LatencyMs: time.Since(startTime).Milliseconds(),
		}
		if model := stream.Model(); model != "" {
			call.Model = model
		}
		setUsage(call, stream.Usage())
		if err := stream.Err(); err != nil {
			call.Error = err.Error()
			span.RecordError(err)
			span.SetStatus(codes.Error, "stream failed")
		}
		s.recordCall(ctx, call)
	}
	return stream, finish
}

func setUsage(call *domain.LLMCall, usage *llm.Usage) {
	if usage == nil {
		return
	}
	call.PromptTokens = usage.PromptTokens
	call.CompletionTokens = usage.CompletionTokens
	call.TotalTokens = usage.TotalTokens
}

// recordCall writes the ledger entry; failures are logged and never surface.
func (s *Service) recordCall(ctx context.Context, call *domain.LLMCall) {
	if s.calls == nil {
		return
	}
	call.CreatedAt = s.now().UnixMilli()
	if err := s.calls.Record(context.WithoutCancel(ctx), call); err != nil {
		s.log.Warn("failed to record llm call", "request_id", call.RequestID, "error", err)
	}
}
