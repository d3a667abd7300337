package service

import (
	"context"
	"testing"
	"time"

	"github.com/tourify/guide-api/internal/adapter/llm"
	"github.com/tourify/guide-api/internal/domain"
)

func TestStaleGuideSweepMarksError(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, llm.NewMockClient())
	env.svc.config.StaleGuideAfter = time.Minute

	if err := env.guides.CreatePending(ctx, &domain.Guide{GuideID: "old", CreatedAt: time.Now().Add(-time.Hour).UnixMilli()}); err != nil {
		t.Fatalf("CreatePending: %v", err)
	}
	if err := env.guides.CreatePending(ctx, &domain.Guide{GuideID: "fresh"}); err != nil {
		t.Fatalf("CreatePending: %v", err)
	}

	if n := env.svc.sweepStaleGuides(ctx); n != 1 {
		t.Fatalf("expected 1 guide expired, got %d", n)
	}

	got, err := env.guides.Get(ctx, "old")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != domain.GuideStatusError {
		t.Fatalf("expected error status, got %s", got.Status)
	}
	if got.ErrorMessage != GuideErrStale {
		t.Fatalf("unexpected error message %q", got.ErrorMessage)
	}

	fresh, err := env.guides.Get(ctx, "fresh")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if fresh.Status != domain.GuideStatusPending {
		t.Fatalf("expected fresh guide to stay pending, got %s", fresh.Status)
	}
}

func TestStaleGuideSweepSkipsCompleted(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, llm.NewMockClient())
	env.svc.config.StaleGuideAfter = time.Minute

	if err := env.guides.CreatePending(ctx, &domain.Guide{GuideID: "done", CreatedAt: time.Now().Add(-time.Hour).UnixMilli()}); err != nil {
		t.Fatalf("CreatePending: %v", err)
	}
	if err := env.guides.MarkCompleted(ctx, "done"); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}

	if n := env.svc.sweepStaleGuides(ctx); n != 0 {
		t.Fatalf("expected nothing expired, got %d", n)
	}
}
