package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tourify/guide-api/internal/domain"
)

const daysCollection = domain.CollectionDays

// GuideRepository persists anonymous guides and their day subcollection.
type GuideRepository struct {
	store DocumentStore
	now   func() time.Time
}

// NewGuideRepository creates a guide repository on top of a document store.
func NewGuideRepository(store DocumentStore) *GuideRepository {
	return &GuideRepository{store: store, now: time.Now}
}

func guidePath(guideID string) DocPath {
	return Doc(domain.CollectionAnonymousGuides, guideID)
}

// DayPath addresses the day document (guideId, dateKey).
func DayPath(guideID, date string) DocPath {
	return guidePath(guideID).Child(daysCollection, date)
}

// CreatePending inserts the guide document with status pending. An existing
// guide id yields domain.ErrAlreadyExists and leaves the stored guide untouched.
func (r *GuideRepository) CreatePending(ctx context.Context, guide *domain.Guide) error {
	now := r.now().UnixMilli()
	guide.Status = domain.GuideStatusPending
	if guide.CreatedAt == 0 {
		guide.CreatedAt = now
	}
	guide.LastUpdated = now
	guide.Days = nil

	fields, err := domain.ToFields(guide)
	if err != nil {
		return fmt.Errorf("encode guide: %w", err)
	}
	if err := r.store.Create(ctx, guidePath(guide.GuideID), fields); err != nil {
		return fmt.Errorf("create pending guide: %w", err)
	}
	return nil
}

// SaveDays writes one document per day at (guideId, date). Every path is
// validated before the first write.
func (r *GuideRepository) SaveDays(ctx context.Context, guideID string, days []domain.Day) error {
	for _, day := range days {
		if err := DayPath(guideID, day.Date).Validate(); err != nil {
			return fmt.Errorf("save day %q: %w", day.Date, err)
		}
	}
	for _, day := range days {
		fields, err := domain.ToFields(day)
		if err != nil {
			return fmt.Errorf("encode day %s: %w", day.Date, err)
		}
		if err := r.store.Put(ctx, DayPath(guideID, day.Date), fields); err != nil {
			return fmt.Errorf("save day %s: %w", day.Date, err)
		}
	}
	return nil
}

// MarkCompleted sets the terminal completed status.
func (r *GuideRepository) MarkCompleted(ctx context.Context, guideID string) error {
	now := r.now().UnixMilli()
	err := r.store.Update(ctx, guidePath(guideID), map[string]any{
		"status":                domain.GuideStatusCompleted,
		"lastUpdated":           now,
		"generationCompletedAt": now,
	})
	if err != nil {
		return fmt.Errorf("mark guide completed: %w", err)
	}
	return nil
}

// MarkError sets the terminal error status with a client-safe message.
func (r *GuideRepository) MarkError(ctx context.Context, guideID, message string) error {
	err := r.store.Update(ctx, guidePath(guideID), map[string]any{
		"status":       domain.GuideStatusError,
		"errorMessage": message,
		"lastUpdated":  r.now().UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("mark guide error: %w", err)
	}
	return nil
}

// Get loads a guide and its days ordered by date.
func (r *GuideRepository) Get(ctx context.Context, guideID string) (*domain.Guide, error) {
	doc, err := r.store.Get(ctx, guidePath(guideID))
	if err != nil {
		return nil, err
	}
	var guide domain.Guide
	if err := fromFields(doc.Fields, &guide); err != nil {
		return nil, fmt.Errorf("decode guide: %w", err)
	}

	dayDocs, err := r.store.Query(ctx, guidePath(guideID).Sub(daysCollection))
	if err != nil {
		return nil, fmt.Errorf("load days: %w", err)
	}
	for _, d := range dayDocs {
		var day domain.Day
		if err := fromFields(d.Fields, &day); err != nil {
			return nil, fmt.Errorf("decode day %s: %w", d.Path.ID(), err)
		}
		guide.Days = append(guide.Days, day)
	}
	return &guide, nil
}

// CountRecent counts guides created by a device since the given instant.
func (r *GuideRepository) CountRecent(ctx context.Context, fingerprint string, since time.Time) (int, error) {
	docs, err := r.store.Query(ctx, domain.CollectionAnonymousGuides,
		Where("deviceFingerprint", OpEq, fingerprint),
		Where("createdAt", OpGte, since.UnixMilli()),
	)
	if err != nil {
		return 0, err
	}
	return len(docs), nil
}

func fromFields(fields map[string]any, v any) error {
	b, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// ListStalePending returns up to limit guides still pending that were created before the given instant.
func (r *GuideRepository) ListStalePending(ctx context.Context, before time.Time, limit int) ([]domain.Guide, error) {
	docs, err := r.store.Query(ctx, domain.CollectionAnonymousGuides,
		Where("status", OpEq, string(domain.GuideStatusPending)),
		Where("createdAt", OpLt, before.UnixMilli()),
	)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	guides := make([]domain.Guide, 0, len(docs))
	for _, d := range docs {
		var g domain.Guide
		if err := fromFields(d.Fields, &g); err != nil {
			return nil, fmt.Errorf("decode guide %s: %w", d.Path.ID(), err)
		}
		guides = append(guides, g)
	}
	return guides, nil
}
