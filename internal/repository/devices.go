package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tourify/guide-api/internal/domain"
)

// DeviceRepository tracks first-seen/last-seen/request counts per fingerprint.
type DeviceRepository struct {
	store DocumentStore
	now   func() time.Time
}

// NewDeviceRepository creates a device repository.
func NewDeviceRepository(store DocumentStore) *DeviceRepository {
	return &DeviceRepository{store: store, now: time.Now}
}

// Record registers a visit: creates the device on first sight, otherwise bumps
// lastSeen and totalRequests. Read-then-write relies on the store's own
// per-document consistency.
func (r *DeviceRepository) Record(ctx context.Context, fingerprint string) (*domain.DeviceRecord, error) {
	path := Doc(domain.CollectionDevices, fingerprint)
	now := r.now().UnixMilli()

	doc, err := r.store.Get(ctx, path)
	if errors.Is(err, domain.ErrNotFound) {
		rec := &domain.DeviceRecord{Fingerprint: fingerprint, FirstSeen: now, LastSeen: now, TotalRequests: 1}
		fields, err := domain.ToFields(rec)
		if err != nil {
			return nil, err
		}
		if err := r.store.Put(ctx, path, fields); err != nil {
			return nil, fmt.Errorf("create device: %w", err)
		}
		return rec, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get device: %w", err)
	}

	var rec domain.DeviceRecord
	if err := fromFields(doc.Fields, &rec); err != nil {
		return nil, fmt.Errorf("decode device: %w", err)
	}
	rec.Fingerprint = fingerprint
	rec.LastSeen = now
	rec.TotalRequests++
	err = r.store.Update(ctx, path, map[string]any{
		"lastSeen":      rec.LastSeen,
		"totalRequests": rec.TotalRequests,
	})
	if err != nil {
		return nil, fmt.Errorf("update device: %w", err)
	}
	return &rec, nil
}

// Get returns a device record or domain.ErrNotFound.
func (r *DeviceRepository) Get(ctx context.Context, fingerprint string) (*domain.DeviceRecord, error) {
	doc, err := r.store.Get(ctx, Doc(domain.CollectionDevices, fingerprint))
	if err != nil {
		return nil, err
	}
	var rec domain.DeviceRecord
	if err := fromFields(doc.Fields, &rec); err != nil {
		return nil, fmt.Errorf("decode device: %w", err)
	}
	return &rec, nil
}
