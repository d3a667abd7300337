// Package helpers provides shared test fixtures.
package helpers

import (
	"testing"

	"github.com/tourify/guide-api/internal/repository"
)

// NewTestStore returns an in-memory SQLite document store closed on cleanup.
func NewTestStore(t *testing.T) *repository.SQLiteStore {
	t.Helper()

	s, err := repository.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create sqlite store: %v", err)
	}

	t.Cleanup(func() {
		_ = s.Close()
	})

	return s
}
