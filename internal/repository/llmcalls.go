package repository

import (
	"context"
	"fmt"

	"github.com/tourify/guide-api/internal/domain"
)

// LLMCallRepository stores the LLM call ledger.
type LLMCallRepository struct {
	store DocumentStore
}

// NewLLMCallRepository creates a ledger repository.
func NewLLMCallRepository(store DocumentStore) *LLMCallRepository {
	return &LLMCallRepository{store: store}
}

// Record writes one ledger entry keyed by request id.
func (r *LLMCallRepository) Record(ctx context.Context, call *domain.LLMCall) error {
	fields, err := domain.ToFields(call)
	if err != nil {
		return err
	}
	if err := r.store.Put(ctx, Doc(domain.CollectionLLMCalls, call.RequestID), fields); err != nil {
		return fmt.Errorf("record llm call: %w", err)
	}
	return nil
}

// ListByPurpose returns ledger entries for one purpose.
func (r *LLMCallRepository) ListByPurpose(ctx context.Context, purpose domain.LLMPurpose) ([]domain.LLMCall, error) {
	docs, err := r.store.Query(ctx, domain.CollectionLLMCalls, Where("purpose", OpEq, string(purpose)))
	if err != nil {
		return nil, err
	}
	calls := make([]domain.LLMCall, 0, len(docs))
	for _, d := range docs {
		var call domain.LLMCall
		if err := fromFields(d.Fields, &call); err != nil {
			return nil, err
		}
		calls = append(calls, call)
	}
	return calls, nil
}
