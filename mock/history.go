package mock

import (
	"context"

	"github.com/fwojciec/comparator"
)

// Compile-time interface verification.
var _ comparator.HistoryStore = (*HistoryStore)(nil)

// HistoryStore is a mock implementation of comparator.HistoryStore.
type HistoryStore struct {
	SaveFn   func(ctx context.Context, entry comparator.HistoryEntry) error
	RecentFn func(ctx context.Context, userID string, limit int) ([]comparator.HistoryEntry, error)
	GetFn    func(ctx context.Context, userID, id string) (*comparator.HistoryEntry, error)
}

func (s *HistoryStore) Save(ctx context.Context, entry comparator.HistoryEntry) error {
	return s.SaveFn(ctx, entry)
}

func (s *HistoryStore) Recent(ctx context.Context, userID string, limit int) ([]comparator.HistoryEntry, error) {
	return s.RecentFn(ctx, userID, limit)
}

func (s *HistoryStore) Get(ctx context.Context, userID, id string) (*comparator.HistoryEntry, error) {
	return s.GetFn(ctx, userID, id)
}
