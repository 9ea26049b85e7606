package services

import (
	"context"

	"github.com/companionlabs/companion/internal/model"
	"github.com/companionlabs/companion/internal/store"
)

const defaultHistoryLimit = 50

// HistoryService exposes the conversation log to the transport layer.
type HistoryService struct {
	store store.Store
}

func NewHistoryService(s store.Store) *HistoryService { return &HistoryService{store: s} }

// ListTurns returns the most recent turns in chronological order.
func (s *HistoryService) ListTurns(ctx context.Context, userID string, limit int) ([]*model.Turn, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	turns, err := s.store.Turns().List(ctx, model.ListTurnsRequest{UserID: userID, Limit: limit})
	if err != nil {
		return nil, err
	}
	// newest-first from the store; callers want reading order
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// ClearHistory bulk-deletes one user's conversation log.
func (s *HistoryService) ClearHistory(ctx context.Context, userID string) error {
	return s.store.Turns().DeleteAll(ctx, userID)
}
