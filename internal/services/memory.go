package services

import (
	"context"

	"github.com/companionlabs/companion/internal/model"
	"github.com/companionlabs/companion/internal/store"
)

const defaultFactLimit = 50

// MemoryService exposes read and delete access to stored facts.
// Writes go through the extractor only.
type MemoryService struct {
	store store.Store
}

func NewMemoryService(s store.Store) *MemoryService { return &MemoryService{store: s} }

// ListFacts returns the user's facts ordered by importance then recency.
func (s *MemoryService) ListFacts(ctx context.Context, userID string, limit int) ([]*model.Fact, error) {
	if limit <= 0 {
		limit = defaultFactLimit
	}
	return s.store.Facts().List(ctx, userID, limit)
}

// DeleteFact removes one fact; a fact owned by another user is not found.
func (s *MemoryService) DeleteFact(ctx context.Context, userID, factID string) error {
	return s.store.Facts().Delete(ctx, userID, factID)
}
