package services

import (
	"context"

	"github.com/companionlabs/companion/internal/model"
	"github.com/companionlabs/companion/internal/store"
)

const defaultJournalLimit = 20

// JournalService handles journal entry operations.
type JournalService struct {
	store store.Store
}

func NewJournalService(s store.Store) *JournalService { return &JournalService{store: s} }

func (s *JournalService) CreateEntry(ctx context.Context, e *model.JournalEntry) (*model.JournalEntry, error) {
	return s.store.Journals().Create(ctx, e)
}

func (s *JournalService) ListEntries(ctx context.Context, userID string, limit int) ([]*model.JournalEntry, error) {
	if limit <= 0 {
		limit = defaultJournalLimit
	}
	return s.store.Journals().List(ctx, userID, limit)
}

func (s *JournalService) DeleteEntry(ctx context.Context, userID, entryID string) error {
	return s.store.Journals().Delete(ctx, userID, entryID)
}
