package services

import (
	"context"

	"github.com/companionlabs/companion/internal/model"
	"github.com/companionlabs/companion/internal/store"
)

// ReminderService handles reminder operations.
type ReminderService struct {
	store store.Store
}

func NewReminderService(s store.Store) *ReminderService { return &ReminderService{store: s} }

func (s *ReminderService) CreateReminder(ctx context.Context, r *model.Reminder) (*model.Reminder, error) {
	return s.store.Reminders().Create(ctx, r)
}

// ListActive returns the user's active reminders ordered by due date and time.
func (s *ReminderService) ListActive(ctx context.Context, userID string) ([]*model.Reminder, error) {
	return s.store.Reminders().ListActive(ctx, userID)
}

func (s *ReminderService) DeleteReminder(ctx context.Context, userID, reminderID string) error {
	return s.store.Reminders().Delete(ctx, userID, reminderID)
}
