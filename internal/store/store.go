package store

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/companionlabs/companion/internal/model"
)

// Store exposes persistence operations required by services.
// Implementations live under internal/store/<driver>/ (postgres, sqlite).
// Every operation is scoped by user id; an operation on a row that does not
// belong to the given user fails with model.ErrNotFound.
type Store interface {
	Users() Users
	Turns() Turns
	Facts() Facts
	Journals() Journals
	Reminders() Reminders
	Summaries() Summaries
}

type Users interface {
	Create(ctx context.Context, u *model.User) (*model.User, error)
	Get(ctx context.Context, userID string) (*model.User, error)
	// Delete removes the user and cascades deletion of all owned rows.
	Delete(ctx context.Context, userID string) error
}

type Turns interface {
	Create(ctx context.Context, t *model.Turn) (*model.Turn, error)
	List(ctx context.Context, req model.ListTurnsRequest) ([]*model.Turn, error)
	Count(ctx context.Context, userID string) (int, error)
	// DeleteAll clears one user's conversation history.
	DeleteAll(ctx context.Context, userID string) error
}

type Facts interface {
	Create(ctx context.Context, f *model.Fact) (*model.Fact, error)
	// List returns facts ordered by (importance desc, last-referenced desc).
	List(ctx context.Context, userID string, limit int) ([]*model.Fact, error)
	Delete(ctx context.Context, userID, factID string) error
	// UpsertBatch applies candidate facts atomically: a candidate whose
	// first-50-character content prefix is contained in an existing fact of the
	// same type is folded into it (importance raised to the max, last-referenced
	// refreshed); others are inserted. A mid-batch failure rolls back the batch.
	UpsertBatch(ctx context.Context, userID string, candidates []model.Fact) (inserted int, err error)
}

type Journals interface {
	Create(ctx context.Context, e *model.JournalEntry) (*model.JournalEntry, error)
	List(ctx context.Context, userID string, limit int) ([]*model.JournalEntry, error)
	Delete(ctx context.Context, userID, entryID string) error
}

type Reminders interface {
	Create(ctx context.Context, r *model.Reminder) (*model.Reminder, error)
	ListActive(ctx context.Context, userID string) ([]*model.Reminder, error)
	Delete(ctx context.Context, userID, reminderID string) error
}

type Summaries interface {
	Create(ctx context.Context, s *model.WeeklySummary) (*model.WeeklySummary, error)
	Latest(ctx context.Context, userID string) (*model.WeeklySummary, error)
}

// FactPrefixLen is the content prefix length used for near-duplicate detection.
const FactPrefixLen = 50

// FactContentMax caps stored fact content length.
const FactContentMax = 500

// On insert/reinforce the store clamps importance into this range.
const (
	ImportanceMin = 1
	ImportanceMax = 10
)

// ClampImportance bounds v into [ImportanceMin, ImportanceMax].
func ClampImportance(v int) int {
	if v < ImportanceMin {
		return ImportanceMin
	}
	if v > ImportanceMax {
		return ImportanceMax
	}
	return v
}

// TruncateFactContent caps fact content at FactContentMax characters.
func TruncateFactContent(s string) string {
	return TruncateRunes(s, FactContentMax)
}

// FactPrefix returns the dedup prefix for candidate content.
func FactPrefix(s string) string {
	return TruncateRunes(s, FactPrefixLen)
}

// TruncateRunes caps s at max characters, never splitting a multibyte rune.
func TruncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}

// SinceWindow is a convenience for trailing-window queries.
func SinceWindow(now time.Time, d time.Duration) *time.Time {
	t := now.Add(-d)
	return &t
}
