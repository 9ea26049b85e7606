package storetest

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/companionlabs/companion/internal/model"
	"github.com/companionlabs/companion/internal/store"
)

// Run exercises a compliance suite against a store.Store implementation.
// Implementations should provide a clean, isolated store from makeStore.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	s := makeStore(t)
	ctx := context.Background()

	userID := newUser(t, s, "suite")
	otherID := newUser(t, s, "other")

	t.Run("turn order preserved", func(t *testing.T) {
		for _, content := range []string{"first", "second", "third"} {
			if _, err := s.Turns().Create(ctx, &model.Turn{UserID: userID, Role: model.RoleUser, Content: content}); err != nil {
				t.Fatalf("CreateTurn: %v", err)
			}
		}
		lst, err := s.Turns().List(ctx, model.ListTurnsRequest{UserID: userID, Ascending: true})
		if err != nil {
			t.Fatalf("ListTurns: %v", err)
		}
		if len(lst) != 3 {
			t.Fatalf("ListTurns: n=%d", len(lst))
		}
		for i, want := range []string{"first", "second", "third"} {
			if lst[i].Content != want {
				t.Fatalf("turn %d: got %q want %q", i, lst[i].Content, want)
			}
		}
		for i := 1; i < len(lst); i++ {
			if lst[i].CreationTime.Before(lst[i-1].CreationTime) {
				t.Fatalf("timestamps not non-decreasing at %d", i)
			}
		}
	})

	t.Run("turn count and clear", func(t *testing.T) {
		n, err := s.Turns().Count(ctx, userID)
		if err != nil || n != 3 {
			t.Fatalf("Count: n=%d err=%v", n, err)
		}
		if err := s.Turns().DeleteAll(ctx, userID); err != nil {
			t.Fatalf("DeleteAll: %v", err)
		}
		if n, _ := s.Turns().Count(ctx, userID); n != 0 {
			t.Fatalf("Count after clear: %d", n)
		}
	})

	t.Run("fact upsert idempotent on duplicate content", func(t *testing.T) {
		cand := model.Fact{Type: model.FactPreference, Content: "loves hiking on weekends", Importance: 4}
		ins, err := s.Facts().UpsertBatch(ctx, userID, []model.Fact{cand})
		if err != nil || ins != 1 {
			t.Fatalf("first upsert: ins=%d err=%v", ins, err)
		}
		cand.Importance = 7
		ins, err = s.Facts().UpsertBatch(ctx, userID, []model.Fact{cand})
		if err != nil || ins != 0 {
			t.Fatalf("second upsert: ins=%d err=%v", ins, err)
		}
		lst, err := s.Facts().List(ctx, userID, 0)
		if err != nil || len(lst) != 1 {
			t.Fatalf("List: n=%d err=%v", len(lst), err)
		}
		if lst[0].Importance != 7 {
			t.Fatalf("importance not reinforced to max: %d", lst[0].Importance)
		}
	})

	t.Run("fact importance clamped", func(t *testing.T) {
		f, err := s.Facts().Create(ctx, &model.Fact{UserID: userID, Type: model.FactGoal, Content: "run a marathon", Importance: 42})
		if err != nil {
			t.Fatalf("CreateFact: %v", err)
		}
		if f.Importance != store.ImportanceMax {
			t.Fatalf("importance not clamped: %d", f.Importance)
		}
	})

	t.Run("fact content truncated on rune boundary", func(t *testing.T) {
		exact := strings.Repeat("a", store.FactContentMax-1) + "é"
		f, err := s.Facts().Create(ctx, &model.Fact{UserID: userID, Type: model.FactAchievement, Content: exact, Importance: 2})
		if err != nil {
			t.Fatalf("CreateFact: %v", err)
		}
		if f.Content != exact {
			t.Fatalf("content at the cap was cut: %d runes", utf8.RuneCountInString(f.Content))
		}

		over := strings.Repeat("é", store.FactContentMax+10)
		f, err = s.Facts().Create(ctx, &model.Fact{UserID: userID, Type: model.FactAchievement, Content: over, Importance: 2})
		if err != nil {
			t.Fatalf("CreateFact: %v", err)
		}
		if !utf8.ValidString(f.Content) {
			t.Fatalf("truncated content is not valid UTF-8")
		}
		if n := utf8.RuneCountInString(f.Content); n != store.FactContentMax {
			t.Fatalf("truncated to %d runes, want %d", n, store.FactContentMax)
		}
	})

	t.Run("fact list ordering", func(t *testing.T) {
		lst, err := s.Facts().List(ctx, userID, 0)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		for i := 1; i < len(lst); i++ {
			if lst[i].Importance > lst[i-1].Importance {
				t.Fatalf("facts not ordered by importance desc")
			}
		}
	})

	t.Run("cross-user fact delete is not found", func(t *testing.T) {
		f, err := s.Facts().Create(ctx, &model.Fact{UserID: userID, Type: model.FactPersonal, Content: "grew up in Lahore", Importance: 5})
		if err != nil {
			t.Fatalf("CreateFact: %v", err)
		}
		if err := s.Facts().Delete(ctx, otherID, f.FactID); !errors.Is(err, model.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		// Row must be untouched.
		lst, _ := s.Facts().List(ctx, userID, 0)
		found := false
		for _, got := range lst {
			if got.FactID == f.FactID {
				found = true
			}
		}
		if !found {
			t.Fatalf("fact mutated by cross-user delete")
		}
		if err := s.Facts().Delete(ctx, userID, f.FactID); err != nil {
			t.Fatalf("owner delete: %v", err)
		}
	})

	t.Run("journal lifecycle and owner scoping", func(t *testing.T) {
		mood := model.MoodHappy
		e, err := s.Journals().Create(ctx, &model.JournalEntry{UserID: userID, Title: "day one", Content: "wrote some Go", Mood: &mood})
		if err != nil {
			t.Fatalf("CreateJournal: %v", err)
		}
		if err := s.Journals().Delete(ctx, otherID, e.EntryID); !errors.Is(err, model.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		lst, err := s.Journals().List(ctx, userID, 10)
		if err != nil || len(lst) != 1 {
			t.Fatalf("ListJournals: n=%d err=%v", len(lst), err)
		}
		if err := s.Journals().Delete(ctx, userID, e.EntryID); err != nil {
			t.Fatalf("DeleteJournal: %v", err)
		}
	})

	t.Run("reminder lifecycle", func(t *testing.T) {
		r, err := s.Reminders().Create(ctx, &model.Reminder{UserID: userID, Title: "dentist", Date: "2026-09-01", Time: "09:30"})
		if err != nil {
			t.Fatalf("CreateReminder: %v", err)
		}
		if !r.Active || r.Repeat != "once" {
			t.Fatalf("defaults not applied: %+v", r)
		}
		lst, err := s.Reminders().ListActive(ctx, userID)
		if err != nil || len(lst) != 1 {
			t.Fatalf("ListActive: n=%d err=%v", len(lst), err)
		}
		if err := s.Reminders().Delete(ctx, otherID, r.ReminderID); !errors.Is(err, model.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if err := s.Reminders().Delete(ctx, userID, r.ReminderID); err != nil {
			t.Fatalf("DeleteReminder: %v", err)
		}
	})

	t.Run("weekly summary round trip", func(t *testing.T) {
		w, err := s.Summaries().Create(ctx, &model.WeeklySummary{
			UserID:        userID,
			Summary:       "a calm week of steady progress",
			KeyTopics:     []string{"work", "hiking"},
			EmotionalTone: "content",
			DateRange:     "2026-08-23_to_2026-08-30",
		})
		if err != nil {
			t.Fatalf("CreateSummary: %v", err)
		}
		got, err := s.Summaries().Latest(ctx, userID)
		if err != nil {
			t.Fatalf("Latest: %v", err)
		}
		if got.SummaryID != w.SummaryID || len(got.KeyTopics) != 2 {
			t.Fatalf("Latest mismatch: %+v", got)
		}
		if _, err := s.Summaries().Latest(ctx, otherID); !errors.Is(err, model.ErrNotFound) {
			t.Fatalf("expected ErrNotFound for empty user, got %v", err)
		}
	})

	t.Run("list turns trailing window", func(t *testing.T) {
		if _, err := s.Turns().Create(ctx, &model.Turn{UserID: userID, Role: model.RoleUser, Content: "recent"}); err != nil {
			t.Fatalf("CreateTurn: %v", err)
		}
		after := store.SinceWindow(time.Now().UTC(), 7*24*time.Hour)
		lst, err := s.Turns().List(ctx, model.ListTurnsRequest{UserID: userID, After: after, Ascending: true})
		if err != nil || len(lst) == 0 {
			t.Fatalf("window list: n=%d err=%v", len(lst), err)
		}
	})

	t.Run("user delete cascades", func(t *testing.T) {
		victim := newUser(t, s, "victim")
		if _, err := s.Turns().Create(ctx, &model.Turn{UserID: victim, Role: model.RoleUser, Content: "hello"}); err != nil {
			t.Fatalf("CreateTurn: %v", err)
		}
		if _, err := s.Facts().Create(ctx, &model.Fact{UserID: victim, Type: model.FactPersonal, Content: "test fact content", Importance: 3}); err != nil {
			t.Fatalf("CreateFact: %v", err)
		}
		if err := s.Users().Delete(ctx, victim); err != nil {
			t.Fatalf("DeleteUser: %v", err)
		}
		if _, err := s.Users().Get(ctx, victim); !errors.Is(err, model.ErrNotFound) {
			t.Fatalf("user still readable: %v", err)
		}
		if n, _ := s.Turns().Count(ctx, victim); n != 0 {
			t.Fatalf("turns not cascaded: %d", n)
		}
		if lst, _ := s.Facts().List(ctx, victim, 0); len(lst) != 0 {
			t.Fatalf("facts not cascaded: %d", len(lst))
		}
	})
}

func newUser(t *testing.T, s store.Store, tag string) string {
	t.Helper()
	suffix := uuid.New().String()[:8]
	u, err := s.Users().Create(context.Background(), &model.User{
		Username: tag + "-" + suffix,
		Email:    tag + "-" + suffix + "@example.test",
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u.UserID
}
