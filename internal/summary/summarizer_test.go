package summary

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/companionlabs/companion/internal/llm"
	"github.com/companionlabs/companion/internal/model"
	"github.com/companionlabs/companion/internal/store"
	"github.com/companionlabs/companion/internal/store/sqlite"
)

type fakeCompleter struct {
	reply  string
	err    error
	calls  int
	lastIn llm.Request
}

func (f *fakeCompleter) Complete(_ context.Context, req llm.Request) (string, error) {
	f.calls++
	f.lastIn = req
	return f.reply, f.err
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	db, err := sqlite.OpenMemory()
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return sqlite.NewWithDB(db)
}

func seedConversation(t *testing.T, s store.Store, userID string, n int) {
	t.Helper()
	ctx := context.Background()
	if _, err := s.Users().Create(ctx, &model.User{
		UserID:   userID,
		Username: "u-" + userID,
		Email:    userID + "@example.com",
	}); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	for i := 0; i < n; i++ {
		role := model.RoleUser
		if i%2 == 1 {
			role = model.RoleAssistant
		}
		if _, err := s.Turns().Create(ctx, &model.Turn{
			UserID:  userID,
			Role:    role,
			Content: fmt.Sprintf("turn %d about the garden", i),
		}); err != nil {
			t.Fatalf("seed turn: %v", err)
		}
	}
}

const goodReply = `{"summary":"A week of garden talk.","key_topics":["garden","weather"],"emotional_tone":"calm"}`

func TestSummarizeCreatesWeeklySummary(t *testing.T) {
	s := newTestStore(t)
	seedConversation(t, s, "u1", 6)
	c := &fakeCompleter{reply: goodReply}
	sum := NewSummarizer(c, s, "test-model", zerolog.Nop())

	created, err := sum.Summarize(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if created == nil {
		t.Fatal("expected a summary row")
	}
	if created.Summary != "A week of garden talk." {
		t.Fatalf("summary: %q", created.Summary)
	}
	if len(created.KeyTopics) != 2 || created.KeyTopics[0] != "garden" {
		t.Fatalf("key topics: %v", created.KeyTopics)
	}
	if !strings.Contains(created.DateRange, "_to_") {
		t.Fatalf("date range: %q", created.DateRange)
	}

	latest, err := s.Summaries().Latest(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if latest.SummaryID != created.SummaryID {
		t.Fatal("stored row not readable as latest")
	}
}

func TestSummarizeSkipsSparseWindow(t *testing.T) {
	s := newTestStore(t)
	seedConversation(t, s, "u1", 2)
	c := &fakeCompleter{reply: goodReply}
	sum := NewSummarizer(c, s, "test-model", zerolog.Nop())

	created, err := sum.Summarize(context.Background(), "u1")
	if err != nil || created != nil {
		t.Fatalf("sparse window: created=%v err=%v", created, err)
	}
	if c.calls != 0 {
		t.Fatal("model must not be called for a sparse window")
	}
}

func TestSummarizePromptUsesLastTurns(t *testing.T) {
	s := newTestStore(t)
	seedConversation(t, s, "u1", 25)
	c := &fakeCompleter{reply: goodReply}
	sum := NewSummarizer(c, s, "test-model", zerolog.Nop())

	if _, err := sum.Summarize(context.Background(), "u1"); err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	prompt := c.lastIn.Messages[0].Content
	if strings.Contains(prompt, "turn 4 about") {
		t.Fatal("prompt includes turns older than the last 20")
	}
	if !strings.Contains(prompt, "turn 24 about the garden") {
		t.Fatal("prompt missing the newest turn")
	}
	if !strings.Contains(prompt, "user: turn 24") {
		t.Fatal("turns must be rendered as role: content lines")
	}
}

func TestSummarizeAbandonsBadReplies(t *testing.T) {
	for name, reply := range map[string]string{
		"prose":         "I had a lovely week with the user.",
		"missing_field": `{"summary":"ok","key_topics":["a"]}`,
		"empty_topics":  `{"summary":"ok","key_topics":[],"emotional_tone":"calm"}`,
	} {
		t.Run(name, func(t *testing.T) {
			s := newTestStore(t)
			seedConversation(t, s, "u1", 5)
			sum := NewSummarizer(&fakeCompleter{reply: reply}, s, "test-model", zerolog.Nop())

			created, err := sum.Summarize(context.Background(), "u1")
			if err != nil {
				t.Fatalf("bad reply must be abandoned, not an error: %v", err)
			}
			if created != nil {
				t.Fatalf("created from bad reply: %+v", created)
			}
		})
	}
}

func TestSummarizeTruncatesLongSummary(t *testing.T) {
	long := strings.Repeat("x", 1500)
	s := newTestStore(t)
	seedConversation(t, s, "u1", 5)
	c := &fakeCompleter{reply: fmt.Sprintf(`{"summary":%q,"key_topics":["a"],"emotional_tone":"calm"}`, long)}
	sum := NewSummarizer(c, s, "test-model", zerolog.Nop())

	created, err := sum.Summarize(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if len(created.Summary) != maxSummaryLen {
		t.Fatalf("summary length %d, want %d", len(created.Summary), maxSummaryLen)
	}
}

func TestSummarizeTruncatesOnRuneBoundary(t *testing.T) {
	long := strings.Repeat("é", 1500)
	s := newTestStore(t)
	seedConversation(t, s, "u1", 5)
	c := &fakeCompleter{reply: fmt.Sprintf(`{"summary":%q,"key_topics":["a"],"emotional_tone":"calm"}`, long)}
	sum := NewSummarizer(c, s, "test-model", zerolog.Nop())

	created, err := sum.Summarize(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if !utf8.ValidString(created.Summary) {
		t.Fatalf("summary is not valid UTF-8")
	}
	if n := utf8.RuneCountInString(created.Summary); n != maxSummaryLen {
		t.Fatalf("summary rune count %d, want %d", n, maxSummaryLen)
	}
}

func TestSummarizeProviderFailure(t *testing.T) {
	s := newTestStore(t)
	seedConversation(t, s, "u1", 5)
	sum := NewSummarizer(&fakeCompleter{err: errors.New("provider down")}, s, "test-model", zerolog.Nop())

	if _, err := sum.Summarize(context.Background(), "u1"); err == nil {
		t.Fatal("expected provider error to surface")
	}
}

func TestRandomPolicyDeterministic(t *testing.T) {
	always := &RandomPolicy{Probability: 1.0, Rand: rand.New(rand.NewSource(1))}
	if !always.ShouldSummarize() {
		t.Fatal("probability 1 must trigger")
	}
	never := &RandomPolicy{Probability: 0, Rand: rand.New(rand.NewSource(1))}
	if never.ShouldSummarize() {
		t.Fatal("probability 0 must not trigger")
	}
}

func TestRandomPolicyRate(t *testing.T) {
	p := NewRandomPolicy(rand.New(rand.NewSource(42)))
	hits := 0
	for i := 0; i < 10000; i++ {
		if p.ShouldSummarize() {
			hits++
		}
	}
	if hits < 800 || hits > 1200 {
		t.Fatalf("trigger rate %d/10000, want near 1000", hits)
	}
}

func TestSinceWindowHelper(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	got := store.SinceWindow(now, 7*24*time.Hour)
	if !got.Equal(time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("window start: %v", got)
	}
}
