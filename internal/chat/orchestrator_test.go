package chat

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/companionlabs/companion/internal/llm"
	"github.com/companionlabs/companion/internal/memory"
	"github.com/companionlabs/companion/internal/model"
	"github.com/companionlabs/companion/internal/profile"
	"github.com/companionlabs/companion/internal/store"
	"github.com/companionlabs/companion/internal/store/sqlite"
	"github.com/companionlabs/companion/internal/summary"
)

type fakeCompleter struct {
	reply    string
	err      error
	requests []llm.Request
}

func (f *fakeCompleter) Complete(_ context.Context, req llm.Request) (string, error) {
	f.requests = append(f.requests, req)
	return f.reply, f.err
}

type fixture struct {
	store     store.Store
	chatLLM   *fakeCompleter
	orch      *Orchestrator
	summarize bool
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := sqlite.OpenMemory()
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	s := sqlite.NewWithDB(db)

	if _, err := s.Users().Create(context.Background(), &model.User{
		UserID:   "u1",
		Username: "tester",
		Email:    "tester@example.com",
	}); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	f := &fixture{
		store:   s,
		chatLLM: &fakeCompleter{reply: "Hey, that sounds wonderful!"},
	}
	extractLLM := &fakeCompleter{reply: `{"memories":[]}`}
	summaryLLM := &fakeCompleter{reply: `{"summary":"A calm week.","key_topics":["life"],"emotional_tone":"calm"}`}

	log := zerolog.Nop()
	f.orch = NewOrchestrator(
		s,
		f.chatLLM,
		memory.NewExtractor(extractLLM, s.Facts(), "extract-model", log),
		profile.NewAssembler(s, log),
		summary.NewSummarizer(summaryLLM, s, "summary-model", log),
		summary.PolicyFunc(func() bool { return f.summarize }),
		NewSegmenter(rand.New(rand.NewSource(7))),
		"chat-model",
		log,
	)
	return f
}

func (f *fixture) turns(t *testing.T) []*model.Turn {
	t.Helper()
	out, err := f.store.Turns().List(context.Background(), model.ListTurnsRequest{
		UserID: "u1", Ascending: true,
	})
	if err != nil {
		t.Fatalf("list turns: %v", err)
	}
	return out
}

func TestHandleTurnRejectsEmptyInput(t *testing.T) {
	f := newFixture(t)

	_, err := f.orch.HandleTurn(context.Background(), TurnRequest{UserID: "u1", Message: "   "})
	if !errors.Is(err, model.ErrValidation) {
		t.Fatalf("err = %v, want validation", err)
	}
	if got := f.turns(t); len(got) != 0 {
		t.Fatalf("rejected turn persisted: %d rows", len(got))
	}
}

func TestHandleTurnPersistsBothSides(t *testing.T) {
	f := newFixture(t)

	res, err := f.orch.HandleTurn(context.Background(), TurnRequest{
		UserID:  "u1",
		Message: "Feeling so happy and excited about my trip!",
		Avatar:  AvatarGirl,
	})
	if err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}
	if res.Reply != "Hey, that sounds wonderful!" {
		t.Fatalf("reply: %q", res.Reply)
	}
	if res.Mood != model.MoodHappy {
		t.Fatalf("mood: %s", res.Mood)
	}
	if res.Distress {
		t.Fatal("distress must be false for a happy message")
	}
	if len(res.Segments) == 0 {
		t.Fatal("segments must never be empty")
	}

	got := f.turns(t)
	if len(got) != 2 {
		t.Fatalf("turns: %d, want 2", len(got))
	}
	if got[0].Role != model.RoleUser || got[1].Role != model.RoleAssistant {
		t.Fatalf("roles: %s, %s", got[0].Role, got[1].Role)
	}
	if got[0].Mood == nil || *got[0].Mood != model.MoodHappy {
		t.Fatal("user turn missing detected mood")
	}

	req := f.chatLLM.requests[0]
	if req.Temperature != replyTemp || req.MaxTokens != replyMaxTokens {
		t.Fatalf("request params: %+v", req)
	}
	if !strings.Contains(req.System, "You are Homie") {
		t.Fatal("system prompt missing persona")
	}
	// the just-persisted user turn is part of the history sent to the model
	last := req.Messages[len(req.Messages)-1]
	if last.Role != "user" || !strings.Contains(last.Content, "my trip") {
		t.Fatalf("last history message: %+v", last)
	}
}

func TestHandleTurnMediaOnlyUsesPlaceholder(t *testing.T) {
	f := newFixture(t)

	res, err := f.orch.HandleTurn(context.Background(), TurnRequest{
		UserID:           "u1",
		MediaDescription: "a dog on a beach",
		MediaKind:        model.MediaImage,
	})
	if err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}
	if res.Mood != model.MoodNeutral {
		t.Fatalf("mood: %s", res.Mood)
	}

	got := f.turns(t)
	if got[0].Content != mediaPlaceholder {
		t.Fatalf("content: %q", got[0].Content)
	}
	if got[0].MediaKind == nil || *got[0].MediaKind != model.MediaImage {
		t.Fatal("media kind not stored")
	}
	if got[0].MediaDescription == nil || *got[0].MediaDescription != "a dog on a beach" {
		t.Fatal("media description not stored")
	}

	// The next turn's history must show the model the stored analysis.
	if _, err := f.orch.HandleTurn(context.Background(), TurnRequest{
		UserID:  "u1",
		Message: "So what did you think of it?",
	}); err != nil {
		t.Fatalf("second turn: %v", err)
	}
	history := f.chatLLM.requests[1].Messages
	var sawMedia bool
	for _, m := range history {
		if strings.Contains(m.Content, "[MEDIA CONTEXT: User shared a image. Analysis: a dog on a beach]") {
			sawMedia = true
		}
	}
	if !sawMedia {
		t.Fatal("media turn not rewritten in history")
	}
}

func TestHandleTurnDistressSwitchesMode(t *testing.T) {
	f := newFixture(t)

	res, err := f.orch.HandleTurn(context.Background(), TurnRequest{
		UserID:  "u1",
		Message: "I'm so worried, it's all too much and I can't cope",
	})
	if err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}
	if !res.Distress {
		t.Fatal("distress expected")
	}
	req := f.chatLLM.requests[0]
	if req.Temperature != safeSpaceTemp {
		t.Fatalf("temperature: %v", req.Temperature)
	}
	if !strings.Contains(req.System, "SAFE SPACE MODE") {
		t.Fatal("safe-space prompt expected")
	}
}

func TestHandleTurnModelFailureKeepsUserTurn(t *testing.T) {
	f := newFixture(t)
	f.chatLLM.err = errors.New("provider down")

	_, err := f.orch.HandleTurn(context.Background(), TurnRequest{
		UserID:  "u1",
		Message: "Hello there, how are you today?",
	})
	if err == nil {
		t.Fatal("expected provider error")
	}

	got := f.turns(t)
	if len(got) != 1 || got[0].Role != model.RoleUser {
		t.Fatalf("turns after failure: %+v", got)
	}
}

func TestHandleTurnFirstConversationRecall(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.orch.HandleTurn(ctx, TurnRequest{UserID: "u1", Message: "Hello there, nice to meet you!"}); err != nil {
		t.Fatalf("seed turn: %v", err)
	}
	callsBefore := len(f.chatLLM.requests)

	res, err := f.orch.HandleTurn(ctx, TurnRequest{UserID: "u1", Message: "What did we talk about in our first conversation?"})
	if err != nil {
		t.Fatalf("HandleTurn: %v", err)
	}
	if len(f.chatLLM.requests) != callsBefore {
		t.Fatalf("recall answer must not call the model")
	}
	if !strings.Contains(res.Reply, "from what I remember") {
		t.Fatalf("reply: %q", res.Reply)
	}
	if !strings.Contains(res.Reply, "3 messages exchanged") {
		t.Fatalf("reply missing exchange count: %q", res.Reply)
	}
	if !res.MemoryUsed || res.Distress {
		t.Fatalf("flags: %+v", res)
	}
	if len(res.Segments) != 1 || res.Segments[0] != res.Reply {
		t.Fatalf("recall reply must stay whole: %v", res.Segments)
	}

	got := f.turns(t)
	if len(got) != 4 || got[3].Role != model.RoleAssistant || got[3].Content != res.Reply {
		t.Fatalf("recall exchange not persisted: %d turns", len(got))
	}
}

func TestHandleTurnTriggersSummarizer(t *testing.T) {
	f := newFixture(t)
	f.summarize = true
	ctx := context.Background()

	if _, err := f.orch.HandleTurn(ctx, TurnRequest{UserID: "u1", Message: "Opening message of the week here."}); err != nil {
		t.Fatalf("turn 1: %v", err)
	}
	// only two turns exist, so the summarizer declines quietly
	if _, err := f.store.Summaries().Latest(ctx, "u1"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("premature summary: %v", err)
	}

	if _, err := f.orch.HandleTurn(ctx, TurnRequest{UserID: "u1", Message: "Second message, still chatting along."}); err != nil {
		t.Fatalf("turn 2: %v", err)
	}
	latest, err := f.store.Summaries().Latest(ctx, "u1")
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if latest.Summary != "A calm week." {
		t.Fatalf("summary: %q", latest.Summary)
	}
}
