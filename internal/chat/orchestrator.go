// Package chat implements the dialogue turn orchestrator: the top-level
// use case that turns one inbound message into a persisted exchange and
// a model-generated reply.
package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/companionlabs/companion/internal/health"
	"github.com/companionlabs/companion/internal/llm"
	"github.com/companionlabs/companion/internal/memory"
	"github.com/companionlabs/companion/internal/model"
	"github.com/companionlabs/companion/internal/mood"
	"github.com/companionlabs/companion/internal/profile"
	"github.com/companionlabs/companion/internal/store"
	"github.com/companionlabs/companion/internal/summary"
)

const (
	historyLimit   = 30
	replyMaxTokens = 1024
	replyTemp      = 0.8
	safeSpaceTemp  = 0.6
)

// mediaPlaceholder stands in for content when the user sent only media.
const mediaPlaceholder = "What do you think about this?"

// TurnRequest is one inbound message from a user.
type TurnRequest struct {
	UserID           string
	Message          string
	MediaDescription string
	MediaKind        model.MediaKind
	Avatar           Avatar
}

// TurnResult is what the orchestrator hands back to the transport layer.
type TurnResult struct {
	Reply      string     `json:"response"`
	Segments   []string   `json:"segments"`
	Mood       model.Mood `json:"mood"`
	Distress   bool       `json:"safe_space_mode"`
	MemoryUsed bool       `json:"memory_used"`
}

// Orchestrator wires the memory pipeline around a single model invocation.
type Orchestrator struct {
	store      store.Store
	completer  llm.Completer
	extractor  *memory.Extractor
	profiles   *profile.Assembler
	summarizer *summary.Summarizer
	policy     summary.Policy
	segmenter  *Segmenter
	modelID    string
	log        zerolog.Logger
}

func NewOrchestrator(
	s store.Store,
	c llm.Completer,
	ext *memory.Extractor,
	prof *profile.Assembler,
	sum *summary.Summarizer,
	pol summary.Policy,
	seg *Segmenter,
	modelID string,
	log zerolog.Logger,
) *Orchestrator {
	return &Orchestrator{
		store:      s,
		completer:  c,
		extractor:  ext,
		profiles:   prof,
		summarizer: sum,
		policy:     pol,
		segmenter:  seg,
		modelID:    modelID,
		log:        log.With().Str("component", "chat").Logger(),
	}
}

// HandleTurn runs one dialogue turn end to end. The user turn is committed
// before the model is invoked, so a provider failure leaves the inbound
// message readable in history with no assistant turn for the exchange.
func (o *Orchestrator) HandleTurn(ctx context.Context, req TurnRequest) (*TurnResult, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" && req.MediaDescription == "" {
		return nil, fmt.Errorf("%w: message or media required", model.ErrValidation)
	}

	// Fail fast when the store is unreachable instead of burning a model call.
	if p, ok := o.store.(health.HealthPinger); ok {
		if err := p.HealthPing(ctx); err != nil {
			return nil, fmt.Errorf("store unavailable: %w", err)
		}
	}

	content := message
	if content == "" {
		content = mediaPlaceholder
	}
	detected := mood.Classify(content)
	distress := mood.IsDistress(content, detected)

	userTurn := &model.Turn{
		UserID:  req.UserID,
		Role:    model.RoleUser,
		Content: content,
		Mood:    &detected,
	}
	if req.MediaDescription != "" {
		kind := req.MediaKind
		if kind == "" {
			kind = model.MediaImage
		}
		desc := req.MediaDescription
		userTurn.MediaKind = &kind
		userTurn.MediaDescription = &desc
	}
	if _, err := o.store.Turns().Create(ctx, userTurn); err != nil {
		return nil, fmt.Errorf("persist user turn: %w", err)
	}

	// Questions about the earliest exchanges are answered from history
	// directly; the model never sees them.
	if message != "" && asksFirstConversation(message) {
		reply, err := o.firstConversationReply(ctx, req.UserID)
		if err != nil {
			return nil, fmt.Errorf("recall reply: %w", err)
		}
		if _, err := o.store.Turns().Create(ctx, &model.Turn{
			UserID:  req.UserID,
			Role:    model.RoleAssistant,
			Content: reply,
		}); err != nil {
			return nil, fmt.Errorf("persist assistant turn: %w", err)
		}
		return &TurnResult{
			Reply:      reply,
			Segments:   []string{reply},
			Mood:       detected,
			MemoryUsed: true,
		}, nil
	}

	if _, err := o.extractor.Extract(ctx, req.UserID, message, detected); err != nil {
		o.log.Warn().Err(err).Str("user_id", req.UserID).Msg("memory extraction failed")
	}

	profileText := o.profiles.Build(ctx, req.UserID)

	messages, err := o.buildHistory(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	temp := replyTemp
	if distress {
		temp = safeSpaceTemp
	}
	reply, err := o.completer.Complete(ctx, llm.Request{
		Model:       o.modelID,
		System:      SystemPrompt(profileText, detected, distress, req.Avatar),
		Messages:    messages,
		Temperature: temp,
		MaxTokens:   replyMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("reply completion: %w", err)
	}

	if _, err := o.store.Turns().Create(ctx, &model.Turn{
		UserID:  req.UserID,
		Role:    model.RoleAssistant,
		Content: reply,
	}); err != nil {
		return nil, fmt.Errorf("persist assistant turn: %w", err)
	}

	if o.policy.ShouldSummarize() {
		if _, err := o.summarizer.Summarize(ctx, req.UserID); err != nil {
			o.log.Warn().Err(err).Str("user_id", req.UserID).Msg("summary update failed")
		}
	}

	return &TurnResult{
		Reply:      reply,
		Segments:   o.segmenter.Segment(reply),
		Mood:       detected,
		Distress:   distress,
		MemoryUsed: profile.MemoryUsed(profileText),
	}, nil
}

// buildHistory loads the most recent turns oldest-first, rewriting
// media-bearing user turns so the model sees the stored analysis inline.
func (o *Orchestrator) buildHistory(ctx context.Context, userID string) ([]llm.Message, error) {
	turns, err := o.store.Turns().List(ctx, model.ListTurnsRequest{
		UserID: userID,
		Limit:  historyLimit,
	})
	if err != nil {
		return nil, err
	}

	// List returns newest first; the model wants chronological order.
	messages := make([]llm.Message, 0, len(turns))
	for i := len(turns) - 1; i >= 0; i-- {
		t := turns[i]
		if strings.TrimSpace(t.Content) == "" {
			continue
		}
		content := t.Content
		if t.Role == model.RoleUser && t.MediaKind != nil && t.MediaDescription != nil {
			content = FormatMediaTurn(t)
		}
		messages = append(messages, llm.Message{Role: string(t.Role), Content: content})
	}
	return messages, nil
}
