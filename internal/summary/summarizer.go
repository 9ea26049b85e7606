// Package summary rolls a trailing window of conversation turns into a
// compact weekly digest used for long-range recall.
package summary

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/companionlabs/companion/internal/llm"
	"github.com/companionlabs/companion/internal/model"
	"github.com/companionlabs/companion/internal/store"
)

const (
	window        = 7 * 24 * time.Hour
	minTurns      = 3
	maxTurns      = 20
	maxInputLen   = 2000
	maxSummaryLen = 1000
)

const summaryPrompt = `Create a brief summary of this week's conversations with the user. Focus on:

1. Main topics discussed
2. Emotional journey through the week
3. Any notable patterns or themes

Conversations:
%s

Return ONLY valid JSON with this exact structure:
{
    "summary": "Brief overall summary paragraph",
    "key_topics": ["topic1", "topic2", "topic3"],
    "emotional_tone": "overall emotional theme"
}

Keep it concise and factual.`

// Summarizer creates weekly digests from recent conversation turns.
type Summarizer struct {
	completer llm.Completer
	store     store.Store
	modelID   string
	now       func() time.Time
	log       zerolog.Logger
}

func NewSummarizer(c llm.Completer, s store.Store, modelID string, log zerolog.Logger) *Summarizer {
	return &Summarizer{
		completer: c,
		store:     s,
		modelID:   modelID,
		now:       time.Now,
		log:       log.With().Str("component", "summary").Logger(),
	}
}

type summaryReply struct {
	Summary       string   `json:"summary"`
	KeyTopics     []string `json:"key_topics"`
	EmotionalTone string   `json:"emotional_tone"`
}

// Summarize digests the user's trailing 7-day window into a new weekly
// summary row. It returns (nil, nil) when the window holds too few turns
// or the model reply cannot be parsed; only store and provider failures
// surface as errors. Callers treat the whole operation as best-effort.
func (s *Summarizer) Summarize(ctx context.Context, userID string) (*model.WeeklySummary, error) {
	now := s.now().UTC()
	since := now.Add(-window)

	turns, err := s.store.Turns().List(ctx, model.ListTurnsRequest{
		UserID:    userID,
		After:     &since,
		Ascending: true,
	})
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	if len(turns) < minTurns {
		return nil, nil
	}
	if len(turns) > maxTurns {
		turns = turns[len(turns)-maxTurns:]
	}

	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		lines = append(lines, fmt.Sprintf("%s: %s", t.Role, t.Content))
	}
	input := store.TruncateRunes(strings.Join(lines, "\n"), maxInputLen)

	raw, err := s.completer.Complete(ctx, llm.Request{
		Model:       s.modelID,
		Messages:    []llm.Message{{Role: "user", Content: fmt.Sprintf(summaryPrompt, input)}},
		Temperature: 0.4,
		MaxTokens:   512,
	})
	if err != nil {
		return nil, fmt.Errorf("summary completion: %w", err)
	}

	var reply summaryReply
	if err := llm.UnmarshalStructured(raw, &reply); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("summary reply unparseable, abandoned")
		return nil, nil
	}
	if reply.Summary == "" || len(reply.KeyTopics) == 0 || reply.EmotionalTone == "" {
		s.log.Warn().Str("user_id", userID).Msg("summary reply incomplete, abandoned")
		return nil, nil
	}
	reply.Summary = store.TruncateRunes(reply.Summary, maxSummaryLen)

	created, err := s.store.Summaries().Create(ctx, &model.WeeklySummary{
		UserID:        userID,
		Summary:       reply.Summary,
		KeyTopics:     reply.KeyTopics,
		EmotionalTone: reply.EmotionalTone,
		DateRange:     fmt.Sprintf("%s_to_%s", since.Format("2006-01-02"), now.Format("2006-01-02")),
	})
	if err != nil {
		return nil, fmt.Errorf("store summary: %w", err)
	}
	s.log.Info().Str("user_id", userID).Str("summary_id", created.SummaryID).Msg("weekly summary created")
	return created, nil
}
