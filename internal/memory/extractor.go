// Package memory extracts durable personal facts from user messages and
// maintains the per-user fact store.
package memory

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/companionlabs/companion/internal/llm"
	"github.com/companionlabs/companion/internal/model"
	"github.com/companionlabs/companion/internal/store"
)

// minMessageLen is the cost-control short-circuit: messages shorter than this
// after trimming never reach the model.
const minMessageLen = 10

// minCandidateLen drops extraction candidates with trivially short content.
const minCandidateLen = 5

const extractionPrompt = `Analyze this user message and identify any important, personal, or recurring information that should be remembered long-term.

User Message: %s
Current Mood: %s

Look for:
- Personal preferences (likes/dislikes)
- Important relationships (family, friends, partners)
- Goals, dreams, or aspirations
- Fears, worries, or challenges
- Achievements or milestones
- Recurring topics or patterns
- Significant life events

Return ONLY valid JSON with this exact structure:
{
    "memories": [
        {
            "type": "personal|preference|relationship|goal|fear|achievement",
            "content": "Clear description of what to remember",
            "importance": 1-10
        }
    ]
}

If no significant memories are found, return:
{
    "memories": []
}

Only extract memories that are truly significant for building a long-term understanding.
Keep content concise but meaningful.`

// Extractor pulls typed facts out of a single message via one structured
// model call and persists them atomically.
type Extractor struct {
	completer llm.Completer
	facts     store.Facts
	modelID   string
	log       zerolog.Logger
}

// NewExtractor wires the extractor to a completion client and a fact store.
func NewExtractor(completer llm.Completer, facts store.Facts, modelID string, log zerolog.Logger) *Extractor {
	return &Extractor{completer: completer, facts: facts, modelID: modelID, log: log}
}

type extractionReply struct {
	Memories []struct {
		Type       string `json:"type"`
		Content    string `json:"content"`
		Importance *int   `json:"importance"`
	} `json:"memories"`
}

// Extract runs one best-effort extraction for the message. The returned count
// is the number of newly inserted facts; reinforcements of existing facts are
// not counted. An error means the persistence batch failed and was rolled
// back; parse failures are not errors, they yield zero candidates.
func (e *Extractor) Extract(ctx context.Context, userID, message string, mood model.Mood) (int, error) {
	trimmed := strings.TrimSpace(message)
	if utf8.RuneCountInString(trimmed) < minMessageLen {
		return 0, nil
	}

	raw, err := e.completer.Complete(ctx, llm.Request{
		Model:       e.modelID,
		Messages:    []llm.Message{{Role: "user", Content: fmt.Sprintf(extractionPrompt, trimmed, mood)}},
		Temperature: 0.3,
		MaxTokens:   1024,
	})
	if err != nil {
		return 0, fmt.Errorf("extraction model call: %w", err)
	}

	candidates := parseCandidates(raw, e.log)
	if len(candidates) == 0 {
		return 0, nil
	}

	inserted, err := e.facts.UpsertBatch(ctx, userID, candidates)
	if err != nil {
		return 0, fmt.Errorf("persist extracted facts: %w", err)
	}
	if inserted > 0 {
		e.log.Debug().Str("user_id", userID).Int("inserted", inserted).Msg("extracted new memories")
	}
	return inserted, nil
}

// parseCandidates turns raw model output into validated fact candidates.
// Malformed output or out-of-set types degrade to fewer (or zero) candidates.
func parseCandidates(raw string, log zerolog.Logger) []model.Fact {
	var reply extractionReply
	if err := llm.UnmarshalStructured(raw, &reply); err != nil {
		log.Debug().Err(err).Msg("extraction reply was not valid JSON")
		return nil
	}

	var out []model.Fact
	for _, m := range reply.Memories {
		if m.Type == "" || m.Importance == nil {
			continue
		}
		content := strings.TrimSpace(m.Content)
		if utf8.RuneCountInString(content) < minCandidateLen {
			continue
		}
		typ := model.FactType(strings.ToLower(m.Type))
		if !model.ValidFactType(typ) {
			continue
		}
		out = append(out, model.Fact{
			Type:       typ,
			Content:    content,
			Importance: *m.Importance,
		})
	}
	return out
}
