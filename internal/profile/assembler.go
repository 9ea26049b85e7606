// Package profile composes long-term memory, conversation history, and
// journal signals into the bounded text block injected into every model
// prompt. The profile is derived on demand and never stored.
package profile

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/companionlabs/companion/internal/model"
	"github.com/companionlabs/companion/internal/store"
)

const (
	factLimit      = 50
	factsPerGroup  = 5
	turnLimit      = 100
	moodMinTurns   = 10
	journalLimit   = 20
	milestoneWarm  = 50
	milestoneEarly = 20
)

// EmptyProfile is returned when nothing at all is known about the user.
// The profile is interpolated into a larger prompt, so it is never blank.
const EmptyProfile = "I'm still getting to know you. Every conversation helps me understand you better!"

// MemoryUsedThreshold is the profile length above which a reply is
// reported as memory-backed.
const MemoryUsedThreshold = 100

// Assembler builds user profiles from the persistence layer.
type Assembler struct {
	store store.Store
	log   zerolog.Logger
}

func NewAssembler(s store.Store, log zerolog.Logger) *Assembler {
	return &Assembler{store: s, log: log.With().Str("component", "profile").Logger()}
}

// Build composes the profile text for one user. Each section is optional;
// a read failure drops that section rather than failing the whole profile.
func (a *Assembler) Build(ctx context.Context, userID string) string {
	var parts []string

	if s := a.factSection(ctx, userID); s != "" {
		parts = append(parts, s)
	}
	if s := a.moodSection(ctx, userID); s != "" {
		parts = append(parts, s)
	}
	if s := a.journalSection(ctx, userID); s != "" {
		parts = append(parts, s)
	}
	if s := a.milestoneSection(ctx, userID); s != "" {
		parts = append(parts, s)
	}

	if len(parts) == 0 {
		return EmptyProfile
	}
	return strings.Join(parts, "\n")
}

// MemoryUsed reports whether a profile carries enough material to claim
// the reply was informed by long-term memory.
func MemoryUsed(profile string) bool {
	return len(profile) > MemoryUsedThreshold
}

func (a *Assembler) factSection(ctx context.Context, userID string) string {
	facts, err := a.store.Facts().List(ctx, userID, factLimit)
	if err != nil {
		a.log.Warn().Err(err).Str("user_id", userID).Msg("fact read failed, section dropped")
		return ""
	}
	if len(facts) == 0 {
		return ""
	}

	groups := make(map[model.FactType][]*model.Fact, len(model.FactTypes))
	for _, f := range facts {
		groups[f.Type] = append(groups[f.Type], f)
	}

	var b strings.Builder
	b.WriteString("🎯 WHAT I KNOW ABOUT YOU:")
	for _, t := range model.FactTypes {
		group := groups[t]
		if len(group) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n\n%s:", strings.ToUpper(string(t)))
		for i, f := range group {
			if i == factsPerGroup {
				break
			}
			fmt.Fprintf(&b, "\n- %s (importance: %d/10)", f.Content, f.Importance)
		}
	}
	return b.String()
}

func (a *Assembler) moodSection(ctx context.Context, userID string) string {
	turns, err := a.store.Turns().List(ctx, model.ListTurnsRequest{UserID: userID, Limit: turnLimit})
	if err != nil {
		a.log.Warn().Err(err).Str("user_id", userID).Msg("turn read failed, section dropped")
		return ""
	}
	if len(turns) <= moodMinTurns {
		return ""
	}

	counts := make(map[model.Mood]int)
	var order []model.Mood
	for _, t := range turns {
		if t.Mood == nil {
			continue
		}
		if counts[*t.Mood] == 0 {
			order = append(order, *t.Mood)
		}
		counts[*t.Mood]++
	}
	if len(order) == 0 {
		return ""
	}

	common := order[0]
	for _, m := range order[1:] {
		if counts[m] > counts[common] {
			common = m
		}
	}
	return fmt.Sprintf("\n💫 RECENT MOOD PATTERNS: You've often been feeling %s", common)
}

func (a *Assembler) journalSection(ctx context.Context, userID string) string {
	entries, err := a.store.Journals().List(ctx, userID, journalLimit)
	if err != nil {
		a.log.Warn().Err(err).Str("user_id", userID).Msg("journal read failed, section dropped")
		return ""
	}

	seen := make(map[model.Mood]bool)
	var moods []string
	for _, e := range entries {
		if e.Mood == nil || seen[*e.Mood] {
			continue
		}
		seen[*e.Mood] = true
		moods = append(moods, string(*e.Mood))
	}
	if len(moods) == 0 {
		return ""
	}
	return fmt.Sprintf("\n📔 JOURNAL INSIGHTS: Your recent writings show %s emotions", strings.Join(moods, ", "))
}

func (a *Assembler) milestoneSection(ctx context.Context, userID string) string {
	count, err := a.store.Turns().Count(ctx, userID)
	if err != nil {
		a.log.Warn().Err(err).Str("user_id", userID).Msg("turn count failed, section dropped")
		return ""
	}
	switch {
	case count > milestoneWarm:
		return fmt.Sprintf("\n🤝 OUR JOURNEY: We've had %d conversations together! I've really enjoyed getting to know you.", count)
	case count > milestoneEarly:
		return fmt.Sprintf("\n🤝 OUR JOURNEY: We've built a nice connection over %d conversations!", count)
	default:
		return ""
	}
}
