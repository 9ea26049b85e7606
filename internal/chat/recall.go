package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/companionlabs/companion/internal/model"
)

// recallTriggers spot questions about how the relationship started. A match
// answers from stored history directly, without a model call.
var recallTriggers = []string{
	"first convo", "first message", "first conversation",
	"first ever", "when we first", "our first",
}

const recallReplyFormat = "Bro, from what I remember, %s We've been having some great chats since then! What specifically were you curious about from those early days?"

// asksFirstConversation reports whether the message asks about the earliest
// exchanges.
func asksFirstConversation(message string) bool {
	lower := strings.ToLower(message)
	for _, trig := range recallTriggers {
		if strings.Contains(lower, trig) {
			return true
		}
	}
	return false
}

// firstConversationReply builds a canned recall answer from the earliest
// turns. Raw early-message content stays out of the reply; only counts and a
// fixed opening line are shared.
func (o *Orchestrator) firstConversationReply(ctx context.Context, userID string) (string, error) {
	total, err := o.store.Turns().Count(ctx, userID)
	if err != nil {
		return "", err
	}
	earliest, err := o.store.Turns().List(ctx, model.ListTurnsRequest{
		UserID:    userID,
		Limit:     10,
		Ascending: true,
	})
	if err != nil {
		return "", err
	}

	parts := []string{fmt.Sprintf("We've had %d messages exchanged total.", total)}
	for _, t := range earliest {
		if t.Role == model.RoleUser {
			parts = append(parts, "Our first conversation started with you saying hello and we began getting to know each other.")
			break
		}
	}
	return fmt.Sprintf(recallReplyFormat, strings.Join(parts, " ")), nil
}
