// Package llm wraps the chat-completion provider behind a small interface so
// services depend on a contract rather than a vendor SDK.
package llm

import "context"

// Message is one ordered chat message sent to the model.
type Message struct {
	Role    string
	Content string
}

// Request carries everything for a single completion call.
type Request struct {
	// Model is the provider-side model identifier.
	Model string
	// System is prepended as the system prompt when non-empty.
	System      string
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// Completer issues one chat-completion request and returns the reply text.
// Calls are attempted once; retry policy belongs to callers.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}
