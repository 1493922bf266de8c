package gpt

import "context"

// Client sends a single prompt to a chat-completion provider.
// A non-nil error is always a *Failure.
type Client interface {
	Ask(ctx context.Context, prompt string) (string, error)
}
