// Package responder turns a user message into a reply. The chat service
// depends only on the Responder interface, so the keyword simulator and the
// LLM-backed implementation are interchangeable.
package responder

import (
	"context"

	"nova-api/internal/history"
)

// Prompt is the input of a single reply generation.
type Prompt struct {
	SessionID string
	UserID    string
	Message   string
	// History holds the turns recorded for the session before this message.
	History []history.Turn
}

type Reply struct {
	Content string
	Model   string
}

type Responder interface {
	Reply(ctx context.Context, p Prompt) (Reply, error)
}

// Func adapts a plain function to the Responder interface.
type Func func(ctx context.Context, p Prompt) (Reply, error)

func (f Func) Reply(ctx context.Context, p Prompt) (Reply, error) {
	return f(ctx, p)
}
