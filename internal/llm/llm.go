// Package llm provides the chat/completion capability provider. Provider
// output is free-form text; every caller must parse defensively and fail
// closed to a documented default.
package llm

import (
	"context"
	"errors"
)

// ErrDisabled is returned by the disabled completer when no provider is
// configured. Callers treat it like any other provider failure and fall
// back to their defaults.
var ErrDisabled = errors.New("completion provider not configured")

// Completer produces a text completion for a prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Close() error
}

// Disabled is a Completer that always fails. Used when no API key is
// configured so that discovery, rerank, and summary degrade to their
// fallbacks instead of crashing.
type Disabled struct{}

// Complete always returns ErrDisabled.
func (Disabled) Complete(ctx context.Context, prompt string) (string, error) {
	return "", ErrDisabled
}

// Close is a no-op.
func (Disabled) Close() error { return nil }
