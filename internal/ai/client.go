// Package ai provides the text-generation collaborator used for AI-enhanced
// spending insights.
package ai

import (
	"context"
	"errors"
)

// Client defines the interface for text-generation providers.
type Client interface {
	// Generate sends a one-shot prompt and returns the raw model text.
	Generate(ctx context.Context, prompt string) (string, error)
}

// ErrOverloaded signals that the provider rejected the request due to
// capacity. Callers degrade to locally computed results when they see it.
var ErrOverloaded = errors.New("ai: service overloaded")
