// Package textgen is the client side of the optional text-generation
// service. Every backend exposes the same single request/response call; the
// caller treats any error the same way and falls back to local answers.
package textgen

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotConfigured is returned when a backend is missing its credentials.
	ErrNotConfigured = errors.New("text generation not configured")
	// ErrRateLimited is returned by Limited when no request token is available.
	ErrRateLimited = errors.New("text generation rate limited")
	// ErrEmptyCompletion is returned when a backend answers with no text.
	ErrEmptyCompletion = errors.New("empty completion")
)

// Request is a single completion request.
type Request struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

// Generator produces a completion for a prompt.
type Generator interface {
	// Generate returns the completion text. It makes exactly one attempt.
	Generate(ctx context.Context, req Request) (string, error)
	// Name identifies the backend in logs, e.g. "openai:gpt-4o-mini".
	Name() string
}

// withTimeout bounds ctx by d unless ctx already has an earlier deadline.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < d {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, req Request) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

func (f GeneratorFunc) Name() string { return "func" }
