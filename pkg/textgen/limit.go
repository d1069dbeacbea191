package textgen

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Limited wraps a Generator with a token bucket. Requests that find the
// bucket empty fail immediately with ErrRateLimited rather than waiting.
type Limited struct {
	next    Generator
	limiter *rate.Limiter
}

// NewLimited allows perSecond requests per second with the given burst.
// A non-positive perSecond disables limiting.
func NewLimited(next Generator, perSecond float64, burst int) *Limited {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	if burst < 1 {
		burst = 1
	}
	return &Limited{next: next, limiter: rate.NewLimiter(limit, burst)}
}

// Name returns the wrapped generator's name.
func (l *Limited) Name() string { return l.next.Name() }

// Generate forwards to the wrapped generator if a token is available.
func (l *Limited) Generate(ctx context.Context, req Request) (string, error) {
	if !l.limiter.Allow() {
		return "", fmt.Errorf("%s: %w", l.next.Name(), ErrRateLimited)
	}
	return l.next.Generate(ctx, req)
}
