// Package ratelimit spaces out requests per upstream ATS so that polling
// many employers on the same provider stays under its rate limits.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/boardwatch/boardwatch/internal/model"
)

// Limiter hands out per-source fetch slots. All adapters for the same
// source share one slot spaced minInterval apart; different sources never
// block each other.
type Limiter struct {
	minInterval time.Duration

	mu   sync.Mutex
	next map[model.SourceKind]time.Time
}

// NewLimiter creates a limiter enforcing minInterval between fetches to
// the same source.
func NewLimiter(minInterval time.Duration) *Limiter {
	return &Limiter{
		minInterval: minInterval,
		next:        make(map[model.SourceKind]time.Time),
	}
}

// Wait blocks until the source's next slot or the context ends.
func (l *Limiter) Wait(ctx context.Context, source model.SourceKind) error {
	l.mu.Lock()
	now := time.Now()
	at := l.next[source]
	if at.Before(now) {
		at = now
	}
	l.next[source] = at.Add(l.minInterval)
	l.mu.Unlock()

	d := time.Until(at)
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// LimitedAdapter decorates a source adapter with a shared per-source
// limiter.
type LimitedAdapter struct {
	inner   model.SourceAdapter
	source  model.SourceKind
	limiter *Limiter
}

// NewLimitedAdapter wraps inner so that every Fetch first takes a slot for
// the given source.
func NewLimitedAdapter(inner model.SourceAdapter, source model.SourceKind, limiter *Limiter) *LimitedAdapter {
	return &LimitedAdapter{inner: inner, source: source, limiter: limiter}
}

// Fetch waits for the source slot and then delegates.
func (a *LimitedAdapter) Fetch(ctx context.Context) ([]model.RawPosting, error) {
	if err := a.limiter.Wait(ctx, a.source); err != nil {
		return nil, err
	}
	return a.inner.Fetch(ctx)
}
