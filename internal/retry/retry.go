// Package retry provides exponential-backoff retries: a generic Do helper
// and a fetch decorator for source adapters.
package retry

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"time"

	"github.com/boardwatch/boardwatch/internal/model"
)

// Do runs fn up to attempts times, sleeping base*2^n between tries with a
// little jitter. Returns the last error if every attempt fails. The context
// cancels the wait, not a running fn.
func Do(ctx context.Context, attempts int, base time.Duration, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			if werr := wait(ctx, backoff(base, i)); werr != nil {
				return werr
			}
		}
		if err = fn(); err == nil {
			return nil
		}
	}
	return err
}

func backoff(base time.Duration, attempt int) time.Duration {
	d := base << (attempt - 1)
	jitter := time.Duration(rand.Int63n(int64(base)/2 + 1))
	return d + jitter
}

func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Adapter decorates a source adapter with fetch retries. Upstream errors
// carrying a Retry-After hint wait at least that long before the next try.
type Adapter struct {
	inner    model.SourceAdapter
	attempts int
	base     time.Duration
	logger   *slog.Logger
}

// NewAdapter wraps inner with up to attempts fetch tries.
func NewAdapter(inner model.SourceAdapter, attempts int, base time.Duration, logger *slog.Logger) *Adapter {
	if attempts < 1 {
		attempts = 1
	}
	return &Adapter{inner: inner, attempts: attempts, base: base, logger: logger}
}

// Fetch tries the wrapped fetch with backoff between failures.
func (a *Adapter) Fetch(ctx context.Context) ([]model.RawPosting, error) {
	var lastErr error
	for i := 0; i < a.attempts; i++ {
		if i > 0 {
			d := backoff(a.base, i)
			var upstream *model.UpstreamError
			if errors.As(lastErr, &upstream) && upstream.RetryAfter > d {
				d = upstream.RetryAfter
			}
			a.logger.Debug("retrying fetch", "attempt", i+1, "wait", d, "error", lastErr)
			if err := wait(ctx, d); err != nil {
				return nil, err
			}
		}
		postings, err := a.inner.Fetch(ctx)
		if err == nil {
			return postings, nil
		}
		lastErr = err
	}
	return nil, lastErr
}
