package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/boardwatch/boardwatch/internal/model"
)

func TestLimiter_SpacesSameSource(t *testing.T) {
	l := NewLimiter(30 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := l.Wait(ctx, model.SourceAshby); err != nil {
			t.Fatalf("Wait returned error: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 60*time.Millisecond {
		t.Errorf("three waits took %v, want at least 60ms of spacing", elapsed)
	}
}

func TestLimiter_SourcesAreIndependent(t *testing.T) {
	l := NewLimiter(500 * time.Millisecond)
	ctx := context.Background()

	if err := l.Wait(ctx, model.SourceAshby); err != nil {
		t.Fatalf("Wait returned error: %v", err)
	}
	start := time.Now()
	if err := l.Wait(ctx, model.SourceGreenhouse); err != nil {
		t.Fatalf("Wait returned error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("other source waited %v behind ashby slot", elapsed)
	}
}

func TestLimiter_ContextCancel(t *testing.T) {
	l := NewLimiter(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	if err := l.Wait(ctx, model.SourceAshby); err != nil {
		t.Fatalf("first Wait returned error: %v", err)
	}
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	if err := l.Wait(ctx, model.SourceAshby); err != context.Canceled {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

type stubAdapter struct {
	calls int
}

func (s *stubAdapter) Fetch(ctx context.Context) ([]model.RawPosting, error) {
	s.calls++
	return nil, nil
}

func TestLimitedAdapter_Delegates(t *testing.T) {
	inner := &stubAdapter{}
	adapter := NewLimitedAdapter(inner, model.SourceGreenhouse, NewLimiter(time.Millisecond))

	if _, err := adapter.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("inner calls = %d, want 1", inner.calls)
	}
}
