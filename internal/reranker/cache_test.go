package reranker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// countingJudge counts Score calls and delegates to a fixed score or error.
type countingJudge struct {
	mu    sync.Mutex
	calls int
	score float64
	err   error
}

func (c *countingJudge) Score(_ context.Context, _, _ string) (float64, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	if c.err != nil {
		return 0, c.err
	}
	return c.score, nil
}

func (c *countingJudge) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func TestCachedJudge_HitAndMiss(t *testing.T) {
	inner := &countingJudge{score: 7}
	cached := NewCachedJudge(inner, time.Hour)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		score, err := cached.Score(ctx, "q1", "pasal satu")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if score != 7 {
			t.Errorf("score = %g, expected 7", score)
		}
	}
	if got := inner.callCount(); got != 1 {
		t.Errorf("inner judge called %d times for a repeated pair, expected 1", got)
	}

	// Different query or different text is a distinct entry.
	if _, err := cached.Score(ctx, "q2", "pasal satu"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := cached.Score(ctx, "q1", "pasal dua"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := inner.callCount(); got != 3 {
		t.Errorf("inner judge called %d times for 3 distinct pairs, expected 3", got)
	}
}

func TestCachedJudge_Expiry(t *testing.T) {
	inner := &countingJudge{score: 4}
	cached := NewCachedJudge(inner, 10*time.Millisecond)
	ctx := context.Background()

	if _, err := cached.Score(ctx, "q", "text"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if _, err := cached.Score(ctx, "q", "text"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := inner.callCount(); got != 2 {
		t.Errorf("inner judge called %d times across an expired entry, expected 2", got)
	}
}

func TestCachedJudge_DoesNotCacheErrors(t *testing.T) {
	inner := &countingJudge{err: errors.New("judge down")}
	cached := NewCachedJudge(inner, time.Hour)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := cached.Score(ctx, "q", "text"); err == nil {
			t.Fatal("expected error from failing inner judge")
		}
	}
	if got := inner.callCount(); got != 2 {
		t.Errorf("inner judge called %d times, expected 2 (errors must not be cached)", got)
	}

	// Once the judge recovers, the score is served and cached normally.
	inner.mu.Lock()
	inner.err = nil
	inner.score = 6
	inner.mu.Unlock()

	for i := 0; i < 2; i++ {
		score, err := cached.Score(ctx, "q", "text")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if score != 6 {
			t.Errorf("score = %g, expected 6", score)
		}
	}
	if got := inner.callCount(); got != 3 {
		t.Errorf("inner judge called %d times after recovery, expected 3", got)
	}
}

func TestCachedJudge_Cleanup(t *testing.T) {
	inner := &countingJudge{score: 1}
	cached := NewCachedJudge(inner, time.Millisecond)
	ctx := context.Background()

	if _, err := cached.Score(ctx, "q", "text"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	cached.cleanup()

	cached.mu.RLock()
	n := len(cached.entries)
	cached.mu.RUnlock()
	if n != 0 {
		t.Errorf("expected expired entries to be swept, %d remain", n)
	}
}
