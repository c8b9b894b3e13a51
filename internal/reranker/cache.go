package reranker

import (
	"context"
	"crypto/sha256"
	"sync"
	"time"
)

// CachedJudge wraps another Judge with a TTL cache keyed by (query, passage).
// The reranker itself never caches; batch evaluation jobs replay the same
// query set against the corpus, and without a cache every run pays the full
// judge bill again. Only successful scores are cached, so transient failures
// stay transient.
type CachedJudge struct {
	inner Judge

	mu      sync.RWMutex
	entries map[cacheKey]cacheEntry
	ttl     time.Duration
}

type cacheKey struct {
	query    string
	textHash [sha256.Size]byte
}

type cacheEntry struct {
	score    float64
	storedAt time.Time
}

// NewCachedJudge creates a caching wrapper around inner. Entries expire
// after ttl; a background loop sweeps expired entries every five minutes.
func NewCachedJudge(inner Judge, ttl time.Duration) *CachedJudge {
	j := &CachedJudge{
		inner:   inner,
		entries: make(map[cacheKey]cacheEntry),
		ttl:     ttl,
	}

	go j.cleanupLoop()

	return j
}

// Score returns the cached score for the pair if present and fresh,
// otherwise delegates to the wrapped judge.
func (j *CachedJudge) Score(ctx context.Context, query, text string) (float64, error) {
	key := cacheKey{query: query, textHash: sha256.Sum256([]byte(text))}

	j.mu.RLock()
	entry, ok := j.entries[key]
	j.mu.RUnlock()
	if ok && time.Since(entry.storedAt) < j.ttl {
		return entry.score, nil
	}

	score, err := j.inner.Score(ctx, query, text)
	if err != nil {
		return 0, err
	}

	j.mu.Lock()
	j.entries[key] = cacheEntry{score: score, storedAt: time.Now()}
	j.mu.Unlock()

	return score, nil
}

// cleanupLoop periodically removes expired entries.
func (j *CachedJudge) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		j.cleanup()
	}
}

func (j *CachedJudge) cleanup() {
	j.mu.Lock()
	defer j.mu.Unlock()

	now := time.Now()
	for key, entry := range j.entries {
		if now.Sub(entry.storedAt) >= j.ttl {
			delete(j.entries, key)
		}
	}
}

// Ensure CachedJudge implements Judge.
var _ Judge = (*CachedJudge)(nil)
