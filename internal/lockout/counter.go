// Package lockout tracks failed authentication attempts per identity. The
// counter is keyed by the username or email as typed, not the resolved user
// ID, so attempts against nonexistent accounts are still rate-limited.
package lockout

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/jmcallister/riskgate/internal/models"
)

// Counter is the failed-attempt tracking contract. Implementations must be
// safe for concurrent use across identities.
type Counter interface {
	// RecordFailure registers one failure and returns the count within the
	// current window.
	RecordFailure(ctx context.Context, identity string) (int, error)
	// FailureCount returns the number of failures within the current window.
	FailureCount(ctx context.Context, identity string) (int, error)
	// Reset clears the window, typically after a successful login.
	Reset(ctx context.Context, identity string) error
}

const counterShardCount = 32

// MemoryCounter is the default in-process Counter. It uses a fixed rolling
// window per identity: the window starts at the first failure and expires
// after the configured duration.
type MemoryCounter struct {
	window time.Duration
	shards []*counterShard
}

type counterShard struct {
	mu      sync.Mutex
	entries map[string]*windowEntry
}

type windowEntry struct {
	count       int
	windowStart time.Time
	lastFailure time.Time
}

// NewMemoryCounter creates a MemoryCounter with the given window.
func NewMemoryCounter(window time.Duration) *MemoryCounter {
	shards := make([]*counterShard, counterShardCount)
	for i := range shards {
		shards[i] = &counterShard{entries: make(map[string]*windowEntry)}
	}
	return &MemoryCounter{window: window, shards: shards}
}

// RecordFailure registers a failure for the identity.
func (c *MemoryCounter) RecordFailure(_ context.Context, identity string) (int, error) {
	sh := c.shardFor(identity)
	now := time.Now()

	sh.mu.Lock()
	defer sh.mu.Unlock()

	entry, ok := sh.entries[identity]
	if !ok || now.Sub(entry.windowStart) > c.window {
		entry = &windowEntry{windowStart: now}
		sh.entries[identity] = entry
	}

	entry.count++
	entry.lastFailure = now
	return entry.count, nil
}

// FailureCount returns the live failure count for the identity.
func (c *MemoryCounter) FailureCount(_ context.Context, identity string) (int, error) {
	sh := c.shardFor(identity)
	now := time.Now()

	sh.mu.Lock()
	defer sh.mu.Unlock()

	entry, ok := sh.entries[identity]
	if !ok || now.Sub(entry.windowStart) > c.window {
		return 0, nil
	}
	return entry.count, nil
}

// Reset clears the identity's window.
func (c *MemoryCounter) Reset(_ context.Context, identity string) error {
	sh := c.shardFor(identity)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	delete(sh.entries, identity)
	return nil
}

// Stats returns the current window for an identity, or nil when there is
// no live window.
func (c *MemoryCounter) Stats(identity string) *models.FailedAttemptStats {
	sh := c.shardFor(identity)
	now := time.Now()

	sh.mu.Lock()
	defer sh.mu.Unlock()

	entry, ok := sh.entries[identity]
	if !ok || now.Sub(entry.windowStart) > c.window {
		return nil
	}
	return &models.FailedAttemptStats{
		Identity:    identity,
		Count:       entry.count,
		WindowStart: entry.windowStart,
		LastFailure: entry.lastFailure,
	}
}

// Sweep drops expired windows so idle identities don't accumulate. Returns
// the number of entries removed.
func (c *MemoryCounter) Sweep(now time.Time) int {
	removed := 0
	for _, sh := range c.shards {
		sh.mu.Lock()
		for identity, entry := range sh.entries {
			if now.Sub(entry.windowStart) > c.window {
				delete(sh.entries, identity)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	return removed
}

func (c *MemoryCounter) shardFor(identity string) *counterShard {
	h := fnv.New32a()
	h.Write([]byte(identity))
	return c.shards[h.Sum32()%uint32(len(c.shards))]
}
