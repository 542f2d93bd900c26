package auth

import (
	"context"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// Operation is a guarded mutating command.
type Operation func(ctx context.Context) (any, error)

// IdempotencyCache makes client-retried mutating commands safe to
// repeat: for a given key the operation executes at most once within the
// TTL, and every caller observes the first execution's result.
type IdempotencyCache interface {
	Do(ctx context.Context, key string, op Operation) (any, error)
}

type cacheEntry struct {
	done      chan struct{}
	result    any
	err       error
	settled   bool
	expiresAt time.Time
}

// Cache is the in-process IdempotencyCache implementation. Concurrent
// calls with the same key race for a single promise entry under one lock
// acquisition; the losers wait on the winner's done channel instead of
// executing. Only successful results are cached — a failed winner
// releases the key so a later retry runs the operation again.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
	ttl     time.Duration
	clock   Clock
	logger  Logger
}

var _ IdempotencyCache = (*Cache)(nil)

// NewIdempotencyCache creates a cache whose entries are served for ttl
// after the guarded operation succeeds.
func NewIdempotencyCache(ttl time.Duration, clock Clock) *Cache {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	if clock == nil {
		clock = SystemClock()
	}
	return &Cache{
		entries: make(map[string]*cacheEntry),
		ttl:     ttl,
		clock:   clock,
		logger:  defLogger{},
	}
}

// WithLogger overrides the logger used by the cache.
func (c *Cache) WithLogger(logger Logger) *Cache {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// Do executes op at most once per key. The first caller for a never-seen
// (or expired) key runs op and stores the result; callers arriving while
// it runs block until the result is available; callers arriving within
// the TTL after success get the stored result without re-execution. An
// empty key disables the guard and always executes.
func (c *Cache) Do(ctx context.Context, key string, op Operation) (any, error) {
	if key == "" {
		return op(ctx)
	}

	entry, winner := c.claim(key)

	if !winner {
		select {
		case <-entry.done:
			return entry.result, entry.err
		case <-ctx.Done():
			return nil, goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation,
				"context cancelled while awaiting idempotent result")
		}
	}

	result, err := op(ctx)
	c.settle(key, entry, result, err)

	return result, err
}

// claim installs a promise entry for key unless a live one exists.
// Returns the entry and whether the caller won the right to execute.
func (c *Cache) claim(key string) (*cacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[key]; ok {
		if !entry.settled || c.clock.Now().Before(entry.expiresAt) {
			return entry, false
		}
		// settled and past TTL: evict lazily and start over
		delete(c.entries, key)
	}

	entry := &cacheEntry{done: make(chan struct{})}
	c.entries[key] = entry
	return entry, true
}

func (c *Cache) settle(key string, entry *cacheEntry, result any, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry.result = result
	entry.err = err

	if err != nil {
		// do not cache failures; waiters see the error, retries re-execute
		if c.entries[key] == entry {
			delete(c.entries, key)
		}
	} else {
		entry.settled = true
		entry.expiresAt = c.clock.Now().Add(c.ttl)
	}

	close(entry.done)
}

// Sweep removes settled entries past their TTL and returns how many were
// evicted. Lookups already evict lazily; Sweep bounds memory for keys
// that are never touched again.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	evicted := 0

	for key, entry := range c.entries {
		if entry.settled && !now.Before(entry.expiresAt) {
			delete(c.entries, key)
			evicted++
		}
	}

	return evicted
}

// Len reports the number of live entries, in-flight included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
