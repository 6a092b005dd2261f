// Package geocache memoizes outbound geocoding and routing calls for a fixed
// time-to-live. Entries leave only by expiry, evicted lazily on lookup; there
// is no capacity bound.
//
// The cache never holds a lock across the computation it memoizes. Two callers
// missing the same key concurrently both compute, and the later write wins.
package geocache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// DefaultTTL is how long an entry stays valid when no TTL is configured.
const DefaultTTL = time.Hour

// Store is the backing key/value storage. Implementations do their own locking.
//
// Load returns ok=false for a missing key and also for a key whose expiry is
// not after now; in the latter case the implementation removes the entry.
type Store interface {
	Load(ctx context.Context, key string, now time.Time) (value []byte, ok bool, err error)
	Save(ctx context.Context, key string, value []byte, expiresAt time.Time) error
}

// Cache is the get-or-compute facade over a Store.
type Cache struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
	log   *slog.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now, letting tests move time past the TTL.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithLogger sets the logger used for store failures.
func WithLogger(log *slog.Logger) Option {
	return func(c *Cache) { c.log = log }
}

// New constructs a Cache. A non-positive ttl selects DefaultTTL.
func New(store Store, ttl time.Duration, opts ...Option) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{
		store: store,
		ttl:   ttl,
		now:   time.Now,
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the configured entry lifetime.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Fingerprint hashes the normalized request parts into a cache key.
func Fingerprint(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(sum[:])
}

type outcome[T any] struct {
	value T
	err   error
}

// GetOrCompute returns the cached value for key, or runs compute and caches
// its result. Errors from compute are never cached.
//
// compute runs detached from ctx cancellation: if the caller gives up, the
// call already in flight still finishes and populates the cache. compute is
// responsible for its own timeout.
//
// A failing store degrades to an uncached call; it never fails the request.
func GetOrCompute[T any](ctx context.Context, c *Cache, key string, compute func(context.Context) (T, error)) (T, error) {
	var zero T

	raw, ok, err := c.store.Load(ctx, key, c.now())
	if err != nil {
		c.log.WarnContext(ctx, "geocache load failed", "key", key, "error", err)
	}
	if ok {
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			return v, nil
		}
		c.log.WarnContext(ctx, "geocache entry undecodable, recomputing", "key", key)
	}

	done := make(chan outcome[T], 1)
	detached := context.WithoutCancel(ctx)
	go func() {
		v, err := compute(detached)
		if err == nil {
			c.put(detached, key, v)
		}
		done <- outcome[T]{value: v, err: err}
	}()

	select {
	case <-ctx.Done():
		return zero, fmt.Errorf("geocache.GetOrCompute: %w", ctx.Err())
	case o := <-done:
		return o.value, o.err
	}
}

func (c *Cache) put(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		c.log.WarnContext(ctx, "geocache encode failed", "key", key, "error", err)
		return
	}
	if err := c.store.Save(ctx, key, raw, c.now().Add(c.ttl)); err != nil {
		c.log.WarnContext(ctx, "geocache save failed", "key", key, "error", err)
	}
}
