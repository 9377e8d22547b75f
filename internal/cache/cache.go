// Package cache keeps recent backend query results in memory.
//
// Entries are keyed by endpoint and arguments and tagged with the resource
// they belong to. A successful mutation invalidates every entry carrying one
// of its tags, so the next read goes back to the backend. Concurrent misses
// for the same key share a single fetch. Failed fetches are never stored.
package cache

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Defaults applied when Options leave a field unset.
const (
	DefaultTTL        = 30 * time.Second
	DefaultMaxEntries = 512
)

// Key identifies one cached query.
type Key struct {
	Resource string // invalidation tag
	Endpoint string
	Args     map[string]string
}

// String is the canonical form: args are sorted so equal keys match.
func (k Key) String() string {
	var b strings.Builder
	b.WriteString(k.Resource)
	b.WriteByte('|')
	b.WriteString(k.Endpoint)
	if len(k.Args) == 0 {
		return b.String()
	}

	names := make([]string, 0, len(k.Args))
	for name := range k.Args {
		names = append(names, name)
	}
	sort.Strings(names)
	for i, name := range names {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(k.Args[name])
	}
	return b.String()
}

// Result is what a query returns.
type Result struct {
	Data      any
	FetchedAt time.Time
	Hit       bool
}

// FetchFunc loads fresh data for a key.
type FetchFunc func(ctx context.Context) (any, error)

// Options configures a Cache.
type Options struct {
	TTL        time.Duration
	MaxEntries int
	Metrics    *Metrics

	// FetchTimeout bounds a shared fetch. Shared fetches do not inherit the
	// cancellation of the caller that started them; zero means no bound
	// beyond what fetch itself applies.
	FetchTimeout time.Duration

	// Now overrides the clock, for tests.
	Now func() time.Time
}

type entry struct {
	tag       string
	data      any
	fetchedAt time.Time
}

// Cache is safe for concurrent use.
type Cache struct {
	ttl          time.Duration
	maxEntries   int
	metrics      *Metrics
	now          func() time.Time
	fetchTimeout time.Duration

	mu      sync.Mutex
	entries map[string]entry
	// generation is bumped per tag on invalidation. A fetch that started
	// before an invalidation does not store its result.
	generation map[string]uint64

	group singleflight.Group
}

// New builds an empty cache.
func New(opts Options) *Cache {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = DefaultMaxEntries
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Cache{
		ttl:          opts.TTL,
		maxEntries:   opts.MaxEntries,
		metrics:      opts.Metrics,
		now:          opts.Now,
		fetchTimeout: opts.FetchTimeout,
		entries:      make(map[string]entry),
		generation:   make(map[string]uint64),
	}
}

// Query returns the cached value for key when it is younger than the TTL,
// otherwise calls fetch and stores its result.
func (c *Cache) Query(ctx context.Context, key Key, fetch FetchFunc) (Result, error) {
	id := key.String()

	c.mu.Lock()
	if e, ok := c.entries[id]; ok && c.now().Sub(e.fetchedAt) < c.ttl {
		c.mu.Unlock()
		c.metrics.hit(key.Resource)
		return Result{Data: e.data, FetchedAt: e.fetchedAt, Hit: true}, nil
	}
	gen := c.generation[key.Resource]
	c.mu.Unlock()

	c.metrics.miss(key.Resource)

	// The fetch is shared by every waiter, so it must outlive any one of
	// them. Each waiter still gives up when its own context ends.
	ch := c.group.DoChan(id, func() (any, error) {
		fetchCtx := context.WithoutCancel(ctx)
		if c.fetchTimeout > 0 {
			var cancel context.CancelFunc
			fetchCtx, cancel = context.WithTimeout(fetchCtx, c.fetchTimeout)
			defer cancel()
		}
		data, err := fetch(fetchCtx)
		if err != nil {
			return nil, err
		}
		fetchedAt := c.now()
		c.store(id, key.Resource, gen, data, fetchedAt)
		return entry{tag: key.Resource, data: data, fetchedAt: fetchedAt}, nil
	})

	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Result{}, res.Err
		}
		e := res.Val.(entry)
		return Result{Data: e.data, FetchedAt: e.fetchedAt}, nil
	}
}

func (c *Cache) store(id, tag string, gen uint64, data any, fetchedAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generation[tag] != gen {
		return
	}
	c.entries[id] = entry{tag: tag, data: data, fetchedAt: fetchedAt}
	for len(c.entries) > c.maxEntries {
		c.evictOldestLocked()
	}
}

func (c *Cache) evictOldestLocked() {
	var (
		oldestID string
		oldestAt time.Time
		found    bool
	)
	for id, e := range c.entries {
		if !found || e.fetchedAt.Before(oldestAt) {
			oldestID, oldestAt, found = id, e.fetchedAt, true
		}
	}
	if found {
		delete(c.entries, oldestID)
		c.metrics.evicted()
	}
}

// Mutate runs fn and, only if it succeeds, invalidates every entry tagged
// with one of tags. The caller's next Query therefore re-fetches.
func (c *Cache) Mutate(ctx context.Context, tags []string, fn func(ctx context.Context) error) error {
	if err := fn(ctx); err != nil {
		return err
	}
	c.Invalidate(tags...)
	return nil
}

// Invalidate drops every entry carrying one of tags.
func (c *Cache) Invalidate(tags ...string) {
	if len(tags) == 0 {
		return
	}
	drop := make(map[string]bool, len(tags))
	for _, t := range tags {
		drop[t] = true
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for t := range drop {
		c.generation[t]++
	}
	for id, e := range c.entries {
		if drop[e.tag] {
			delete(c.entries, id)
		}
	}
	for t := range drop {
		c.metrics.invalidated(t)
	}
}

// Len returns the number of stored entries, fresh or stale.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Get is a typed wrapper over Query.
func Get[T any](ctx context.Context, c *Cache, key Key, fetch func(ctx context.Context) (T, error)) (T, Result, error) {
	res, err := c.Query(ctx, key, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	})
	if err != nil {
		var zero T
		return zero, Result{}, err
	}
	v, _ := res.Data.(T)
	return v, res, nil
}
