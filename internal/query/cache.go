// Package query is a request-keyed cache for backend reads. Each key tracks
// its status, last value, last error and whether a request is in flight;
// concurrent reads of the same key share one request, failures go through a
// pluggable retry policy, and a query that is not enabled never runs.
package query

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Status of a cache entry.
type Status int

const (
	Idle Status = iota
	Loading
	Success
	Error
)

func (s Status) String() string {
	switch s {
	case Loading:
		return "loading"
	case Success:
		return "success"
	case Error:
		return "error"
	default:
		return "idle"
	}
}

// Key identifies a query by operation name and parameters.
type Key struct {
	Op     string
	Params []string
}

// NewKey builds a Key.
func NewKey(op string, params ...string) Key {
	return Key{Op: op, Params: params}
}

// String escapes every part, so ("series", "a/b") and ("series", "a", "b")
// map to different entries.
func (k Key) String() string {
	parts := make([]string, 0, len(k.Params)+1)
	parts = append(parts, url.PathEscape(k.Op))
	for _, p := range k.Params {
		parts = append(parts, url.PathEscape(p))
	}
	return strings.Join(parts, "/")
}

// RetryPolicy decides whether a failed attempt is retried. attempt counts
// the failures so far, starting at 1.
type RetryPolicy interface {
	Next(attempt int, err error) (delay time.Duration, retry bool)
}

// RetryOnce retries a failed request exactly once after Delay.
type RetryOnce struct {
	Delay time.Duration
}

func (r RetryOnce) Next(attempt int, err error) (time.Duration, bool) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return 0, false
	}
	return r.Delay, attempt < 2
}

// NoRetry surfaces the first failure.
type NoRetry struct{}

func (NoRetry) Next(int, error) (time.Duration, bool) { return 0, false }

// Options configure a Cache.
type Options struct {
	// StaleTime is how long a successful value is served without refetching.
	// Zero refetches on every read (concurrent reads are still shared).
	StaleTime time.Duration
	// Retry defaults to RetryOnce{}.
	Retry RetryPolicy
	// Timeout bounds one shared request, retries included. Defaults to 30s.
	Timeout time.Duration
	Now     func() time.Time
}

// Snapshot is a copy of an entry's observable state.
type Snapshot struct {
	Status    Status
	Value     any
	Err       error
	UpdatedAt time.Time
	InFlight  bool
}

type entry struct {
	status    Status
	value     any
	err       error
	updatedAt time.Time
	inflight  bool
}

// Cache maps query keys to entries.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	group   singleflight.Group

	staleTime time.Duration
	retry     RetryPolicy
	timeout   time.Duration
	now       func() time.Time
}

// New creates an empty Cache.
func New(opts Options) *Cache {
	c := &Cache{
		entries:   make(map[string]*entry),
		staleTime: opts.StaleTime,
		retry:     opts.Retry,
		timeout:   opts.Timeout,
		now:       opts.Now,
	}
	if c.timeout <= 0 {
		c.timeout = 30 * time.Second
	}
	if c.retry == nil {
		c.retry = RetryOnce{}
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Snapshot returns the state of k. Unknown keys report Idle.
func (c *Cache) Snapshot(k Key) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[k.String()]
	if !ok {
		return Snapshot{Status: Idle}
	}
	return Snapshot{Status: e.status, Value: e.value, Err: e.err, UpdatedAt: e.updatedAt, InFlight: e.inflight}
}

// Invalidate drops k so the next read refetches.
func (c *Cache) Invalidate(k Key) {
	c.mu.Lock()
	delete(c.entries, k.String())
	c.mu.Unlock()
}

// InvalidateOp drops every entry of an operation.
func (c *Cache) InvalidateOp(op string) {
	prefix := url.PathEscape(op)
	c.mu.Lock()
	for ks := range c.entries {
		if ks == prefix || strings.HasPrefix(ks, prefix+"/") {
			delete(c.entries, ks)
		}
	}
	c.mu.Unlock()
}

// Do returns the value for k, calling fn at most once per key at a time.
// The shared request keeps the first caller's context values but not its
// cancellation; it is bounded by the cache timeout instead. A caller whose
// ctx ends stops waiting and gets ctx.Err() without touching the entry.
func (c *Cache) Do(ctx context.Context, k Key, fn func(context.Context) (any, error)) (any, error) {
	ks := k.String()

	c.mu.Lock()
	e := c.entryLocked(ks)
	if e.status == Success && c.staleTime > 0 && c.now().Sub(e.updatedAt) < c.staleTime {
		v := e.value
		c.mu.Unlock()
		return v, nil
	}
	c.mu.Unlock()

	ch := c.group.DoChan(ks, func() (any, error) {
		c.mu.Lock()
		e := c.entryLocked(ks)
		e.inflight = true
		if e.status != Success {
			e.status = Loading
		}
		c.mu.Unlock()

		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		v, err := c.run(runCtx, fn)

		c.mu.Lock()
		// the entry may have been invalidated while the request ran
		e = c.entryLocked(ks)
		e.inflight = false
		if err != nil {
			e.status = Error
			e.err = err
		} else {
			e.status = Success
			e.value = v
			e.err = nil
			e.updatedAt = c.now()
		}
		c.mu.Unlock()
		return v, err
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.Val, res.Err
	}
}

func (c *Cache) entryLocked(ks string) *entry {
	e, ok := c.entries[ks]
	if !ok {
		e = &entry{}
		c.entries[ks] = e
	}
	return e
}

func (c *Cache) run(ctx context.Context, fn func(context.Context) (any, error)) (any, error) {
	for attempt := 1; ; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		delay, retry := c.retry.Next(attempt, err)
		if !retry || ctx.Err() != nil {
			return nil, err
		}
		if delay > 0 {
			t := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				t.Stop()
				return nil, err
			case <-t.C:
			}
		}
	}
}

// State is the typed view of a query result.
type State[T any] struct {
	Status Status
	Data   T
	Err    error
}

// Query describes one read. Fn never runs while Enabled is false.
type Query[T any] struct {
	Key     Key
	Enabled bool
	Fn      func(context.Context) (T, error)
}

// Fetch executes q through c. A disabled query reports Idle. On error the
// last good value, if any, is kept in Data.
func Fetch[T any](ctx context.Context, c *Cache, q Query[T]) State[T] {
	if !q.Enabled {
		return State[T]{Status: Idle}
	}
	v, err := c.Do(ctx, q.Key, func(ctx context.Context) (any, error) {
		return q.Fn(ctx)
	})
	if err != nil {
		st := State[T]{Status: Error, Err: err}
		if prev, ok := c.Snapshot(q.Key).Value.(T); ok {
			st.Data = prev
		}
		return st
	}
	data, _ := v.(T)
	return State[T]{Status: Success, Data: data}
}
