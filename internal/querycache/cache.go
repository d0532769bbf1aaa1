package querycache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Makepad-fr/portal/internal/logging"
)

const (
	DefaultStale  = 30 * time.Second
	DefaultRetain = 5 * time.Minute
)

type Status int

const (
	StatusIdle Status = iota
	StatusPending
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusPending:
		return "pending"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	}
	return "unknown"
}

// Options tune a single Get. Zero windows fall back to the cache defaults.
// Disabled suppresses fetching entirely and reports StatusIdle.
type Options struct {
	Stale    time.Duration
	Retain   time.Duration
	Disabled bool
}

// Result is the state of one query after Get or Peek. On failure Value still
// holds the last good value, if any, and Stale is set.
type Result[T any] struct {
	Value     T
	HasValue  bool
	Status    Status
	Err       error
	Stale     bool
	UpdatedAt time.Time
}

type entry struct {
	key         Key
	value       any
	hasValue    bool
	err         error
	updatedAt   time.Time
	failedAt    time.Time
	generation  uint64
	inflight    int
	invalidated bool
	// Windows of the last Get that fetched this key.
	stale  time.Duration
	retain time.Duration
}

// Cache is a process-wide store of query results keyed by Key. It allows one
// in-flight fetch per key; concurrent callers share its result.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	group   singleflight.Group
	now     func() time.Time
	stale   time.Duration
	retain  time.Duration
}

type Option func(*Cache)

func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithWindows sets the default freshness and retention windows.
func WithWindows(stale, retain time.Duration) Option {
	return func(c *Cache) {
		if stale > 0 {
			c.stale = stale
		}
		if retain > 0 {
			c.retain = retain
		}
	}
}

func New(opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[string]*entry),
		now:     time.Now,
		stale:   DefaultStale,
		retain:  DefaultRetain,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) windows(opt Options) (time.Duration, time.Duration) {
	stale, retain := c.stale, c.retain
	if opt.Stale > 0 {
		stale = opt.Stale
	}
	if opt.Retain > 0 {
		retain = opt.Retain
	}
	return stale, retain
}

// lookup returns the entry for k, dropping a value older than retain.
// Caller holds c.mu.
func (c *Cache) lookup(k string, retain time.Duration) *entry {
	e, ok := c.entries[k]
	if !ok {
		return nil
	}
	if e.hasValue && c.now().Sub(e.updatedAt) >= retain {
		e.value, e.hasValue = nil, false
	}
	if !e.hasValue && e.inflight == 0 && e.err == nil {
		delete(c.entries, k)
		return nil
	}
	return e
}

// entryWindows returns the windows e was fetched with, or the defaults.
func (c *Cache) entryWindows(e *entry) (time.Duration, time.Duration) {
	stale, retain := c.stale, c.retain
	if e.stale > 0 {
		stale = e.stale
	}
	if e.retain > 0 {
		retain = e.retain
	}
	return stale, retain
}

func (c *Cache) begin(key Key, k string, stale, retain time.Duration) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[k]
	if !ok {
		e = &entry{key: key}
		c.entries[k] = e
	}
	e.stale, e.retain = stale, retain
	e.inflight++
	return e.generation
}

// commit records a finished fetch. A fetch started before an invalidation
// does not overwrite the entry.
func (c *Cache) commit(k string, gen uint64, value any, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[k]
	if !ok {
		return
	}
	e.inflight--
	if e.generation != gen {
		return
	}
	if err != nil {
		e.err = err
		e.failedAt = c.now()
		return
	}
	e.value, e.hasValue = value, true
	e.err = nil
	e.invalidated = false
	e.updatedAt = c.now()
}

func (c *Cache) lastGood(k string) (any, bool, time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[k]
	if !ok || !e.hasValue {
		return nil, false, time.Time{}
	}
	return e.value, true, e.updatedAt
}

// Get returns the cached value for key while it is fresh, otherwise fetches
// it. The fetch runs detached from ctx cancellation; in-flight fetches are
// never cancelled.
func Get[T any](ctx context.Context, c *Cache, key Key, fetch func(context.Context) (T, error), opt Options) Result[T] {
	if opt.Disabled {
		return Result[T]{Status: StatusIdle}
	}
	stale, retain := c.windows(opt)
	k := key.String()

	c.mu.Lock()
	if e := c.lookup(k, retain); e != nil && e.hasValue && e.err == nil && !e.invalidated && c.now().Sub(e.updatedAt) < stale {
		r := resultOf[T](e, stale, c.now())
		c.mu.Unlock()
		return r
	}
	c.mu.Unlock()

	fetchCtx := context.WithoutCancel(ctx)
	v, err, _ := c.group.Do(k, func() (any, error) {
		gen := c.begin(key, k, stale, retain)
		v, err := fetch(fetchCtx)
		if err != nil {
			logging.From(ctx).Warn("query failed", "resource", string(key.Resource), "error", err.Error())
		}
		c.commit(k, gen, v, err)
		return v, err
	})

	if err != nil {
		r := Result[T]{Status: StatusError, Err: err, Stale: true}
		if last, ok, at := c.lastGood(k); ok {
			r.Value, _ = last.(T)
			r.HasValue = true
			r.UpdatedAt = at
		}
		return r
	}
	r := Result[T]{Status: StatusSuccess, HasValue: true, UpdatedAt: c.now()}
	r.Value, _ = v.(T)
	return r
}

// Peek reports the current state of key without fetching, judged by the
// windows the key was last fetched with.
func Peek[T any](c *Cache, key Key) Result[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := key.String()
	e, ok := c.entries[k]
	if !ok {
		return Result[T]{Status: StatusIdle}
	}
	stale, retain := c.entryWindows(e)
	if e = c.lookup(k, retain); e == nil {
		return Result[T]{Status: StatusIdle}
	}
	return resultOf[T](e, stale, c.now())
}

func resultOf[T any](e *entry, stale time.Duration, now time.Time) Result[T] {
	r := Result[T]{HasValue: e.hasValue, UpdatedAt: e.updatedAt}
	if e.hasValue {
		r.Value, _ = e.value.(T)
		r.Stale = e.invalidated || now.Sub(e.updatedAt) >= stale
	}
	switch {
	case e.inflight > 0:
		r.Status = StatusPending
	case e.err != nil:
		r.Status = StatusError
		r.Err = e.err
		r.Stale = true
	case e.hasValue:
		r.Status = StatusSuccess
	default:
		r.Status = StatusIdle
	}
	return r
}

// Invalidate marks key so that the next reader re-fetches. A fetch already
// in flight finishes for its own callers but is not committed.
func (c *Cache) Invalidate(key Key) {
	k := key.String()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidate(k)
}

// InvalidateResource invalidates every key of resource.
func (c *Cache) InvalidateResource(resource Resource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.entries {
		if e.key.Resource == resource {
			c.invalidate(k)
		}
	}
}

func (c *Cache) invalidate(k string) {
	c.group.Forget(k)
	e, ok := c.entries[k]
	if !ok {
		return
	}
	e.generation++
	e.invalidated = true
	if e.inflight == 0 && !e.hasValue {
		delete(c.entries, k)
	}
}

// Sweep evicts entries whose last success or failure is older than their
// retention window. It returns the number of evicted keys.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	n := 0
	for k, e := range c.entries {
		if e.inflight > 0 {
			continue
		}
		last := e.updatedAt
		if e.failedAt.After(last) {
			last = e.failedAt
		}
		if _, retain := c.entryWindows(e); now.Sub(last) >= retain {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

// Len is the number of tracked keys.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
