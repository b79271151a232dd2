// Package cache is the query cache behind every upstream read. Entries are
// keyed by the canonical serialization of a request, bounded by an LRU, and
// considered fresh for a TTL chosen per query.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/kevinnadar22/announce/internal/infra/metrics"
)

const (
	DefaultSize = 512
	DefaultTTL  = 5 * time.Minute
)

// Status is the observable state of one cached query.
type Status int

const (
	// StatusLoading means no data yet and a fetch is pending.
	StatusLoading Status = iota
	// StatusRefreshing means stale data is shown while a fetch is in flight.
	StatusRefreshing
	StatusSuccess
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusRefreshing:
		return "refreshing"
	case StatusSuccess:
		return "success"
	case StatusFailed:
		return "failed"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Result is what a caller observes for a key. Data is only meaningful when
// HasData is set; a failed refresh keeps the previous data.
type Result[T any] struct {
	Key       string
	Status    Status
	Data      T
	HasData   bool
	Err       error
	FetchedAt time.Time
}

type entry struct {
	value     any
	hasValue  bool
	fetchedAt time.Time
	expiresAt time.Time
	err       error
}

// Store is safe for concurrent use. Construct one per process and inject it.
type Store struct {
	mu       sync.Mutex
	entries  *lru.Cache[string, *entry]
	inflight map[string]int
	// gens counts invalidations of in-flight keys; epoch counts purges. A
	// fetch only stores its result when neither moved while it ran.
	gens     map[string]uint64
	epoch    uint64
	group    singleflight.Group
	ttl      time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

type Option func(*Store)

// WithClock replaces time.Now, used by tests to expire entries.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

func New(size int, ttl time.Duration, opts ...Option) (*Store, error) {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	entries, err := lru.New[string, *entry](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create lru: %w", err)
	}
	s := &Store{
		entries:  entries,
		inflight: make(map[string]int),
		gens:     make(map[string]uint64),
		ttl:      ttl,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// TTL is the default freshness window.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

func (s *Store) Len() int {
	return s.entries.Len()
}

// Fetcher loads the value for a key.
type Fetcher[T any] func(ctx context.Context) (T, error)

// Query returns fresh cached data without calling fetch, otherwise fetches.
// Concurrent callers for the same key share one call. A non-positive ttl
// uses the store default.
func Query[T any](ctx context.Context, s *Store, key string, ttl time.Duration, fetch Fetcher[T]) Result[T] {
	if ttl <= 0 {
		ttl = s.ttl
	}

	s.mu.Lock()
	e, ok := s.entries.Get(key)
	if ok && e.hasValue && e.err == nil && s.now().Before(e.expiresAt) {
		s.mu.Unlock()
		metrics.CacheLookups.WithLabelValues(keyspace(key), "hit").Inc()
		return resultOf[T](key, StatusSuccess, e)
	}
	stale := ok && e.hasValue
	s.mu.Unlock()

	if stale {
		metrics.CacheLookups.WithLabelValues(keyspace(key), "stale").Inc()
	} else {
		metrics.CacheLookups.WithLabelValues(keyspace(key), "miss").Inc()
	}
	return load(ctx, s, key, ttl, fetch)
}

// Revalidate returns any cached data immediately, fresh or stale. Stale data
// comes back as StatusRefreshing while a background fetch updates the entry.
// Without cached data it behaves like Query.
func Revalidate[T any](ctx context.Context, s *Store, key string, ttl time.Duration, fetch Fetcher[T]) Result[T] {
	if ttl <= 0 {
		ttl = s.ttl
	}

	s.mu.Lock()
	e, ok := s.entries.Get(key)
	if !ok || !e.hasValue {
		s.mu.Unlock()
		return Query(ctx, s, key, ttl, fetch)
	}
	if e.err == nil && s.now().Before(e.expiresAt) {
		s.mu.Unlock()
		metrics.CacheLookups.WithLabelValues(keyspace(key), "hit").Inc()
		return resultOf[T](key, StatusSuccess, e)
	}
	snapshot := *e
	s.inflight[key]++
	s.mu.Unlock()

	metrics.CacheLookups.WithLabelValues(keyspace(key), "stale").Inc()
	bg := context.WithoutCancel(ctx)
	go func() {
		defer s.release(key)
		res := load(bg, s, key, ttl, fetch)
		if res.Err != nil {
			s.logger.Warn("Background revalidation failed", "key", key, "error", res.Err)
		}
	}()
	return resultOf[T](key, StatusRefreshing, &snapshot)
}

// Peek reports the current state of key without fetching.
func Peek[T any](s *Store, key string) Result[T] {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries.Peek(key)
	busy := s.inflight[key] > 0
	switch {
	case !ok:
		return Result[T]{Key: key, Status: StatusLoading}
	case busy && e.hasValue:
		return resultOf[T](key, StatusRefreshing, e)
	case busy:
		return Result[T]{Key: key, Status: StatusLoading}
	case e.err != nil:
		return resultOf[T](key, StatusFailed, e)
	default:
		return resultOf[T](key, StatusSuccess, e)
	}
}

// Invalidate removes one key. It reports whether the key was present.
func (s *Store) Invalidate(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight[key] > 0 {
		s.gens[key]++
	}
	removed := s.entries.Remove(key)
	if removed {
		metrics.CacheInvalidations.WithLabelValues("key").Inc()
		metrics.CacheEntries.Set(float64(s.entries.Len()))
	}
	return removed
}

// InvalidatePrefix removes every key starting with prefix and returns how
// many were removed.
func (s *Store) InvalidatePrefix(prefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.inflight {
		if strings.HasPrefix(k, prefix) {
			s.gens[k]++
		}
	}
	n := 0
	for _, k := range s.entries.Keys() {
		if strings.HasPrefix(k, prefix) && s.entries.Remove(k) {
			n++
		}
	}
	if n > 0 {
		metrics.CacheInvalidations.WithLabelValues("prefix").Add(float64(n))
		metrics.CacheEntries.Set(float64(s.entries.Len()))
	}
	return n
}

// Purge drops every entry.
func (s *Store) Purge() {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.entries.Len()
	s.epoch++
	s.entries.Purge()
	metrics.CacheInvalidations.WithLabelValues("purge").Add(float64(n))
	metrics.CacheEntries.Set(0)
}

func load[T any](ctx context.Context, s *Store, key string, ttl time.Duration, fetch Fetcher[T]) Result[T] {
	s.acquire(key)
	defer s.release(key)

	// The shared call outlives any single caller's cancellation and records
	// its own outcome; each caller only stops waiting when its context ends.
	ch := s.group.DoChan(key, func() (any, error) {
		// Held for the fetch itself so a caller giving up early does not
		// drop the key's generation while the fetch is still running.
		s.acquire(key)
		defer s.release(key)
		gen := s.generation(key)
		v, err := fetch(context.WithoutCancel(ctx))
		if err != nil {
			s.recordError(key, err, gen)
			return nil, err
		}
		return s.store(key, v, ttl, gen), nil
	})

	select {
	case <-ctx.Done():
		return current[T](s, key, ctx.Err())
	case r := <-ch:
		if r.Err != nil {
			metrics.CacheLookups.WithLabelValues(keyspace(key), "error").Inc()
			return current[T](s, key, r.Err)
		}
		return resultOf[T](key, StatusSuccess, r.Val.(*entry))
	}
}

// generation identifies the invalidation state of key.
func (s *Store) generation(key string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch + s.gens[key]
}

// store caches value unless key was invalidated since gen was taken. The
// caller still gets the value it fetched.
func (s *Store) store(key string, value any, ttl time.Duration, gen uint64) *entry {
	now := s.now()
	e := &entry{value: value, hasValue: true, fetchedAt: now, expiresAt: now.Add(ttl)}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch+s.gens[key] != gen {
		s.logger.Debug("Dropping result fetched before invalidation", "key", key)
		return e
	}
	s.entries.Add(key, e)
	metrics.CacheEntries.Set(float64(s.entries.Len()))
	return e
}

// recordError marks the entry failed without discarding previous data.
func (s *Store) recordError(key string, err error, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch+s.gens[key] != gen {
		return
	}
	e := &entry{}
	if prev, ok := s.entries.Peek(key); ok {
		copied := *prev
		e = &copied
	}
	e.err = err
	s.entries.Add(key, e)
}

// current returns whatever the entry holds, flagged as failed with err.
func current[T any](s *Store, key string, err error) Result[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.entries.Peek(key); ok {
		res := resultOf[T](key, StatusFailed, prev)
		res.Err = err
		return res
	}
	return Result[T]{Key: key, Status: StatusFailed, Err: err}
}

func (s *Store) acquire(key string) {
	s.mu.Lock()
	s.inflight[key]++
	s.mu.Unlock()
}

func (s *Store) release(key string) {
	s.mu.Lock()
	s.inflight[key]--
	if s.inflight[key] <= 0 {
		delete(s.inflight, key)
		delete(s.gens, key)
	}
	s.mu.Unlock()
}

func resultOf[T any](key string, status Status, e *entry) Result[T] {
	res := Result[T]{Key: key, Status: status, Err: e.err, FetchedAt: e.fetchedAt}
	if status == StatusSuccess {
		res.Err = nil
	}
	if e.hasValue {
		if v, ok := e.value.(T); ok {
			res.Data = v
			res.HasData = true
		}
	}
	return res
}

// keyspace is the metrics label for a key: everything before the first ':'.
func keyspace(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return key
}
