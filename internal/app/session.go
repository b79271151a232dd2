package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/kevinnadar22/announce/internal/filter"
	"github.com/kevinnadar22/announce/internal/infra/cache"
	"github.com/kevinnadar22/announce/internal/pagination"
	"github.com/kevinnadar22/announce/internal/view"
)

// Snapshot is what a ListSession subscriber sees after every change.
type Snapshot struct {
	State  filter.State
	Key    string
	Status cache.Status
	View   view.ListPage
}

// ListSession is the long-lived list view of an interactive client. Every
// state change derives new params and fetches; a response is only applied
// while its key is still the current one.
type ListSession struct {
	ctx      context.Context
	fetcher  *CollectionFetcher
	builder  filter.Builder
	ctrl     *pagination.Controller
	cardOpts view.CardOptions
	notify   func(Snapshot)

	debounce     time.Duration
	debounceOpts []filter.DebounceOption
	debouncer    *filter.Debouncer

	deliver sync.Mutex

	mu     sync.Mutex
	state  filter.State
	key    string
	total  int
	loaded bool
	last   Snapshot
	wg     sync.WaitGroup
}

type SessionOption func(*ListSession)

// WithSubscriber sets the callback run with each new snapshot. It runs on
// the fetching goroutine, one call at a time, and must not block or change
// the session.
func WithSubscriber(fn func(Snapshot)) SessionOption {
	return func(s *ListSession) {
		s.notify = fn
	}
}

func WithDebounce(delay time.Duration, opts ...filter.DebounceOption) SessionOption {
	return func(s *ListSession) {
		s.debounce = delay
		s.debounceOpts = opts
	}
}

func WithCardOptions(opts view.CardOptions) SessionOption {
	return func(s *ListSession) {
		s.cardOpts = opts
	}
}

func WithInitialState(state filter.State) SessionOption {
	return func(s *ListSession) {
		s.state = state
	}
}

func NewListSession(ctx context.Context, fetcher *CollectionFetcher, builder filter.Builder, ctrl *pagination.Controller, opts ...SessionOption) *ListSession {
	s := &ListSession{
		ctx:      ctx,
		fetcher:  fetcher,
		builder:  builder,
		ctrl:     ctrl,
		state:    filter.NewState(),
		debounce: filter.DefaultDebounce,
		notify:   func(Snapshot) {},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.debouncer = filter.NewDebouncer(s.debounce, s.commitSearch, s.debounceOpts...)
	return s
}

// Start fetches the initial state.
func (s *ListSession) Start() {
	s.mu.Lock()
	params := s.builder.Build(s.state)
	s.key = ListKey(params)
	s.mu.Unlock()
	s.fetch(params)
}

// Type records raw search input; it is applied once typing pauses.
func (s *ListSession) Type(text string) {
	s.debouncer.Push(text)
}

// Submit applies pending search input immediately.
func (s *ListSession) Submit() {
	s.debouncer.Flush()
}

func (s *ListSession) commitSearch(text string) {
	s.Update(func(st *filter.State) bool { return st.SetSearch(text) })
}

// Update applies fn to the state and fetches when it reports a change.
func (s *ListSession) Update(fn func(*filter.State) bool) {
	s.mu.Lock()
	if !fn(&s.state) {
		s.mu.Unlock()
		return
	}
	params := s.builder.Build(s.state)
	s.key = ListKey(params)
	s.mu.Unlock()
	s.fetch(params)
}

// GoToPage requests a page, clamped to the last known total.
func (s *ListSession) GoToPage(page int) {
	s.mu.Lock()
	total := s.total
	if !s.loaded {
		// Nothing to clamp against yet; the fetch will reconcile.
		total = page * s.ctrl.PageSize()
	}
	next, changed := s.ctrl.Request(s.state.Page, page, total)
	s.mu.Unlock()
	if !changed {
		return
	}
	s.Update(func(st *filter.State) bool { return st.SetPage(next) })
}

// Clear resets every filter and drops pending search input.
func (s *ListSession) Clear() {
	s.debouncer.Stop()
	s.Update(func(st *filter.State) bool { return st.Clear() })
}

// Refresh drops the cached page and fetches it again.
func (s *ListSession) Refresh() {
	s.mu.Lock()
	params := s.builder.Build(s.state)
	key := ListKey(params)
	s.key = key
	s.mu.Unlock()
	s.fetcher.store.Invalidate(key)
	s.fetch(params)
}

func (s *ListSession) State() filter.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot returns the last published snapshot.
func (s *ListSession) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Wait blocks until every fetch started so far has been applied or dropped.
func (s *ListSession) Wait() {
	s.wg.Wait()
}

// Close drops pending input and waits for in-flight fetches.
func (s *ListSession) Close() {
	s.debouncer.Stop()
	s.wg.Wait()
}

func (s *ListSession) fetch(params filter.QueryParams) {
	key := ListKey(params)
	s.publish(key, s.fetcher.Peek(params))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		res := s.fetcher.FetchStale(s.ctx, params)
		if res.Status == cache.StatusRefreshing {
			s.publish(key, res)
			res = s.fetcher.Fetch(s.ctx, params)
		}
		total, known := res.Data.TotalCount, res.HasData
		if pastEnd(params, res) {
			total, known = s.fetcher.Total(s.ctx, params)
		}
		s.apply(key, res, total, known)
	}()
}

// apply publishes a finished fetch, or corrects the page when a known total
// no longer covers it.
func (s *ListSession) apply(key string, res cache.Result[Page], total int, known bool) {
	s.mu.Lock()
	if key != s.key {
		s.mu.Unlock()
		slog.Debug("Discarding stale list response", "key", key)
		return
	}
	if known {
		s.total = total
		s.loaded = true
		if page, changed := s.ctrl.Reconcile(s.state.Page, total); changed {
			s.state.SetPage(page)
			params := s.builder.Build(s.state)
			s.key = ListKey(params)
			s.mu.Unlock()
			s.fetch(params)
			return
		}
	}
	s.mu.Unlock()
	s.publish(key, res)
}

// publish delivers a snapshot while key is current. Delivery is serialized
// and the key is checked under the same lock, so a subscriber never sees an
// older key after a newer one.
func (s *ListSession) publish(key string, res cache.Result[Page]) {
	s.deliver.Lock()
	defer s.deliver.Unlock()

	s.mu.Lock()
	if key != s.key {
		s.mu.Unlock()
		return
	}
	snap := Snapshot{
		State:  s.state,
		Key:    key,
		Status: res.Status,
		View:   view.RenderList(listInput(s.state, res), s.ctrl, s.cardOpts),
	}
	s.last = snap
	s.mu.Unlock()
	s.notify(snap)
}
