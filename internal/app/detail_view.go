package app

import (
	"context"
	"sync"

	"github.com/kevinnadar22/announce/internal/view"
)

// DetailView is the detail page of an interactive client. It moves
// loading -> success | not_found | error, and on a language change from
// success through transitioning back to success. A failed change keeps the
// previous content and flags it.
type DetailView struct {
	svc    *DetailService
	id     int
	notify func(DetailResult)

	mu      sync.Mutex
	current DetailResult
	seq     uint64
}

func NewDetailView(svc *DetailService, id int, notify func(DetailResult)) *DetailView {
	if notify == nil {
		notify = func(DetailResult) {}
	}
	return &DetailView{
		svc:     svc,
		id:      id,
		notify:  notify,
		current: DetailResult{State: view.DetailLoading},
	}
}

func (v *DetailView) Current() DetailResult {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current
}

func (v *DetailView) State() string {
	return v.Current().State
}

// Open loads the announcement from scratch.
func (v *DetailView) Open(ctx context.Context, language string) DetailResult {
	seq := v.enter(DetailResult{State: view.DetailLoading, Language: language})
	res := v.svc.Load(ctx, v.id, language)
	return v.settle(seq, res)
}

// SwitchLanguage reloads in another language. Outside the success state it
// behaves like Open.
func (v *DetailView) SwitchLanguage(ctx context.Context, language string) DetailResult {
	v.mu.Lock()
	prev := v.current
	v.mu.Unlock()

	if prev.State != view.DetailSuccess && prev.State != view.DetailTransitioning {
		return v.Open(ctx, language)
	}
	if prev.Language == language && prev.State == view.DetailSuccess {
		return prev
	}

	transitioning := prev
	transitioning.State = view.DetailTransitioning
	transitioning.SwitchFailed = false
	seq := v.enter(transitioning)

	res := v.svc.Load(ctx, v.id, language)
	if res.State != view.DetailSuccess {
		kept := prev
		kept.State = view.DetailSuccess
		kept.SwitchFailed = true
		kept.Err = res.Err
		return v.settle(seq, kept)
	}
	return v.settle(seq, res)
}

func (v *DetailView) enter(r DetailResult) uint64 {
	v.mu.Lock()
	v.seq++
	seq := v.seq
	v.current = r
	v.mu.Unlock()
	v.notify(r)
	return seq
}

// settle applies r unless a newer transition started meanwhile.
func (v *DetailView) settle(seq uint64, r DetailResult) DetailResult {
	v.mu.Lock()
	if seq != v.seq {
		cur := v.current
		v.mu.Unlock()
		return cur
	}
	v.current = r
	v.mu.Unlock()
	v.notify(r)
	return r
}
