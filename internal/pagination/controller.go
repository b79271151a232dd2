// Package pagination bounds page numbers by the total reported by the
// collection endpoint.
package pagination

import "log/slog"

// Scroller is notified when the user moves to another page so the list can
// be brought back into view.
type Scroller interface {
	ScrollToTop(page int)
}

// ScrollFunc adapts a function to Scroller.
type ScrollFunc func(page int)

func (f ScrollFunc) ScrollToTop(page int) { f(page) }

type Controller struct {
	pageSize int
	scroller Scroller
}

// Option configures a Controller.
type Option func(*Controller)

// WithScroller sets the hook run on every accepted page change.
func WithScroller(s Scroller) Option {
	return func(c *Controller) {
		c.scroller = s
	}
}

func New(pageSize int, opts ...Option) *Controller {
	if pageSize < 1 {
		pageSize = 1
	}
	c := &Controller{pageSize: pageSize}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) PageSize() int {
	return c.pageSize
}

// TotalPages is ceil(total / pageSize). An empty collection has zero pages.
func (c *Controller) TotalPages(total int) int {
	if total <= 0 {
		return 0
	}
	return (total + c.pageSize - 1) / c.pageSize
}

// Clamp maps page into [1, max(1, TotalPages(total))].
func (c *Controller) Clamp(page, total int) int {
	last := c.TotalPages(total)
	if last < 1 {
		last = 1
	}
	switch {
	case page < 1:
		return 1
	case page > last:
		return last
	default:
		return page
	}
}

// Reconcile corrects current after the total changed. changed is true when
// the page moved and the caller must fetch again.
func (c *Controller) Reconcile(current, total int) (page int, changed bool) {
	page = c.Clamp(current, total)
	if page != current {
		slog.Debug("Correcting out of range page", "requested", current, "corrected", page, "total", total)
	}
	return page, page != current
}

// Request handles a user's page click. The requested page is clamped; the
// scroll hook fires only when the effective page differs from current.
func (c *Controller) Request(current, requested, total int) (page int, changed bool) {
	page = c.Clamp(requested, total)
	if page == current {
		return page, false
	}
	if c.scroller != nil {
		c.scroller.ScrollToTop(page)
	}
	return page, true
}

// Bounds returns the 1-based positions of the first and last items shown on
// page, for "showing a-b of n". Both are zero for an empty collection.
func (c *Controller) Bounds(page, total int) (first, last int) {
	if total <= 0 {
		return 0, 0
	}
	page = c.Clamp(page, total)
	first = (page-1)*c.pageSize + 1
	last = first + c.pageSize - 1
	if last > total {
		last = total
	}
	return first, last
}
