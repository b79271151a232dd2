package view

import (
	"github.com/kevinnadar22/announce/internal/pagination"
)

// PageLink is one entry in the page strip. Ellipsis entries have no page.
type PageLink struct {
	Page     int  `json:"page,omitempty"`
	Current  bool `json:"current,omitempty"`
	Ellipsis bool `json:"ellipsis,omitempty"`
}

type Showing struct {
	From  int `json:"from"`
	To    int `json:"to"`
	Total int `json:"total"`
}

// Controls is the pagination bar under the list.
type Controls struct {
	Page       int        `json:"page"`
	TotalPages int        `json:"total_pages"`
	Prev       *int       `json:"prev,omitempty"`
	Next       *int       `json:"next,omitempty"`
	Links      []PageLink `json:"links"`
	Showing    Showing    `json:"showing"`
}

// Hidden reports whether there is nothing to paginate.
func (c Controls) Hidden() bool {
	return c.TotalPages <= 1
}

// window is how many pages either side of the current one are linked.
const window = 1

// BuildControls assumes page was already clamped by the controller; it
// clamps again so a stale caller cannot render a link past the end.
func BuildControls(ctrl *pagination.Controller, page, total int) Controls {
	totalPages := ctrl.TotalPages(total)
	page = ctrl.Clamp(page, total)
	first, last := ctrl.Bounds(page, total)

	c := Controls{
		Page:       page,
		TotalPages: totalPages,
		Showing:    Showing{From: first, To: last, Total: total},
	}
	if page > 1 {
		prev := page - 1
		c.Prev = &prev
	}
	if page < totalPages {
		next := page + 1
		c.Next = &next
	}
	if totalPages == 0 {
		return c
	}

	lo, hi := page-window, page+window
	if lo < 1 {
		lo = 1
	}
	if hi > totalPages {
		hi = totalPages
	}

	if lo > 1 {
		c.Links = append(c.Links, PageLink{Page: 1})
		if lo > 2 {
			c.Links = append(c.Links, PageLink{Ellipsis: true})
		}
	}
	for p := lo; p <= hi; p++ {
		c.Links = append(c.Links, PageLink{Page: p, Current: p == page})
	}
	if hi < totalPages {
		if hi < totalPages-1 {
			c.Links = append(c.Links, PageLink{Ellipsis: true})
		}
		c.Links = append(c.Links, PageLink{Page: totalPages})
	}
	return c
}
