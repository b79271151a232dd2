package view

import (
	"github.com/kevinnadar22/announce/internal/domain"
	"github.com/kevinnadar22/announce/internal/filter"
	"github.com/kevinnadar22/announce/internal/pagination"
)

// Panel kinds. List views use no_results and service_unavailable; detail
// views use not_found and unavailable.
const (
	PanelNoResults          = "no_results"
	PanelServiceUnavailable = "service_unavailable"
	PanelNotFound           = "not_found"
	PanelUnavailable        = "unavailable"
)

type Link struct {
	Label string `json:"label"`
	Href  string `json:"href"`
}

// Panel replaces content that could not be shown.
type Panel struct {
	Kind    string `json:"kind"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Action  *Link  `json:"action,omitempty"`
}

var HomeLink = Link{Label: "Back to announcements", Href: "/"}

func NoResultsPanel(filtersActive bool) *Panel {
	p := &Panel{
		Kind:    PanelNoResults,
		Title:   "No announcements found",
		Message: "No announcements match the selected filters.",
	}
	if filtersActive {
		p.Message = "Try removing some filters or widening the date range."
		p.Action = &Link{Label: "Clear all filters", Href: "/announcements"}
	}
	return p
}

func ServiceUnavailablePanel() *Panel {
	return &Panel{
		Kind:    PanelServiceUnavailable,
		Title:   "Announcements are unavailable",
		Message: "The announcement service could not be reached. Please try again in a few minutes.",
	}
}

func NotFoundPanel() *Panel {
	return &Panel{
		Kind:    PanelNotFound,
		Title:   "Announcement not found",
		Message: "The announcement you are looking for does not exist or has been removed.",
		Action:  &HomeLink,
	}
}

func UnavailablePanel() *Panel {
	return &Panel{
		Kind:    PanelUnavailable,
		Title:   "Could not load this announcement",
		Message: "Something went wrong while loading the announcement. Please try again.",
		Action:  &HomeLink,
	}
}

// PageNotFoundPanel is shown for unknown routes.
func PageNotFoundPanel(path string) *Panel {
	return &Panel{
		Kind:    PanelNotFound,
		Title:   "Page not found",
		Message: "Nothing lives at " + path + ".",
		Action:  &HomeLink,
	}
}

// ListInput is everything the list renderer needs from a fetch.
type ListInput struct {
	State      filter.State
	Page       domain.PagedResult[domain.Announcement]
	HasData    bool
	Loading    bool
	Refreshing bool
	Err        error
}

// ListPage is the rendered list view.
type ListPage struct {
	Status        string                `json:"status"`
	Refreshing    bool                  `json:"refreshing,omitempty"`
	Stale         bool                  `json:"stale,omitempty"`
	ActiveFilters []filter.ActiveFilter `json:"active_filters,omitempty"`
	Cards         []Card                `json:"cards"`
	Pagination    *Controls             `json:"pagination,omitempty"`
	Panel         *Panel                `json:"panel,omitempty"`
}

// List status values.
const (
	ListLoading = "loading"
	ListReady   = "ready"
	ListEmpty   = "empty"
	ListFailed  = "failed"
)

// RenderList picks between cards, a spinner and a panel. Data from an
// earlier success is kept on screen when a refresh fails.
func RenderList(in ListInput, ctrl *pagination.Controller, opts CardOptions) ListPage {
	page := ListPage{
		ActiveFilters: in.State.ActiveFilters(),
		Cards:         []Card{},
	}

	switch {
	case !in.HasData && in.Err != nil:
		page.Status = ListFailed
		page.Panel = ServiceUnavailablePanel()
		return page
	case !in.HasData:
		page.Status = ListLoading
		return page
	case in.Page.TotalCount == 0 || len(in.Page.Items) == 0:
		page.Status = ListEmpty
		page.Panel = NoResultsPanel(in.State.HasActiveFilters())
		page.Stale = in.Err != nil
		return page
	}

	if opts.Language == "" {
		opts.Language = in.State.LanguageCode
	}
	page.Status = ListReady
	page.Refreshing = in.Refreshing
	page.Stale = in.Err != nil
	page.Cards = NewCards(in.Page.Items, opts)
	controls := BuildControls(ctrl, in.State.Page, in.Page.TotalCount)
	page.Pagination = &controls
	return page
}
