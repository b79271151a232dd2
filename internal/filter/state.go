// Package filter holds the list view's filter state and derives the query
// sent to the press-release collection endpoint.
package filter

import (
	"strconv"
	"strings"
	"time"
)

// State is the current set of list filters plus the selected page.
// SearchText holds the committed (debounced) search, not raw keystrokes.
type State struct {
	SearchText   string     `json:"search,omitempty"`
	CategoryID   *int       `json:"category,omitempty"`
	MinistryID   *int       `json:"ministry,omitempty"`
	AudienceID   *int       `json:"audience,omitempty"`
	LanguageCode string     `json:"language,omitempty"`
	LocationName string     `json:"location,omitempty"`
	DateFrom     *time.Time `json:"date_from,omitempty"`
	DateTo       *time.Time `json:"date_to,omitempty"`
	Page         int        `json:"page"`
}

// NewState returns a state with every filter unset on page 1.
func NewState() State {
	return State{Page: 1}
}

// Every setter below resets Page to 1 when it changes a value, so a narrower
// filter never leaves the view on a page that no longer exists.

func (s *State) SetSearch(text string) bool {
	if s.SearchText == text {
		return false
	}
	s.SearchText = text
	s.Page = 1
	return true
}

func (s *State) SetCategory(id *int) bool {
	return s.setID(&s.CategoryID, id)
}

func (s *State) SetMinistry(id *int) bool {
	return s.setID(&s.MinistryID, id)
}

func (s *State) SetAudience(id *int) bool {
	return s.setID(&s.AudienceID, id)
}

func (s *State) SetLanguage(code string) bool {
	code = strings.ToLower(strings.TrimSpace(code))
	if s.LanguageCode == code {
		return false
	}
	s.LanguageCode = code
	s.Page = 1
	return true
}

func (s *State) SetLocation(name string) bool {
	if s.LocationName == name {
		return false
	}
	s.LocationName = name
	s.Page = 1
	return true
}

// SetDateRange selects a single day (one bound set) or a range (both set).
func (s *State) SetDateRange(from, to *time.Time) bool {
	if sameTime(s.DateFrom, from) && sameTime(s.DateTo, to) {
		return false
	}
	s.DateFrom = copyTime(from)
	s.DateTo = copyTime(to)
	s.Page = 1
	return true
}

// SetPage changes only the page. Values below 1 are raised to 1; the upper
// bound is enforced by the pagination controller once the total is known.
func (s *State) SetPage(page int) bool {
	if page < 1 {
		page = 1
	}
	if s.Page == page {
		return false
	}
	s.Page = page
	return true
}

// Clear unsets every filter and returns to page 1.
func (s *State) Clear() bool {
	if !s.HasActiveFilters() && s.Page == 1 {
		return false
	}
	*s = NewState()
	return true
}

// HasActiveFilters reports whether any field other than Page is set.
func (s State) HasActiveFilters() bool {
	return len(s.ActiveFilters()) > 0
}

// ActiveFilter is one applied filter, for "active filters" chips.
type ActiveFilter struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// ActiveFilters lists applied filters in display order.
func (s State) ActiveFilters() []ActiveFilter {
	var out []ActiveFilter
	if s.SearchText != "" {
		out = append(out, ActiveFilter{Field: "search", Value: s.SearchText})
	}
	if s.CategoryID != nil {
		out = append(out, ActiveFilter{Field: "category", Value: strconv.Itoa(*s.CategoryID)})
	}
	if s.MinistryID != nil {
		out = append(out, ActiveFilter{Field: "ministry", Value: strconv.Itoa(*s.MinistryID)})
	}
	if s.AudienceID != nil {
		out = append(out, ActiveFilter{Field: "audience", Value: strconv.Itoa(*s.AudienceID)})
	}
	if s.LanguageCode != "" {
		out = append(out, ActiveFilter{Field: "language", Value: s.LanguageCode})
	}
	if s.LocationName != "" {
		out = append(out, ActiveFilter{Field: "location", Value: s.LocationName})
	}
	if s.DateFrom != nil || s.DateTo != nil {
		out = append(out, ActiveFilter{Field: "date", Value: formatRange(s.DateFrom, s.DateTo)})
	}
	return out
}

// QuickRange returns the "last N days" range ending at now.
func QuickRange(days int, now time.Time) (from, to time.Time) {
	return now.AddDate(0, 0, -days), now
}

func (s *State) setID(field **int, id *int) bool {
	if sameInt(*field, id) {
		return false
	}
	if id == nil {
		*field = nil
	} else {
		v := *id
		*field = &v
	}
	s.Page = 1
	return true
}

func sameInt(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func formatRange(from, to *time.Time) string {
	switch {
	case from != nil && to != nil:
		return from.Format("Jan 02") + " - " + to.Format("Jan 02")
	case from != nil:
		return from.Format("Jan 02, 2006")
	default:
		return to.Format("Jan 02, 2006")
	}
}
