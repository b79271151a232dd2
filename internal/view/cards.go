// Package view turns domain data into the view models the HTTP layer and
// the terminal browser render. Nothing here does I/O.
package view

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kevinnadar22/announce/internal/domain"
)

const (
	DateLayout = "Jan 02, 2006"
	TimeLayout = "3:04 PM"

	DefaultTruncate   = 30
	DefaultExcerptLen = 240

	visibleCategories = 3
	visibleAudiences  = 2
	visibleLanguages  = 4
)

// IST is the zone press releases are published in.
var IST = time.FixedZone("IST", 5*3600+1800)

// Truncate shortens text to max runes, appending "..." when it cut.
func Truncate(text string, max int) string {
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:max])) + "..."
}

// Chips is a badge row: the first few values plus a count of the rest.
type Chips struct {
	Visible  []string `json:"visible"`
	Overflow []string `json:"overflow,omitempty"`
}

func chips(values []string, visible int) Chips {
	if len(values) <= visible {
		return Chips{Visible: values}
	}
	return Chips{Visible: values[:visible], Overflow: values[visible:]}
}

// Card is one announcement in the list.
type Card struct {
	ID           int    `json:"id"`
	Title        string `json:"title"`
	Excerpt      string `json:"excerpt"`
	Ministry     string `json:"ministry"`
	MinistryTag  string `json:"ministry_short"`
	Office       string `json:"office,omitempty"`
	Date         string `json:"date"`
	Time         string `json:"time"`
	Categories   Chips  `json:"categories"`
	Audiences    Chips  `json:"audiences"`
	Languages    Chips  `json:"languages"`
	SourceURL    string `json:"source_url"`
	DetailPath   string `json:"detail_path"`
	LanguageCode string `json:"-"`
}

// CardOptions tune how cards are built.
type CardOptions struct {
	Location   *time.Location
	ExcerptLen int
	// Language, when set, is carried into each card's detail link.
	Language string
	// Text strips markup from descriptions; identity when nil.
	Text func(string) string
}

func (o CardOptions) withDefaults() CardOptions {
	if o.Location == nil {
		o.Location = IST
	}
	if o.ExcerptLen <= 0 {
		o.ExcerptLen = DefaultExcerptLen
	}
	if o.Text == nil {
		o.Text = func(s string) string { return s }
	}
	return o
}

func NewCard(a domain.Announcement, opts CardOptions) Card {
	opts = opts.withDefaults()

	// The summary may be missing for fresh releases; fall back to the source text.
	excerpt := a.Description
	if strings.TrimSpace(excerpt) == "" {
		excerpt = a.OriginalText
	}
	excerpt = Truncate(opts.Text(excerpt), opts.ExcerptLen)

	published := a.PublishedAt.In(opts.Location)
	var date, clock string
	if !a.PublishedAt.IsZero() {
		date = published.Format(DateLayout)
		clock = published.Format(TimeLayout)
	}

	return Card{
		ID:           a.ID,
		Title:        a.Title,
		Excerpt:      excerpt,
		Ministry:     a.MinistryName,
		MinistryTag:  Truncate(a.MinistryName, DefaultTruncate),
		Office:       a.Office,
		Date:         date,
		Time:         clock,
		Categories:   chips(a.CategoryNames, visibleCategories),
		Audiences:    chips(a.AudienceTypeNames, visibleAudiences),
		Languages:    chips(LanguageNames(a.AvailableLanguages), visibleLanguages),
		SourceURL:    a.SourceURL,
		DetailPath:   DetailPath(a.ID, opts.Language),
		LanguageCode: opts.Language,
	}
}

func NewCards(items []domain.Announcement, opts CardOptions) []Card {
	cards := make([]Card, 0, len(items))
	for _, a := range items {
		cards = append(cards, NewCard(a, opts))
	}
	return cards
}

// DetailPath is the route of an announcement's detail view.
func DetailPath(id int, language string) string {
	p := "/announcements/" + strconv.Itoa(id)
	if language != "" {
		p += "?language=" + language
	}
	return p
}
