package view

import (
	"github.com/kevinnadar22/announce/internal/domain"
)

// NotAvailable is shown in place of a variant missing for the language.
const NotAvailable = "Not available in this language."

// DisplayedKinds are the variant sections of the detail view, in order.
var DisplayedKinds = []domain.VariantKind{
	domain.VariantKeypoints,
	domain.VariantSimplified,
	domain.VariantOversimplified,
}

var sectionTitles = map[domain.VariantKind]string{
	domain.VariantKeypoints:      "Key Highlights",
	domain.VariantSimplified:     "Easy Read",
	domain.VariantOversimplified: "Simplified Version",
	domain.VariantSummary:        "Summary",
	domain.VariantOriginal:       "Original Text",
}

func SectionTitle(kind domain.VariantKind) string {
	if t, ok := sectionTitles[kind]; ok {
		return t
	}
	return string(kind)
}

// Detail states.
const (
	DetailLoading       = "loading"
	DetailSuccess       = "success"
	DetailNotFound      = "not_found"
	DetailError         = "error"
	DetailTransitioning = "transitioning"
)

type Section struct {
	Kind      domain.VariantKind `json:"kind"`
	Title     string             `json:"title"`
	Available bool               `json:"available"`
	Heading   string             `json:"heading,omitempty"`
	HTML      string             `json:"html,omitempty"`
	Text      string             `json:"text,omitempty"`
	Fallback  string             `json:"fallback,omitempty"`
}

type LanguageOption struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Selected bool   `json:"selected,omitempty"`
	Href     string `json:"href"`
}

type DetailHeader struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Ministry    string   `json:"ministry"`
	Office      string   `json:"office,omitempty"`
	Date        string   `json:"date"`
	Time        string   `json:"time"`
	Categories  []string `json:"categories"`
	Audiences   []string `json:"audiences"`
	SourceURL   string   `json:"source_url"`
}

// DetailPage is the rendered detail view.
type DetailPage struct {
	State        string           `json:"state"`
	Language     string           `json:"language,omitempty"`
	Announcement *DetailHeader    `json:"announcement,omitempty"`
	OriginalText string           `json:"original_text,omitempty"`
	Sections     []Section        `json:"sections,omitempty"`
	Languages    []LanguageOption `json:"languages,omitempty"`
	FromArchive  bool             `json:"from_archive,omitempty"`
	// SwitchFailed is set when a language change failed and the previous
	// content is still shown.
	SwitchFailed bool   `json:"switch_failed,omitempty"`
	Panel        *Panel `json:"panel,omitempty"`
}

// DetailInput is the data behind one detail render. Variants holds the
// first variant found per kind; a missing key means none exists.
type DetailInput struct {
	State        string
	Language     string
	Announcement *domain.Announcement
	Variants     map[domain.VariantKind]domain.TranslatedVariant
	FromArchive  bool
	SwitchFailed bool
}

// Sanitize converts stored variant markup for output.
type Sanitize struct {
	HTML func(string) string
	Text func(string) string
}

func (s Sanitize) html(v string) string {
	if s.HTML == nil {
		return v
	}
	return s.HTML(v)
}

func (s Sanitize) text(v string) string {
	if s.Text == nil {
		return v
	}
	return s.Text(v)
}

func RenderDetail(in DetailInput, san Sanitize, opts CardOptions) DetailPage {
	opts = opts.withDefaults()
	page := DetailPage{State: in.State, Language: in.Language, FromArchive: in.FromArchive, SwitchFailed: in.SwitchFailed}

	switch in.State {
	case DetailNotFound:
		page.Panel = NotFoundPanel()
		return page
	case DetailError:
		page.Panel = UnavailablePanel()
		return page
	}
	if in.Announcement == nil {
		page.State = DetailLoading
		return page
	}

	a := in.Announcement
	header := &DetailHeader{
		ID:          a.ID,
		Title:       a.Title,
		Description: san.text(a.Description),
		Ministry:    a.MinistryName,
		Office:      a.Office,
		Categories:  a.CategoryNames,
		Audiences:   a.AudienceTypeNames,
		SourceURL:   a.SourceURL,
	}
	if !a.PublishedAt.IsZero() {
		published := a.PublishedAt.In(opts.Location)
		header.Date = published.Format(DateLayout)
		header.Time = published.Format(TimeLayout)
	}
	page.Announcement = header
	page.OriginalText = a.OriginalText

	for _, kind := range DisplayedKinds {
		s := Section{Kind: kind, Title: SectionTitle(kind)}
		if v, ok := in.Variants[kind]; ok && v.Content != "" {
			s.Available = true
			s.Heading = v.Title
			s.HTML = san.html(v.Content)
			s.Text = san.text(v.Content)
		} else {
			s.Fallback = NotAvailable
		}
		page.Sections = append(page.Sections, s)
	}

	for _, code := range a.AvailableLanguages {
		page.Languages = append(page.Languages, LanguageOption{
			Code:     code,
			Name:     LanguageName(code),
			Selected: code == in.Language,
			Href:     DetailPath(a.ID, code),
		})
	}
	return page
}
