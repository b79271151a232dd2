package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Announcement is a single published government press release.
type Announcement struct {
	ID                 int       `json:"id" bson:"announcement_id"`
	Title              string    `json:"title" bson:"title"`
	Description        string    `json:"description" bson:"description"`
	OriginalText       string    `json:"original_text" bson:"original_text"`
	SourceURL          string    `json:"source_url" bson:"source_url"`
	PublishedAt        time.Time `json:"date_published" bson:"date_published"`
	Office             string    `json:"pib_hq" bson:"pib_hq"` // originating PIB office, e.g. "PIB Delhi"
	MinistryID         int       `json:"ministry" bson:"ministry"`
	MinistryName       string    `json:"ministry_name" bson:"ministry_name"`
	AudienceTypeIDs    []int     `json:"audience_type" bson:"audience_type"`
	AudienceTypeNames  []string  `json:"audience_type_names" bson:"audience_type_names"`
	CategoryIDs        []int     `json:"category" bson:"category"`
	CategoryNames      []string  `json:"category_names" bson:"category_names"`
	AvailableLanguages []string  `json:"available_languages" bson:"available_languages"`
	CreatedAt          time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" bson:"updated_at"`

	// Set by the archive; never sent by the upstream API.
	Language    string    `json:"-" bson:"language,omitempty"`
	ContentHash string    `json:"-" bson:"content_hash"`
	ArchivedAt  time.Time `json:"-" bson:"archived_at"`
}

// ComputeHash returns a deterministic hash of the fields a reader sees.
// Timestamps are excluded so a re-save without edits is not a change.
func (a *Announcement) ComputeHash() string {
	hasher := sha256.New()
	hasher.Write([]byte(a.Title))
	hasher.Write([]byte(a.Description))
	hasher.Write([]byte(a.OriginalText))
	hasher.Write([]byte(a.SourceURL))
	hasher.Write([]byte(a.MinistryName))
	hasher.Write([]byte(strings.Join(a.CategoryNames, ",")))
	hasher.Write([]byte(strings.Join(a.AudienceTypeNames, ",")))
	hasher.Write([]byte(strings.Join(a.AvailableLanguages, ",")))
	return hex.EncodeToString(hasher.Sum(nil))
}

// HasLanguage reports whether a translation in code is available.
func (a *Announcement) HasLanguage(code string) bool {
	for _, l := range a.AvailableLanguages {
		if strings.EqualFold(l, code) {
			return true
		}
	}
	return false
}

// VariantKind identifies how a TranslatedVariant was produced.
type VariantKind string

const (
	VariantSummary        VariantKind = "summary"
	VariantSimplified     VariantKind = "simplified"
	VariantOriginal       VariantKind = "original"
	VariantKeypoints      VariantKind = "keypoints"
	VariantOversimplified VariantKind = "oversimplified"
)

// Valid reports whether k is one of the kinds the backend produces.
func (k VariantKind) Valid() bool {
	switch k {
	case VariantSummary, VariantSimplified, VariantOriginal, VariantKeypoints, VariantOversimplified:
		return true
	}
	return false
}

// TranslatedVariant is a language- and kind-specific rendering of one
// announcement's text.
type TranslatedVariant struct {
	ID              int         `json:"id"`
	AnnouncementID  int         `json:"press_release"`
	Language        string      `json:"language"`
	LanguageDisplay string      `json:"language_display"`
	Kind            VariantKind `json:"text_type"`
	Title           string      `json:"title"`
	Content         string      `json:"content"` // markup
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// PagedResult is one page of a remote collection. TotalCount is the count
// across all pages.
type PagedResult[T any] struct {
	TotalCount int    `json:"count"`
	Next       string `json:"next,omitempty"`
	Previous   string `json:"previous,omitempty"`
	Items      []T    `json:"results"`
}

// HasNext reports whether the server advertised another page.
func (p PagedResult[T]) HasNext() bool {
	return p.Next != ""
}

// Category, Ministry and AudienceType are reference data used by filters.
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Ministry struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type AudienceType struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Language is a translation target offered by the backend.
type Language struct {
	Code  string `json:"choice"`
	Label string `json:"label"`
}

// Stats are aggregate counts shown on the landing view.
type Stats struct {
	PressReleases int `json:"press_releases"`
	Ministries    int `json:"ministries"`
	Languages     int `json:"languages"`
}
