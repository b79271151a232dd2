package filter

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultPageSize matches the backend's default page size.
	DefaultPageSize = 6
	// Ordering is fixed to newest first; the list exposes no sort control.
	Ordering = "-date_published"

	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02T15:04:05"
)

// Query parameter names understood by GET /press-release/.
const (
	ParamPage        = "page"
	ParamPageSize    = "page_size"
	ParamOrdering    = "ordering"
	ParamSearch      = "search"
	ParamCategory    = "category"
	ParamMinistry    = "ministry"
	ParamAudience    = "audience_type"
	ParamLocation    = "pib_hq"
	ParamDate        = "date_published"
	ParamDateMin     = "date_published_min"
	ParamDateMax     = "date_published_max"
	ParamHasLanguage = "has_translation_language"
	ParamLanguage    = "language"
)

// QueryParams is the flat projection of a State sent to the collection
// endpoint. Unset filters are absent, never empty.
type QueryParams struct {
	values url.Values
}

// Get returns the first value for key.
func (q QueryParams) Get(key string) string {
	return q.values.Get(key)
}

// Has reports whether key is present.
func (q QueryParams) Has(key string) bool {
	_, ok := q.values[key]
	return ok
}

// Keys returns the parameter names in sorted order.
func (q QueryParams) Keys() []string {
	keys := make([]string, 0, len(q.values))
	for k := range q.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Values returns a copy safe for the caller to modify.
func (q QueryParams) Values() url.Values {
	out := make(url.Values, len(q.values))
	for k, v := range q.values {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Key is the canonical serialization used to identify a parameter set.
// url.Values.Encode sorts by key, so equal sets always share a key.
func (q QueryParams) Key() string {
	return q.values.Encode()
}

// Page returns the requested page number.
func (q QueryParams) Page() int {
	p, err := strconv.Atoi(q.values.Get(ParamPage))
	if err != nil || p < 1 {
		return 1
	}
	return p
}

// WithPage returns a copy of q requesting another page.
func (q QueryParams) WithPage(page int) QueryParams {
	v := q.Values()
	v.Set(ParamPage, strconv.Itoa(page))
	return QueryParams{values: v}
}

// Builder derives QueryParams from a State.
type Builder struct {
	PageSize int
}

// NewBuilder returns a builder with a fixed page size.
func NewBuilder(pageSize int) Builder {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return Builder{PageSize: pageSize}
}

// BuildParams derives params with the default page size.
func BuildParams(s State) QueryParams {
	return NewBuilder(DefaultPageSize).Build(s)
}

// Build is a pure derivation: page, page_size and ordering are always
// present, every other parameter only when its filter is set.
func (b Builder) Build(s State) QueryParams {
	pageSize := b.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	page := s.Page
	if page < 1 {
		page = 1
	}

	v := url.Values{}
	v.Set(ParamPage, strconv.Itoa(page))
	v.Set(ParamPageSize, strconv.Itoa(pageSize))
	v.Set(ParamOrdering, Ordering)

	if search := strings.TrimSpace(s.SearchText); search != "" {
		v.Set(ParamSearch, search)
	}
	if s.CategoryID != nil {
		v.Set(ParamCategory, strconv.Itoa(*s.CategoryID))
	}
	if s.MinistryID != nil {
		v.Set(ParamMinistry, strconv.Itoa(*s.MinistryID))
	}
	if s.AudienceID != nil {
		v.Set(ParamAudience, strconv.Itoa(*s.AudienceID))
	}
	if s.LocationName != "" {
		v.Set(ParamLocation, s.LocationName)
	}
	if s.LanguageCode != "" {
		v.Set(ParamHasLanguage, s.LanguageCode)
		v.Set(ParamLanguage, s.LanguageCode)
	}
	setDateParams(v, s.DateFrom, s.DateTo)

	return QueryParams{values: v}
}

func setDateParams(v url.Values, from, to *time.Time) {
	switch {
	case from != nil && to != nil:
		lo, hi := *from, *to
		if startOfDay(hi).Before(startOfDay(lo)) {
			lo, hi = hi, lo
		}
		v.Set(ParamDateMin, startOfDay(lo).Format(dateTimeLayout))
		v.Set(ParamDateMax, endOfDay(hi).Format(dateTimeLayout))
	case from != nil:
		v.Set(ParamDate, from.Format(dateLayout))
	case to != nil:
		v.Set(ParamDate, to.Format(dateLayout))
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}

