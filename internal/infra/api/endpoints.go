package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/kevinnadar22/announce/internal/domain"
	"github.com/kevinnadar22/announce/internal/infra/metrics"
)

const (
	pathAnnouncements = "/press-release/"
	pathVariants      = "/translated-text/"
	pathCategories    = "/category/"
	pathMinistries    = "/ministry/"
	pathAudiences     = "/audience-type/"
	pathLanguages     = "/languages/"
	pathLocations     = "/pib-hq/"
	pathStats         = "/stats/"
)

var (
	_ domain.AnnouncementSource = (*Client)(nil)
	_ domain.ReferenceSource    = (*Client)(nil)
)

// ListAnnouncements fetches one page of the collection. params are sent as is.
func (c *Client) ListAnnouncements(ctx context.Context, params url.Values) (domain.PagedResult[domain.Announcement], error) {
	var page domain.PagedResult[domain.Announcement]
	if err := c.getJSON(ctx, "press-release", pathAnnouncements, params, &page); err != nil {
		return domain.PagedResult[domain.Announcement]{}, err
	}
	return page, nil
}

// GetAnnouncement fetches one announcement, localized when language is set.
// A missing record is reported as domain.ErrNotFound.
func (c *Client) GetAnnouncement(ctx context.Context, id int, language string) (*domain.Announcement, error) {
	var q url.Values
	if language != "" {
		q = url.Values{"language": {language}}
	}
	var a domain.Announcement
	rel := pathAnnouncements + strconv.Itoa(id) + "/"
	if err := c.getJSON(ctx, "press-release-detail", rel, q, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// ListVariants returns the translated texts matching q. Zero results is not
// an error.
func (c *Client) ListVariants(ctx context.Context, q domain.VariantQuery) ([]domain.TranslatedVariant, error) {
	params := url.Values{"press_release": {strconv.Itoa(q.AnnouncementID)}}
	if q.Language != "" {
		params.Set("language", q.Language)
	}
	if q.Kind != "" {
		params.Set("text_type", string(q.Kind))
	}
	body, err := c.get(ctx, "translated-text", pathVariants, params)
	if err != nil {
		return nil, err
	}
	variants, _, err := decodeList[domain.TranslatedVariant](body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode translated-text response: %w", err)
	}
	return variants, nil
}

func (c *Client) AllCategories(ctx context.Context) ([]domain.Category, error) {
	return fetchAll[domain.Category](ctx, c, "category", pathCategories)
}

func (c *Client) AllMinistries(ctx context.Context) ([]domain.Ministry, error) {
	return fetchAll[domain.Ministry](ctx, c, "ministry", pathMinistries)
}

func (c *Client) AllAudienceTypes(ctx context.Context) ([]domain.AudienceType, error) {
	return fetchAll[domain.AudienceType](ctx, c, "audience-type", pathAudiences)
}

func (c *Client) Languages(ctx context.Context) ([]domain.Language, error) {
	var langs []domain.Language
	if err := c.getJSON(ctx, "languages", pathLanguages, nil, &langs); err != nil {
		return nil, err
	}
	return langs, nil
}

// Locations returns the distinct originating PIB offices.
func (c *Client) Locations(ctx context.Context) ([]string, error) {
	var resp struct {
		PIBHQ []string `json:"pib_hq"`
	}
	if err := c.getJSON(ctx, "pib-hq", pathLocations, nil, &resp); err != nil {
		return nil, err
	}
	return resp.PIBHQ, nil
}

func (c *Client) Stats(ctx context.Context) (domain.Stats, error) {
	var s domain.Stats
	if err := c.getJSON(ctx, "stats", pathStats, nil, &s); err != nil {
		return domain.Stats{}, err
	}
	return s, nil
}

// fetchAll follows page numbers while the server reports a next page, up to
// the configured cap. Hitting the cap returns what was collected and logs it.
func fetchAll[T any](ctx context.Context, c *Client, endpoint, relPath string) ([]T, error) {
	var all []T
	for page := 1; page <= c.maxPages; page++ {
		q := url.Values{"page": {strconv.Itoa(page)}}
		body, err := c.get(ctx, endpoint, relPath, q)
		if err != nil {
			return nil, err
		}
		items, hasNext, err := decodeList[T](body)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s response: %w", endpoint, err)
		}
		all = append(all, items...)

		if !hasNext {
			return all, nil
		}
		if page == c.maxPages {
			c.logger.Warn("Reached max pages limit", "endpoint", endpoint, "max_pages", c.maxPages, "collected", len(all))
			metrics.FetchAllTruncated.WithLabelValues(endpoint).Inc()
		}
	}
	return all, nil
}

// decodeList accepts both a bare JSON array and a paginated envelope.
func decodeList[T any](body []byte) ([]T, bool, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, false, err
		}
		return items, false, nil
	}
	var page domain.PagedResult[T]
	if err := json.Unmarshal(trimmed, &page); err != nil {
		return nil, false, err
	}
	return page.Items, page.HasNext(), nil
}
