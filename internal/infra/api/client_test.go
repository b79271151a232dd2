package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevinnadar22/announce/internal/domain"
)

func newTestClient(t *testing.T, handler http.Handler, maxPages int) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := New(Config{
		BaseURL:      server.URL + "/api",
		Timeout:      2 * time.Second,
		MaxRetries:   3,
		RetryBackoff: time.Millisecond,
		MaxPages:     maxPages,
	})
	require.NoError(t, err)
	return c
}

const pageJSON = `{
  "count": 42,
  "next": "http://backend/api/press-release/?page=2",
  "previous": null,
  "results": [{
    "id": 7,
    "title": "Government Announces New Digital India Initiative",
    "original_text": "The Government of India today announced...",
    "source_url": "https://pib.gov.in/PressReleaseIframePage.aspx?PRID=1234567",
    "date_published": "2024-01-15T10:30:00Z",
    "pib_hq": "Delhi",
    "ministry": 1,
    "ministry_name": "Ministry of Electronics and Information Technology",
    "audience_type": [1, 2],
    "audience_type_names": ["Citizens", "Businesses"],
    "category": [1],
    "category_names": ["Technology"],
    "available_languages": ["en", "hi", "ta"],
    "description": null
  }]
}`

func TestListAnnouncements_DecodesPage(t *testing.T) {
	var gotPath, gotQuery string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, pageJSON)
	}), 0)

	params := url.Values{"page": {"1"}, "page_size": {"6"}, "search": {"kisan"}}
	page, err := c.ListAnnouncements(context.Background(), params)
	require.NoError(t, err)

	assert.Equal(t, "/api/press-release/", gotPath)
	assert.Equal(t, params.Encode(), gotQuery)
	assert.Equal(t, 42, page.TotalCount)
	assert.True(t, page.HasNext())
	require.Len(t, page.Items, 1)
	a := page.Items[0]
	assert.Equal(t, 7, a.ID)
	assert.Equal(t, "Delhi", a.Office)
	assert.Equal(t, []string{"Citizens", "Businesses"}, a.AudienceTypeNames)
	assert.Equal(t, "", a.Description)
	assert.True(t, a.HasLanguage("HI"))
}

func TestGet_RetriesServerErrorsThenSucceeds(t *testing.T) {
	var calls int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"press_releases": 100, "ministries": 10, "languages": 11}`)
	}), 0)

	stats, err := c.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, domain.Stats{PressReleases: 100, Ministries: 10, Languages: 11}, stats)
}

func TestGet_GivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}), 0)

	_, err := c.Stats(context.Background())
	require.Error(t, err)

	var apiErr *domain.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls), "initial attempt plus three retries")
}

func TestGet_DoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"page": ["Invalid page."]}`)
	}), 0)

	_, err := c.ListAnnouncements(context.Background(), url.Values{"page": {"99"}})
	require.Error(t, err)
	assert.False(t, domain.IsRetryable(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGet_DoesNotRetryTooManyRequests(t *testing.T) {
	var calls int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}), 0)

	for i := 0; i < 4; i++ {
		_, err := c.Stats(context.Background())
		var apiErr *domain.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusTooManyRequests, apiErr.Status)
		assert.False(t, domain.IsRetryable(err))
	}
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls), "one call per request and the breaker stays closed")
}

func TestGet_RetriesRequestTimeout(t *testing.T) {
	var calls int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusRequestTimeout)
			return
		}
		fmt.Fprint(w, `[]`)
	}), 0)

	langs, err := c.Languages(context.Background())
	require.NoError(t, err)
	assert.Empty(t, langs)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGetAnnouncement_NotFound(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/press-release/999/", r.URL.Path)
		assert.Equal(t, "hi", r.URL.Query().Get("language"))
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"detail": "No PressRelease matches the given query."}`)
	}), 0)

	_, err := c.GetAnnouncement(context.Background(), 999, "hi")
	assert.True(t, domain.IsNotFound(err))
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestGetAnnouncement_OmitsEmptyLanguage(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.RawQuery)
		fmt.Fprint(w, `{"id": 12, "title": "Budget", "available_languages": ["en"]}`)
	}), 0)

	a, err := c.GetAnnouncement(context.Background(), 12, "")
	require.NoError(t, err)
	assert.Equal(t, "Budget", a.Title)
}

func TestListVariants_QueryAndBareArray(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "12", q.Get("press_release"))
		assert.Equal(t, "hi", q.Get("language"))
		assert.Equal(t, "keypoints", q.Get("text_type"))
		fmt.Fprint(w, `[{"id": 3, "press_release": 12, "language": "hi", "language_display": "Hindi", "text_type": "keypoints", "title": "t", "content": "<ul><li>a</li></ul>"}]`)
	}), 0)

	vs, err := c.ListVariants(context.Background(), domain.VariantQuery{AnnouncementID: 12, Language: "hi", Kind: domain.VariantKeypoints})
	require.NoError(t, err)
	require.Len(t, vs, 1)
	assert.Equal(t, domain.VariantKeypoints, vs[0].Kind)
	assert.Equal(t, "Hindi", vs[0].LanguageDisplay)
}

func TestListVariants_PagedEnvelopeWithNoResults(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"count": 0, "next": null, "previous": null, "results": []}`)
	}), 0)

	vs, err := c.ListVariants(context.Background(), domain.VariantQuery{AnnouncementID: 12, Language: "hi", Kind: domain.VariantOversimplified})
	require.NoError(t, err)
	assert.Empty(t, vs)
}

func TestFetchAll_FollowsNextUntilNull(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "1":
			fmt.Fprint(w, `{"count": 3, "next": "x?page=2", "results": [{"id": 1, "name": "Health"}, {"id": 2, "name": "Defence"}]}`)
		case "2":
			fmt.Fprint(w, `{"count": 3, "next": null, "results": [{"id": 3, "name": "Agriculture"}]}`)
		default:
			t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
		}
	}), 0)

	cats, err := c.AllCategories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.Category{{ID: 1, Name: "Health"}, {ID: 2, Name: "Defence"}, {ID: 3, Name: "Agriculture"}}, cats)
}

func TestFetchAll_StopsAtPageCap(t *testing.T) {
	var calls int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		fmt.Fprintf(w, `{"count": 1000, "next": "more", "results": [{"id": %d, "name": "m"}]}`, n)
	}), 3)

	ms, err := c.AllMinistries(context.Background())
	require.NoError(t, err)
	assert.Len(t, ms, 3)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestLocations(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/pib-hq/", r.URL.Path)
		fmt.Fprint(w, `{"pib_hq": ["Chennai", "Delhi", "Mumbai"]}`)
	}), 0)

	locs, err := c.Locations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Chennai", "Delhi", "Mumbai"}, locs)
}

func TestNetworkErrorHasStatusZero(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	base := server.URL
	server.Close()

	c, err := New(Config{BaseURL: base, MaxRetries: 1, RetryBackoff: time.Millisecond})
	require.NoError(t, err)

	_, err = c.Stats(context.Background())
	var apiErr *domain.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsNetwork())
	assert.True(t, domain.IsRetryable(err))
}

func TestCircuitBreakerOpensAfterRepeatedFailures(t *testing.T) {
	var calls int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}), 0)
	c.maxRetries = 0

	for i := 0; i < 3; i++ {
		_, _ = c.Stats(context.Background())
	}
	before := atomic.LoadInt32(&calls)

	_, err := c.Stats(context.Background())
	require.Error(t, err)
	assert.Equal(t, before, atomic.LoadInt32(&calls), "open breaker must not reach the server")
	assert.Contains(t, err.Error(), "circuit breaker open")
}

func TestNotFoundDoesNotTripBreaker(t *testing.T) {
	var calls int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}), 0)

	for i := 0; i < 5; i++ {
		_, err := c.GetAnnouncement(context.Background(), i, "")
		assert.True(t, domain.IsNotFound(err))
	}
	assert.Equal(t, int32(5), atomic.LoadInt32(&calls))
}

func TestNew_RejectsRelativeBaseURL(t *testing.T) {
	_, err := New(Config{BaseURL: "press-release"})
	assert.Error(t, err)
}
