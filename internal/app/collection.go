package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/kevinnadar22/announce/internal/domain"
	"github.com/kevinnadar22/announce/internal/filter"
	"github.com/kevinnadar22/announce/internal/infra/cache"
)

// Page is one page of the press-release collection.
type Page = domain.PagedResult[domain.Announcement]

// ListKey is the cache key of a parameter set.
func ListKey(params filter.QueryParams) string {
	return "list:" + params.Key()
}

// CollectionFetcher reads pages of the collection through the query cache.
// Identical parameter sets share one cache slot.
type CollectionFetcher struct {
	source   domain.AnnouncementSource
	store    *cache.Store
	archiver *Archiver
	ttl      time.Duration
}

func NewCollectionFetcher(source domain.AnnouncementSource, store *cache.Store, archiver *Archiver, ttl time.Duration) *CollectionFetcher {
	return &CollectionFetcher{
		source:   source,
		store:    store,
		archiver: archiver,
		ttl:      ttl,
	}
}

// Fetch returns fresh cached data or waits for the upstream call.
func (f *CollectionFetcher) Fetch(ctx context.Context, params filter.QueryParams) cache.Result[Page] {
	return cache.Query(ctx, f.store, ListKey(params), f.ttl, f.loader(params))
}

// FetchStale returns cached data immediately, refreshing it in the
// background when it has expired.
func (f *CollectionFetcher) FetchStale(ctx context.Context, params filter.QueryParams) cache.Result[Page] {
	return cache.Revalidate(ctx, f.store, ListKey(params), f.ttl, f.loader(params))
}

// Peek reports what is cached for params without fetching.
func (f *CollectionFetcher) Peek(params filter.QueryParams) cache.Result[Page] {
	return cache.Peek[Page](f.store, ListKey(params))
}

// Total fetches the first page of params for the collection's current total.
// ok is false when that fails too.
func (f *CollectionFetcher) Total(ctx context.Context, params filter.QueryParams) (total int, ok bool) {
	res := f.Fetch(ctx, params.WithPage(1))
	if !res.HasData {
		return 0, false
	}
	return res.Data.TotalCount, true
}

// pastEnd reports whether res is the backend rejecting a page beyond the
// last one. The collection endpoint answers those with 404 "Invalid page."
// rather than an empty page.
func pastEnd(params filter.QueryParams, res cache.Result[Page]) bool {
	return !res.HasData && params.Page() > 1 && domain.IsNotFound(res.Err)
}

func (f *CollectionFetcher) loader(params filter.QueryParams) cache.Fetcher[Page] {
	return func(ctx context.Context) (Page, error) {
		page, err := f.source.ListAnnouncements(ctx, params.Values())
		if err != nil {
			return Page{}, err
		}
		if err := f.archiver.Archive(ctx, page.Items, params.Get(filter.ParamLanguage)); err != nil {
			slog.Warn("Failed to archive announcement page", "page", params.Page(), "error", err)
		}
		return page, nil
	}
}
