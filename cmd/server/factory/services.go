package factory

import (
	"errors"
	"fmt"

	"github.com/kevinnadar22/announce/internal/app"
	"github.com/kevinnadar22/announce/internal/domain"
	"github.com/kevinnadar22/announce/internal/filter"
	"github.com/kevinnadar22/announce/internal/infra/cache"
	"github.com/kevinnadar22/announce/internal/infra/markup"
	"github.com/kevinnadar22/announce/internal/pagination"
	transport "github.com/kevinnadar22/announce/internal/transport/http"
	"github.com/kevinnadar22/announce/internal/view"
	"github.com/kevinnadar22/announce/pkg/config"
)

// NewArchiver wraps the archive; a nil archive yields a no-op archiver.
func NewArchiver(archive domain.Archive, producer domain.EventProducer) *app.Archiver {
	if archive == nil {
		return nil
	}
	return app.NewArchiver(archive, producer)
}

func NewCollectionFetcher(source domain.AnnouncementSource, store *cache.Store, archiver *app.Archiver, cfg *config.Config) (*app.CollectionFetcher, error) {
	if source == nil {
		return nil, errors.New("announcement source is nil")
	}
	return app.NewCollectionFetcher(source, store, archiver, cfg.CacheTTL), nil
}

func NewPagination(cfg *config.Config) (*pagination.Controller, error) {
	if cfg.PageSize < 1 || cfg.PageSize > 100 {
		return nil, fmt.Errorf("invalid page size: %d (must be 1-100)", cfg.PageSize)
	}
	return pagination.New(cfg.PageSize), nil
}

func NewSanitizer() *markup.Sanitizer {
	return markup.NewSanitizer()
}

func NewListingService(fetcher *app.CollectionFetcher, ctrl *pagination.Controller, sanitizer *markup.Sanitizer) *app.ListingService {
	return app.NewListingService(fetcher, filter.NewBuilder(ctrl.PageSize()), ctrl, view.CardOptions{Text: sanitizer.Text})
}

func NewDetailService(source domain.AnnouncementSource, store *cache.Store, archiver *app.Archiver, cfg *config.Config) *app.DetailService {
	return app.NewDetailService(source, store, archiver, cfg.CacheTTL)
}

func NewLookupService(ref domain.ReferenceSource, store *cache.Store, cfg *config.Config) (*app.LookupService, error) {
	if ref == nil {
		return nil, errors.New("reference source is nil")
	}
	return app.NewLookupService(ref, store, cfg.LookupTTL, cfg.StatsTTL), nil
}

// NewInvalidationService returns nil when there is no consumer.
func NewInvalidationService(consumer app.EventConsumer, store *cache.Store) *app.InvalidationService {
	if consumer == nil {
		return nil
	}
	return app.NewInvalidationService(consumer, store)
}

func NewHandler(
	listing *app.ListingService,
	detail *app.DetailService,
	lookups *app.LookupService,
	sanitizer *markup.Sanitizer,
	ready *app.ReadinessWaiter,
) *transport.Handler {
	return transport.NewHandler(listing, detail, lookups, sanitizer, ready)
}
