package app

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kevinnadar22/announce/internal/filter"
	"github.com/kevinnadar22/announce/internal/infra/cache"
	"github.com/kevinnadar22/announce/internal/pagination"
	"github.com/kevinnadar22/announce/internal/view"
)

// ListingService renders the list view for one request.
type ListingService struct {
	fetcher  *CollectionFetcher
	builder  filter.Builder
	ctrl     *pagination.Controller
	cardOpts view.CardOptions
}

func NewListingService(fetcher *CollectionFetcher, builder filter.Builder, ctrl *pagination.Controller, cardOpts view.CardOptions) *ListingService {
	return &ListingService{
		fetcher:  fetcher,
		builder:  builder,
		ctrl:     ctrl,
		cardOpts: cardOpts,
	}
}

// List fetches the page selected by state. When the total no longer covers
// the requested page, the page is corrected and fetched again; the returned
// state carries the page actually shown.
func (s *ListingService) List(ctx context.Context, state filter.State) (view.ListPage, filter.State) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "ListingService.List")
	defer span.End()

	params := s.builder.Build(state)
	res := s.fetcher.Fetch(ctx, params)
	total, known := res.Data.TotalCount, res.HasData
	if pastEnd(params, res) {
		span.AddEvent("page past end")
		total, known = s.fetcher.Total(ctx, params)
	}
	if known {
		if page, changed := s.ctrl.Reconcile(state.Page, total); changed {
			span.AddEvent("page corrected")
			state.SetPage(page)
			res = s.fetcher.Fetch(ctx, s.builder.Build(state))
		}
	}
	if res.Err != nil {
		span.RecordError(res.Err)
	}
	span.SetAttributes(
		attribute.Int("page", state.Page),
		attribute.String("status", res.Status.String()),
	)

	return view.RenderList(listInput(state, res), s.ctrl, s.cardOpts), state
}

func listInput(state filter.State, res cache.Result[Page]) view.ListInput {
	return view.ListInput{
		State:      state,
		Page:       res.Data,
		HasData:    res.HasData,
		Loading:    res.Status == cache.StatusLoading,
		Refreshing: res.Status == cache.StatusRefreshing,
		Err:        res.Err,
	}
}
