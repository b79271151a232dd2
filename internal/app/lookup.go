package app

import (
	"context"
	"time"

	"github.com/kevinnadar22/announce/internal/domain"
	"github.com/kevinnadar22/announce/internal/infra/cache"
)

// LookupService serves the reference data behind the filter controls.
type LookupService struct {
	ref      domain.ReferenceSource
	store    *cache.Store
	ttl      time.Duration
	statsTTL time.Duration
}

func NewLookupService(ref domain.ReferenceSource, store *cache.Store, ttl, statsTTL time.Duration) *LookupService {
	return &LookupService{
		ref:      ref,
		store:    store,
		ttl:      ttl,
		statsTTL: statsTTL,
	}
}

func (s *LookupService) Categories(ctx context.Context) ([]domain.Category, error) {
	return lookup(ctx, s.store, "lookup:categories", s.ttl, s.ref.AllCategories)
}

func (s *LookupService) Ministries(ctx context.Context) ([]domain.Ministry, error) {
	return lookup(ctx, s.store, "lookup:ministries", s.ttl, s.ref.AllMinistries)
}

func (s *LookupService) AudienceTypes(ctx context.Context) ([]domain.AudienceType, error) {
	return lookup(ctx, s.store, "lookup:audience-types", s.ttl, s.ref.AllAudienceTypes)
}

func (s *LookupService) Languages(ctx context.Context) ([]domain.Language, error) {
	return lookup(ctx, s.store, "lookup:languages", s.ttl, s.ref.Languages)
}

func (s *LookupService) Locations(ctx context.Context) ([]string, error) {
	return lookup(ctx, s.store, "lookup:locations", s.ttl, s.ref.Locations)
}

func (s *LookupService) Stats(ctx context.Context) (domain.Stats, error) {
	return lookup(ctx, s.store, "lookup:stats", s.statsTTL, s.ref.Stats)
}

// lookup prefers stale data over an error.
func lookup[T any](ctx context.Context, store *cache.Store, key string, ttl time.Duration, fetch cache.Fetcher[T]) (T, error) {
	res := cache.Query(ctx, store, key, ttl, fetch)
	if res.HasData {
		return res.Data, nil
	}
	return res.Data, res.Err
}
