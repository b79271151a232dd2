package app

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/kevinnadar22/announce/internal/domain"
	"github.com/kevinnadar22/announce/internal/infra/cache"
	"github.com/kevinnadar22/announce/internal/infra/metrics"
	"github.com/kevinnadar22/announce/internal/view"
)

// DefaultLanguage is used for variants when no language was requested.
const DefaultLanguage = "en"

// DetailResult is the outcome of loading one announcement.
type DetailResult struct {
	State        string
	Language     string
	Announcement *domain.Announcement
	Variants     map[domain.VariantKind]domain.TranslatedVariant
	FromArchive  bool
	SwitchFailed bool
	Err          error
}

// Input converts r for the detail renderer.
func (r DetailResult) Input() view.DetailInput {
	return view.DetailInput{
		State:        r.State,
		Language:     r.Language,
		Announcement: r.Announcement,
		Variants:     r.Variants,
		FromArchive:  r.FromArchive,
		SwitchFailed: r.SwitchFailed,
	}
}

// DetailKey is the cache key of an announcement rendered in language.
func DetailKey(id int, language string) string {
	return "detail:" + strconv.Itoa(id) + ":" + language
}

// VariantKey is the cache key of one variant kind in language.
func VariantKey(id int, language string, kind domain.VariantKind) string {
	return "variants:" + strconv.Itoa(id) + ":" + language + ":" + string(kind)
}

// DetailService loads an announcement and its translated variants.
type DetailService struct {
	source   domain.AnnouncementSource
	store    *cache.Store
	archiver *Archiver
	ttl      time.Duration
}

func NewDetailService(source domain.AnnouncementSource, store *cache.Store, archiver *Archiver, ttl time.Duration) *DetailService {
	return &DetailService{
		source:   source,
		store:    store,
		archiver: archiver,
		ttl:      ttl,
	}
}

// Load fetches the announcement and every displayed variant concurrently.
// Variant failures only leave their section empty; the page fails only when
// the announcement itself cannot be read.
func (s *DetailService) Load(ctx context.Context, id int, language string) DetailResult {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "DetailService.Load")
	defer span.End()

	language = strings.ToLower(strings.TrimSpace(language))
	span.SetAttributes(attribute.Int("announcement_id", id), attribute.String("language", language))

	variantLang := language
	if variantLang == "" {
		variantLang = DefaultLanguage
	}

	var (
		announcement *domain.Announcement
		fromArchive  bool
		loadErr      error
		found        = make([]*domain.TranslatedVariant, len(view.DisplayedKinds))
	)

	// No goroutine returns an error; each records its own outcome.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		announcement, fromArchive, loadErr = s.announcement(gctx, id, language)
		return nil
	})
	for i, kind := range view.DisplayedKinds {
		g.Go(func() error {
			found[i] = s.variant(gctx, id, variantLang, kind)
			return nil
		})
	}
	_ = g.Wait()

	res := DetailResult{Language: language, FromArchive: fromArchive}
	switch {
	case domain.IsNotFound(loadErr):
		res.State = view.DetailNotFound
		res.Err = loadErr
		return res
	case loadErr != nil:
		span.RecordError(loadErr)
		res.State = view.DetailError
		res.Err = loadErr
		return res
	}

	res.State = view.DetailSuccess
	res.Announcement = announcement
	res.Variants = make(map[domain.VariantKind]domain.TranslatedVariant, len(found))
	for i, v := range found {
		if v == nil {
			metrics.DetailSectionsMissing.WithLabelValues(string(view.DisplayedKinds[i])).Inc()
			continue
		}
		res.Variants[v.Kind] = *v
	}
	return res
}

// announcement reads the default rendering, then the localized one when the
// announcement offers language. A failed localized read keeps the default.
func (s *DetailService) announcement(ctx context.Context, id int, language string) (*domain.Announcement, bool, error) {
	base, fromArchive, err := s.read(ctx, id, "")
	if err != nil {
		return nil, false, err
	}
	if language == "" || fromArchive || !base.HasLanguage(language) {
		return base, fromArchive, nil
	}

	localized, _, err := s.read(ctx, id, language)
	if err != nil {
		slog.Warn("Localized announcement unavailable, showing default", "id", id, "language", language, "error", err)
		return base, false, nil
	}
	return localized, false, nil
}

// read goes through the cache and falls back to the archive when the API is
// unreachable. A 404 is authoritative and never served from the archive.
func (s *DetailService) read(ctx context.Context, id int, language string) (*domain.Announcement, bool, error) {
	res := cache.Query(ctx, s.store, DetailKey(id, language), s.ttl, func(ctx context.Context) (*domain.Announcement, error) {
		a, err := s.source.GetAnnouncement(ctx, id, language)
		if err != nil {
			return nil, err
		}
		if err := s.archiver.Archive(ctx, []domain.Announcement{*a}, language); err != nil {
			slog.Warn("Failed to archive announcement", "id", id, "error", err)
		}
		return a, nil
	})
	if res.HasData && res.Data != nil {
		return res.Data, false, nil
	}
	if res.Err == nil {
		return nil, false, fmt.Errorf("announcement %d: %w", id, domain.ErrNotFound)
	}
	if domain.IsNotFound(res.Err) || !domain.IsRetryable(res.Err) {
		return nil, false, res.Err
	}

	archived, err := s.archiver.Lookup(ctx, id, language)
	if err != nil {
		return nil, false, res.Err
	}
	metrics.ArchiveFallbacks.Inc()
	slog.Info("Serving archived announcement", "id", id, "language", language, "cause", res.Err)
	return archived, true, nil
}

// variant returns the first non-empty variant of kind, or nil.
func (s *DetailService) variant(ctx context.Context, id int, language string, kind domain.VariantKind) *domain.TranslatedVariant {
	q := domain.VariantQuery{AnnouncementID: id, Language: language, Kind: kind}
	res := cache.Query(ctx, s.store, VariantKey(id, language, kind), s.ttl, func(ctx context.Context) ([]domain.TranslatedVariant, error) {
		return s.source.ListVariants(ctx, q)
	})
	if !res.HasData {
		if res.Err != nil && !domain.IsNotFound(res.Err) {
			slog.Warn("Variant unavailable", "id", id, "language", language, "kind", kind, "error", res.Err)
		}
		return nil
	}
	for _, v := range res.Data {
		if v.Kind == kind && strings.TrimSpace(v.Content) != "" {
			return &v
		}
	}
	return nil
}
