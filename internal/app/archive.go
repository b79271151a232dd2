package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kevinnadar22/announce/internal/domain"
	"github.com/kevinnadar22/announce/internal/infra/metrics"
)

const tracerName = "announce"

// Archiver keeps a last-known-good copy of every announcement the service
// has served and announces new or edited ones. A nil Archiver, or one built
// without an archive, does nothing.
type Archiver struct {
	archive  domain.Archive
	producer domain.EventProducer
	now      func() time.Time
}

func NewArchiver(archive domain.Archive, producer domain.EventProducer) *Archiver {
	return &Archiver{
		archive:  archive,
		producer: producer,
		now:      time.Now,
	}
}

func (a *Archiver) enabled() bool {
	return a != nil && a.archive != nil
}

// Archive stores announcements rendered in language ("" for the default
// rendering) and publishes an event for each one that is new or whose
// content hash changed. A failed publish is logged; the data is already
// archived.
func (a *Archiver) Archive(ctx context.Context, announcements []domain.Announcement, language string) error {
	if !a.enabled() || len(announcements) == 0 {
		return nil
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "Archiver.Archive")
	defer span.End()

	// Dedup within batch
	unique := make([]domain.Announcement, 0, len(announcements))
	seen := make(map[string]bool)
	for _, ann := range announcements {
		ann.Language = language
		key := domain.ArchiveKey(ann.ID, language)
		if seen[key] {
			continue
		}
		seen[key] = true
		ann.ContentHash = ann.ComputeHash()
		unique = append(unique, ann)
	}
	span.SetAttributes(attribute.Int("announcements", len(unique)), attribute.String("language", language))

	keys := make([]string, 0, len(unique))
	for _, ann := range unique {
		keys = append(keys, domain.ArchiveKey(ann.ID, ann.Language))
	}

	existing, err := a.archive.GetContentHashes(ctx, keys)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to fetch hashes: %w", err)
	}

	var events []domain.AnnouncementEvent
	unchanged := 0
	now := a.now().UTC()
	for _, ann := range unique {
		oldHash, exists := existing[domain.ArchiveKey(ann.ID, ann.Language)]
		switch {
		case !exists:
			slog.Debug("Announcement new", "id", ann.ID, "language", ann.Language)
			events = append(events, newEvent(domain.EventAnnouncementCreated, ann, now))
		case oldHash != ann.ContentHash:
			slog.Info("Announcement changed", "id", ann.ID, "language", ann.Language)
			events = append(events, newEvent(domain.EventAnnouncementChanged, ann, now))
		default:
			unchanged++
		}
	}
	if unchanged > 0 {
		metrics.ArchiveUpserts.WithLabelValues("unchanged").Add(float64(unchanged))
	}

	if err := a.archive.BulkUpsert(ctx, unique); err != nil {
		span.RecordError(err)
		metrics.ArchiveUpserts.WithLabelValues("error").Add(float64(len(unique)))
		return fmt.Errorf("bulk upsert failed: %w", err)
	}
	metrics.ArchiveUpserts.WithLabelValues("written").Add(float64(len(unique)))

	if len(events) == 0 || a.producer == nil {
		return nil
	}
	if err := a.producer.PublishBatch(ctx, events); err != nil {
		slog.Error("Error publishing announcement events", "count", len(events), "error", err)
		for _, e := range events {
			metrics.EventsPublished.WithLabelValues(e.Type, "error").Inc()
		}
		return nil
	}
	for _, e := range events {
		metrics.EventsPublished.WithLabelValues(e.Type, "ok").Inc()
	}
	return nil
}

// Lookup reads an archived copy, preferring language.
func (a *Archiver) Lookup(ctx context.Context, id int, language string) (*domain.Announcement, error) {
	if !a.enabled() {
		return nil, domain.ErrNotFound
	}
	return a.archive.Get(ctx, id, language)
}

func newEvent(eventType string, a domain.Announcement, at time.Time) domain.AnnouncementEvent {
	return domain.AnnouncementEvent{
		Type:           eventType,
		AnnouncementID: a.ID,
		Language:       a.Language,
		Title:          a.Title,
		ContentHash:    a.ContentHash,
		OccurredAt:     at,
	}
}
