package app

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/kevinnadar22/announce/internal/domain"
	"github.com/kevinnadar22/announce/internal/infra/cache"
	"github.com/kevinnadar22/announce/internal/infra/queue"
)

// EventConsumer delivers announcement events to a handler until closed.
type EventConsumer interface {
	Start(ctx context.Context, handler queue.MessageHandler)
	Close() error
}

// InvalidationService drops cache entries when the backend reports that an
// announcement was created, edited or deleted.
type InvalidationService struct {
	consumer EventConsumer
	store    *cache.Store
}

func NewInvalidationService(consumer EventConsumer, store *cache.Store) *InvalidationService {
	return &InvalidationService{
		consumer: consumer,
		store:    store,
	}
}

func (s *InvalidationService) Start(ctx context.Context) {
	slog.Info("Starting cache invalidation consumer")
	go s.consumer.Start(ctx, s.HandleEvent)
}

// HandleEvent invalidates the announcement's detail and variant entries plus
// every list page, since any page may contain it.
func (s *InvalidationService) HandleEvent(_ context.Context, event *domain.AnnouncementEvent) error {
	switch event.Type {
	case domain.EventInvalidateAll:
		s.store.Purge()
		slog.Info("Cache purged by event")
		return nil
	case domain.EventInvalidate, domain.EventAnnouncementChanged, domain.EventAnnouncementCreated:
	default:
		return fmt.Errorf("unknown event type %q", event.Type)
	}

	if event.AnnouncementID <= 0 {
		return fmt.Errorf("event %s without announcement id", event.Type)
	}

	id := strconv.Itoa(event.AnnouncementID)
	removed := s.store.InvalidatePrefix("detail:" + id + ":")
	removed += s.store.InvalidatePrefix("variants:" + id + ":")
	removed += s.store.InvalidatePrefix("list:")

	slog.Debug("Invalidated cache entries", "announcement_id", event.AnnouncementID, "type", event.Type, "removed", removed)
	return nil
}

func (s *InvalidationService) Stop() error {
	return s.consumer.Close()
}
