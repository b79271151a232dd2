package domain

import (
	"context"
	"net/url"
	"strconv"
	"time"
)

// VariantQuery selects translated variants of one announcement.
type VariantQuery struct {
	AnnouncementID int
	Language       string
	Kind           VariantKind
}

// AnnouncementSource reads announcements and their translations from the
// upstream API.
type AnnouncementSource interface {
	ListAnnouncements(ctx context.Context, params url.Values) (PagedResult[Announcement], error)
	GetAnnouncement(ctx context.Context, id int, language string) (*Announcement, error)
	ListVariants(ctx context.Context, q VariantQuery) ([]TranslatedVariant, error)
}

// ReferenceSource reads the lookup collections used by filters.
type ReferenceSource interface {
	AllCategories(ctx context.Context) ([]Category, error)
	AllMinistries(ctx context.Context) ([]Ministry, error)
	AllAudienceTypes(ctx context.Context) ([]AudienceType, error)
	Languages(ctx context.Context) ([]Language, error)
	Locations(ctx context.Context) ([]string, error)
	Stats(ctx context.Context) (Stats, error)
}

// ArchiveWriter persists last-known-good copies of announcements.
type ArchiveWriter interface {
	BulkUpsert(ctx context.Context, announcements []Announcement) error
}

// ArchiveReader serves archived copies when the upstream API is down.
type ArchiveReader interface {
	Get(ctx context.Context, id int, language string) (*Announcement, error)
}

// HashReader handles content hash retrieval for change detection.
type HashReader interface {
	GetContentHashes(ctx context.Context, keys []string) (map[string]string, error)
}

// Archive is the composite the services depend on.
type Archive interface {
	ArchiveWriter
	ArchiveReader
	HashReader
}

// ArchiveKey identifies one archived rendering of an announcement.
func ArchiveKey(id int, language string) string {
	if language == "" {
		language = "default"
	}
	return strconv.Itoa(id) + "/" + language
}

// Event types carried on the announcement topics.
const (
	EventAnnouncementChanged = "announcement.changed"
	EventAnnouncementCreated = "announcement.created"
	EventInvalidate          = "announcement.invalidate"
	EventInvalidateAll       = "cache.invalidate_all"
)

// AnnouncementEvent is published when the archive sees a new or changed
// announcement and consumed when the backend reports a mutation.
type AnnouncementEvent struct {
	Type           string    `json:"type"`
	AnnouncementID int       `json:"announcement_id"`
	Language       string    `json:"language,omitempty"`
	Title          string    `json:"title,omitempty"`
	ContentHash    string    `json:"content_hash,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// EventProducer publishes announcement events to a queue.
type EventProducer interface {
	Publish(ctx context.Context, event *AnnouncementEvent) error
	PublishBatch(ctx context.Context, events []AnnouncementEvent) error
	Close() error
}
