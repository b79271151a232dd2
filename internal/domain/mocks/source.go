package mocks

import (
	"context"
	"net/url"

	"github.com/kevinnadar22/announce/internal/domain"
	"github.com/stretchr/testify/mock"
)

type MockAnnouncementSource struct {
	mock.Mock
}

var _ domain.AnnouncementSource = (*MockAnnouncementSource)(nil)

func (m *MockAnnouncementSource) ListAnnouncements(ctx context.Context, params url.Values) (domain.PagedResult[domain.Announcement], error) {
	args := m.Called(ctx, params)
	var page domain.PagedResult[domain.Announcement]
	if args.Get(0) != nil {
		page = args.Get(0).(domain.PagedResult[domain.Announcement])
	}
	return page, args.Error(1)
}

func (m *MockAnnouncementSource) GetAnnouncement(ctx context.Context, id int, language string) (*domain.Announcement, error) {
	args := m.Called(ctx, id, language)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Announcement), args.Error(1)
}

func (m *MockAnnouncementSource) ListVariants(ctx context.Context, q domain.VariantQuery) ([]domain.TranslatedVariant, error) {
	args := m.Called(ctx, q)

	// Handle nil variants
	var variants []domain.TranslatedVariant
	if args.Get(0) != nil {
		variants = args.Get(0).([]domain.TranslatedVariant)
	}
	return variants, args.Error(1)
}

type MockArchive struct {
	mock.Mock
}

var _ domain.Archive = (*MockArchive)(nil)

func (m *MockArchive) BulkUpsert(ctx context.Context, announcements []domain.Announcement) error {
	args := m.Called(ctx, announcements)
	return args.Error(0)
}

func (m *MockArchive) Get(ctx context.Context, id int, language string) (*domain.Announcement, error) {
	args := m.Called(ctx, id, language)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Announcement), args.Error(1)
}

func (m *MockArchive) GetContentHashes(ctx context.Context, keys []string) (map[string]string, error) {
	args := m.Called(ctx, keys)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]string), args.Error(1)
}

type MockEventProducer struct {
	mock.Mock
}

var _ domain.EventProducer = (*MockEventProducer)(nil)

func (m *MockEventProducer) Publish(ctx context.Context, event *domain.AnnouncementEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventProducer) PublishBatch(ctx context.Context, events []domain.AnnouncementEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

func (m *MockEventProducer) Close() error {
	args := m.Called()
	return args.Error(0)
}

type MockReferenceSource struct {
	mock.Mock
}

var _ domain.ReferenceSource = (*MockReferenceSource)(nil)

func (m *MockReferenceSource) AllCategories(ctx context.Context) ([]domain.Category, error) {
	args := m.Called(ctx)
	var out []domain.Category
	if args.Get(0) != nil {
		out = args.Get(0).([]domain.Category)
	}
	return out, args.Error(1)
}

func (m *MockReferenceSource) AllMinistries(ctx context.Context) ([]domain.Ministry, error) {
	args := m.Called(ctx)
	var out []domain.Ministry
	if args.Get(0) != nil {
		out = args.Get(0).([]domain.Ministry)
	}
	return out, args.Error(1)
}

func (m *MockReferenceSource) AllAudienceTypes(ctx context.Context) ([]domain.AudienceType, error) {
	args := m.Called(ctx)
	var out []domain.AudienceType
	if args.Get(0) != nil {
		out = args.Get(0).([]domain.AudienceType)
	}
	return out, args.Error(1)
}

func (m *MockReferenceSource) Languages(ctx context.Context) ([]domain.Language, error) {
	args := m.Called(ctx)
	var out []domain.Language
	if args.Get(0) != nil {
		out = args.Get(0).([]domain.Language)
	}
	return out, args.Error(1)
}

func (m *MockReferenceSource) Locations(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	var out []string
	if args.Get(0) != nil {
		out = args.Get(0).([]string)
	}
	return out, args.Error(1)
}

func (m *MockReferenceSource) Stats(ctx context.Context) (domain.Stats, error) {
	args := m.Called(ctx)
	var out domain.Stats
	if args.Get(0) != nil {
		out = args.Get(0).(domain.Stats)
	}
	return out, args.Error(1)
}
