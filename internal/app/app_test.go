package app

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kevinnadar22/announce/internal/domain"
	"github.com/kevinnadar22/announce/internal/domain/mocks"
	"github.com/kevinnadar22/announce/internal/filter"
	"github.com/kevinnadar22/announce/internal/infra/cache"
	"github.com/kevinnadar22/announce/internal/infra/queue"
	"github.com/kevinnadar22/announce/internal/pagination"
	"github.com/kevinnadar22/announce/internal/view"
)

func newStore(t *testing.T) *cache.Store {
	t.Helper()
	s, err := cache.New(64, time.Minute)
	require.NoError(t, err)
	return s
}

func announcement(id int, title string) domain.Announcement {
	return domain.Announcement{
		ID:                 id,
		Title:              title,
		Description:        "Description of " + title,
		PublishedAt:        time.Date(2024, 3, 1, 6, 0, 0, 0, time.UTC),
		MinistryName:       "Ministry of Finance",
		AvailableLanguages: []string{"en", "hi"},
	}
}

func pageOf(total int, items ...domain.Announcement) Page {
	return Page{TotalCount: total, Items: items}
}

func pageParam(page string) interface{} {
	return mock.MatchedBy(func(v url.Values) bool { return v.Get(filter.ParamPage) == page })
}

func TestArchiver_PublishesOnlyNewAndChanged(t *testing.T) {
	archive := new(mocks.MockArchive)
	producer := new(mocks.MockEventProducer)
	a := NewArchiver(archive, producer)

	same := announcement(1, "Unchanged")
	edited := announcement(2, "Edited")
	fresh := announcement(3, "New")

	archive.On("GetContentHashes", mock.Anything, []string{"1/default", "2/default", "3/default"}).
		Return(map[string]string{"1/default": same.ComputeHash(), "2/default": "old"}, nil)
	archive.On("BulkUpsert", mock.Anything, mock.MatchedBy(func(items []domain.Announcement) bool {
		return len(items) == 3 && items[0].ContentHash != ""
	})).Return(nil)
	producer.On("PublishBatch", mock.Anything, mock.MatchedBy(func(events []domain.AnnouncementEvent) bool {
		return len(events) == 2 &&
			events[0].Type == domain.EventAnnouncementChanged && events[0].AnnouncementID == 2 &&
			events[1].Type == domain.EventAnnouncementCreated && events[1].AnnouncementID == 3
	})).Return(nil)

	err := a.Archive(context.Background(), []domain.Announcement{same, edited, fresh, same}, "")
	require.NoError(t, err)

	archive.AssertExpectations(t)
	producer.AssertExpectations(t)
}

func TestArchiver_PublishFailureIsNotAnError(t *testing.T) {
	archive := new(mocks.MockArchive)
	producer := new(mocks.MockEventProducer)
	a := NewArchiver(archive, producer)

	archive.On("GetContentHashes", mock.Anything, []string{"1/hi"}).Return(map[string]string{}, nil)
	archive.On("BulkUpsert", mock.Anything, mock.MatchedBy(func(items []domain.Announcement) bool {
		return len(items) == 1 && items[0].Language == "hi"
	})).Return(nil)
	producer.On("PublishBatch", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	assert.NoError(t, a.Archive(context.Background(), []domain.Announcement{announcement(1, "A")}, "hi"))
}

func TestArchiver_UpsertFailureIsReturned(t *testing.T) {
	archive := new(mocks.MockArchive)
	a := NewArchiver(archive, nil)

	archive.On("GetContentHashes", mock.Anything, mock.Anything).Return(map[string]string{}, nil)
	archive.On("BulkUpsert", mock.Anything, mock.Anything).Return(errors.New("write failed"))

	assert.Error(t, a.Archive(context.Background(), []domain.Announcement{announcement(1, "A")}, ""))
}

func TestArchiver_NilIsNoop(t *testing.T) {
	var a *Archiver
	assert.NoError(t, a.Archive(context.Background(), []domain.Announcement{announcement(1, "A")}, ""))

	_, err := a.Lookup(context.Background(), 1, "")
	assert.True(t, domain.IsNotFound(err))
}

func TestCollectionFetcher_IdenticalParamsShareOneCall(t *testing.T) {
	src := new(mocks.MockAnnouncementSource)
	src.On("ListAnnouncements", mock.Anything, pageParam("1")).Return(pageOf(1, announcement(1, "A")), nil).Once()

	f := NewCollectionFetcher(src, newStore(t), nil, time.Minute)
	params := filter.BuildParams(filter.NewState())

	first := f.Fetch(context.Background(), params)
	second := f.Fetch(context.Background(), filter.BuildParams(filter.NewState()))

	assert.Equal(t, cache.StatusSuccess, first.Status)
	assert.Equal(t, cache.StatusSuccess, second.Status)
	assert.Equal(t, 1, second.Data.TotalCount)
	src.AssertNumberOfCalls(t, "ListAnnouncements", 1)
}

func TestCollectionFetcher_ArchivesLocalizedPage(t *testing.T) {
	src := new(mocks.MockAnnouncementSource)
	archive := new(mocks.MockArchive)
	src.On("ListAnnouncements", mock.Anything, mock.Anything).Return(pageOf(1, announcement(4, "A")), nil)
	archive.On("GetContentHashes", mock.Anything, []string{"4/hi"}).Return(map[string]string{}, nil)
	archive.On("BulkUpsert", mock.Anything, mock.Anything).Return(nil)

	f := NewCollectionFetcher(src, newStore(t), NewArchiver(archive, queueless{}), time.Minute)
	s := filter.NewState()
	s.SetLanguage("hi")
	res := f.Fetch(context.Background(), filter.BuildParams(s))

	require.NoError(t, res.Err)
	archive.AssertExpectations(t)
}

// queueless accepts and drops events.
type queueless struct{}

func (queueless) Publish(context.Context, *domain.AnnouncementEvent) error        { return nil }
func (queueless) PublishBatch(context.Context, []domain.AnnouncementEvent) error { return nil }
func (queueless) Close() error                                                   { return nil }

func TestListingService_CorrectsOutOfRangePage(t *testing.T) {
	src := new(mocks.MockAnnouncementSource)
	src.On("ListAnnouncements", mock.Anything, pageParam("5")).Return(pageOf(12), nil).Once()
	src.On("ListAnnouncements", mock.Anything, pageParam("2")).
		Return(pageOf(12, announcement(7, "A"), announcement(8, "B")), nil).Once()

	svc := NewListingService(NewCollectionFetcher(src, newStore(t), nil, time.Minute), filter.NewBuilder(6), pagination.New(6), view.CardOptions{})
	state := filter.NewState()
	state.SetPage(5)

	page, shown := svc.List(context.Background(), state)

	assert.Equal(t, 2, shown.Page)
	assert.Equal(t, view.ListReady, page.Status)
	require.NotNil(t, page.Pagination)
	assert.Equal(t, 2, page.Pagination.Page)
	assert.Len(t, page.Cards, 2)
	src.AssertExpectations(t)
}

func invalidPage() error {
	return &domain.APIError{Status: 404, Endpoint: "press-release", Message: `{"detail":"Invalid page."}`}
}

func TestListingService_ClampsPageRejectedAsInvalid(t *testing.T) {
	src := new(mocks.MockAnnouncementSource)
	src.On("ListAnnouncements", mock.Anything, pageParam("9")).Return(nil, invalidPage()).Once()
	src.On("ListAnnouncements", mock.Anything, pageParam("1")).Return(pageOf(42, announcement(1, "First")), nil).Once()
	src.On("ListAnnouncements", mock.Anything, pageParam("7")).Return(pageOf(42, announcement(42, "Last")), nil).Once()

	svc := NewListingService(NewCollectionFetcher(src, newStore(t), nil, time.Minute), filter.NewBuilder(6), pagination.New(6), view.CardOptions{})
	state := filter.NewState()
	state.SetPage(9)

	page, shown := svc.List(context.Background(), state)

	assert.Equal(t, 7, shown.Page)
	assert.Equal(t, view.ListReady, page.Status)
	require.NotNil(t, page.Pagination)
	assert.Equal(t, 7, page.Pagination.Page)
	require.Len(t, page.Cards, 1)
	assert.Equal(t, "Last", page.Cards[0].Title)
	src.AssertExpectations(t)
}

func TestListingService_NotFoundOnFirstPageIsAFailure(t *testing.T) {
	src := new(mocks.MockAnnouncementSource)
	src.On("ListAnnouncements", mock.Anything, pageParam("1")).Return(nil, invalidPage()).Once()

	svc := NewListingService(NewCollectionFetcher(src, newStore(t), nil, time.Minute), filter.NewBuilder(6), pagination.New(6), view.CardOptions{})

	page, shown := svc.List(context.Background(), filter.NewState())

	assert.Equal(t, 1, shown.Page)
	assert.Equal(t, view.ListFailed, page.Status)
	src.AssertExpectations(t)
}

func TestListingService_DistinguishesEmptyFromUnavailable(t *testing.T) {
	src := new(mocks.MockAnnouncementSource)
	src.On("ListAnnouncements", mock.Anything, mock.MatchedBy(func(v url.Values) bool { return v.Has(filter.ParamSearch) })).
		Return(pageOf(0), nil)
	src.On("ListAnnouncements", mock.Anything, mock.Anything).
		Return(nil, &domain.APIError{Status: 503, Endpoint: "press-release", Message: "unavailable"})

	svc := NewListingService(NewCollectionFetcher(src, newStore(t), nil, time.Minute), filter.NewBuilder(6), pagination.New(6), view.CardOptions{})

	down, _ := svc.List(context.Background(), filter.NewState())
	assert.Equal(t, view.ListFailed, down.Status)
	assert.Equal(t, view.PanelServiceUnavailable, down.Panel.Kind)

	s := filter.NewState()
	s.SetSearch("nothing")
	empty, _ := svc.List(context.Background(), s)
	assert.Equal(t, view.ListEmpty, empty.Status)
	assert.Equal(t, view.PanelNoResults, empty.Panel.Kind)
}

type snapshots struct {
	mu  sync.Mutex
	all []Snapshot
}

func (r *snapshots) add(s Snapshot) {
	r.mu.Lock()
	r.all = append(r.all, s)
	r.mu.Unlock()
}

func (r *snapshots) list() []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Snapshot(nil), r.all...)
}

func TestListSession_DiscardsStaleResponses(t *testing.T) {
	src := new(mocks.MockAnnouncementSource)
	release := make(chan struct{})
	src.On("ListAnnouncements", mock.Anything, mock.MatchedBy(func(v url.Values) bool { return !v.Has(filter.ParamCategory) })).
		Run(func(mock.Arguments) { <-release }).
		Return(pageOf(10, announcement(1, "Old filter")), nil).Once()
	src.On("ListAnnouncements", mock.Anything, mock.MatchedBy(func(v url.Values) bool { return v.Get(filter.ParamCategory) == "3" })).
		Return(pageOf(1, announcement(2, "New filter")), nil).Once()

	builder := filter.NewBuilder(6)
	rec := &snapshots{}
	s := NewListSession(context.Background(), NewCollectionFetcher(src, newStore(t), nil, time.Minute), builder, pagination.New(6), WithSubscriber(rec.add))

	oldKey := ListKey(builder.Build(filter.NewState()))
	s.Start()

	category := 3
	s.Update(func(st *filter.State) bool { return st.SetCategory(&category) })
	close(release)
	s.Wait()

	final := s.Snapshot()
	assert.NotEqual(t, oldKey, final.Key)
	assert.Equal(t, cache.StatusSuccess, final.Status)
	require.Len(t, final.View.Cards, 1)
	assert.Equal(t, "New filter", final.View.Cards[0].Title)

	for _, snap := range rec.list() {
		if snap.Key == oldKey {
			assert.NotEqual(t, cache.StatusSuccess, snap.Status, "old response must not be applied")
		}
	}
}

func TestListSession_AutoCorrectsPageAndScrolls(t *testing.T) {
	src := new(mocks.MockAnnouncementSource)
	src.On("ListAnnouncements", mock.Anything, pageParam("4")).Return(pageOf(8), nil).Once()
	src.On("ListAnnouncements", mock.Anything, pageParam("2")).Return(pageOf(8, announcement(7, "Last")), nil).Once()
	src.On("ListAnnouncements", mock.Anything, pageParam("1")).Return(pageOf(8, announcement(1, "First")), nil).Once()

	var scrolled []int
	ctrl := pagination.New(6, pagination.WithScroller(pagination.ScrollFunc(func(p int) { scrolled = append(scrolled, p) })))
	initial := filter.NewState()
	initial.SetPage(4)

	s := NewListSession(context.Background(), NewCollectionFetcher(src, newStore(t), nil, time.Minute), filter.NewBuilder(6), ctrl, WithInitialState(initial))
	s.Start()
	s.Wait()

	assert.Equal(t, 2, s.State().Page)
	assert.Equal(t, "Last", s.Snapshot().View.Cards[0].Title)

	s.GoToPage(0)
	s.Wait()
	assert.Equal(t, 1, s.State().Page)
	assert.Equal(t, []int{1}, scrolled)

	s.GoToPage(1)
	s.Wait()
	assert.Equal(t, []int{1}, scrolled, "same page is not a change")
	src.AssertExpectations(t)
}

func TestListSession_ClampsPageRejectedAsInvalid(t *testing.T) {
	src := new(mocks.MockAnnouncementSource)
	src.On("ListAnnouncements", mock.Anything, pageParam("9")).Return(nil, invalidPage()).Once()
	src.On("ListAnnouncements", mock.Anything, pageParam("1")).Return(pageOf(42, announcement(1, "First")), nil).Once()
	src.On("ListAnnouncements", mock.Anything, pageParam("7")).Return(pageOf(42, announcement(42, "Last")), nil).Once()

	initial := filter.NewState()
	initial.SetPage(9)
	rec := &snapshots{}
	s := NewListSession(context.Background(), NewCollectionFetcher(src, newStore(t), nil, time.Minute), filter.NewBuilder(6), pagination.New(6),
		WithInitialState(initial), WithSubscriber(rec.add))
	s.Start()
	s.Wait()

	assert.Equal(t, 7, s.State().Page)
	final := s.Snapshot()
	assert.Equal(t, cache.StatusSuccess, final.Status)
	require.Len(t, final.View.Cards, 1)
	assert.Equal(t, "Last", final.View.Cards[0].Title)
	for _, snap := range rec.list() {
		assert.NotEqual(t, cache.StatusFailed, snap.Status, "an invalid page is corrected, not shown as an error")
	}
	src.AssertExpectations(t)
}

func TestListSession_DeliversSnapshotsInOrder(t *testing.T) {
	src := new(mocks.MockAnnouncementSource)
	src.On("ListAnnouncements", mock.Anything, mock.MatchedBy(func(v url.Values) bool { return !v.Has(filter.ParamCategory) })).
		Return(pageOf(10, announcement(1, "Old filter")), nil).Once()
	src.On("ListAnnouncements", mock.Anything, mock.MatchedBy(func(v url.Values) bool { return v.Get(filter.ParamCategory) == "3" })).
		Return(pageOf(1, announcement(2, "New filter")), nil).Once()

	builder := filter.NewBuilder(6)
	oldKey := ListKey(builder.Build(filter.NewState()))

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	rec := &snapshots{}
	slow := func(snap Snapshot) {
		if snap.Key == oldKey && snap.Status == cache.StatusSuccess {
			once.Do(func() {
				close(entered)
				<-release
			})
		}
		rec.add(snap)
	}

	s := NewListSession(context.Background(), NewCollectionFetcher(src, newStore(t), nil, time.Minute), builder, pagination.New(6), WithSubscriber(slow))
	s.Start()
	<-entered

	updated := make(chan struct{})
	category := 3
	go func() {
		s.Update(func(st *filter.State) bool { return st.SetCategory(&category) })
		close(updated)
	}()

	assert.Never(t, func() bool {
		for _, snap := range rec.list() {
			if snap.Key != oldKey {
				return true
			}
		}
		return false
	}, 50*time.Millisecond, 5*time.Millisecond, "no snapshot is delivered while the subscriber is busy")

	close(release)
	<-updated
	s.Wait()

	all := rec.list()
	require.NotEmpty(t, all)
	seenNew := false
	for i, snap := range all {
		if snap.Key != oldKey {
			seenNew = true
			continue
		}
		assert.False(t, seenNew, "snapshot %d for the old key arrived after a newer one", i)
	}
	last := all[len(all)-1]
	assert.NotEqual(t, oldKey, last.Key)
	assert.Equal(t, cache.StatusSuccess, last.Status)
}

func TestListSession_SubmitCommitsPendingSearch(t *testing.T) {
	src := new(mocks.MockAnnouncementSource)
	src.On("ListAnnouncements", mock.Anything, mock.MatchedBy(func(v url.Values) bool { return v.Get(filter.ParamSearch) == "kisan" })).
		Return(pageOf(1, announcement(9, "PM-KISAN")), nil).Once()

	s := NewListSession(context.Background(), NewCollectionFetcher(src, newStore(t), nil, time.Minute), filter.NewBuilder(6), pagination.New(6), WithDebounce(time.Hour))
	s.Type("kis")
	s.Type("kisan")
	assert.Empty(t, s.State().SearchText, "nothing committed while typing")

	s.Submit()
	s.Wait()
	s.Close()

	assert.Equal(t, "kisan", s.State().SearchText)
	assert.Equal(t, "PM-KISAN", s.Snapshot().View.Cards[0].Title)
	src.AssertExpectations(t)
}

func variantQuery(lang string, kind domain.VariantKind) domain.VariantQuery {
	return domain.VariantQuery{AnnouncementID: 7, Language: lang, Kind: kind}
}

func TestDetailService_MissingVariantRendersFallback(t *testing.T) {
	src := new(mocks.MockAnnouncementSource)
	base := announcement(7, "PM-KISAN released")
	localized := base
	localized.Title = "पीएम-किसान जारी"

	src.On("GetAnnouncement", mock.Anything, 7, "").Return(&base, nil)
	src.On("GetAnnouncement", mock.Anything, 7, "hi").Return(&localized, nil)
	src.On("ListVariants", mock.Anything, variantQuery("hi", domain.VariantKeypoints)).
		Return([]domain.TranslatedVariant{{Kind: domain.VariantKeypoints, Content: "<ul><li>9 करोड़ किसान</li></ul>"}}, nil)
	src.On("ListVariants", mock.Anything, variantQuery("hi", domain.VariantSimplified)).
		Return([]domain.TranslatedVariant{{Kind: domain.VariantSimplified, Content: "<p>सरल</p>"}}, nil)
	src.On("ListVariants", mock.Anything, variantQuery("hi", domain.VariantOversimplified)).
		Return([]domain.TranslatedVariant{}, nil)

	svc := NewDetailService(src, newStore(t), nil, time.Minute)
	res := svc.Load(context.Background(), 7, "hi")

	require.Equal(t, view.DetailSuccess, res.State)
	assert.Equal(t, "पीएम-किसान जारी", res.Announcement.Title)
	assert.Len(t, res.Variants, 2)

	page := view.RenderDetail(res.Input(), view.Sanitize{}, view.CardOptions{})
	require.Len(t, page.Sections, 3)
	assert.False(t, page.Sections[2].Available)
	assert.Equal(t, view.NotAvailable, page.Sections[2].Fallback)
}

func TestDetailService_LocalizesOnlyOfferedLanguages(t *testing.T) {
	src := new(mocks.MockAnnouncementSource)
	base := announcement(7, "A")
	src.On("GetAnnouncement", mock.Anything, 7, "").Return(&base, nil)
	src.On("ListVariants", mock.Anything, mock.Anything).Return(nil, nil)

	res := NewDetailService(src, newStore(t), nil, time.Minute).Load(context.Background(), 7, "ta")

	assert.Equal(t, view.DetailSuccess, res.State)
	assert.Equal(t, "A", res.Announcement.Title)
	src.AssertNotCalled(t, "GetAnnouncement", mock.Anything, 7, "ta")
}

func TestDetailService_VariantFailuresDoNotFailPage(t *testing.T) {
	src := new(mocks.MockAnnouncementSource)
	base := announcement(7, "A")
	src.On("GetAnnouncement", mock.Anything, 7, "").Return(&base, nil)
	src.On("ListVariants", mock.Anything, mock.Anything).Return(nil, &domain.APIError{Status: 500, Message: "boom"})

	res := NewDetailService(src, newStore(t), nil, time.Minute).Load(context.Background(), 7, "")

	assert.Equal(t, view.DetailSuccess, res.State)
	assert.Empty(t, res.Variants)
	src.AssertCalled(t, "ListVariants", mock.Anything, variantQuery(DefaultLanguage, domain.VariantKeypoints))
}

func TestDetailService_NotFoundIsNotServedFromArchive(t *testing.T) {
	src := new(mocks.MockAnnouncementSource)
	archive := new(mocks.MockArchive)
	src.On("GetAnnouncement", mock.Anything, 404, "").Return(nil, &domain.APIError{Status: 404, Message: "Not found."})
	src.On("ListVariants", mock.Anything, mock.Anything).Return(nil, nil)

	res := NewDetailService(src, newStore(t), NewArchiver(archive, nil), time.Minute).Load(context.Background(), 404, "")

	assert.Equal(t, view.DetailNotFound, res.State)
	archive.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
}

func TestDetailService_FallsBackToArchiveWhenUnreachable(t *testing.T) {
	src := new(mocks.MockAnnouncementSource)
	archive := new(mocks.MockArchive)
	archived := announcement(7, "Archived copy")
	src.On("GetAnnouncement", mock.Anything, 7, "").Return(nil, &domain.APIError{Status: 0, Message: "connection refused"})
	src.On("ListVariants", mock.Anything, mock.Anything).Return(nil, &domain.APIError{Status: 0, Message: "connection refused"})
	archive.On("Get", mock.Anything, 7, "").Return(&archived, nil)

	res := NewDetailService(src, newStore(t), NewArchiver(archive, nil), time.Minute).Load(context.Background(), 7, "")

	assert.Equal(t, view.DetailSuccess, res.State)
	assert.True(t, res.FromArchive)
	assert.Equal(t, "Archived copy", res.Announcement.Title)
}

func TestDetailService_UnreachableWithoutArchiveIsError(t *testing.T) {
	src := new(mocks.MockAnnouncementSource)
	src.On("GetAnnouncement", mock.Anything, 7, "").Return(nil, &domain.APIError{Status: 502, Message: "bad gateway"})
	src.On("ListVariants", mock.Anything, mock.Anything).Return(nil, nil)

	res := NewDetailService(src, newStore(t), nil, time.Minute).Load(context.Background(), 7, "")

	assert.Equal(t, view.DetailError, res.State)
	assert.Error(t, res.Err)
}

type states struct {
	mu  sync.Mutex
	all []string
}

func (s *states) add(r DetailResult) {
	s.mu.Lock()
	s.all = append(s.all, r.State)
	s.mu.Unlock()
}

func TestDetailView_LanguageSwitch(t *testing.T) {
	src := new(mocks.MockAnnouncementSource)
	base := announcement(7, "English title")
	localized := base
	localized.Title = "हिंदी शीर्षक"
	src.On("GetAnnouncement", mock.Anything, 7, "").Return(&base, nil).Once()
	src.On("GetAnnouncement", mock.Anything, 7, "hi").Return(&localized, nil).Once()
	src.On("ListVariants", mock.Anything, mock.Anything).Return([]domain.TranslatedVariant{}, nil)

	rec := &states{}
	v := NewDetailView(NewDetailService(src, newStore(t), nil, time.Minute), 7, rec.add)
	assert.Equal(t, view.DetailLoading, v.State())

	opened := v.Open(context.Background(), "")
	require.Equal(t, view.DetailSuccess, opened.State)

	switched := v.SwitchLanguage(context.Background(), "hi")
	assert.Equal(t, view.DetailSuccess, switched.State)
	assert.False(t, switched.SwitchFailed)
	assert.Equal(t, "hi", switched.Language)
	assert.Equal(t, "हिंदी शीर्षक", switched.Announcement.Title)

	assert.Equal(t, []string{
		view.DetailLoading, view.DetailSuccess, view.DetailTransitioning, view.DetailSuccess,
	}, rec.all)
}

func TestDetailView_FailedSwitchKeepsPreviousContent(t *testing.T) {
	src := new(mocks.MockAnnouncementSource)
	base := announcement(7, "English title")
	src.On("GetAnnouncement", mock.Anything, 7, "").Return(&base, nil).Once()
	src.On("GetAnnouncement", mock.Anything, 7, "").Return(nil, &domain.APIError{Status: 503, Message: "down"}).Once()
	src.On("ListVariants", mock.Anything, mock.Anything).Return([]domain.TranslatedVariant{}, nil)

	store := newStore(t)
	v := NewDetailView(NewDetailService(src, store, nil, time.Minute), 7, nil)
	require.Equal(t, view.DetailSuccess, v.Open(context.Background(), "").State)

	store.Purge()
	res := v.SwitchLanguage(context.Background(), "hi")

	assert.Equal(t, view.DetailSuccess, res.State)
	assert.True(t, res.SwitchFailed)
	assert.Equal(t, "", res.Language)
	assert.Equal(t, "English title", res.Announcement.Title)
	assert.True(t, v.Current().SwitchFailed)
}

func TestDetailView_OpenNotFound(t *testing.T) {
	src := new(mocks.MockAnnouncementSource)
	src.On("GetAnnouncement", mock.Anything, 7, "").Return(nil, &domain.APIError{Status: 404})
	src.On("ListVariants", mock.Anything, mock.Anything).Return(nil, nil)

	v := NewDetailView(NewDetailService(src, newStore(t), nil, time.Minute), 7, nil)
	assert.Equal(t, view.DetailNotFound, v.Open(context.Background(), "").State)

	// Switching from a terminal failure state reloads from scratch.
	assert.Equal(t, view.DetailNotFound, v.SwitchLanguage(context.Background(), "hi").State)
}

func TestLookupService_CachesAndPrefersStaleData(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	store, err := cache.New(16, time.Minute, cache.WithClock(func() time.Time { return now }))
	require.NoError(t, err)

	ref := new(mocks.MockReferenceSource)
	ref.On("AllCategories", mock.Anything).Return([]domain.Category{{ID: 1, Name: "Health"}}, nil).Once()
	ref.On("AllCategories", mock.Anything).Return(nil, &domain.APIError{Status: 500}).Once()
	ref.On("Stats", mock.Anything).Return(domain.Stats{PressReleases: 120}, nil).Once()

	svc := NewLookupService(ref, store, 30*time.Minute, 10*time.Minute)

	for i := 0; i < 2; i++ {
		cats, err := svc.Categories(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "Health", cats[0].Name)
	}
	ref.AssertNumberOfCalls(t, "AllCategories", 1)

	now = now.Add(31 * time.Minute)
	cats, err := svc.Categories(context.Background())
	require.NoError(t, err, "stale data beats an error")
	assert.Len(t, cats, 1)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 120, stats.PressReleases)
}

func TestLookupService_ErrorWithoutData(t *testing.T) {
	ref := new(mocks.MockReferenceSource)
	ref.On("Locations", mock.Anything).Return(nil, &domain.APIError{Status: 0, Message: "refused"})

	_, err := NewLookupService(ref, newStore(t), time.Minute, time.Minute).Locations(context.Background())
	assert.Error(t, err)
}

func seed(t *testing.T, store *cache.Store, keys ...string) {
	t.Helper()
	for _, k := range keys {
		res := cache.Query(context.Background(), store, k, 0, func(context.Context) (string, error) { return k, nil })
		require.Equal(t, cache.StatusSuccess, res.Status)
	}
}

func cached(store *cache.Store, key string) bool {
	return cache.Peek[string](store, key).HasData
}

func TestInvalidationService_DropsAnnouncementAndLists(t *testing.T) {
	store := newStore(t)
	seed(t, store, "detail:7:", "detail:7:hi", "detail:70:", "variants:7:hi:keypoints", "list:page=1", "list:page=2", "lookup:categories")

	svc := NewInvalidationService(nil, store)
	err := svc.HandleEvent(context.Background(), &domain.AnnouncementEvent{Type: domain.EventInvalidate, AnnouncementID: 7})
	require.NoError(t, err)

	assert.False(t, cached(store, "detail:7:"))
	assert.False(t, cached(store, "detail:7:hi"))
	assert.False(t, cached(store, "variants:7:hi:keypoints"))
	assert.False(t, cached(store, "list:page=1"))
	assert.True(t, cached(store, "detail:70:"))
	assert.True(t, cached(store, "lookup:categories"))
}

func TestInvalidationService_RejectsUnusableEvents(t *testing.T) {
	svc := NewInvalidationService(nil, newStore(t))

	assert.Error(t, svc.HandleEvent(context.Background(), &domain.AnnouncementEvent{Type: "something.else", AnnouncementID: 1}))
	assert.Error(t, svc.HandleEvent(context.Background(), &domain.AnnouncementEvent{Type: domain.EventInvalidate}))
}

type fakeConsumer struct {
	events []domain.AnnouncementEvent
	done   chan struct{}
	closed bool
}

func (c *fakeConsumer) Start(ctx context.Context, handler queue.MessageHandler) {
	defer close(c.done)
	for i := range c.events {
		_ = handler(ctx, &c.events[i])
	}
}

func (c *fakeConsumer) Close() error {
	c.closed = true
	return nil
}

func TestInvalidationService_ConsumesEvents(t *testing.T) {
	store := newStore(t)
	seed(t, store, "list:page=1", "lookup:stats")

	consumer := &fakeConsumer{
		events: []domain.AnnouncementEvent{{Type: domain.EventInvalidateAll}},
		done:   make(chan struct{}),
	}
	svc := NewInvalidationService(consumer, store)
	svc.Start(context.Background())

	select {
	case <-consumer.done:
	case <-time.After(time.Second):
		t.Fatal("consumer never ran")
	}
	assert.Equal(t, 0, store.Len())
	require.NoError(t, svc.Stop())
	assert.True(t, consumer.closed)
}
