package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func timePtr(t time.Time) *time.Time { return &t }

func TestBuildParams_ClearedFiltersEmitOnlyPaging(t *testing.T) {
	s := NewState()
	s.SetSearch("kisan")
	s.SetCategory(intPtr(3))
	s.Clear()

	q := BuildParams(s)
	assert.Equal(t, []string{"ordering", "page", "page_size"}, q.Keys())
	assert.Equal(t, "1", q.Get(ParamPage))
	assert.Equal(t, "6", q.Get(ParamPageSize))
	assert.Equal(t, "-date_published", q.Get(ParamOrdering))
}

func TestBuildParams_MapsEveryFilter(t *testing.T) {
	s := State{
		SearchText:   "  kisan ",
		CategoryID:   intPtr(2),
		MinistryID:   intPtr(7),
		AudienceID:   intPtr(4),
		LanguageCode: "hi",
		LocationName: "PIB Delhi",
		Page:         3,
	}

	q := BuildParams(s)
	assert.Equal(t, "kisan", q.Get(ParamSearch))
	assert.Equal(t, "2", q.Get(ParamCategory))
	assert.Equal(t, "7", q.Get(ParamMinistry))
	assert.Equal(t, "4", q.Get(ParamAudience))
	assert.Equal(t, "hi", q.Get(ParamHasLanguage))
	assert.Equal(t, "hi", q.Get(ParamLanguage))
	assert.Equal(t, "PIB Delhi", q.Get(ParamLocation))
	assert.Equal(t, 3, q.Page())
	assert.False(t, q.Has(ParamDate))
}

func TestBuildParams_BlankSearchOmitted(t *testing.T) {
	s := NewState()
	s.SetSearch("   ")
	assert.False(t, BuildParams(s).Has(ParamSearch))
}

func TestBuildParams_SingleDateIgnoresTimeOfDay(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	for _, tc := range []time.Time{
		time.Date(2024, 12, 15, 0, 0, 0, 0, ist),
		time.Date(2024, 12, 15, 13, 45, 10, 0, ist),
		time.Date(2024, 12, 15, 23, 59, 59, 999, ist),
	} {
		s := NewState()
		s.SetDateRange(timePtr(tc), nil)
		q := BuildParams(s)
		assert.Equal(t, "2024-12-15", q.Get(ParamDate), tc.String())
		assert.False(t, q.Has(ParamDateMin))
		assert.False(t, q.Has(ParamDateMax))
	}
}

func TestBuildParams_RangeCoversFullDays(t *testing.T) {
	from := time.Date(2024, 12, 1, 16, 20, 0, 0, time.UTC)
	to := time.Date(2024, 12, 5, 8, 5, 0, 0, time.UTC)

	s := NewState()
	s.SetDateRange(&from, &to)
	q := BuildParams(s)

	assert.Equal(t, "2024-12-01T00:00:00", q.Get(ParamDateMin))
	assert.Equal(t, "2024-12-05T23:59:59", q.Get(ParamDateMax))
	assert.False(t, q.Has(ParamDate))
}

func TestBuildParams_ReversedRangeSwapped(t *testing.T) {
	from := time.Date(2024, 12, 5, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)

	s := NewState()
	s.SetDateRange(&from, &to)
	q := BuildParams(s)

	assert.Equal(t, "2024-12-01T00:00:00", q.Get(ParamDateMin))
	assert.Equal(t, "2024-12-05T23:59:59", q.Get(ParamDateMax))
}

func TestQueryParams_KeyIsCanonical(t *testing.T) {
	a := State{Page: 1, CategoryID: intPtr(1), LocationName: "PIB Mumbai"}
	b := State{LocationName: "PIB Mumbai", CategoryID: intPtr(1), Page: 1}

	require.Equal(t, BuildParams(a).Key(), BuildParams(b).Key())
	assert.NotEqual(t, BuildParams(a).Key(), BuildParams(a).WithPage(2).Key())
}

func TestBuilder_CustomPageSize(t *testing.T) {
	q := NewBuilder(20).Build(NewState())
	assert.Equal(t, "20", q.Get(ParamPageSize))

	q = NewBuilder(0).Build(State{Page: -4})
	assert.Equal(t, "6", q.Get(ParamPageSize))
	assert.Equal(t, "1", q.Get(ParamPage))
}
