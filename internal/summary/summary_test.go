package summary_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spraakbanken/svt-crawler/internal/domain"
	"github.com/spraakbanken/svt-crawler/internal/store"
	"github.com/spraakbanken/svt-crawler/internal/summary"
)

func date(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func seededStore(t *testing.T, records ...*domain.Record) *store.Store {
	t.Helper()

	dir := t.TempDir()
	s := store.New(filepath.Join(dir, "records.json"), filepath.Join(dir, "failed.json"))
	require.NoError(t, s.Load())
	for _, rec := range records {
		s.Put(rec)
	}
	return s
}

func TestBuildGroupsTopicsAndYears(t *testing.T) {
	t.Parallel()

	s := seededStore(t,
		&domain.Record{ID: "/a", Topic: "inrikes", Published: date("2015-01-01")},
		&domain.Record{ID: "/b", Topic: "inrikes", Published: date("2015-06-01")},
		&domain.Record{ID: "/c", Topic: "inrikes", Published: date("2016-01-01")},
		&domain.Record{ID: "/d", Topic: "skane", Published: date("2015-02-01")},
		&domain.Record{ID: "/e", Topic: "skane"},
	)
	s.AddFailed("/f")
	require.NoError(t, s.Flush())

	now := time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC)
	summarizer, err := summary.New(summary.Options{
		Store: s,
		Now:   func() time.Time { return now },
	})
	require.NoError(t, err)

	report, err := summarizer.Build()
	require.NoError(t, err)

	assert.Equal(t, 5, report.Total)
	assert.Equal(t, 1, report.Failed)

	// "nodate" sorts after the numeric years.
	assert.Equal(t, []string{"2015", "2016", "nodate"}, report.Years)
	assert.Equal(t, 3, report.YearTotals["2015"])
	assert.Equal(t, 1, report.YearTotals["2016"])
	assert.Equal(t, 1, report.YearTotals["nodate"])

	require.Len(t, report.National, 1)
	national := report.National[0]
	assert.Equal(t, "inrikes", national.Name)
	assert.Equal(t, 3, national.Total)
	assert.Equal(t, 2, national.Years["2015"])

	require.Len(t, report.Local, 1)
	local := report.Local[0]
	assert.Equal(t, "skane", local.Name)
	assert.Equal(t, "Skåne", local.Display)
	assert.True(t, local.Local)
	assert.Equal(t, 1, local.Years["nodate"])
}

func TestBuildEmptyStore(t *testing.T) {
	t.Parallel()

	s := seededStore(t)
	require.NoError(t, s.Flush())

	summarizer, err := summary.New(summary.Options{Store: s})
	require.NoError(t, err)

	report, err := summarizer.Build()
	require.NoError(t, err)
	assert.Zero(t, report.Total)
	assert.Empty(t, report.National)
	assert.Empty(t, report.Local)
	assert.Empty(t, report.Years)
}

func TestBuildSortsTopicsByDisplayName(t *testing.T) {
	t.Parallel()

	s := seededStore(t,
		&domain.Record{ID: "/a", Topic: "vasterbotten", Published: date("2015-01-01")},
		&domain.Record{ID: "/b", Topic: "blekinge", Published: date("2015-01-01")},
		&domain.Record{ID: "/c", Topic: "stockholm", Published: date("2015-01-01")},
	)
	require.NoError(t, s.Flush())

	summarizer, err := summary.New(summary.Options{Store: s})
	require.NoError(t, err)

	report, err := summarizer.Build()
	require.NoError(t, err)

	require.Len(t, report.Local, 3)
	assert.Equal(t, "Blekinge", report.Local[0].Display)
	assert.Equal(t, "Stockholm", report.Local[1].Display)
	assert.Equal(t, "Västerbotten", report.Local[2].Display)
}

func TestNewRequiresStore(t *testing.T) {
	t.Parallel()

	_, err := summary.New(summary.Options{})
	assert.ErrorIs(t, err, summary.ErrStoreRequired)
}
