package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/spraakbanken/svt-crawler/internal/domain"
)

func date(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestRecordBucket(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		published *time.Time
		modified  *time.Time
		expected  string
	}{
		{"published in range", date("2010-05-01"), nil, "2010"},
		{"published at floor", date("2004-01-01"), nil, "2004"},
		{"published before floor", date("2003-12-31"), nil, "nodate"},
		{"published in current year", date("2026-02-01"), nil, "2026"},
		{"published in the future", date("2027-01-01"), nil, "nodate"},
		{"modified only", nil, date("2015-06-01"), "2015"},
		{"no dates at all", nil, nil, "nodate"},
		{"published wins over modified", date("2012-03-01"), date("2018-01-01"), "2012"},
		// The chosen date is final: an out-of-range published date is not
		// rescued by a valid modified date.
		{"out-of-range published, valid modified", date("2003-01-01"), date("2015-01-01"), "nodate"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := &domain.Record{
				ID:        "/nyheter/inrikes/test",
				Published: tt.published,
				Modified:  tt.modified,
			}
			assert.Equal(t, tt.expected, rec.Bucket(now))
		})
	}
}

func TestRecordCorpusDate(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

	rec := &domain.Record{Published: date("2010-05-01")}
	got, ok := rec.CorpusDate(now)
	assert.True(t, ok)
	assert.Equal(t, *date("2010-05-01"), got)

	rec = &domain.Record{Published: date("2001-01-01")}
	_, ok = rec.CorpusDate(now)
	assert.False(t, ok)

	rec = &domain.Record{}
	_, ok = rec.CorpusDate(now)
	assert.False(t, ok)
}
