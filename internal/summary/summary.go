// Package summary aggregates the record store into per-topic, per-year
// counts for reporting.
package summary

import (
	"errors"
	"sort"
	"time"

	"github.com/spraakbanken/svt-crawler/internal/store"
	"github.com/spraakbanken/svt-crawler/internal/topics"
)

// ErrStoreRequired is returned by New when no store is provided.
var ErrStoreRequired = errors.New("store is required")

// TopicCount holds one topic's article counts, bucketed by year.
type TopicCount struct {
	// Name is the short topic name as stored on records
	Name string
	// Display is the human-readable topic name
	Display string
	// Local reports whether the topic is a local news area
	Local bool
	// Years maps year bucket ("2015", "nodate") to article count
	Years map[string]int
	// Total is the topic's article count across all years
	Total int
}

// Report is the aggregated view of the store.
type Report struct {
	// National lists national topics, sorted by display name
	National []TopicCount
	// Local lists local news areas, sorted by display name
	Local []TopicCount
	// Years lists the year buckets present, sorted; "nodate" sorts last
	Years []string
	// YearTotals maps year bucket to total article count
	YearTotals map[string]int
	// Total is the number of stored records
	Total int
	// Failed is the number of IDs on the failed-fetch list
	Failed int
}

// Summarizer builds reports from a record store.
type Summarizer struct {
	store *store.Store
	now   func() time.Time
}

// Options configures a Summarizer.
type Options struct {
	Store *store.Store
	// Now overrides the clock, mainly for tests
	Now func() time.Time
}

// New creates a Summarizer from the given options.
func New(opts Options) (*Summarizer, error) {
	if opts.Store == nil {
		return nil, ErrStoreRequired
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Summarizer{store: opts.Store, now: now}, nil
}

// Build loads the store and aggregates it into a Report.
func (s *Summarizer) Build() (*Report, error) {
	if err := s.store.Load(); err != nil {
		return nil, err
	}

	now := s.now()
	byTopic := make(map[string]*TopicCount)
	yearTotals := make(map[string]int)

	for _, rec := range s.store.Records() {
		name := rec.Topic
		tc, ok := byTopic[name]
		if !ok {
			tc = &TopicCount{
				Name:    name,
				Display: topics.DisplayNameFor(name),
				Local:   topics.IsLocalArea(name),
				Years:   make(map[string]int),
			}
			byTopic[name] = tc
		}

		bucket := rec.Bucket(now)
		tc.Years[bucket]++
		tc.Total++
		yearTotals[bucket]++
	}

	report := &Report{
		YearTotals: yearTotals,
		Total:      s.store.Len(),
		Failed:     len(s.store.Failed()),
	}

	for _, tc := range byTopic {
		if tc.Local {
			report.Local = append(report.Local, *tc)
		} else {
			report.National = append(report.National, *tc)
		}
	}
	sortByDisplay(report.National)
	sortByDisplay(report.Local)

	for year := range yearTotals {
		report.Years = append(report.Years, year)
	}
	sort.Slice(report.Years, func(i, j int) bool {
		return yearLess(report.Years[i], report.Years[j])
	})

	return report, nil
}

func sortByDisplay(list []TopicCount) {
	sort.Slice(list, func(i, j int) bool { return list[i].Display < list[j].Display })
}

// yearLess orders year buckets numerically with "nodate" last.
func yearLess(a, b string) bool {
	if a == b {
		return false
	}
	switch {
	case a == "nodate":
		return false
	case b == "nodate":
		return true
	default:
		return a < b
	}
}
