// Package domain provides domain models used across the application.
package domain

import (
	"encoding/json"
	"strconv"
	"time"
)

// Year bucket constants.
const (
	// MinTrustedYear is the earliest publication year with reliable dates.
	// SVT article dates before this are known to be bogus.
	MinTrustedYear = 2004

	// NoDateBucket collects records without a usable date.
	NoDateBucket = "nodate"
)

// Record represents one fetched article. A record is immutable once stored:
// re-crawling an existing ID is a no-op, never an overwrite.
type Record struct {
	// ID is the canonical article URL path, unique across the store
	ID string `json:"id"`
	// ArticleID is the numeric article identifier from the API payload
	ArticleID string `json:"article_id,omitempty"`
	// Topic is the listing topic the article was discovered under
	Topic string `json:"topic,omitempty"`
	// Title of the article
	Title string `json:"title,omitempty"`
	// Published is the publication date, if any
	Published *time.Time `json:"published,omitempty"`
	// Modified is the last modification date, if any
	Modified *time.Time `json:"modified,omitempty"`
	// FetchedAt records when the article was downloaded
	FetchedAt time.Time `json:"fetched_at"`
	// RawPayload is the API's original article object, retained for
	// lossless re-conversion
	RawPayload json.RawMessage `json:"raw_payload"`
}

// Bucket returns the year bucket the record belongs to. The published date
// takes precedence over the modified date; whichever is chosen must fall
// between MinTrustedYear and the current year, otherwise the record goes to
// NoDateBucket. Once a date was chosen there is no fallback to the other one.
func (r *Record) Bucket(now time.Time) string {
	date, ok := r.CorpusDate(now)
	if !ok {
		return NoDateBucket
	}
	return strconv.Itoa(date.Year())
}

// CorpusDate returns the date to expose in corpus output, applying the same
// trust rule as Bucket. The second return value reports whether the record
// has a usable date at all.
func (r *Record) CorpusDate(now time.Time) (time.Time, bool) {
	var date time.Time
	switch {
	case r.Published != nil:
		date = *r.Published
	case r.Modified != nil:
		date = *r.Modified
	default:
		return time.Time{}, false
	}

	if date.Year() < MinTrustedYear || date.Year() > now.Year() {
		return time.Time{}, false
	}
	return date, true
}
