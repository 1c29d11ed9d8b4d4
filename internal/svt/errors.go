// Package svt implements the client for the SVT news API: the paginated
// article listings and the per-article fetch endpoint.
package svt

import (
	"errors"
	"fmt"
)

var (
	// ErrEndOfListing signals that a listing walker has exhausted its pages.
	ErrEndOfListing = errors.New("end of listing")
	// ErrNoArticleData is returned when the article endpoint responds
	// without any content entry for the requested ID.
	ErrNoArticleData = errors.New("no article data in response")
)

// TransientError marks a fetch failure that is worth retrying: network
// errors, timeouts, and 429/5xx responses.
type TransientError struct {
	// Op names the failed operation ("listing" or "article")
	Op string
	// URL is the request URL
	URL string
	// Err is the underlying cause
	Err error
}

// Error implements the error interface.
func (e *TransientError) Error() string {
	return fmt.Sprintf("transient %s fetch error for %s: %v", e.Op, e.URL, e.Err)
}

// Unwrap returns the underlying cause.
func (e *TransientError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is (or wraps) a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
