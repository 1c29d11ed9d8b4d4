package svt

import "context"

// Walker lazily iterates one topic's listing in the API's native order
// (newest first). Each Next call that needs a new page issues exactly one
// page request; failed page requests do not advance the walker, so the
// caller can retry Next or give up the page with Skip.
type Walker struct {
	client    *Client
	topicPath string

	page       int // next page to request, 1-based
	totalPages int // -1 until the first page response reveals the total
	buf        []Summary
}

// NewWalker creates a Walker over the given topic's listing.
func NewWalker(client *Client, topicPath string) *Walker {
	return &Walker{
		client:     client,
		topicPath:  topicPath,
		page:       1,
		totalPages: -1,
	}
}

// Topic returns the listing path the walker iterates.
func (w *Walker) Topic() string {
	return w.topicPath
}

// Page returns the page the next request will ask for. After a failed Next
// this is the page the walker is stuck on.
func (w *Walker) Page() int {
	return w.page
}

// Next returns the next listing summary. It returns ErrEndOfListing when all
// pages are exhausted. Errors from the underlying page request are returned
// as-is; retrying Next requests the same page again.
func (w *Walker) Next(ctx context.Context) (Summary, error) {
	for len(w.buf) == 0 {
		if w.totalPages >= 0 && w.page > w.totalPages {
			return Summary{}, ErrEndOfListing
		}

		items, total, err := w.client.ListingPage(ctx, w.topicPath, w.page)
		if err != nil {
			return Summary{}, err
		}

		if w.totalPages < 0 {
			limit := w.client.PageLimit()
			w.totalPages = (total + limit - 1) / limit
		}
		w.page++
		w.buf = items

		if len(items) == 0 && w.page > w.totalPages {
			return Summary{}, ErrEndOfListing
		}
	}

	s := w.buf[0]
	w.buf = w.buf[1:]
	return s, nil
}

// Skip abandons the page the walker is stuck on after a failed Next, so the
// walk can continue with the following page. Skipping before the total is
// known ends the listing: without the first page there is no pagination to
// follow.
func (w *Walker) Skip() {
	if w.totalPages < 0 {
		w.totalPages = 0
		return
	}
	w.page++
}
