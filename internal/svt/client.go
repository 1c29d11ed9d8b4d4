package svt

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spraakbanken/svt-crawler/internal/domain"
)

// svtSiteURL is the public site prefix the API sometimes uses in article
// URLs; it is stripped to get the canonical article path.
const svtSiteURL = "https://www.svt.se"

// Summary is one article entry from a listing page: just enough to decide
// whether the full record needs fetching.
type Summary struct {
	// ID is the canonical article URL path
	ID string
	// Published is the publication date from the listing, if present
	Published *time.Time
}

// Options configures a Client.
type Options struct {
	// BaseURL is the API base with a trailing slash,
	// e.g. "https://api.svt.se/nss-api/page/"
	BaseURL string
	// PageLimit is the number of listing items requested per page
	PageLimit int
	// UserAgent is sent on every request
	UserAgent string
	// Timeout bounds a single request; ignored when HTTPClient is set
	Timeout time.Duration
	// HTTPClient overrides the default client, mainly for tests
	HTTPClient *http.Client
}

// Client talks to the SVT news API.
type Client struct {
	baseURL   string
	pageLimit int
	userAgent string
	client    *http.Client
}

// NewClient creates a Client from the given options.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{
		baseURL:   opts.BaseURL,
		pageLimit: opts.PageLimit,
		userAgent: opts.UserAgent,
		client:    httpClient,
	}
}

// PageLimit returns the configured listing page size.
func (c *Client) PageLimit() int {
	return c.pageLimit
}

// listingResponse mirrors the listing endpoint's JSON shape.
type listingResponse struct {
	Auto struct {
		Pagination struct {
			TotalAvailableItems int `json:"totalAvailableItems"`
		} `json:"pagination"`
		Content []listingItem `json:"content"`
	} `json:"auto"`
}

type listingItem struct {
	URL       string `json:"url"`
	Published string `json:"published"`
}

// articleResponse mirrors the article endpoint's JSON shape.
type articleResponse struct {
	Articles struct {
		Content []json.RawMessage `json:"content"`
	} `json:"articles"`
}

// articleFields is the subset of the raw payload the record keeps parsed.
type articleFields struct {
	ID        json.Number `json:"id"`
	Title     string      `json:"title"`
	Published string      `json:"published"`
	Modified  string      `json:"modified"`
}

// ListingPage fetches one page of a topic's article listing and returns its
// summaries together with the listing's total item count.
func (c *Client) ListingPage(ctx context.Context, topicPath string, page int) ([]Summary, int, error) {
	// The API expects its query parameters as one comma-joined value.
	url := fmt.Sprintf("%s%s/?q=auto,limit=%d,page=%d", c.baseURL, topicPath, c.pageLimit, page)

	body, err := c.get(ctx, "listing", url)
	if err != nil {
		return nil, 0, err
	}

	var resp listingResponse
	if unmarshalErr := json.Unmarshal(body, &resp); unmarshalErr != nil {
		return nil, 0, fmt.Errorf("decode listing %s: %w", url, unmarshalErr)
	}

	summaries := make([]Summary, 0, len(resp.Auto.Content))
	for _, item := range resp.Auto.Content {
		id := CanonicalID(item.URL)
		if id == "" {
			continue
		}
		summaries = append(summaries, Summary{
			ID:        id,
			Published: parseDate(item.Published),
		})
	}

	return summaries, resp.Auto.Pagination.TotalAvailableItems, nil
}

// Article fetches the full record for one article ID.
func (c *Client) Article(ctx context.Context, id string) (*domain.Record, error) {
	url := strings.TrimSuffix(c.baseURL, "/") + id + "?q=articles"

	body, err := c.get(ctx, "article", url)
	if err != nil {
		return nil, err
	}

	var resp articleResponse
	if unmarshalErr := json.Unmarshal(body, &resp); unmarshalErr != nil {
		return nil, fmt.Errorf("decode article %s: %w", url, unmarshalErr)
	}

	if len(resp.Articles.Content) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoArticleData, id)
	}

	// Articles occasionally carry multiple content entries; the first one
	// is the article itself.
	payload := resp.Articles.Content[0]

	var fields articleFields
	if unmarshalErr := json.Unmarshal(payload, &fields); unmarshalErr != nil {
		return nil, fmt.Errorf("decode article fields %s: %w", url, unmarshalErr)
	}

	return &domain.Record{
		ID:         id,
		ArticleID:  fields.ID.String(),
		Title:      fields.Title,
		Published:  parseDate(fields.Published),
		Modified:   parseDate(fields.Modified),
		FetchedAt:  time.Now().UTC(),
		RawPayload: payload,
	}, nil
}

// get performs one GET request and classifies failures as transient or
// permanent.
func (c *Client) get(ctx context.Context, op, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("new request %s: %w", url, err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, doErr := c.client.Do(req)
	if doErr != nil {
		return nil, &TransientError{Op: op, URL: url, Err: doErr}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
		return nil, &TransientError{
			Op:  op,
			URL: url,
			Err: fmt.Errorf("status %d", resp.StatusCode),
		}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s fetch %s: unexpected status %d", op, url, resp.StatusCode)
	}

	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return nil, &TransientError{Op: op, URL: url, Err: readErr}
	}

	return body, nil
}

// CanonicalID normalizes an article URL to its canonical path form, the
// stable identifier used as store key.
func CanonicalID(url string) string {
	return strings.TrimPrefix(url, svtSiteURL)
}

// dateLayouts are tried in order when parsing API dates.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
}

// parseDate parses an API date string, tolerating a date-only prefix.
// Returns nil when the value is absent or unparsable.
func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	const dateLen = len("2006-01-02")
	if len(s) > dateLen {
		if t, err := time.Parse("2006-01-02", s[:dateLen]); err == nil {
			return &t
		}
	}
	return nil
}
