package svt_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spraakbanken/svt-crawler/internal/svt"
)

func newTestClient(handler http.Handler) (*svt.Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	client := svt.NewClient(svt.Options{
		BaseURL:    srv.URL + "/nss-api/page/",
		PageLimit:  2,
		UserAgent:  "test-agent",
		HTTPClient: srv.Client(),
	})
	return client, srv
}

func TestListingPage(t *testing.T) {
	t.Parallel()

	var gotPath, gotQuery string
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		fmt.Fprint(w, `{
			"auto": {
				"pagination": {"totalAvailableItems": 5},
				"content": [
					{"url": "https://www.svt.se/nyheter/inrikes/first", "published": "2020-03-01T10:00:00+01:00"},
					{"url": "/nyheter/inrikes/second", "published": ""}
				]
			}
		}`)
	}))
	defer srv.Close()

	summaries, total, err := client.ListingPage(context.Background(), "nyheter/inrikes", 3)
	require.NoError(t, err)

	assert.Equal(t, "/nss-api/page/nyheter/inrikes/", gotPath)
	assert.Equal(t, "q=auto,limit=2,page=3", gotQuery)

	assert.Equal(t, 5, total)
	require.Len(t, summaries, 2)

	// Site-absolute and relative URLs normalize to the same canonical form.
	assert.Equal(t, "/nyheter/inrikes/first", summaries[0].ID)
	assert.Equal(t, "/nyheter/inrikes/second", summaries[1].ID)

	require.NotNil(t, summaries[0].Published)
	assert.Equal(t, 2020, summaries[0].Published.Year())
	assert.Nil(t, summaries[1].Published)
}

func TestArticle(t *testing.T) {
	t.Parallel()

	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/nss-api/page/nyheter/inrikes/some-article", r.URL.Path)
		assert.Equal(t, "q=articles", r.URL.RawQuery)
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		fmt.Fprint(w, `{
			"articles": {
				"content": [
					{"id": 12345, "title": "En nyhet", "published": "2019-05-04T08:00:00+02:00", "modified": "2019-05-05"}
				]
			}
		}`)
	}))
	defer srv.Close()

	rec, err := client.Article(context.Background(), "/nyheter/inrikes/some-article")
	require.NoError(t, err)

	assert.Equal(t, "/nyheter/inrikes/some-article", rec.ID)
	assert.Equal(t, "12345", rec.ArticleID)
	assert.Equal(t, "En nyhet", rec.Title)
	require.NotNil(t, rec.Published)
	assert.Equal(t, 2019, rec.Published.Year())
	require.NotNil(t, rec.Modified)
	assert.False(t, rec.FetchedAt.IsZero())
	assert.NotEmpty(t, rec.RawPayload)
}

func TestArticleNoContent(t *testing.T) {
	t.Parallel()

	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"articles": {"content": []}}`)
	}))
	defer srv.Close()

	_, err := client.Article(context.Background(), "/nyheter/inrikes/gone")
	assert.ErrorIs(t, err, svt.ErrNoArticleData)
	assert.False(t, svt.IsTransient(err))
}

func TestServerErrorsAreTransient(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		status    int
		transient bool
	}{
		{"internal server error", http.StatusInternalServerError, true},
		{"bad gateway", http.StatusBadGateway, true},
		{"too many requests", http.StatusTooManyRequests, true},
		{"not found", http.StatusNotFound, false},
		{"forbidden", http.StatusForbidden, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			_, err := client.Article(context.Background(), "/nyheter/inrikes/x")
			require.Error(t, err)
			assert.Equal(t, tt.transient, svt.IsTransient(err))
		})
	}
}

func TestConnectionErrorIsTransient(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // nothing listens anymore

	client := svt.NewClient(svt.Options{
		BaseURL:   srv.URL + "/nss-api/page/",
		PageLimit: 2,
	})

	_, _, err := client.ListingPage(context.Background(), "sport", 1)
	require.Error(t, err)
	assert.True(t, svt.IsTransient(err))
}

func TestCanonicalID(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/nyheter/utrikes/x", svt.CanonicalID("https://www.svt.se/nyheter/utrikes/x"))
	assert.Equal(t, "/nyheter/utrikes/x", svt.CanonicalID("/nyheter/utrikes/x"))
	assert.Equal(t, "", svt.CanonicalID(""))
}
