package convert_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spraakbanken/svt-crawler/internal/convert"
	"github.com/spraakbanken/svt-crawler/internal/domain"
	"github.com/spraakbanken/svt-crawler/internal/store"
)

var testNow = time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

func date(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func payload(id int, title string, body string) json.RawMessage {
	data, err := json.Marshal(map[string]any{
		"id":    id,
		"title": title,
		"structuredBody": []map[string]any{
			{"type": "svt-text", "content": body},
		},
	})
	if err != nil {
		panic(err)
	}
	return data
}

// newConverter builds a converter over a store seeded with the given records.
func newConverter(t *testing.T, records ...*domain.Record) (*convert.Converter, string) {
	t.Helper()

	dir := t.TempDir()
	s := store.New(filepath.Join(dir, "records.json"), filepath.Join(dir, "failed.json"))
	require.NoError(t, s.Load())
	for _, rec := range records {
		s.Put(rec)
	}
	require.NoError(t, s.Flush())

	outputDir := filepath.Join(dir, "export")
	c, err := convert.New(convert.Options{
		Store:        s,
		OutputDir:    outputDir,
		CorpusPrefix: "svt",
		Now:          func() time.Time { return testNow },
	})
	require.NoError(t, err)
	return c, outputDir
}

func TestConvertGroupsByYear(t *testing.T) {
	t.Parallel()

	c, outputDir := newConverter(t,
		&domain.Record{ID: "/a", Published: date("2015-03-01"), RawPayload: payload(1, "A", "text a")},
		&domain.Record{ID: "/b", Published: date("2015-08-01"), RawPayload: payload(2, "B", "text b")},
		&domain.Record{ID: "/c", Published: date("2016-01-01"), RawPayload: payload(3, "C", "text c")},
		&domain.Record{ID: "/d", RawPayload: payload(4, "D", "text d")},
	)

	result, err := c.Convert(false, "")
	require.NoError(t, err)

	assert.Len(t, result.Written, 3)
	assert.Equal(t, 4, result.Articles)
	assert.Empty(t, result.Malformed)

	for _, corpus := range []string{"svt-2015", "svt-2016", "svt-nodate"} {
		assert.FileExists(t, filepath.Join(outputDir, corpus, "source", corpus+".xml"))
		assert.FileExists(t, filepath.Join(outputDir, corpus, "config.yaml"))
	}

	data, err := os.ReadFile(filepath.Join(outputDir, "svt-2015", "source", "svt-2015.xml"))
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, `<text id="1"`)
	assert.Contains(t, content, `<text id="2"`)
	assert.NotContains(t, content, `<text id="3"`)
	assert.Contains(t, content, `<p type="title">A</p>`)
	assert.Contains(t, content, `<p>text a</p>`)
}

func TestConvertSkipsExistingOutput(t *testing.T) {
	t.Parallel()

	c, outputDir := newConverter(t,
		&domain.Record{ID: "/a", Published: date("2015-03-01"), RawPayload: payload(1, "A", "old text")},
	)

	_, err := c.Convert(false, "")
	require.NoError(t, err)

	docPath := filepath.Join(outputDir, "svt-2015", "source", "svt-2015.xml")
	before, err := os.ReadFile(docPath)
	require.NoError(t, err)

	// Tamper with the output; without override it must stay untouched.
	require.NoError(t, os.WriteFile(docPath, []byte("tampered"), 0o644))

	result, err := c.Convert(false, "")
	require.NoError(t, err)
	assert.Empty(t, result.Written)
	assert.Equal(t, []string{"2015"}, result.Skipped)

	after, err := os.ReadFile(docPath)
	require.NoError(t, err)
	assert.Equal(t, "tampered", string(after))

	// With override the document is regenerated from the store.
	result, err = c.Convert(true, "")
	require.NoError(t, err)
	assert.Len(t, result.Written, 1)

	regenerated, err := os.ReadFile(docPath)
	require.NoError(t, err)
	assert.Equal(t, before, regenerated)
}

func TestConvertIsByteForByteIdempotent(t *testing.T) {
	t.Parallel()

	c, outputDir := newConverter(t,
		&domain.Record{ID: "/b", Published: date("2015-08-01"), RawPayload: payload(2, "B", "b")},
		&domain.Record{ID: "/a", Published: date("2015-03-01"), RawPayload: payload(1, "A", "a")},
	)

	_, err := c.Convert(false, "")
	require.NoError(t, err)

	docPath := filepath.Join(outputDir, "svt-2015", "source", "svt-2015.xml")
	first, err := os.ReadFile(docPath)
	require.NoError(t, err)

	_, err = c.Convert(true, "")
	require.NoError(t, err)

	second, err := os.ReadFile(docPath)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestConvertSingleBucket(t *testing.T) {
	t.Parallel()

	c, outputDir := newConverter(t,
		&domain.Record{ID: "/a", Published: date("2015-03-01"), RawPayload: payload(1, "A", "a")},
		&domain.Record{ID: "/b", Published: date("2016-03-01"), RawPayload: payload(2, "B", "b")},
	)

	result, err := c.Convert(false, "2016")
	require.NoError(t, err)

	assert.Len(t, result.Written, 1)
	assert.FileExists(t, filepath.Join(outputDir, "svt-2016", "source", "svt-2016.xml"))
	assert.NoFileExists(t, filepath.Join(outputDir, "svt-2015", "source", "svt-2015.xml"))
}

func TestConvertSkipsMalformedRecords(t *testing.T) {
	t.Parallel()

	records := make([]*domain.Record, 0, 11)
	for i := 0; i < 10; i++ {
		records = append(records, &domain.Record{
			ID:         "/good-" + string(rune('a'+i)),
			Published:  date("2015-03-01"),
			RawPayload: payload(i, "T", "text"),
		})
	}
	records = append(records, &domain.Record{
		ID:         "/broken",
		Published:  date("2015-03-01"),
		RawPayload: json.RawMessage(`{"id": "not even closed`),
	})

	c, outputDir := newConverter(t, records...)

	result, err := c.Convert(false, "")
	require.NoError(t, err)

	assert.Equal(t, 10, result.Articles)
	assert.Equal(t, []string{"/broken"}, result.Malformed)

	data, err := os.ReadFile(filepath.Join(outputDir, "svt-2015", "source", "svt-2015.xml"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "/broken")
}

func TestConvertEmptyPayloadIsMalformed(t *testing.T) {
	t.Parallel()

	c, _ := newConverter(t,
		&domain.Record{ID: "/empty", Published: date("2015-03-01")},
	)

	result, err := c.Convert(false, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"/empty"}, result.Malformed)
	assert.Zero(t, result.Articles)
}

func TestCorpusConfigContents(t *testing.T) {
	t.Parallel()

	c, outputDir := newConverter(t,
		&domain.Record{ID: "/a", Published: date("2015-03-01"), RawPayload: payload(1, "A", "a")},
		&domain.Record{ID: "/b", RawPayload: payload(2, "B", "b")},
	)

	_, err := c.Convert(false, "")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(outputDir, "svt-2015", "config.yaml"))
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "parent: ../config.yaml")
	assert.Contains(t, content, "id: svt-2015")
	assert.Contains(t, content, "swe: SVT nyheter 2015")
	assert.Contains(t, content, "eng: SVT news 2015")

	data, err = os.ReadFile(filepath.Join(outputDir, "svt-nodate", "config.yaml"))
	require.NoError(t, err)
	content = string(data)
	assert.Contains(t, content, "swe: SVT nyheter okänt datum")
	assert.Contains(t, content, "eng: SVT news unknown date")
}
