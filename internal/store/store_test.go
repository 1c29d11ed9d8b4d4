package store_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spraakbanken/svt-crawler/internal/domain"
	"github.com/spraakbanken/svt-crawler/internal/store"
)

func newTestStore(t *testing.T) (*store.Store, string, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "records.json")
	failedPath := filepath.Join(dir, "failed.json")
	return store.New(path, failedPath), path, failedPath
}

func testRecord(id string) *domain.Record {
	return &domain.Record{
		ID:         id,
		Title:      "title for " + id,
		FetchedAt:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		RawPayload: json.RawMessage(`{"id":1}`),
	}
}

func TestLoadMissingFilesMeansEmptyStore(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestStore(t)
	require.NoError(t, s.Load())
	assert.Zero(t, s.Len())
	assert.Empty(t, s.Failed())
}

func TestPutFirstWriteWins(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestStore(t)
	require.NoError(t, s.Load())

	first := testRecord("/nyheter/inrikes/a")
	assert.True(t, s.Put(first))

	second := testRecord("/nyheter/inrikes/a")
	second.Title = "changed"
	assert.False(t, s.Put(second))

	got, err := s.Get("/nyheter/inrikes/a")
	require.NoError(t, err)
	assert.Equal(t, first.Title, got.Title)
	assert.Equal(t, 1, s.Len())
}

func TestFlushAndReload(t *testing.T) {
	t.Parallel()

	s, path, failedPath := newTestStore(t)
	require.NoError(t, s.Load())

	s.Put(testRecord("/nyheter/inrikes/a"))
	s.Put(testRecord("/sport/b"))
	s.AddFailed("/vader/c")
	require.NoError(t, s.Flush())

	reloaded := store.New(path, failedPath)
	require.NoError(t, reloaded.Load())

	assert.Equal(t, 2, reloaded.Len())
	assert.True(t, reloaded.Contains("/nyheter/inrikes/a"))
	assert.True(t, reloaded.Contains("/sport/b"))
	assert.Equal(t, []string{"/vader/c"}, reloaded.Failed())
}

func TestLoadCorruptStoreFails(t *testing.T) {
	t.Parallel()

	s, path, _ := newTestStore(t)
	require.NoError(t, os.WriteFile(path, []byte("{truncated"), 0o644))

	err := s.Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrCorruptStore)
}

func TestLoadNullRecordFails(t *testing.T) {
	t.Parallel()

	s, path, _ := newTestStore(t)
	require.NoError(t, os.WriteFile(path, []byte(`{"/sport/a": null}`), 0o644))

	err := s.Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrCorruptStore)
}

func TestLoadCorruptFailedListFails(t *testing.T) {
	t.Parallel()

	s, _, failedPath := newTestStore(t)
	require.NoError(t, os.WriteFile(failedPath, []byte("not json"), 0o644))

	err := s.Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrCorruptStore)
}

func TestGetUnknownID(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestStore(t)
	require.NoError(t, s.Load())

	_, err := s.Get("/nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRecordsSortedByID(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestStore(t)
	require.NoError(t, s.Load())

	s.Put(testRecord("/c"))
	s.Put(testRecord("/a"))
	s.Put(testRecord("/b"))

	records := s.Records()
	require.Len(t, records, 3)
	assert.Equal(t, "/a", records[0].ID)
	assert.Equal(t, "/b", records[1].ID)
	assert.Equal(t, "/c", records[2].ID)
}

func TestFailedListAddRemove(t *testing.T) {
	t.Parallel()

	s, _, _ := newTestStore(t)
	require.NoError(t, s.Load())

	s.AddFailed("/b")
	s.AddFailed("/a")
	s.AddFailed("/a") // duplicate is a no-op
	assert.Equal(t, []string{"/a", "/b"}, s.Failed())

	s.RemoveFailed("/a")
	assert.Equal(t, []string{"/b"}, s.Failed())

	s.RemoveFailed("/missing") // removing an unknown ID is fine
	assert.Equal(t, []string{"/b"}, s.Failed())
}

func TestFlushLeavesNoTempFiles(t *testing.T) {
	t.Parallel()

	s, path, _ := newTestStore(t)
	require.NoError(t, s.Load())
	s.Put(testRecord("/a"))
	require.NoError(t, s.Flush())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 2) // records.json and failed.json only
}
