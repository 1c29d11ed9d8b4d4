// Package store implements the durable record store: one JSON file keyed by
// article ID, plus a list of IDs whose fetch failed. The on-disk files are
// only ever replaced atomically, so an interrupted run leaves either the
// previous or the new valid state, never a partial write.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spraakbanken/svt-crawler/internal/domain"
)

var (
	// ErrCorruptStore is returned when a persisted file cannot be parsed.
	// Callers must abort rather than start from an empty store, which would
	// silently discard data on the next flush.
	ErrCorruptStore = errors.New("corrupt store file")
	// ErrNotFound is returned by Get for an unknown ID.
	ErrNotFound = errors.New("record not found")
)

// Store is the in-memory view of the record collection. It is not safe for
// concurrent use; the crawler and converter are single-threaded by design.
type Store struct {
	path       string
	failedPath string

	records map[string]*domain.Record
	failed  map[string]struct{}
}

// New creates a Store persisting to the given record and failed-list paths.
func New(path, failedPath string) *Store {
	return &Store{
		path:       path,
		failedPath: failedPath,
		records:    make(map[string]*domain.Record),
		failed:     make(map[string]struct{}),
	}
}

// Load reads the persisted collection into memory. A missing file means an
// empty store; an unreadable or unparsable file is fatal.
func (s *Store) Load() error {
	records := make(map[string]*domain.Record)
	if err := loadJSON(s.path, &records); err != nil {
		return err
	}
	for id, rec := range records {
		// A JSON null decodes into a nil record.
		if rec == nil {
			return fmt.Errorf("%w: %s: null record %s", ErrCorruptStore, s.path, id)
		}
		// The map key is authoritative; keep the record consistent.
		rec.ID = id
	}

	var failed []string
	if err := loadJSON(s.failedPath, &failed); err != nil {
		return err
	}

	s.records = records
	s.failed = make(map[string]struct{}, len(failed))
	for _, id := range failed {
		s.failed[id] = struct{}{}
	}

	return nil
}

// Contains reports whether a record with the given ID is stored.
func (s *Store) Contains(id string) bool {
	_, ok := s.records[id]
	return ok
}

// Get returns the stored record for the given ID.
func (s *Store) Get(id string) (*domain.Record, error) {
	rec, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return rec, nil
}

// Put inserts a record. Inserting an ID that is already present is a no-op;
// the first write wins. The return value reports whether the record was
// actually inserted.
func (s *Store) Put(rec *domain.Record) bool {
	if _, ok := s.records[rec.ID]; ok {
		return false
	}
	s.records[rec.ID] = rec
	return true
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	return len(s.records)
}

// Records returns a snapshot of all records, sorted by ID for deterministic
// iteration.
func (s *Store) Records() []*domain.Record {
	out := make([]*domain.Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// AddFailed records an ID whose fetch failed, so a later run can pick it up.
func (s *Store) AddFailed(id string) {
	s.failed[id] = struct{}{}
}

// RemoveFailed removes an ID from the failed list if present.
func (s *Store) RemoveFailed(id string) {
	delete(s.failed, id)
}

// Failed returns the failed IDs, sorted.
func (s *Store) Failed() []string {
	out := make([]string, 0, len(s.failed))
	for id := range s.failed {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Flush durably persists the current in-memory state. Both files are written
// to a temporary location and renamed into place.
func (s *Store) Flush() error {
	if err := writeJSONAtomic(s.path, s.records); err != nil {
		return fmt.Errorf("flush records: %w", err)
	}
	if err := writeJSONAtomic(s.failedPath, s.Failed()); err != nil {
		return fmt.Errorf("flush failed list: %w", err)
	}
	return nil
}

// loadJSON reads a JSON file into v, treating a missing file as empty and a
// parse failure as corruption.
func loadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if unmarshalErr := json.Unmarshal(data, v); unmarshalErr != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorruptStore, path, unmarshalErr)
	}
	return nil
}

// writeJSONAtomic marshals v and atomically replaces path with the result.
func writeJSONAtomic(path string, v any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, writeErr := tmp.Write(data); writeErr != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", tmpName, writeErr)
	}
	if syncErr := tmp.Sync(); syncErr != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync %s: %w", tmpName, syncErr)
	}
	if closeErr := tmp.Close(); closeErr != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", tmpName, closeErr)
	}

	if renameErr := os.Rename(tmpName, path); renameErr != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", path, renameErr)
	}

	return nil
}
