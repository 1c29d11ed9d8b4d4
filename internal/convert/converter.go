// Package convert turns the record store into per-year XML corpus documents
// with flat paragraph structure, plus a corpus config per year directory.
package convert

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spraakbanken/svt-crawler/internal/domain"
	"github.com/spraakbanken/svt-crawler/internal/logger"
	"github.com/spraakbanken/svt-crawler/internal/store"
)

// ErrStoreRequired is returned by New when no store is provided.
var ErrStoreRequired = errors.New("store is required")

// Options configures a Converter.
type Options struct {
	Store  *store.Store
	Logger logger.Interface

	// OutputDir is the root for per-year corpus directories
	OutputDir string
	// CorpusPrefix prefixes corpus IDs, e.g. "svt" -> "svt-2015"
	CorpusPrefix string
	// Now overrides the clock, mainly for tests
	Now func() time.Time
}

// Result summarizes one conversion run.
type Result struct {
	// Written lists the corpus document paths that were (re)generated
	Written []string
	// Skipped lists the buckets left alone because output already existed
	Skipped []string
	// Articles is the number of article elements written
	Articles int
	// Malformed lists record IDs skipped due to unusable payloads
	Malformed []string
}

// Converter builds corpus documents from a record store.
type Converter struct {
	store        *store.Store
	logger       logger.Interface
	outputDir    string
	corpusPrefix string
	now          func() time.Time
}

// New creates a Converter from the given options.
func New(opts Options) (*Converter, error) {
	if opts.Store == nil {
		return nil, ErrStoreRequired
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewNoOp()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Converter{
		store:        opts.Store,
		logger:       log,
		outputDir:    opts.OutputDir,
		corpusPrefix: opts.CorpusPrefix,
		now:          now,
	}, nil
}

// Convert writes one document per year bucket with at least one record.
// Existing output is skipped unless override is set; with override the
// document is regenerated wholesale from the store, never patched. A
// non-empty onlyBucket restricts conversion to that bucket ("2015",
// "nodate").
func (c *Converter) Convert(override bool, onlyBucket string) (*Result, error) {
	if err := c.store.Load(); err != nil {
		return nil, err
	}

	now := c.now()
	buckets := make(map[string][]*domain.Record)
	for _, rec := range c.store.Records() {
		bucket := rec.Bucket(now)
		if onlyBucket != "" && bucket != onlyBucket {
			continue
		}
		buckets[bucket] = append(buckets[bucket], rec)
	}

	names := make([]string, 0, len(buckets))
	for name := range buckets {
		names = append(names, name)
	}
	sort.Strings(names)

	result := &Result{}
	for _, bucket := range names {
		if err := c.convertBucket(result, bucket, buckets[bucket], now, override); err != nil {
			return result, err
		}
	}

	c.logger.Info("conversion finished",
		"written", len(result.Written), "skipped", len(result.Skipped),
		"articles", result.Articles, "malformed", len(result.Malformed))
	return result, nil
}

// convertBucket regenerates one bucket's document and corpus config.
func (c *Converter) convertBucket(
	result *Result,
	bucket string,
	records []*domain.Record,
	now time.Time,
	override bool,
) error {
	corpusID := c.corpusPrefix + "-" + bucket
	corpusDir := filepath.Join(c.outputDir, corpusID)
	docPath := filepath.Join(corpusDir, "source", corpusID+".xml")

	if !override {
		if _, err := os.Stat(docPath); err == nil {
			c.logger.Info("skipped, exists", "bucket", bucket, "path", docPath)
			result.Skipped = append(result.Skipped, bucket)
			return nil
		}
	}

	doc := &articlesDoc{}
	for _, rec := range records {
		elem, err := recordToText(rec, now)
		if err != nil {
			var malformed *MalformedRecordError
			if errors.As(err, &malformed) {
				c.logger.Warn("skipping malformed record",
					"id", rec.ID, "bucket", bucket, "error", err)
				result.Malformed = append(result.Malformed, rec.ID)
				continue
			}
			return err
		}
		doc.Texts = append(doc.Texts, *elem)
	}

	data, err := marshalDocument(doc)
	if err != nil {
		return err
	}

	if writeErr := writeFileAtomic(docPath, data); writeErr != nil {
		return writeErr
	}
	if cfgErr := c.writeCorpusConfig(corpusDir, corpusID, bucket, override); cfgErr != nil {
		return cfgErr
	}

	c.logger.Info("wrote corpus document",
		"bucket", bucket, "articles", len(doc.Texts), "path", docPath)
	result.Written = append(result.Written, docPath)
	result.Articles += len(doc.Texts)
	return nil
}

// writeFileAtomic writes data to a temporary file and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}

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
