package convert

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/spraakbanken/svt-crawler/internal/domain"
)

// corpusConfig is the Sparv sub-corpus configuration written next to each
// year's source directory.
type corpusConfig struct {
	Parent   string         `yaml:"parent"`
	Metadata corpusMetadata `yaml:"metadata"`
}

type corpusMetadata struct {
	ID   string     `yaml:"id"`
	Name corpusName `yaml:"name"`
}

type corpusName struct {
	Swe string `yaml:"swe"`
	Eng string `yaml:"eng"`
}

// writeCorpusConfig writes the per-year corpus config unless one already
// exists and override is unset.
func (c *Converter) writeCorpusConfig(corpusDir, corpusID, bucket string, override bool) error {
	path := filepath.Join(corpusDir, "config.yaml")
	if !override {
		if _, err := os.Stat(path); err == nil {
			return nil
		}
	}

	sweLabel, engLabel := bucket, bucket
	if bucket == domain.NoDateBucket {
		sweLabel, engLabel = "okänt datum", "unknown date"
	}

	cfg := corpusConfig{
		Parent: "../config.yaml",
		Metadata: corpusMetadata{
			ID: corpusID,
			Name: corpusName{
				Swe: "SVT nyheter " + sweLabel,
				Eng: "SVT news " + engLabel,
			},
		},
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal corpus config: %w", err)
	}

	if writeErr := writeFileAtomic(path, data); writeErr != nil {
		return writeErr
	}

	c.logger.Debug("wrote corpus config", "path", path)
	return nil
}
