package topics

import (
	"errors"
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

var (
	// ErrNoTopics indicates no topics were found in the configuration file.
	ErrNoTopics = errors.New("no topics found in configuration")
	// ErrInvalidTopicFormat indicates the topics file has an invalid structure.
	ErrInvalidTopicFormat = errors.New("invalid topic format")
)

// topicsFile is the on-disk structure of a topics configuration file.
type topicsFile struct {
	Topics []Topic `mapstructure:"topics"`
}

// LoadFile loads a topic list from a YAML file. The file must contain a
// top-level "topics" list of entries with a "path" and an optional
// "display_name".
func LoadFile(path string) ([]Topic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read topics file: %w", err)
	}

	var raw map[string]any
	if unmarshalErr := yaml.Unmarshal(data, &raw); unmarshalErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTopicFormat, unmarshalErr)
	}

	var file topicsFile
	if decodeErr := mapstructure.Decode(raw, &file); decodeErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTopicFormat, decodeErr)
	}

	if len(file.Topics) == 0 {
		return nil, ErrNoTopics
	}

	for i, t := range file.Topics {
		if t.Path == "" {
			return nil, fmt.Errorf("%w: topic %d has no path", ErrInvalidTopicFormat, i)
		}
	}

	return file.Topics, nil
}

// Load returns the topics from the given file, or the built-in defaults when
// the path is empty.
func Load(path string) ([]Topic, error) {
	if path == "" {
		return Defaults(), nil
	}
	return LoadFile(path)
}
