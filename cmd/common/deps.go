// Package common provides shared utilities for command implementations.
package common

import (
	"fmt"

	"github.com/spraakbanken/svt-crawler/internal/config"
	"github.com/spraakbanken/svt-crawler/internal/logger"
	"github.com/spraakbanken/svt-crawler/internal/store"
)

// CommandDeps holds common dependencies for all commands.
type CommandDeps struct {
	Logger logger.Interface
	Config *config.Config
}

// NewCommandDeps builds the shared dependencies from the current
// configuration state.
func NewCommandDeps() (*CommandDeps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.New(&logger.Config{
		Level:       logger.Level(cfg.Logger.Level),
		Encoding:    cfg.Logger.Encoding,
		Development: cfg.Logger.Development,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return &CommandDeps{Logger: log, Config: cfg}, nil
}

// Validate ensures all required dependencies are present.
func (d *CommandDeps) Validate() error {
	if d.Logger == nil {
		return ErrLoggerRequired
	}
	if d.Config == nil {
		return ErrConfigRequired
	}
	return nil
}

// OpenStore creates the record store from the storage configuration.
func (d *CommandDeps) OpenStore() *store.Store {
	return store.New(d.Config.Storage.StorePath(), d.Config.Storage.FailedPath())
}
