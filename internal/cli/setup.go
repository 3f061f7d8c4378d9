package cli

import (
	"fmt"
	"log/slog"

	"github.com/eshaffer321/ledger-dedupe/internal/application/service"
	"github.com/eshaffer321/ledger-dedupe/internal/domain/duplicate"
	"github.com/eshaffer321/ledger-dedupe/internal/infrastructure/config"
	"github.com/eshaffer321/ledger-dedupe/internal/infrastructure/logging"
	"github.com/eshaffer321/ledger-dedupe/internal/infrastructure/storage"
)

// Environment holds the dependencies every command builds on
type Environment struct {
	Config  *config.Config
	Logger  *slog.Logger
	Store   *storage.Storage
	Service *service.DuplicateService
}

// Setup loads configuration, builds the logger and opens the database.
// Callers must Close the returned environment.
func Setup(flags CommonFlags, system string) (*Environment, error) {
	cfg := config.LoadOrEnvWithPath(flags.ConfigPath)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	loggingCfg := cfg.Observability.Logging
	if flags.Verbose {
		loggingCfg.Level = "debug"
	}
	logger := logging.NewLoggerWithSystem(loggingCfg, system)

	store, err := storage.NewStorage(cfg.Storage.DatabasePath, logger.With("component", "storage"))
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", cfg.Storage.DatabasePath, err)
	}

	logger.Debug("environment ready",
		"database", cfg.Storage.DatabasePath,
		"window_hours", cfg.Detection.TimeWindowHours)

	return &Environment{
		Config:  cfg,
		Logger:  logger,
		Store:   store,
		Service: service.NewDuplicateService(store, duplicate.NewDetector(duplicate.DefaultConfig()), cfg.Detection.TimeWindowHours, logger),
	}, nil
}

// Close releases the database
func (e *Environment) Close() {
	if err := e.Store.Close(); err != nil {
		e.Logger.Warn("failed to close database", "error", err)
	}
}
