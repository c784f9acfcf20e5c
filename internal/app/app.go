// Package app assembles the pipeline, sink and enrichment components from a
// Config for the command-line entry points.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"job-pipeline-go/internal/config"
	"job-pipeline-go/internal/contacts"
	"job-pipeline-go/internal/enrich"
	"job-pipeline-go/internal/models"
	"job-pipeline-go/internal/scraper"
	"job-pipeline-go/internal/scraper/extract"
	"job-pipeline-go/internal/scraper/sources"
	"job-pipeline-go/internal/storage"
	"job-pipeline-go/pkg/httpclient"
)

// SetupLogging builds the process logger. Output goes to logFile when set,
// otherwise to stdout. The returned file, if any, must be closed by the caller.
func SetupLogging(logFile, logLevel string) (*slog.Logger, *os.File, error) {
	var out io.Writer = os.Stdout
	var file *os.File

	if logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}

		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out, file = f, f
	}

	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: ParseLevel(logLevel)}))
	return logger, file, nil
}

// ParseLevel maps a config log level to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewPipeline wires the strategy set, extraction engine and normalizer.
func NewPipeline(cfg *config.Config, logger *slog.Logger) *scraper.Pipeline {
	client := httpclient.NewHttpClient(httpclient.Options{
		CloudflareBypass: cfg.Scraper.CloudflareBypass,
		Logger:           logger,
	})
	strategies := sources.NewDefaultSet(cfg, client, logger)
	engine := extract.NewEngine(extract.Options{
		BaseURL:   cfg.Scraper.BaseURL,
		Selectors: extract.DefaultSelectors(),
		Logger:    logger,
	})
	normalizer := scraper.NewNormalizer(cfg.Scraper.SiteName)

	return scraper.NewPipeline(strategies, engine, normalizer, scraper.OptionsFromConfig(cfg, logger))
}

// OpenStore connects the configured persistence sink. The returned func
// releases it.
func OpenStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Store, func(), error) {
	if err := cfg.ValidateSink(); err != nil {
		return nil, nil, err
	}

	switch cfg.Database.Driver {
	case "postgres":
		store, err := storage.NewPostgresStore(ctx, cfg.Database.PostgresURL, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		store, err := storage.NewSupabaseStore(cfg.Database.SupabaseURL, cfg.Database.SupabaseKey, logger)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	}
}

// NewEnricher wires the contact lookup against store. The Redis domain
// cache is used when a Redis URL is configured and reachable.
func NewEnricher(ctx context.Context, cfg *config.Config, store enrich.ContactStore, logger *slog.Logger) (*enrich.Enricher, func(), error) {
	if err := cfg.ValidateContacts(); err != nil {
		return nil, nil, err
	}

	closer := func() {}
	var cache contacts.DomainCache
	if cfg.Contacts.RedisURL != "" {
		rdb, err := contacts.NewRedisClient(ctx, cfg.Contacts.RedisURL)
		if err != nil {
			logger.WarnContext(ctx, "domain cache unavailable, continuing without it", "err", err)
		} else {
			cache = contacts.NewRedisDomainCache(rdb)
			closer = func() { _ = rdb.Close() }
		}
	}

	lookup := contacts.NewHunterClient(contacts.OptionsFromConfig(cfg.Contacts, cache, logger))
	return enrich.NewEnricher(lookup, store, enrich.OptionsFromConfig(cfg.Contacts, logger)), closer, nil
}

// Locations returns the configured batch locations, falling back to the
// locations stored in the sink.
func Locations(ctx context.Context, cfg *config.Config, store storage.Store) ([]models.Location, error) {
	if len(cfg.Batch.Locations) > 0 {
		return cfg.Batch.Locations, nil
	}
	locations, err := store.Locations(ctx)
	if err != nil {
		return nil, fmt.Errorf("load locations: %w", err)
	}
	return locations, nil
}
