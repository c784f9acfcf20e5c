package app

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"job-pipeline-go/internal/config"
	"job-pipeline-go/internal/models"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	require.Equal(t, slog.LevelError, ParseLevel(" error "))
	require.Equal(t, slog.LevelInfo, ParseLevel(""))
}

func TestSetupLoggingWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "pipeline.log")

	logger, file, err := SetupLogging(path, "warn")
	require.NoError(t, err)
	require.NotNil(t, file)

	logger.Info("hidden")
	logger.Warn("visible", "location", "Denver")
	require.NoError(t, file.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotContains(t, string(data), "hidden")
	require.Contains(t, string(data), "location=Denver")
}

func TestNewPipelineListsMethods(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Headless.Enabled = false

	methods := NewPipeline(cfg, slog.Default()).Methods()
	require.Equal(t, "default", methods[0])
	require.Contains(t, methods, "proxy")
	require.Contains(t, methods, "relay")
	require.Contains(t, methods, "fragment")
	require.NotContains(t, methods, "headless")
}

func TestOpenStoreValidatesSink(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Database = config.DatabaseConfig{Driver: "postgres"}

	_, _, err := OpenStore(context.Background(), cfg, slog.Default())
	require.Error(t, err)
}

func TestNewEnricherValidatesContacts(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Contacts.APIKey = ""

	_, _, err := NewEnricher(context.Background(), cfg, nil, slog.Default())
	require.Error(t, err)
}

func TestLocationsPrefersConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Batch.Locations = []models.Location{{Name: "Denver", GeoID: "1"}}

	locations, err := Locations(context.Background(), cfg, nil)
	require.NoError(t, err)
	require.Equal(t, cfg.Batch.Locations, locations)
}
