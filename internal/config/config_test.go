package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, defaultDatasetURL, cfg.DatasetURL)
	assert.Empty(t, cfg.FallbackPath)
	assert.Equal(t, 20000, cfg.RowLimit)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("DATASET_URL", "https://example.org/irve.csv")
	t.Setenv("DATASET_FALLBACK_PATH", "/data/irve.csv")
	t.Setenv("ROW_LIMIT", "500")
	t.Setenv("FETCH_TIMEOUT", "5s")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://example.org/irve.csv", cfg.DatasetURL)
	assert.Equal(t, "/data/irve.csv", cfg.FallbackPath)
	assert.Equal(t, 500, cfg.RowLimit)
	assert.Equal(t, 5*time.Second, cfg.FetchTimeout)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_YAMLFileWithEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("dataset_url: https://file.example/irve.csv\nrow_limit: 100\nlog_level: warn\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("LOG_LEVEL", "error") // env wins over file

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://file.example/irve.csv", cfg.DatasetURL)
	assert.Equal(t, 100, cfg.RowLimit)
	assert.Equal(t, "error", cfg.LogLevel)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"zero row limit", "ROW_LIMIT", "0"},
		{"non-numeric row limit", "ROW_LIMIT", "many"},
		{"bad fetch timeout", "FETCH_TIMEOUT", "soon"},
		{"negative shutdown timeout", "SHUTDOWN_TIMEOUT", "-1s"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingSource(t *testing.T) {
	t.Setenv("DATASET_URL", "")
	t.Setenv("DATASET_FALLBACK_PATH", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATASET_URL")
}

func TestLoad_MissingConfigFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := Load()
	assert.Error(t, err)
}
