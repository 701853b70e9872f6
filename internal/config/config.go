package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// The consolidated IRVE dataset on data.gouv.fr.
const defaultDatasetURL = "https://www.data.gouv.fr/api/1/datasets/r/2729b192-40ab-4454-904d-735084dca3a3"

// Config holds all service settings.
type Config struct {
	DatasetURL   string
	FallbackPath string
	RowLimit     int
	FetchTimeout time.Duration

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// rawConfig is the pre-parse form shared by the YAML file and the
// environment: durations stay strings until validation.
type rawConfig struct {
	DatasetURL      string `yaml:"dataset_url"`
	FallbackPath    string `yaml:"fallback_path"`
	RowLimit        int    `yaml:"row_limit"`
	FetchTimeout    string `yaml:"fetch_timeout"`
	HTTPAddr        string `yaml:"http_addr"`
	LogLevel        string `yaml:"log_level"`
	LogFormat       string `yaml:"log_format"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// Load reads configuration from an optional YAML file named by CONFIG_FILE,
// then overrides each value from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	raw := rawConfig{
		DatasetURL:      defaultDatasetURL,
		RowLimit:        20000,
		FetchTimeout:    "30s",
		HTTPAddr:        ":8080",
		LogLevel:        "info",
		LogFormat:       "json",
		ShutdownTimeout: "10s",
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}

	overrideFromEnv(&raw.DatasetURL, "DATASET_URL")
	overrideFromEnv(&raw.FallbackPath, "DATASET_FALLBACK_PATH")
	if v, ok := os.LookupEnv("ROW_LIMIT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, errors.New("config: ROW_LIMIT must be a positive integer")
		}
		raw.RowLimit = n
	}
	overrideFromEnv(&raw.FetchTimeout, "FETCH_TIMEOUT")
	overrideFromEnv(&raw.HTTPAddr, "HTTP_ADDR")
	overrideFromEnv(&raw.LogLevel, "LOG_LEVEL")
	overrideFromEnv(&raw.LogFormat, "LOG_FORMAT")
	overrideFromEnv(&raw.ShutdownTimeout, "SHUTDOWN_TIMEOUT")

	return parse(raw)
}

func overrideFromEnv(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func parse(raw rawConfig) (*Config, error) {
	if raw.RowLimit <= 0 {
		return nil, errors.New("config: ROW_LIMIT must be a positive integer")
	}

	fetchTimeout, err := time.ParseDuration(raw.FetchTimeout)
	if err != nil || fetchTimeout <= 0 {
		return nil, errors.New("config: invalid FETCH_TIMEOUT")
	}

	shutdownTimeout, err := time.ParseDuration(raw.ShutdownTimeout)
	if err != nil || shutdownTimeout <= 0 {
		return nil, errors.New("config: invalid SHUTDOWN_TIMEOUT")
	}

	cfg := &Config{
		DatasetURL:      raw.DatasetURL,
		FallbackPath:    raw.FallbackPath,
		RowLimit:        raw.RowLimit,
		FetchTimeout:    fetchTimeout,
		HTTPAddr:        raw.HTTPAddr,
		LogLevel:        raw.LogLevel,
		LogFormat:       raw.LogFormat,
		ShutdownTimeout: shutdownTimeout,
	}

	if cfg.DatasetURL == "" && cfg.FallbackPath == "" {
		return nil, errors.New("config: DATASET_URL or DATASET_FALLBACK_PATH is required")
	}
	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR is required")
	}

	return cfg, nil
}
