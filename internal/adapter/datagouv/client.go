// Package datagouv fetches the consolidated IRVE CSV published on
// data.gouv.fr and memoizes the result behind a user-invalidated cache token.
package datagouv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/evmonitor/irve-dashboard/internal/config"
	"github.com/evmonitor/irve-dashboard/internal/domain"
	"github.com/evmonitor/irve-dashboard/internal/observability"
)

// Client downloads a bounded slice of the IRVE dataset.
type Client struct {
	sourceURL    string
	fallbackPath string
	rowLimit     int
	httpClient   *http.Client
	metrics      *observability.Metrics
	logger       *slog.Logger
}

// NewClient creates a dataset client from the service configuration.
func NewClient(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		sourceURL:    cfg.DatasetURL,
		fallbackPath: cfg.FallbackPath,
		rowLimit:     cfg.RowLimit,
		httpClient: &http.Client{
			Timeout: cfg.FetchTimeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// SourceKey identifies every fetch input except the cache token, so the
// memoization key changes whenever the source config does.
func (c *Client) SourceKey() string {
	return fmt.Sprintf("%s|%s|%d", c.sourceURL, c.fallbackPath, c.rowLimit)
}

// Fetch retrieves the dataset, truncated at the configured row cap. A remote
// failure falls back to the local file when one is configured; otherwise the
// error surfaces wrapped as domain.ErrDataUnavailable (transport) or
// domain.ErrSchema (unparseable payload).
func (c *Client) Fetch(ctx context.Context) (domain.RawTable, error) {
	start := time.Now()

	table, err := c.fetch(ctx)
	c.metrics.FetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return domain.RawTable{}, err
	}

	c.metrics.RowsLoaded.Set(float64(len(table.Rows)))
	c.logger.Info("dataset fetched", "rows", len(table.Rows), "columns", len(table.Columns))
	return table, nil
}

func (c *Client) fetch(ctx context.Context) (domain.RawTable, error) {
	if c.sourceURL == "" {
		return c.fetchLocal()
	}

	table, err := c.fetchRemote(ctx)
	if err != nil && c.fallbackPath != "" && errors.Is(err, domain.ErrDataUnavailable) {
		c.logger.Warn("remote fetch failed, reading local fallback",
			"url", c.sourceURL,
			"path", c.fallbackPath,
			"error", err,
		)
		return c.fetchLocal()
	}
	return table, err
}

func (c *Client) fetchRemote(ctx context.Context) (domain.RawTable, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.sourceURL, nil)
	if err != nil {
		return domain.RawTable{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.FetchesTotal.WithLabelValues("network_error").Inc()
		return domain.RawTable{}, fmt.Errorf("fetch dataset: %v: %w", err, domain.ErrDataUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.metrics.FetchesTotal.WithLabelValues("http_error").Inc()
		return domain.RawTable{}, fmt.Errorf("fetch dataset: status %d: %w", resp.StatusCode, domain.ErrDataUnavailable)
	}

	table, err := ParseCSV(resp.Body, c.rowLimit)
	if err != nil {
		c.metrics.FetchesTotal.WithLabelValues("parse_error").Inc()
		return domain.RawTable{}, err
	}

	c.metrics.FetchesTotal.WithLabelValues("success").Inc()
	return table, nil
}

func (c *Client) fetchLocal() (domain.RawTable, error) {
	f, err := os.Open(c.fallbackPath)
	if err != nil {
		c.metrics.FetchesTotal.WithLabelValues("network_error").Inc()
		return domain.RawTable{}, fmt.Errorf("open fallback: %v: %w", err, domain.ErrDataUnavailable)
	}
	defer f.Close()

	table, err := ParseCSV(f, c.rowLimit)
	if err != nil {
		c.metrics.FetchesTotal.WithLabelValues("parse_error").Inc()
		return domain.RawTable{}, err
	}

	c.metrics.FetchesTotal.WithLabelValues("fallback").Inc()
	return table, nil
}

// ParseCSV reads a header plus at most rowLimit data rows. Truncation at the
// cap is a deliberate approximation; the dashboard never needs the full file.
// An empty payload maps to domain.ErrDataUnavailable, a structurally
// unreadable one to domain.ErrSchema.
func ParseCSV(r io.Reader, rowLimit int) (domain.RawTable, error) {
	reader := csv.NewReader(r)
	// Ragged rows are tolerated (short rows degrade per field); quoting
	// errors are not, they are the signal that the payload is not CSV.
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return domain.RawTable{}, fmt.Errorf("parse csv: empty payload: %w", domain.ErrDataUnavailable)
	}
	if err != nil {
		return domain.RawTable{}, fmt.Errorf("parse csv: read header: %v: %w", err, domain.ErrSchema)
	}
	if len(header) == 0 || (len(header) == 1 && header[0] == "") {
		return domain.RawTable{}, fmt.Errorf("parse csv: no columns: %w", domain.ErrSchema)
	}

	table := domain.RawTable{Columns: header}
	for len(table.Rows) < rowLimit {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return domain.RawTable{}, fmt.Errorf("parse csv: read row %d: %v: %w", len(table.Rows)+1, err, domain.ErrSchema)
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}
