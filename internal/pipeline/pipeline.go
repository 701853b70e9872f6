// Package pipeline wires the dashboard stages together: fetch (cached),
// normalize, derive departments, filter, aggregate. The whole pipeline is a
// pure function of (source config, filter selection, cache state); any UI or
// API layer drives re-invocation.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"github.com/evmonitor/irve-dashboard/internal/domain"
	"github.com/evmonitor/irve-dashboard/internal/observability"
)

// Fetcher retrieves the raw dataset slice. In production this is the cached
// data.gouv client.
type Fetcher interface {
	Fetch(ctx context.Context) (domain.RawTable, error)
}

// CacheControl exposes the fetch cache's token lifecycle to user controls.
type CacheControl interface {
	Invalidate() uint64
	Version() uint64
	FetchedAt() time.Time
}

// Pipeline executes the fetch-normalize-derive-filter chain on demand.
type Pipeline struct {
	fetcher Fetcher
	cache   CacheControl
	logger  *slog.Logger
	metrics *observability.Metrics
	ready   atomic.Bool
}

// New creates a Pipeline with the given stages and observability.
func New(fetcher Fetcher, cache CacheControl, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		fetcher: fetcher,
		cache:   cache,
		logger:  logger,
		metrics: metrics,
	}
}

// Snapshot runs the full pipeline for one filter selection and returns the
// filtered table plus its display aggregates. Fetching is memoized by the
// cache decorator; normalization and derivation re-execute per call, which
// keeps every stage downstream of the cache stateless.
func (p *Pipeline) Snapshot(ctx context.Context, sel domain.FilterSelection) (domain.Table, domain.Aggregates, error) {
	start := time.Now()

	table, err := p.load(ctx)
	if err != nil {
		p.metrics.SnapshotErrors.Inc()
		return nil, domain.Aggregates{}, err
	}

	filtered := domain.ApplyFilter(table, sel)
	agg := domain.Aggregate(filtered)

	p.metrics.SnapshotDuration.Observe(time.Since(start).Seconds())
	p.ready.Store(true)
	p.metrics.ServiceReady.Set(1)

	p.logger.Debug("snapshot served",
		"rows_in", len(table),
		"rows_out", len(filtered),
		"departments", len(sel.Departments),
	)
	return filtered, agg, nil
}

// Departments returns the distinct non-empty department codes present in the
// unfiltered table, for the filter widget's option list.
func (p *Pipeline) Departments(ctx context.Context) ([]string, error) {
	table, err := p.load(ctx)
	if err != nil {
		return nil, err
	}
	return domain.Aggregate(table).Departments, nil
}

// Operators returns operator counts over the unfiltered table, truncated to
// limit when limit > 0.
func (p *Pipeline) Operators(ctx context.Context, limit int) ([]domain.OperatorCount, error) {
	table, err := p.load(ctx)
	if err != nil {
		return nil, err
	}
	ops := domain.Aggregate(table).Operators
	if limit > 0 && len(ops) > limit {
		ops = ops[:limit]
	}
	return ops, nil
}

// Refresh invalidates the fetch cache and returns the new token. The next
// access performs exactly one re-fetch.
func (p *Pipeline) Refresh() uint64 {
	return p.cache.Invalidate()
}

// FetchedAt returns the timestamp of the table currently being served, zero
// before the first successful load.
func (p *Pipeline) FetchedAt() time.Time {
	return p.cache.FetchedAt()
}

// CheckReadiness returns nil once the pipeline has served at least one
// snapshot, or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not served a snapshot yet")
	}
	return nil
}

// Warm runs one unfiltered snapshot so the first user request finds a
// populated cache. Startup may proceed without it; failures only delay
// readiness.
func (p *Pipeline) Warm(ctx context.Context) {
	sel := domain.FilterSelection{PowerMax: math.Inf(1)}
	if _, _, err := p.Snapshot(ctx, sel); err != nil {
		p.logger.Warn("cache warm-up failed", "error", err)
	}
}

// load produces the normalized, department-derived table.
func (p *Pipeline) load(ctx context.Context) (domain.Table, error) {
	raw, err := p.fetcher.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	table, err := domain.Normalize(raw)
	if err != nil {
		return nil, err
	}
	return domain.DeriveDepartments(table), nil
}
