package datagouv

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/evmonitor/irve-dashboard/internal/domain"
	"github.com/evmonitor/irve-dashboard/internal/observability"
)

// clock is a package-level time source so tests can freeze the fetch
// timestamp via SetClock. Production code uses the real clock.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Fetcher retrieves a raw dataset table.
type Fetcher interface {
	Fetch(ctx context.Context) (domain.RawTable, error)
}

// CachedFetcher memoizes a Fetcher keyed by (source key, cache token). The
// token is a counter incremented by Invalidate; while an entry matches the
// current key no upstream fetch happens. The entry never expires on its own.
//
// The fetch runs while holding the cache mutex, so a burst of calls after an
// invalidation performs exactly one upstream fetch: the first caller fills
// the entry, the rest find it.
type CachedFetcher struct {
	inner     Fetcher
	sourceKey string
	metrics   *observability.Metrics
	logger    *slog.Logger

	mu       sync.Mutex
	token    uint64
	entry    *cacheEntry // valid for the current key, nil after invalidation
	lastGood *cacheEntry // most recent successful fetch regardless of token
}

type cacheEntry struct {
	key       string
	table     domain.RawTable
	fetchedAt time.Time
}

// NewCachedFetcher creates a cache decorator around a fetcher. sourceKey must
// cover every fetch input besides the token (see Client.SourceKey).
func NewCachedFetcher(inner Fetcher, sourceKey string, metrics *observability.Metrics, logger *slog.Logger) *CachedFetcher {
	return &CachedFetcher{
		inner:     inner,
		sourceKey: sourceKey,
		metrics:   metrics,
		logger:    logger,
	}
}

// Fetch returns the cached table for the current token, fetching upstream on
// a miss. A failed re-fetch after invalidation is served fail-soft from the
// last good table when one exists; the staleness is logged and counted.
func (c *CachedFetcher) Fetch(ctx context.Context) (domain.RawTable, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := c.currentKey()
	if c.entry != nil && c.entry.key == key {
		c.metrics.CacheLookups.WithLabelValues("hit").Inc()
		return c.entry.table, nil
	}
	c.metrics.CacheLookups.WithLabelValues("miss").Inc()

	table, err := c.inner.Fetch(ctx)
	if err != nil {
		if c.lastGood != nil {
			c.metrics.CacheLookups.WithLabelValues("stale").Inc()
			c.logger.Warn("fetch failed, serving last good table",
				"error", err,
				"fetched_at", c.lastGood.fetchedAt,
			)
			return c.lastGood.table, nil
		}
		return domain.RawTable{}, err
	}

	e := &cacheEntry{key: key, table: table, fetchedAt: clock.Now()}
	c.entry = e
	c.lastGood = e
	return table, nil
}

// Invalidate bumps the cache token, forcing exactly one re-fetch on the next
// access. Returns the new token.
func (c *CachedFetcher) Invalidate() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.token++
	c.entry = nil
	c.metrics.Invalidations.Inc()
	c.logger.Info("cache invalidated", "token", c.token)
	return c.token
}

// Version returns the current cache token.
func (c *CachedFetcher) Version() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// FetchedAt returns when the last good table was fetched, zero if none.
func (c *CachedFetcher) FetchedAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastGood == nil {
		return time.Time{}
	}
	return c.lastGood.fetchedAt
}

func (c *CachedFetcher) currentKey() string {
	return fmt.Sprintf("%s|%d", c.sourceKey, c.token)
}
