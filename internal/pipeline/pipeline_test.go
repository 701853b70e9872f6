package pipeline_test

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evmonitor/irve-dashboard/internal/domain"
	"github.com/evmonitor/irve-dashboard/internal/observability"
	"github.com/evmonitor/irve-dashboard/internal/pipeline"
)

// --- mocks ---

type mockFetcher struct {
	mu    sync.Mutex
	table domain.RawTable
	err   error
	calls int
}

func (m *mockFetcher) Fetch(_ context.Context) (domain.RawTable, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return domain.RawTable{}, m.err
	}
	return m.table, nil
}

type mockCache struct {
	token     uint64
	fetchedAt time.Time
}

func (m *mockCache) Invalidate() uint64   { m.token++; return m.token }
func (m *mockCache) Version() uint64      { return m.token }
func (m *mockCache) FetchedAt() time.Time { return m.fetchedAt }

func newTestMetrics() *observability.Metrics {
	// Use a fresh registry to avoid "already registered" panics in tests.
	return observability.NewMetricsForTesting()
}

func newPipeline(f *mockFetcher) (*pipeline.Pipeline, *mockCache) {
	cache := &mockCache{}
	p := pipeline.New(f, cache, slog.Default(), newTestMetrics())
	return p, cache
}

// endToEndTable is the four-row scenario covering both derivation paths and
// both filters: insee-derived "75", overseas "971", address-derived "69",
// and an underivable row.
func endToEndTable() domain.RawTable {
	return domain.RawTable{
		Columns: []string{"nom_operateur", "puissance_nominale", "code_insee_commune", "adresse_station"},
		Rows: [][]string{
			{"Tesla", "22", "75101", ""},
			{"Izivia", "50", "97123", ""},
			{"Freshmile", "50", "", "Lyon 69002"},
			{"Ionity", "11", "", ""},
		},
	}
}

func noBounds() domain.FilterSelection {
	return domain.FilterSelection{PowerMax: math.Inf(1)}
}

// --- tests ---

func TestPipeline_Snapshot_EndToEnd(t *testing.T) {
	f := &mockFetcher{table: endToEndTable()}
	p, _ := newPipeline(f)

	sel := domain.FilterSelection{
		Departments: []string{"75", "69"},
		PowerMin:    0,
		PowerMax:    100,
	}
	table, agg, err := p.Snapshot(context.Background(), sel)
	require.NoError(t, err)

	require.Len(t, table, 2)
	assert.Equal(t, "Tesla", table[0].Operator)
	assert.Equal(t, "75", table[0].Department)
	assert.Equal(t, "Freshmile", table[1].Operator)
	assert.Equal(t, "69", table[1].Department)

	assert.Equal(t, 2, agg.Count)
	assert.InDelta(t, 36.0, agg.MeanPowerKW, 1e-9)
	assert.Equal(t, []string{"69", "75"}, agg.Departments)
}

func TestPipeline_Snapshot_NoFiltersKeepsAllRows(t *testing.T) {
	f := &mockFetcher{table: endToEndTable()}
	p, _ := newPipeline(f)

	table, agg, err := p.Snapshot(context.Background(), noBounds())
	require.NoError(t, err)

	assert.Len(t, table, 4)
	assert.Equal(t, 4, agg.Count)
	// underivable row is retained with an empty department
	assert.Equal(t, "", table[3].Department)
}

func TestPipeline_Snapshot_FetchErrorSurfaces(t *testing.T) {
	f := &mockFetcher{err: domain.ErrDataUnavailable}
	p, _ := newPipeline(f)

	_, _, err := p.Snapshot(context.Background(), noBounds())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDataUnavailable)
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Snapshot_SchemaErrorSurfaces(t *testing.T) {
	f := &mockFetcher{table: domain.RawTable{}} // zero columns
	p, _ := newPipeline(f)

	_, _, err := p.Snapshot(context.Background(), noBounds())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSchema)
}

func TestPipeline_ReadinessFlipsAfterFirstSnapshot(t *testing.T) {
	f := &mockFetcher{table: endToEndTable()}
	p, _ := newPipeline(f)

	require.Error(t, p.CheckReadiness(context.Background()))

	_, _, err := p.Snapshot(context.Background(), noBounds())
	require.NoError(t, err)

	assert.NoError(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Departments(t *testing.T) {
	f := &mockFetcher{table: endToEndTable()}
	p, _ := newPipeline(f)

	deps, err := p.Departments(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"69", "75", "971"}, deps)
}

func TestPipeline_Operators_Limit(t *testing.T) {
	f := &mockFetcher{table: endToEndTable()}
	p, _ := newPipeline(f)

	ops, err := p.Operators(context.Background(), 2)
	require.NoError(t, err)

	require.Len(t, ops, 2)
	assert.Equal(t, domain.OperatorCount{Operator: "Tesla", Count: 1}, ops[0])
}

func TestPipeline_RefreshBumpsToken(t *testing.T) {
	f := &mockFetcher{table: endToEndTable()}
	p, cache := newPipeline(f)

	assert.Equal(t, uint64(1), p.Refresh())
	assert.Equal(t, uint64(2), p.Refresh())
	assert.Equal(t, uint64(2), cache.Version())
}

func TestPipeline_Warm(t *testing.T) {
	f := &mockFetcher{table: endToEndTable()}
	p, _ := newPipeline(f)

	p.Warm(context.Background())

	assert.NoError(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_SnapshotDeterministic(t *testing.T) {
	f := &mockFetcher{table: endToEndTable()}
	p, _ := newPipeline(f)

	sel := domain.FilterSelection{Departments: []string{"75"}, PowerMax: math.Inf(1)}
	first, _, err := p.Snapshot(context.Background(), sel)
	require.NoError(t, err)
	second, _, err := p.Snapshot(context.Background(), sel)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("same inputs produced different snapshots:\n%s", diff)
	}
}
