//go:build datagouv

package datagouv

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests hit the real data.gouv.fr dataset.
// Run with: go test -tags=datagouv ./internal/adapter/datagouv/ -v -count=1

const liveDatasetURL = "https://www.data.gouv.fr/api/1/datasets/r/2729b192-40ab-4454-904d-735084dca3a3"

func TestSmoke_FetchLiveDataset(t *testing.T) {
	c := testClient(liveDatasetURL, "", 200)
	c.httpClient = &http.Client{Timeout: 60 * time.Second}

	table, err := c.Fetch(context.Background())
	require.NoError(t, err)

	assert.Len(t, table.Rows, 200)
	assert.NotEmpty(t, table.Columns)

	// The consolidated file has carried a power column under this name for years.
	assert.Contains(t, table.Columns, "puissance_nominale")
}
