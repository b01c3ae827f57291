package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ride-dispatch/internal/models"
)

func TestObserveSearch(t *testing.T) {
	RegisterDefault()
	RegisterDefault()

	before := testutil.ToFloat64(SearchNodes.WithLabelValues("test_search"))
	ObserveSearch("test_search", models.SearchStats{Nodes: 10, BoundPrunes: 3, MemoPrunes: 2})

	assert.Equal(t, before+10, testutil.ToFloat64(SearchNodes.WithLabelValues("test_search")))
	assert.Equal(t, 3.0, testutil.ToFloat64(SearchPrunes.WithLabelValues("test_search", "bound")))
	assert.Equal(t, 2.0, testutil.ToFloat64(SearchPrunes.WithLabelValues("test_search", "memo")))
}

func TestObserveSolve(t *testing.T) {
	RegisterDefault()

	ObserveSolve("test_solve", time.Now(), nil)
	ObserveSolve("test_solve", time.Now(), errors.New("boom"))

	assert.Equal(t, 2, testutil.CollectAndCount(SolveDuration, "dispatch_solve_duration_seconds"))
}

func TestWriteTextfile(t *testing.T) {
	RegisterDefault()
	DispatchRounds.Add(3)

	path := filepath.Join(t.TempDir(), "dispatch.prom")
	require.NoError(t, WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "dispatch_rounds_total"))
}
