package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	m := NewMetrics("replenish")

	m.ObserveIteration(44, 4)
	m.ObserveIteration(40, 5)
	m.AddColumns("seed", 2)
	m.AddColumns("pricing", 3)
	m.AddColumns("pricing", 0)
	m.ObservePhase("master", 3*time.Millisecond)
	m.ObserveRun("converged")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Iterations))
	assert.Equal(t, 40.0, testutil.ToFloat64(m.Objective))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.PoolSize))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ColumnsGenerated.WithLabelValues("pricing")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("converged")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.SolveDuration))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveIteration(1, 1)
		m.AddColumns("seed", 1)
		m.ObservePhase("pricing", time.Second)
		m.ObserveRun("failed")
	})
}

func TestMetrics_WriteToFile(t *testing.T) {
	m := NewMetrics("replenish")
	m.ObserveIteration(20, 1)

	path := filepath.Join(t.TempDir(), "replenish.prom")
	require.NoError(t, m.WriteToFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.Contains(text, `replenish_colgen_objective{service="replenish"} 20`), text)
	assert.Contains(t, text, "replenish_colgen_iterations_total")
}
