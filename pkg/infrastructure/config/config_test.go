package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 100, cfg.Solver.MaxIterations)
	assert.Equal(t, 1e-6, cfg.Solver.Epsilon)
	assert.Equal(t, runtime.GOMAXPROCS(0), cfg.Solver.Workers)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Output.Format)
}

func TestLoad_File(t *testing.T) {
	path := writeFile(t, "replenish.yaml", `
solver:
  max_iterations: 25
  epsilon: 0.001
  workers: 2
log:
  level: debug
output:
  format: json
metrics:
  file: /tmp/replenish.prom
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.Solver.MaxIterations)
	assert.Equal(t, 0.001, cfg.Solver.Epsilon)
	assert.Equal(t, 2, cfg.Solver.Workers)
	assert.Equal(t, 1e-10, cfg.Solver.LPTolerance, "unset keys keep their default")
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.Equal(t, "/tmp/replenish.prom", cfg.Metrics.File)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("REPLENISH_SOLVER_MAX_ITERATIONS", "7")
	t.Setenv("REPLENISH_OUTPUT_FORMAT", "csv")

	path := writeFile(t, "replenish.toml", "[solver]\nmax_iterations = 40\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Solver.MaxIterations)
	assert.Equal(t, "csv", cfg.Output.Format)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"zero iterations", "solver:\n  max_iterations: 0\n"},
		{"negative epsilon", "solver:\n  epsilon: -1\n"},
		{"unknown format", "output:\n  format: xml\n"},
		{"unknown level", "log:\n  level: chatty\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, "replenish.yaml", tt.content))
			assert.ErrorContains(t, err, "config validation failed")
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorContains(t, err, "read config error")
}
