package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "file", cfg.Storage.PolicyBackend)
	assert.Equal(t, 5, cfg.Volatility.Window)
	assert.Equal(t, 0.5, cfg.Volatility.Scale)
	assert.Equal(t, 10.0, cfg.Learning.MoveScale)
	assert.Equal(t, 0.20, cfg.Learning.MaxRate)
	assert.Equal(t, "RANDOM", cfg.Predictor.Kind)
	assert.Equal(t, []float64{100.0, 100.5, 101.0}, cfg.Simulation.Initial)
	assert.Equal(t, 5*time.Second, cfg.StorageTimeout())
}

func TestLoadConfig_OverridesAndValidation(t *testing.T) {
	path := writeConfig(t, `
symbol: PETR4
storage:
  policy_backend: sqlite
  timeout_seconds: 2
predictor:
  kind: FIXED
  offset: 0.03
feed:
  source: SYNTHETIC
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "PETR4", cfg.Symbol)
	assert.Equal(t, "sqlite", cfg.Storage.PolicyBackend)
	assert.Equal(t, 2*time.Second, cfg.StorageTimeout())
	assert.Equal(t, 0.03, cfg.Predictor.Offset)
	assert.Equal(t, "SYNTHETIC", cfg.Feed.Source)
}

func TestLoadConfig_Invalid(t *testing.T) {
	cases := map[string]string{
		"backend":      "storage:\n  policy_backend: redis\n",
		"window":       "volatility:\n  window: 1\n",
		"max rate":     "learning:\n  max_rate: 1.5\n",
		"remote url":   "predictor:\n  kind: REMOTE\n",
		"predictor":    "predictor:\n  kind: LSTM\n",
		"kite token":   "feed:\n  source: KITE\n",
		"feed source":  "feed:\n  source: FTP\n",
		"initial":      "simulation:\n  initial: [100, 0]\n",
		"cron":         "schedule:\n  cron: every day\n",
		"broken yaml:": "storage: [",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestResolve(t *testing.T) {
	cfg := Default()
	cfg.DataDir = "/var/advisor"

	assert.Equal(t, "/var/advisor/memory.db", cfg.Resolve(cfg.Storage.LedgerPath))
	assert.Equal(t, "/tmp/policy.json", cfg.Resolve("/tmp/policy.json"))
}
