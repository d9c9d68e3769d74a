package policy

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-advisor-agent/internal/logger"
	"stock-advisor-agent/internal/types"
)

func TestFileStore_FirstRunPersistsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "policy.json")
	s := NewFileStore(path)

	p, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.DefaultPolicy(), p)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	var m map[string]float64
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, map[string]float64{
		"threshold":     0.01,
		"learning_rate": 0.05,
		"min_threshold": 0.002,
		"max_threshold": 0.05,
	}, m)
}

func TestFileStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(filepath.Join(t.TempDir(), "policy.json"))

	for _, want := range []types.Policy{
		types.DefaultPolicy(),
		{Threshold: 0.0123456789, LearningRate: 0.07, MinThreshold: 0.001, MaxThreshold: 0.08},
		{Threshold: 0.05, LearningRate: 0.05, MinThreshold: 0.002, MaxThreshold: 0.05},
		{Threshold: 0.01075, LearningRate: 0.05, MinThreshold: 0.002, MaxThreshold: 0.05, LastEvaluatedID: 17},
	} {
		require.NoError(t, s.Save(ctx, want))
		got, err := s.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestFileStore_KeepsBackupOfPreviousPolicy(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "policy.json")
	s := NewFileStore(path)

	first := types.DefaultPolicy()
	second := first
	second.Threshold = 0.02
	require.NoError(t, s.Save(ctx, first))
	require.NoError(t, s.Save(ctx, second))

	backup, err := NewFileStore(path + ".bak").Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, backup)
}

func TestFileStore_CorruptFileIsNeverReplaced(t *testing.T) {
	cases := map[string]string{
		"not json":      "{threshold: oops",
		"empty":         "",
		"missing key":   `{"threshold": 0.01, "learning_rate": 0.05, "min_threshold": 0.002}`,
		"out of bounds": `{"threshold": 0.9, "learning_rate": 0.05, "min_threshold": 0.002, "max_threshold": 0.05}`,
		"fractional id": `{"threshold": 0.01, "learning_rate": 0.05, "min_threshold": 0.002, "max_threshold": 0.05, "last_evaluated_id": 1.5}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "policy.json")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

			_, err := NewFileStore(path).Load(context.Background())
			assert.ErrorIs(t, err, types.ErrCorruptState)

			after, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, body, string(after))
		})
	}
}

func TestFileStore_SaveRejectsInvalidPolicy(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "policy.json"))
	p := types.DefaultPolicy()
	p.Threshold = 1

	err := s.Save(context.Background(), p)
	assert.ErrorIs(t, err, types.ErrInvalidInput)
}

func TestFileStore_ExpiredContextIsIOFailure(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "policy.json"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Load(ctx)
	assert.ErrorIs(t, err, types.ErrIOFailure)
	assert.ErrorIs(t, s.Save(ctx, types.DefaultPolicy()), types.ErrIOFailure)
}

func TestFileStore_BackupFailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, logger.InitWithConfig(logger.LogConfig{Level: "INFO", Output: &buf}))
	t.Cleanup(func() { _ = logger.InitWithConfig(logger.LogConfig{Level: "INFO"}) })

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "policy.json")
	s := NewFileStore(path)
	require.NoError(t, s.Save(ctx, types.DefaultPolicy()))
	// a directory in the way makes the backup rename fail
	require.NoError(t, os.MkdirAll(filepath.Join(path+".bak", "keep"), 0o755))

	next := types.DefaultPolicy()
	next.Threshold = 0.02
	require.NoError(t, s.Save(ctx, next))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, next, got)
	assert.Contains(t, buf.String(), "Failed to back up previous policy")
}
