package tradelog

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-advisor-agent/internal/types"
)

func readEntries(t *testing.T, path string) []Entry {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var out []Entry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e Entry
		require.NoError(t, json.Unmarshal(sc.Bytes(), &e))
		out = append(out, e)
	}
	require.NoError(t, sc.Err())
	return out
}

func TestJournal_AppendsDailyFile(t *testing.T) {
	dir := t.TempDir()
	j := New(dir, "ACME")
	j.now = func() time.Time { return time.Date(2026, 10, 16, 20, 0, 0, 0, time.UTC) }

	vol := 0.012
	require.NoError(t, j.RecordDecision(context.Background(), types.DecisionRecord{
		ID: 7, Action: types.ActionBuy, PriceAtDecision: 100, PredictedPrice: 103, ThresholdUsed: 0.01, Volatility: &vol,
	}))
	require.NoError(t, j.RecordEvaluation(context.Background(), types.LearnResult{
		Evaluated: true, RecordID: 7, RealizedChange: -0.05, BetOutcome: -0.05,
		DynamicRate: 0.075, ThresholdBefore: 0.01, ThresholdAfter: 0.01075, Adjustment: types.AdjustmentTightened,
	}))
	// nothing to record
	require.NoError(t, j.RecordEvaluation(context.Background(), types.LearnResult{}))

	entries := readEntries(t, filepath.Join(dir, "2026-10-16.jsonl"))
	require.Len(t, entries, 2)

	assert.Equal(t, "DECISION", entries[0].Event)
	assert.Equal(t, "BUY", entries[0].Action)
	assert.Equal(t, "ACME", entries[0].Symbol)
	assert.Equal(t, j.RunID(), entries[0].RunID)
	require.NotNil(t, entries[0].Volatility)
	assert.Equal(t, 0.012, *entries[0].Volatility)

	assert.Equal(t, "EVALUATION", entries[1].Event)
	assert.Equal(t, "TIGHTENED", entries[1].Adjustment)
	require.NotNil(t, entries[1].DynamicRate)
	assert.Equal(t, 0.075, *entries[1].DynamicRate)
}

func TestJournal_RunIDsDiffer(t *testing.T) {
	assert.NotEqual(t, New(t.TempDir(), "A").RunID(), New(t.TempDir(), "A").RunID())
}

func TestCompressOlder(t *testing.T) {
	dir := t.TempDir()
	j := New(dir, "ACME")

	old := filepath.Join(dir, "2026-01-01.jsonl")
	fresh := filepath.Join(dir, "2026-10-16.jsonl")
	require.NoError(t, os.WriteFile(old, []byte("{\"event\":\"DECISION\"}\n"), 0o644))
	require.NoError(t, os.WriteFile(fresh, []byte("{}\n"), 0o644))
	past := time.Now().AddDate(0, 0, -30)
	require.NoError(t, os.Chtimes(old, past, past))

	n, err := j.CompressOlder(7)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.NoFileExists(t, old)
	assert.FileExists(t, fresh)

	f, err := os.Open(old + ".gz")
	require.NoError(t, err)
	defer f.Close()
	gr, err := gzip.NewReader(f)
	require.NoError(t, err)
	body, err := io.ReadAll(gr)
	require.NoError(t, err)
	assert.Equal(t, "{\"event\":\"DECISION\"}\n", string(body))
}

func TestCompressOlder_Disabled(t *testing.T) {
	n, err := New(filepath.Join(t.TempDir(), "missing"), "A").CompressOlder(0)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = New(filepath.Join(t.TempDir(), "missing"), "A").CompressOlder(3)
	require.NoError(t, err)
	assert.Zero(t, n)
}
