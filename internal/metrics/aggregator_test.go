package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-advisor-agent/internal/types"
)

type stubLedger struct {
	outcomes []types.Outcome
	err      error
}

func (s *stubLedger) Append(context.Context, types.DecisionRecord) (int64, error) { return 0, nil }
func (s *stubLedger) MostRecentPending(context.Context) (*types.DecisionRecord, error) {
	return nil, nil
}
func (s *stubLedger) MarkEvaluated(context.Context, int64, float64, float64) error { return nil }
func (s *stubLedger) AllEvaluated(context.Context) ([]types.Outcome, error) {
	return s.outcomes, s.err
}
func (s *stubLedger) All(context.Context) ([]types.DecisionRecord, error) { return nil, nil }

var fixedNow = time.Date(2026, 10, 16, 18, 30, 0, 0, time.UTC)

func TestCompute_WinRateIgnoresHolds(t *testing.T) {
	outcomes := []types.Outcome{
		{Action: types.ActionBuy, RealReturn: 0.02},
		{Action: types.ActionSell, RealReturn: -0.01},
		{Action: types.ActionHold, RealReturn: 0},
	}

	m := Compute(outcomes, 0.012, fixedNow)

	assert.Equal(t, 3, m.TotalEvaluated)
	assert.Equal(t, 2, m.ActiveTrades)
	assert.Equal(t, 50.0, m.WinRate)
	assert.Equal(t, 1.0, m.CumulativeReturnEstimate)
	assert.Equal(t, 0.012, m.CurrentThreshold)
	assert.Equal(t, fixedNow, m.LastUpdated)
}

func TestCompute_NoActiveTrades(t *testing.T) {
	m := Compute([]types.Outcome{{Action: types.ActionHold}}, 0.01, fixedNow)
	assert.Equal(t, 0.0, m.WinRate)
	assert.Equal(t, 0, m.ActiveTrades)
	assert.Equal(t, 1, m.TotalEvaluated)

	empty := Compute(nil, 0.01, fixedNow)
	assert.Equal(t, 0, empty.TotalEvaluated)
	assert.Equal(t, 0.0, empty.CumulativeReturnEstimate)
}

func TestCompute_RoundsToTwoDecimals(t *testing.T) {
	outcomes := []types.Outcome{
		{Action: types.ActionBuy, RealReturn: 0.012345},
		{Action: types.ActionBuy, RealReturn: -0.001},
		{Action: types.ActionSell, RealReturn: 0.0005},
	}
	m := Compute(outcomes, 0.01, fixedNow)
	assert.Equal(t, 66.67, m.WinRate)
	assert.Equal(t, 1.18, m.CumulativeReturnEstimate)
}

func TestRecompute_WritesFreshSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"total_evaluated": 99}`), 0o644))

	led := &stubLedger{outcomes: []types.Outcome{{Action: types.ActionBuy, RealReturn: 0.03}}}
	agg := NewAggregator(led, NewFileSink(path))
	agg.now = func() time.Time { return fixedNow }

	m, err := agg.Recompute(context.Background(), 0.02)
	require.NoError(t, err)
	assert.Equal(t, 1, m.TotalEvaluated)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	var onDisk types.Metrics
	require.NoError(t, json.Unmarshal(b, &onDisk))
	assert.Equal(t, m, onDisk)
}

func TestRecompute_PropagatesLedgerError(t *testing.T) {
	boom := errors.New("disk gone")
	agg := NewAggregator(&stubLedger{err: boom}, nil)

	_, err := agg.Recompute(context.Background(), 0.01)
	assert.ErrorIs(t, err, boom)
}
