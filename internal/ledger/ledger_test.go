package ledger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-advisor-agent/internal/database"
	"stock-advisor-agent/internal/types"
)

func setupLedger(t *testing.T) (*SQLLedger, *database.DB) {
	t.Helper()
	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), "memory.db"),
		Profile: database.ProfileLedger,
		Name:    "ledger",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(context.Background()))
	return NewSQLLedger(db.Conn()), db
}

func decision(action types.Action, price float64) types.DecisionRecord {
	vol := 0.01
	return types.DecisionRecord{
		Timestamp:       time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC),
		PriceAtDecision: price,
		PredictedPrice:  price * 1.03,
		Action:          action,
		ThresholdUsed:   0.01,
		Volatility:      &vol,
	}
}

func TestAppend_AssignsIncreasingIDs(t *testing.T) {
	ctx := context.Background()
	l, _ := setupLedger(t)

	var last int64
	for i := 0; i < 3; i++ {
		id, err := l.Append(ctx, decision(types.ActionBuy, 100+float64(i)))
		require.NoError(t, err)
		assert.Greater(t, id, last)
		last = id

		require.NoError(t, l.MarkEvaluated(ctx, id, 0.05, 0.01))
	}
}

func TestAppend_RejectsWhilePending(t *testing.T) {
	ctx := context.Background()
	l, _ := setupLedger(t)

	_, err := l.Append(ctx, decision(types.ActionHold, 100))
	require.NoError(t, err)

	_, err = l.Append(ctx, decision(types.ActionBuy, 101))
	assert.ErrorIs(t, err, types.ErrPendingDecision)
	assert.ErrorIs(t, err, types.ErrInvalidInput)
}

func TestAppend_RejectsUnknownAction(t *testing.T) {
	l, _ := setupLedger(t)

	_, err := l.Append(context.Background(), decision(types.Action("SHORT"), 100))
	assert.ErrorIs(t, err, types.ErrInvalidInput)
}

func TestMostRecentPending(t *testing.T) {
	ctx := context.Background()
	l, _ := setupLedger(t)

	rec, err := l.MostRecentPending(ctx)
	require.NoError(t, err)
	assert.Nil(t, rec)

	id, err := l.Append(ctx, decision(types.ActionSell, 42.5))
	require.NoError(t, err)

	rec, err = l.MostRecentPending(ctx)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, id, rec.ID)
	assert.Equal(t, types.ActionSell, rec.Action)
	assert.Equal(t, 42.5, rec.PriceAtDecision)
	assert.False(t, rec.Evaluated)
	assert.Nil(t, rec.LearningRateUsed)
	assert.Nil(t, rec.RealReturn)
	require.NotNil(t, rec.Volatility)
	assert.Equal(t, 0.01, *rec.Volatility)
	assert.True(t, rec.Timestamp.Equal(time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)))
}

func TestMarkEvaluated_ExactlyOnce(t *testing.T) {
	ctx := context.Background()
	l, _ := setupLedger(t)

	id, err := l.Append(ctx, decision(types.ActionBuy, 100))
	require.NoError(t, err)

	require.NoError(t, l.MarkEvaluated(ctx, id, 0.075, -0.05))

	err = l.MarkEvaluated(ctx, id, 0.1, 0.2)
	assert.ErrorIs(t, err, types.ErrAlreadyEvaluated)

	err = l.MarkEvaluated(ctx, id+100, 0.1, 0.2)
	assert.ErrorIs(t, err, types.ErrRecordNotFound)

	all, err := l.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].Evaluated)
	require.NotNil(t, all[0].LearningRateUsed)
	require.NotNil(t, all[0].RealReturn)
	assert.Equal(t, 0.075, *all[0].LearningRateUsed)
	assert.Equal(t, -0.05, *all[0].RealReturn)
	assert.NotNil(t, all[0].EvaluatedAt)

	pending, err := l.MostRecentPending(ctx)
	require.NoError(t, err)
	assert.Nil(t, pending)
}

func TestAllEvaluated_SkipsPending(t *testing.T) {
	ctx := context.Background()
	l, _ := setupLedger(t)

	for _, step := range []struct {
		action types.Action
		ret    float64
	}{
		{types.ActionBuy, 0.02},
		{types.ActionSell, -0.01},
		{types.ActionHold, 0},
	} {
		id, err := l.Append(ctx, decision(step.action, 100))
		require.NoError(t, err)
		require.NoError(t, l.MarkEvaluated(ctx, id, 0.05, step.ret))
	}
	_, err := l.Append(ctx, decision(types.ActionBuy, 100))
	require.NoError(t, err)

	outcomes, err := l.AllEvaluated(ctx)
	require.NoError(t, err)
	assert.Equal(t, []types.Outcome{
		{Action: types.ActionBuy, RealReturn: 0.02},
		{Action: types.ActionSell, RealReturn: -0.01},
		{Action: types.ActionHold, RealReturn: 0},
	}, outcomes)
}

func TestHistory_IsAppendOnly(t *testing.T) {
	ctx := context.Background()
	l, db := setupLedger(t)

	id, err := l.Append(ctx, decision(types.ActionBuy, 100))
	require.NoError(t, err)

	_, err = db.Conn().ExecContext(ctx, `DELETE FROM history WHERE id = ?`, id)
	assert.Error(t, err)

	require.NoError(t, l.MarkEvaluated(ctx, id, 0.05, 0.01))
	_, err = db.Conn().ExecContext(ctx, `UPDATE history SET real_return = 1 WHERE id = ?`, id)
	assert.Error(t, err)
}

func TestLedger_HonoursContextDeadline(t *testing.T) {
	l, _ := setupLedger(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.Append(ctx, decision(types.ActionHold, 100))
	assert.ErrorIs(t, err, types.ErrIOFailure)
}
