package types

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAction(t *testing.T) {
	for _, s := range []string{"BUY", "SELL", "HOLD"} {
		a, err := ParseAction(s)
		require.NoError(t, err)
		assert.Equal(t, Action(s), a)
	}
	_, err := ParseAction("COMPRAR")
	assert.ErrorIs(t, err, ErrCorruptState)
}

func TestPolicyClamp(t *testing.T) {
	p := DefaultPolicy()

	p.Threshold = 0.2
	assert.Equal(t, p.MaxThreshold, p.Clamp().Threshold)

	p.Threshold = 0.0001
	assert.Equal(t, p.MinThreshold, p.Clamp().Threshold)

	p.Threshold = 0.02
	assert.Equal(t, 0.02, p.Clamp().Threshold)
}

func TestPolicyValidate(t *testing.T) {
	require.NoError(t, DefaultPolicy().Validate())

	bad := []Policy{
		{Threshold: math.NaN(), LearningRate: 0.05, MinThreshold: 0.002, MaxThreshold: 0.05},
		{Threshold: 0.01, LearningRate: 0, MinThreshold: 0.002, MaxThreshold: 0.05},
		{Threshold: 0.01, LearningRate: 0.05, MinThreshold: 0.06, MaxThreshold: 0.05},
		{Threshold: 0.07, LearningRate: 0.05, MinThreshold: 0.002, MaxThreshold: 0.05},
	}
	for _, p := range bad {
		assert.Error(t, p.Validate(), "%+v", p)
	}
}

func TestPolicyMapEncoding(t *testing.T) {
	p := Policy{Threshold: 0.015, LearningRate: 0.06, MinThreshold: 0.001, MaxThreshold: 0.04}

	got, err := PolicyFromMap(p.ToMap())
	require.NoError(t, err)
	assert.Equal(t, p, got)

	_, ok := p.ToMap()[KeyLastEvaluated]
	assert.False(t, ok)

	p.LastEvaluatedID = 42
	got, err = PolicyFromMap(p.ToMap())
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.LastEvaluatedID)

	m := p.ToMap()
	m[KeyLastEvaluated] = math.NaN()
	_, err = PolicyFromMap(m)
	assert.ErrorIs(t, err, ErrCorruptState)

	m = p.ToMap()
	delete(m, KeyLearningRate)
	_, err = PolicyFromMap(m)
	assert.ErrorIs(t, err, ErrCorruptState)
}

func TestErrorTaxonomy(t *testing.T) {
	assert.ErrorIs(t, ErrPendingDecision, ErrInvalidInput)
	assert.ErrorIs(t, ErrAlreadyEvaluated, ErrCorruptState)
	assert.ErrorIs(t, ErrRecordNotFound, ErrCorruptState)
}
