// Package predictor holds the price forecasters the advisor can be wired with.
package predictor

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"

	"stock-advisor-agent/internal/interfaces"
	"stock-advisor-agent/internal/types"
)

// FixedOffset predicts last × (1 + Offset). An offset of zero is the naive
// "tomorrow looks like today" forecaster.
type FixedOffset struct {
	Offset float64
}

var _ interfaces.Predictor = FixedOffset{}

func NewFixedOffset(offset float64) FixedOffset {
	return FixedOffset{Offset: offset}
}

func (f FixedOffset) Predict(ctx context.Context, history []float64) (float64, error) {
	last, err := lastPrice(history)
	if err != nil {
		return 0, err
	}
	return last * (1 + f.Offset), nil
}

// SeededRandom perturbs the last price by a uniform factor in ±spread.
// The same seed produces the same sequence of forecasts.
type SeededRandom struct {
	mu     sync.Mutex
	rng    *rand.Rand
	spread float64
}

var _ interfaces.Predictor = (*SeededRandom)(nil)

func NewSeededRandom(seed int64, spread float64) *SeededRandom {
	return &SeededRandom{
		rng:    rand.New(rand.NewSource(seed)),
		spread: spread,
	}
}

func (r *SeededRandom) Predict(ctx context.Context, history []float64) (float64, error) {
	last, err := lastPrice(history)
	if err != nil {
		return 0, err
	}
	r.mu.Lock()
	noise := (r.rng.Float64()*2 - 1) * r.spread
	r.mu.Unlock()
	return last * (1 + noise), nil
}

func lastPrice(history []float64) (float64, error) {
	if len(history) == 0 {
		return 0, fmt.Errorf("%w: empty price history", types.ErrInvalidInput)
	}
	last := history[len(history)-1]
	if math.IsNaN(last) || math.IsInf(last, 0) {
		return 0, fmt.Errorf("%w: last price is not finite", types.ErrInvalidInput)
	}
	return last, nil
}
