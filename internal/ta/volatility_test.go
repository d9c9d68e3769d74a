package ta

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVolatility_ShortHistoryUsesDefault(t *testing.T) {
	assert.Equal(t, DefaultVolatility, Volatility([]float64{100, 100.5, 101, 101}, DefaultWindow))
	assert.Equal(t, DefaultVolatility, Volatility(nil, DefaultWindow))
}

func TestVolatility_ConstantPriceIsZero(t *testing.T) {
	prices := []float64{50, 50, 50, 50, 50, 50, 50}
	assert.Equal(t, 0.0, Volatility(prices, DefaultWindow))
}

func TestVolatility_UsesLastWindowWithBesselCorrection(t *testing.T) {
	// Only the last five prices count.
	prices := []float64{1, 1000, 100, 102, 98, 101, 99}
	subset := []float64{100, 102, 98, 101, 99}

	var mean float64
	for _, p := range subset {
		mean += p
	}
	mean /= float64(len(subset))
	var ss float64
	for _, p := range subset {
		ss += (p - mean) * (p - mean)
	}
	want := math.Sqrt(ss/float64(len(subset)-1)) / mean

	assert.InDelta(t, want, Volatility(prices, DefaultWindow), 1e-12)
}

func TestVolatility_DegenerateWindow(t *testing.T) {
	assert.Equal(t, DefaultVolatility, Volatility([]float64{1, 2, 3}, 1))
	assert.Equal(t, DefaultVolatility, Volatility([]float64{0, 0, 0, 0, 0}, DefaultWindow))
}
