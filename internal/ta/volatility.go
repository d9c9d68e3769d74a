package ta

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// DefaultVolatility is returned when the history is too short to estimate.
const DefaultVolatility = 0.01

// DefaultWindow is one trading week of daily closes.
const DefaultWindow = 5

// Volatility returns the coefficient of variation (sample stddev / mean) of
// the last window prices. Histories shorter than window, windows below two
// points and zero-mean windows yield DefaultVolatility.
func Volatility(prices []float64, window int) float64 {
	if window < 2 || len(prices) < window {
		return DefaultVolatility
	}
	subset := prices[len(prices)-window:]

	// MeanStdDev applies Bessel's correction (divides by n-1).
	mean, std := stat.MeanStdDev(subset, nil)
	if mean == 0 || math.IsNaN(std) {
		return DefaultVolatility
	}
	return std / mean
}
