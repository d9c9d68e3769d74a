package interfaces

import "context"

// Predictor forecasts the next price from a non-empty ordered history.
type Predictor interface {
	Predict(ctx context.Context, history []float64) (float64, error)
}
