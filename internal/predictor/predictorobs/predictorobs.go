package predictorobs

import (
	"context"

	"stock-advisor-agent/internal/interfaces"
	"stock-advisor-agent/internal/logger"
	"stock-advisor-agent/internal/trace"
)

// observablePredictor wraps a Predictor with logging & tracing
type observablePredictor struct {
	predictor interfaces.Predictor
	kind      string
}

var _ interfaces.Predictor = (*observablePredictor)(nil)

// Wrap wraps a predictor with observability middleware
func Wrap(p interfaces.Predictor, kind string) interfaces.Predictor {
	return &observablePredictor{predictor: p, kind: kind}
}

func (op *observablePredictor) Predict(ctx context.Context, history []float64) (float64, error) {
	ctx, span := trace.StartSpan(ctx, "predictor.Predict")
	defer span.End()
	trace.SetAttributes(span, "predictor.kind", op.kind, "history.len", len(history))

	predicted, err := op.predictor.Predict(ctx, history)
	if err != nil {
		// Skip(1) so the log points at the engine, not this wrapper
		logger.ErrorWithErrSkip(ctx, 1, "Prediction failed", err,
			"kind", op.kind,
			"history_len", len(history),
		)
		return 0, err
	}

	trace.SetAttributes(span, "predicted_price", predicted)
	logger.DebugSkip(ctx, 1, "Prediction received",
		"kind", op.kind,
		"last_price", history[len(history)-1],
		"predicted_price", predicted,
	)
	return predicted, nil
}
