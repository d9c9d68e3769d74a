package feedobs

import (
	"context"

	"stock-advisor-agent/internal/interfaces"
	"stock-advisor-agent/internal/logger"
	"stock-advisor-agent/internal/trace"
)

// observableSource wraps a PriceSource with logging & tracing
type observableSource struct {
	source interfaces.PriceSource
	name   string
}

var _ interfaces.PriceSource = (*observableSource)(nil)

// Wrap wraps a price source with observability middleware
func Wrap(src interfaces.PriceSource, name string) interfaces.PriceSource {
	return &observableSource{source: src, name: name}
}

// Unwrap returns the wrapped source.
func Unwrap(src interfaces.PriceSource) interfaces.PriceSource {
	if o, ok := src.(*observableSource); ok {
		return o.source
	}
	return src
}

func (o *observableSource) Closes(ctx context.Context) ([]float64, error) {
	ctx, span := trace.StartSpan(ctx, "feed.Closes")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Fetching closing prices", "source", o.name)

	closes, err := o.source.Closes(ctx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch closing prices", err, "source", o.name)
		return nil, err
	}

	trace.SetAttributes(span, "feed.source", o.name, "feed.count", len(closes))
	if len(closes) > 0 {
		logger.DebugSkip(ctx, 1, "Closing prices fetched",
			"source", o.name,
			"count", len(closes),
			"last", closes[len(closes)-1],
		)
	}
	return closes, nil
}
