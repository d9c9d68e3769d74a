package eodobs

import (
	"context"
	"time"

	"stock-advisor-agent/internal/eod"
	"stock-advisor-agent/internal/logger"
	"stock-advisor-agent/internal/trace"
)

type observableReporter struct {
	reporter eod.Reporter
}

var _ eod.Reporter = (*observableReporter)(nil)

func Wrap(r eod.Reporter) eod.Reporter {
	return &observableReporter{reporter: r}
}

func (o *observableReporter) Export(ctx context.Context) (eod.Summary, error) {
	ctx, span := trace.StartSpan(ctx, "eod.Export")
	defer span.End()
	start := time.Now()

	sum, err := o.reporter.Export(ctx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Ledger report failed", err)
		return sum, err
	}

	trace.SetAttributes(span, "report.records", sum.Records, "report.pending", sum.Pending)
	logger.InfoSkip(ctx, 1, "Ledger report written",
		"csv_path", sum.Path,
		"records", sum.Records,
		"evaluated", sum.Evaluated,
		"pending", sum.Pending,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return sum, nil
}
