package engineobs

import (
	"context"
	"time"

	"stock-advisor-agent/internal/interfaces"
	"stock-advisor-agent/internal/logger"
	"stock-advisor-agent/internal/trace"
	"stock-advisor-agent/internal/types"
)

type observableAdvisor struct {
	advisor interfaces.Advisor
}

var _ interfaces.Advisor = (*observableAdvisor)(nil)

func Wrap(a interfaces.Advisor) interfaces.Advisor {
	return &observableAdvisor{advisor: a}
}

func (oa *observableAdvisor) Policy() types.Policy {
	return oa.advisor.Policy()
}

func (oa *observableAdvisor) Decide(ctx context.Context, history []float64) (types.Decision, error) {
	ctx, span := trace.StartSpan(ctx, "engine.Decide")
	defer span.End()
	start := time.Now()

	d, err := oa.advisor.Decide(ctx, history)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Decision failed", err,
			"history_len", len(history),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return d, err
	}
	trace.SetAttributes(span,
		"decision.action", string(d.Action),
		"decision.delta", d.Delta,
		"decision.effective_threshold", d.EffectiveThreshold,
		"decision.record_id", d.RecordID,
	)
	return d, nil
}

func (oa *observableAdvisor) Learn(ctx context.Context, currentPrice float64) (types.LearnResult, error) {
	ctx, span := trace.StartSpan(ctx, "engine.Learn")
	defer span.End()
	start := time.Now()

	res, err := oa.advisor.Learn(ctx, currentPrice)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Learning failed", err,
			"current_price", currentPrice,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return res, err
	}
	trace.SetAttributes(span,
		"learn.evaluated", res.Evaluated,
		"learn.adjustment", string(res.Adjustment),
		"learn.threshold_after", res.ThresholdAfter,
	)
	return res, nil
}

func (oa *observableAdvisor) Cycle(ctx context.Context, history []float64) (*types.CycleResult, error) {
	ctx, span := trace.StartSpan(ctx, "engine.Cycle")
	defer span.End()
	start := time.Now()

	logger.InfoSkip(ctx, 1, "Starting advisor cycle", "history_len", len(history))

	res, err := oa.advisor.Cycle(ctx, history)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Advisor cycle failed", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	logger.InfoSkip(ctx, 1, "Advisor cycle completed",
		"learned", res.Learn.Evaluated,
		"adjustment", res.Learn.Adjustment,
		"action", res.Decision.Action,
		"threshold", res.Policy.Threshold,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}
