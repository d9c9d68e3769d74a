// Package engine is the advisor's decision and learning kernel.
package engine

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"stock-advisor-agent/internal/interfaces"
	"stock-advisor-agent/internal/logger"
	"stock-advisor-agent/internal/metrics"
	"stock-advisor-agent/internal/ta"
	"stock-advisor-agent/internal/types"
)

// Params are the tunables that are not part of the persisted policy.
type Params struct {
	Window          int
	VolatilityScale float64
	MoveScale       float64
	MaxRate         float64
	StorageTimeout  time.Duration
}

func DefaultParams() Params {
	return Params{
		Window:          ta.DefaultWindow,
		VolatilityScale: 0.5,
		MoveScale:       10,
		MaxRate:         0.20,
		StorageTimeout:  5 * time.Second,
	}
}

// Deps are the collaborators the engine drives. Metrics and Journal are optional.
type Deps struct {
	Predictor interfaces.Predictor
	Policies  interfaces.PolicyStore
	Ledger    interfaces.Ledger
	Metrics   *metrics.Aggregator
	Journal   interfaces.Journal
}

// Engine serializes Decide, Learn and Cycle behind one mutex; the ledger and
// the policy are only ever written while it is held.
type Engine struct {
	mu     sync.Mutex
	params Params
	deps   Deps
	policy types.Policy
	now    func() time.Time
}

var _ interfaces.Advisor = (*Engine)(nil)

func newEngine(ctx context.Context, params Params, deps Deps) (*Engine, error) {
	if deps.Predictor == nil || deps.Policies == nil || deps.Ledger == nil {
		return nil, fmt.Errorf("%w: engine needs a predictor, a policy store and a ledger", types.ErrInvalidInput)
	}
	e := &Engine{params: params, deps: deps, now: time.Now}

	sctx, cancel := e.storageCtx(ctx)
	defer cancel()
	p, err := deps.Policies.Load(sctx)
	if err != nil {
		return nil, fmt.Errorf("load policy: %w", err)
	}
	e.policy = p
	logger.Info(ctx, "Policy loaded",
		"threshold", p.Threshold,
		"learning_rate", p.LearningRate,
		"min_threshold", p.MinThreshold,
		"max_threshold", p.MaxThreshold,
	)
	return e, nil
}

func (e *Engine) Policy() types.Policy {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.policy
}

func (e *Engine) Decide(ctx context.Context, history []float64) (types.Decision, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.decide(ctx, history)
}

func (e *Engine) Learn(ctx context.Context, currentPrice float64) (types.LearnResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.learn(ctx, currentPrice)
}

func (e *Engine) Cycle(ctx context.Context, history []float64) (*types.CycleResult, error) {
	if err := validateHistory(history); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	lr, err := e.learn(ctx, history[len(history)-1])
	if err != nil {
		return nil, fmt.Errorf("learn: %w", err)
	}
	d, err := e.decide(ctx, history)
	if err != nil {
		return nil, fmt.Errorf("decide: %w", err)
	}
	return &types.CycleResult{Learn: lr, Decision: d, Policy: e.policy}, nil
}

func (e *Engine) decide(ctx context.Context, history []float64) (types.Decision, error) {
	if err := validateHistory(history); err != nil {
		return types.Decision{}, err
	}
	current := history[len(history)-1]

	predicted, err := e.deps.Predictor.Predict(ctx, history)
	if err != nil {
		return types.Decision{}, fmt.Errorf("predict: %w", err)
	}
	if !finite(predicted) {
		return types.Decision{}, fmt.Errorf("%w: prediction is not finite", types.ErrInvalidInput)
	}

	volatility := ta.Volatility(history, e.params.Window)
	delta := (predicted - current) / current
	effective := math.Max(e.policy.Threshold, volatility*e.params.VolatilityScale)

	action := types.ActionHold
	switch {
	case delta > effective:
		action = types.ActionBuy
	case delta < -effective:
		action = types.ActionSell
	}

	rec := types.DecisionRecord{
		Timestamp:       e.now(),
		PriceAtDecision: current,
		PredictedPrice:  predicted,
		Action:          action,
		ThresholdUsed:   e.policy.Threshold,
		Volatility:      &volatility,
	}
	sctx, cancel := e.storageCtx(ctx)
	id, err := e.deps.Ledger.Append(sctx, rec)
	cancel()
	if err != nil {
		return types.Decision{}, fmt.Errorf("record decision: %w", err)
	}
	rec.ID = id

	if e.deps.Journal != nil {
		if err := e.deps.Journal.RecordDecision(ctx, rec); err != nil {
			logger.Warn(ctx, "Failed to journal decision", "record_id", id, "error", err)
		}
	}
	logger.Decision(ctx, string(action), delta, effective,
		"record_id", id,
		"price", current,
		"predicted", predicted,
		"volatility", volatility,
		"threshold", e.policy.Threshold,
	)

	return types.Decision{
		Action:             action,
		PredictedPrice:     predicted,
		Delta:              delta,
		CurrentPrice:       current,
		Volatility:         volatility,
		EffectiveThreshold: effective,
		ThresholdUsed:      e.policy.Threshold,
		RecordID:           id,
	}, nil
}

func (e *Engine) learn(ctx context.Context, currentPrice float64) (types.LearnResult, error) {
	sctx, cancel := e.storageCtx(ctx)
	pending, err := e.deps.Ledger.MostRecentPending(sctx)
	cancel()
	if err != nil {
		return types.LearnResult{}, fmt.Errorf("load pending decision: %w", err)
	}
	if pending == nil {
		logger.Debug(ctx, "No pending decision to learn from")
		return types.LearnResult{Message: "no pending decision"}, nil
	}
	if !finite(currentPrice) || currentPrice <= 0 {
		return types.LearnResult{}, fmt.Errorf("%w: current price %v", types.ErrInvalidInput, currentPrice)
	}
	if pending.PriceAtDecision == 0 {
		return types.LearnResult{}, fmt.Errorf("%w: decision %d has a zero price", types.ErrInvalidInput, pending.ID)
	}

	before := e.policy
	ev := evaluate(before, pending.Action, pending.PriceAtDecision, currentPrice, e.params)
	after := before
	after.Threshold = ev.threshold
	after = after.Clamp()

	switch {
	case before.LastEvaluatedID == pending.ID:
		// An earlier attempt saved the adjustment but failed to mark the record.
		logger.Info(ctx, "Policy already adjusted for pending decision, completing evaluation",
			"record_id", pending.ID,
			"threshold", before.Threshold,
		)
	case after.Threshold != before.Threshold:
		after.LastEvaluatedID = pending.ID
		sctx, cancel := e.storageCtx(ctx)
		err := e.deps.Policies.Save(sctx, after)
		cancel()
		if err != nil {
			return types.LearnResult{}, fmt.Errorf("save policy: %w", err)
		}
		e.policy = after
	}

	sctx, cancel = e.storageCtx(ctx)
	err = e.deps.Ledger.MarkEvaluated(sctx, pending.ID, ev.dynamicRate, ev.bet)
	cancel()
	if err != nil {
		return types.LearnResult{}, fmt.Errorf("mark decision %d evaluated: %w", pending.ID, err)
	}

	res := types.LearnResult{
		Evaluated:       true,
		Message:         ev.adjustment.message(),
		RealizedChange:  ev.realized,
		BetOutcome:      ev.bet,
		DynamicRate:     ev.dynamicRate,
		ThresholdBefore: before.Threshold,
		ThresholdAfter:  e.policy.Threshold,
		Adjustment:      ev.adjustment.kind,
		RecordID:        pending.ID,
	}

	e.refreshMetrics(ctx)
	if e.deps.Journal != nil {
		if err := e.deps.Journal.RecordEvaluation(ctx, res); err != nil {
			logger.Warn(ctx, "Failed to journal evaluation", "record_id", pending.ID, "error", err)
		}
	}
	logger.Learning(ctx, string(res.Adjustment), res.RealizedChange, res.ThresholdBefore, res.ThresholdAfter,
		"record_id", pending.ID,
		"action", pending.Action,
		"bet_outcome", res.BetOutcome,
		"dynamic_rate", res.DynamicRate,
	)
	return res, nil
}

// refreshMetrics rebuilds the snapshot. It is derived data, so a failure
// only costs freshness until the next evaluation.
func (e *Engine) refreshMetrics(ctx context.Context) {
	if e.deps.Metrics == nil {
		return
	}
	sctx, cancel := e.storageCtx(ctx)
	defer cancel()
	if _, err := e.deps.Metrics.Recompute(sctx, e.policy.Threshold); err != nil {
		logger.Warn(ctx, "Failed to refresh metrics", "error", err)
	}
}

func (e *Engine) storageCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.params.StorageTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.params.StorageTimeout)
}

func validateHistory(history []float64) error {
	if len(history) == 0 {
		return fmt.Errorf("%w: empty price history", types.ErrInvalidInput)
	}
	for i, p := range history {
		if !finite(p) {
			return fmt.Errorf("%w: price %d is not finite", types.ErrInvalidInput, i)
		}
	}
	if last := history[len(history)-1]; last <= 0 {
		return fmt.Errorf("%w: current price %v", types.ErrInvalidInput, last)
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
