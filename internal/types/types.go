package types

import (
	"fmt"
	"math"
	"time"
)

type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

func ParseAction(s string) (Action, error) {
	switch a := Action(s); a {
	case ActionBuy, ActionSell, ActionHold:
		return a, nil
	}
	return "", fmt.Errorf("%w: unknown action %q", ErrCorruptState, s)
}

// Policy keys of the flat key->float encoding.
const (
	KeyThreshold    = "threshold"
	KeyLearningRate = "learning_rate"
	KeyMinThreshold = "min_threshold"
	KeyMaxThreshold = "max_threshold"

	// KeyLastEvaluated is optional; policies written before any adjustment lack it.
	KeyLastEvaluated = "last_evaluated_id"
)

// Policy holds the self-tuned decision parameters.
type Policy struct {
	Threshold    float64 `json:"threshold"`
	LearningRate float64 `json:"learning_rate"`
	MinThreshold float64 `json:"min_threshold"`
	MaxThreshold float64 `json:"max_threshold"`

	// LastEvaluatedID is the ledger record whose adjustment this policy
	// already contains. Zero until the first threshold change.
	LastEvaluatedID int64 `json:"last_evaluated_id,omitempty"`
}

func DefaultPolicy() Policy {
	return Policy{
		Threshold:    0.01,
		LearningRate: 0.05,
		MinThreshold: 0.002,
		MaxThreshold: 0.05,
	}
}

// Clamp returns p with Threshold forced into [MinThreshold, MaxThreshold].
func (p Policy) Clamp() Policy {
	p.Threshold = math.Max(p.MinThreshold, math.Min(p.MaxThreshold, p.Threshold))
	return p
}

func (p Policy) Validate() error {
	for k, v := range p.ToMap() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("policy %s is not finite", k)
		}
	}
	if p.LearningRate <= 0 {
		return fmt.Errorf("policy learning_rate must be positive, got %g", p.LearningRate)
	}
	if p.MinThreshold < 0 || p.MinThreshold > p.MaxThreshold {
		return fmt.Errorf("policy bounds invalid: min_threshold=%g max_threshold=%g", p.MinThreshold, p.MaxThreshold)
	}
	if p.LastEvaluatedID < 0 {
		return fmt.Errorf("policy last_evaluated_id must not be negative, got %d", p.LastEvaluatedID)
	}
	if p.Threshold < p.MinThreshold || p.Threshold > p.MaxThreshold {
		return fmt.Errorf("policy threshold %g outside [%g, %g]", p.Threshold, p.MinThreshold, p.MaxThreshold)
	}
	return nil
}

func (p Policy) ToMap() map[string]float64 {
	m := map[string]float64{
		KeyThreshold:    p.Threshold,
		KeyLearningRate: p.LearningRate,
		KeyMinThreshold: p.MinThreshold,
		KeyMaxThreshold: p.MaxThreshold,
	}
	if p.LastEvaluatedID != 0 {
		m[KeyLastEvaluated] = float64(p.LastEvaluatedID)
	}
	return m
}

// PolicyFromMap decodes the flat encoding. Missing keys and invalid values are
// reported as ErrCorruptState.
func PolicyFromMap(m map[string]float64) (Policy, error) {
	get := func(k string) (float64, error) {
		v, ok := m[k]
		if !ok {
			return 0, fmt.Errorf("%w: policy key %q missing", ErrCorruptState, k)
		}
		return v, nil
	}
	var p Policy
	var err error
	if p.Threshold, err = get(KeyThreshold); err != nil {
		return Policy{}, err
	}
	if p.LearningRate, err = get(KeyLearningRate); err != nil {
		return Policy{}, err
	}
	if p.MinThreshold, err = get(KeyMinThreshold); err != nil {
		return Policy{}, err
	}
	if p.MaxThreshold, err = get(KeyMaxThreshold); err != nil {
		return Policy{}, err
	}
	if id, ok := m[KeyLastEvaluated]; ok {
		if id != math.Trunc(id) || math.IsInf(id, 0) {
			return Policy{}, fmt.Errorf("%w: policy %s %v is not a record id", ErrCorruptState, KeyLastEvaluated, id)
		}
		p.LastEvaluatedID = int64(id)
	}
	if err := p.Validate(); err != nil {
		return Policy{}, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	return p, nil
}

// DecisionRecord is one ledger row. Evaluation fields stay nil until the
// record is learned from.
type DecisionRecord struct {
	ID               int64      `json:"id"`
	Timestamp        time.Time  `json:"timestamp"`
	PriceAtDecision  float64    `json:"price_at_decision"`
	PredictedPrice   float64    `json:"predicted_price"`
	Action           Action     `json:"action"`
	ThresholdUsed    float64    `json:"threshold_used"`
	Volatility       *float64   `json:"volatility,omitempty"`
	LearningRateUsed *float64   `json:"learning_rate_used,omitempty"`
	RealReturn       *float64   `json:"real_return,omitempty"`
	Evaluated        bool       `json:"evaluated"`
	EvaluatedAt      *time.Time `json:"evaluated_at,omitempty"`
}

// Outcome is the slice of an evaluated record that metrics need.
type Outcome struct {
	Action     Action
	RealReturn float64
}

// Metrics is a derived snapshot; it can always be rebuilt from the ledger.
type Metrics struct {
	LastUpdated              time.Time `json:"last_updated"`
	TotalEvaluated           int       `json:"total_evaluated"`
	ActiveTrades             int       `json:"active_trades"`
	WinRate                  float64   `json:"win_rate"`
	CumulativeReturnEstimate float64   `json:"cumulative_return_estimate"`
	CurrentThreshold         float64   `json:"current_threshold"`
}

type Decision struct {
	Action             Action  `json:"action"`
	PredictedPrice     float64 `json:"predicted_price"`
	Delta              float64 `json:"delta"`
	CurrentPrice       float64 `json:"current_price"`
	Volatility         float64 `json:"volatility"`
	EffectiveThreshold float64 `json:"effective_threshold"`
	ThresholdUsed      float64 `json:"threshold_used"`
	RecordID           int64   `json:"record_id"`
}

type Adjustment string

const (
	AdjustmentTightened Adjustment = "TIGHTENED"
	AdjustmentLoosened  Adjustment = "LOOSENED"
	AdjustmentUnchanged Adjustment = "UNCHANGED"
)

// LearnResult reports one evaluation. Evaluated is false when there was no
// pending decision; only Message is set then.
type LearnResult struct {
	Evaluated       bool       `json:"evaluated"`
	Message         string     `json:"message,omitempty"`
	RealizedChange  float64    `json:"realized_change"`
	BetOutcome      float64    `json:"bet_outcome"`
	DynamicRate     float64    `json:"dynamic_rate"`
	ThresholdBefore float64    `json:"threshold_before"`
	ThresholdAfter  float64    `json:"threshold_after"`
	Adjustment      Adjustment `json:"adjustment,omitempty"`
	RecordID        int64      `json:"record_id,omitempty"`
}

type CycleResult struct {
	Learn    LearnResult `json:"learn"`
	Decision Decision    `json:"decision"`
	Policy   Policy      `json:"policy"`
}
