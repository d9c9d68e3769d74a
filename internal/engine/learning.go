package engine

import (
	"math"

	"stock-advisor-agent/internal/types"
)

type adjustment struct {
	kind types.Adjustment
}

func (a adjustment) message() string {
	switch a.kind {
	case types.AdjustmentTightened:
		return "wrong direction: threshold tightened"
	case types.AdjustmentLoosened:
		return "missed move while holding: threshold loosened"
	default:
		return "no adjustment needed"
	}
}

type evaluation struct {
	realized    float64
	bet         float64
	dynamicRate float64
	threshold   float64 // before clamping
	adjustment  adjustment
}

// evaluate scores a past decision against the price it turned into and
// proposes the next threshold.
func evaluate(p types.Policy, action types.Action, decidedAt, current float64, params Params) evaluation {
	realized := (current - decidedAt) / decidedAt

	var bet float64
	switch action {
	case types.ActionBuy:
		bet = realized
	case types.ActionSell:
		bet = -realized
	}

	rate := math.Min(p.LearningRate*(1+math.Abs(realized)*params.MoveScale), params.MaxRate)

	ev := evaluation{
		realized:    realized,
		bet:         bet,
		dynamicRate: rate,
		threshold:   p.Threshold,
		adjustment:  adjustment{kind: types.AdjustmentUnchanged},
	}
	switch {
	case (action == types.ActionBuy && realized < 0) || (action == types.ActionSell && realized > 0):
		ev.threshold = p.Threshold * (1 + rate)
		ev.adjustment.kind = types.AdjustmentTightened
	case action == types.ActionHold && math.Abs(realized) > p.Threshold:
		ev.threshold = p.Threshold * (1 - rate)
		ev.adjustment.kind = types.AdjustmentLoosened
	}
	return ev
}
