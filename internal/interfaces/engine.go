package interfaces

import (
	"context"

	"stock-advisor-agent/internal/types"
)

// Advisor is the caller boundary of the decision kernel.
type Advisor interface {
	// Decide records and returns a recommendation for the last price of history.
	Decide(ctx context.Context, history []float64) (types.Decision, error)

	// Learn evaluates the pending decision against currentPrice and tunes the policy.
	Learn(ctx context.Context, currentPrice float64) (types.LearnResult, error)

	// Cycle runs Learn on the last price of history, then Decide on history.
	Cycle(ctx context.Context, history []float64) (*types.CycleResult, error)

	// Policy returns a copy of the active policy.
	Policy() types.Policy
}
