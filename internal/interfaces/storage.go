package interfaces

import (
	"context"

	"stock-advisor-agent/internal/types"
)

// PolicyStore persists the policy. Load bootstraps defaults on first run and
// must fail with types.ErrCorruptState when a stored copy cannot be parsed.
type PolicyStore interface {
	Load(ctx context.Context) (types.Policy, error)
	Save(ctx context.Context, p types.Policy) error
}

// Ledger is the append-only decision history.
type Ledger interface {
	Append(ctx context.Context, rec types.DecisionRecord) (int64, error)
	MostRecentPending(ctx context.Context) (*types.DecisionRecord, error)
	MarkEvaluated(ctx context.Context, id int64, learningRate, realReturn float64) error
	AllEvaluated(ctx context.Context) ([]types.Outcome, error)
	All(ctx context.Context) ([]types.DecisionRecord, error)
}

// MetricsSink receives every freshly computed metrics snapshot.
type MetricsSink interface {
	Write(ctx context.Context, m types.Metrics) error
}
