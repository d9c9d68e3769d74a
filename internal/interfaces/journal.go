package interfaces

import (
	"context"

	"stock-advisor-agent/internal/types"
)

// Journal receives a human-readable audit trail of engine events. It is
// not the system of record; the ledger is.
type Journal interface {
	RecordDecision(ctx context.Context, rec types.DecisionRecord) error
	RecordEvaluation(ctx context.Context, res types.LearnResult) error
}
