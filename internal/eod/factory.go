package eod

import (
	"context"

	"stock-advisor-agent/internal/interfaces"
)

// Reporter writes the ledger report and says what it contained.
type Reporter interface {
	Export(ctx context.Context) (Summary, error)
}

func NewReporter(ledger interfaces.Ledger, path string) Reporter {
	return &ledgerReporter{ledger: ledger, path: path}
}
