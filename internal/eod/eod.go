// Package eod writes the end-of-day ledger report.
package eod

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gocarina/gocsv"

	"stock-advisor-agent/internal/interfaces"
	"stock-advisor-agent/internal/types"
)

// ledgerReporter exports every ledger record, oldest first, to a CSV file.
type ledgerReporter struct {
	ledger interfaces.Ledger
	path   string
}

func (r *ledgerReporter) Export(ctx context.Context) (Summary, error) {
	records, err := r.ledger.All(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("read ledger: %w", err)
	}

	sum := Summary{Path: r.path, Records: len(records)}
	rows := make([]*reportRow, 0, len(records))
	for _, rec := range records {
		switch rec.Action {
		case types.ActionBuy:
			sum.Buys++
		case types.ActionSell:
			sum.Sells++
		default:
			sum.Holds++
		}
		if rec.Evaluated {
			sum.Evaluated++
		} else {
			sum.Pending++
		}
		rows = append(rows, toRow(rec))
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return Summary{}, err
	}
	tmp := r.path + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return Summary{}, err
	}
	if err := gocsv.MarshalFile(&rows, out); err != nil {
		out.Close()
		os.Remove(tmp)
		return Summary{}, fmt.Errorf("write report: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return Summary{}, err
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return Summary{}, err
	}
	return sum, nil
}

func toRow(rec types.DecisionRecord) *reportRow {
	row := &reportRow{
		ID:              rec.ID,
		DecidedAt:       rec.Timestamp.UTC().Format(time.RFC3339),
		Action:          string(rec.Action),
		PriceAtDecision: formatFloat(rec.PriceAtDecision, 4),
		PredictedPrice:  formatFloat(rec.PredictedPrice, 4),
		ThresholdUsed:   formatFloat(rec.ThresholdUsed, 6),
		Evaluated:       rec.Evaluated,
	}
	if rec.Volatility != nil {
		row.Volatility = formatFloat(*rec.Volatility, 6)
	}
	if rec.EvaluatedAt != nil {
		row.EvaluatedAt = rec.EvaluatedAt.UTC().Format(time.RFC3339)
	}
	if rec.LearningRateUsed != nil {
		row.LearningRateUsed = formatFloat(*rec.LearningRateUsed, 6)
	}
	if rec.RealReturn != nil {
		row.RealReturnPct = formatFloat(*rec.RealReturn*100, 2)
	}
	return row
}

func formatFloat(f float64, prec int) string {
	return strconv.FormatFloat(f, 'f', prec, 64)
}
