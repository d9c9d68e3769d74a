// Package metrics derives performance statistics from the decision ledger.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"stock-advisor-agent/internal/interfaces"
	"stock-advisor-agent/internal/types"
)

// Aggregator rebuilds the metrics snapshot from scratch on every call.
type Aggregator struct {
	ledger interfaces.Ledger
	sink   interfaces.MetricsSink
	now    func() time.Time
}

func NewAggregator(ledger interfaces.Ledger, sink interfaces.MetricsSink) *Aggregator {
	return &Aggregator{ledger: ledger, sink: sink, now: time.Now}
}

// Recompute reads every evaluated decision, computes a fresh snapshot and
// hands it to the sink. The previous snapshot is never consulted.
func (a *Aggregator) Recompute(ctx context.Context, currentThreshold float64) (types.Metrics, error) {
	outcomes, err := a.ledger.AllEvaluated(ctx)
	if err != nil {
		return types.Metrics{}, fmt.Errorf("load outcomes: %w", err)
	}
	m := Compute(outcomes, currentThreshold, a.now())
	if a.sink != nil {
		if err := a.sink.Write(ctx, m); err != nil {
			return m, fmt.Errorf("write metrics: %w", err)
		}
	}
	return m, nil
}

// Compute is the pure part of Recompute. HOLD decisions count towards
// TotalEvaluated only; win rate is taken over BUY/SELL decisions.
// Percentages are rounded to two decimals.
func Compute(outcomes []types.Outcome, currentThreshold float64, now time.Time) types.Metrics {
	var active, wins int
	cumulative := decimal.Zero
	for _, o := range outcomes {
		cumulative = cumulative.Add(decimal.NewFromFloat(o.RealReturn))
		if o.Action == types.ActionHold {
			continue
		}
		active++
		if o.RealReturn > 0 {
			wins++
		}
	}

	winRate := decimal.Zero
	if active > 0 {
		winRate = decimal.NewFromInt(int64(wins)).Div(decimal.NewFromInt(int64(active)))
	}

	return types.Metrics{
		LastUpdated:              now,
		TotalEvaluated:           len(outcomes),
		ActiveTrades:             active,
		WinRate:                  percent(winRate),
		CumulativeReturnEstimate: percent(cumulative),
		CurrentThreshold:         currentThreshold,
	}
}

func percent(d decimal.Decimal) float64 {
	f, _ := d.Mul(decimal.NewFromInt(100)).Round(2).Float64()
	return f
}
