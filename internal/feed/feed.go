// Package feed supplies daily closing prices to the advisor.
package feed

import (
	"fmt"
	"strings"

	"stock-advisor-agent/internal/feed/feedobs"
	"stock-advisor-agent/internal/interfaces"
	"stock-advisor-agent/internal/store"
	"stock-advisor-agent/internal/types"
)

// New returns the price source configured in cfg.Feed, wrapped with
// logging and tracing.
func New(cfg *store.Config, apiKey, accessToken string) (interfaces.PriceSource, error) {
	src, err := newSource(cfg, apiKey, accessToken)
	if err != nil {
		return nil, err
	}
	return feedobs.Wrap(src, strings.ToUpper(cfg.Feed.Source)), nil
}

func newSource(cfg *store.Config, apiKey, accessToken string) (interfaces.PriceSource, error) {
	switch strings.ToUpper(cfg.Feed.Source) {
	case "CSV":
		return NewCSVSource(cfg.Resolve(cfg.Feed.CSVPath)), nil
	case "KITE":
		if apiKey == "" || accessToken == "" {
			return nil, fmt.Errorf("kite feed needs KITE_API_KEY and KITE_ACCESS_TOKEN")
		}
		return NewKiteSource(newKiteClient(apiKey, accessToken), cfg.Feed.Kite.InstrumentToken, cfg.Feed.Kite.LookbackDays), nil
	case "SYNTHETIC":
		s := cfg.Simulation
		return NewSynthetic(s.Initial, s.Days, s.DailyMove, s.Seed), nil
	default:
		return nil, fmt.Errorf("unknown feed source %q", cfg.Feed.Source)
	}
}

// RequireHistory fails with ErrInvalidInput when closes is shorter than min.
func RequireHistory(closes []float64, min int) error {
	if len(closes) < min {
		return fmt.Errorf("%w: need at least %d closes, have %d", types.ErrInvalidInput, min, len(closes))
	}
	return nil
}
