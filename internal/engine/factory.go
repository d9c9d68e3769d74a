package engine

import (
	"context"

	"stock-advisor-agent/internal/engine/engineobs"
	"stock-advisor-agent/internal/interfaces"
	"stock-advisor-agent/internal/store"
)

// New loads the policy and returns an observable advisor.
func New(ctx context.Context, params Params, deps Deps) (interfaces.Advisor, error) {
	e, err := newEngine(ctx, params, deps)
	if err != nil {
		return nil, err
	}
	return engineobs.Wrap(e), nil
}

// ParamsFromConfig maps the configuration onto engine parameters.
func ParamsFromConfig(cfg *store.Config) Params {
	return Params{
		Window:          cfg.Volatility.Window,
		VolatilityScale: cfg.Volatility.Scale,
		MoveScale:       cfg.Learning.MoveScale,
		MaxRate:         cfg.Learning.MaxRate,
		StorageTimeout:  cfg.StorageTimeout(),
	}
}
