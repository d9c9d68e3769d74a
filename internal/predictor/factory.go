package predictor

import (
	"fmt"
	"os"
	"strings"

	"stock-advisor-agent/internal/api"
	"stock-advisor-agent/internal/interfaces"
	"stock-advisor-agent/internal/predictor/predictorobs"
	"stock-advisor-agent/internal/store"
)

// New builds the predictor named by cfg.Predictor.Kind, wrapped with
// logging and tracing.
func New(cfg *store.Config) (interfaces.Predictor, error) {
	var p interfaces.Predictor
	switch strings.ToUpper(cfg.Predictor.Kind) {
	case "FIXED":
		p = NewFixedOffset(cfg.Predictor.Offset)
	case "RANDOM":
		p = NewSeededRandom(cfg.Predictor.Seed, cfg.Predictor.Spread)
	case "REMOTE":
		opts := []api.ClientOption{
			api.WithBaseURL(cfg.Predictor.URL),
			api.WithTimeout(cfg.PredictorTimeout()),
			api.WithLogging(true),
		}
		if key := os.Getenv(cfg.Predictor.APIKeyEnv); key != "" {
			opts = append(opts, api.WithHeader("Authorization", "Bearer "+key))
		}
		p = NewRemote(api.NewClient(opts...), api.DefaultRetryConfig())
	default:
		return nil, fmt.Errorf("unknown predictor kind %q", cfg.Predictor.Kind)
	}
	return predictorobs.Wrap(p, strings.ToUpper(cfg.Predictor.Kind)), nil
}
