package predictor

import (
	"context"
	"fmt"
	"math"

	"stock-advisor-agent/internal/api"
	"stock-advisor-agent/internal/interfaces"
	"stock-advisor-agent/internal/types"
)

// Remote asks an external forecasting service for the next price.
//
//	POST {"history": [...]}  ->  {"predicted_price": x}
type Remote struct {
	client *api.Client
	retry  *api.RetryConfig
}

var _ interfaces.Predictor = (*Remote)(nil)

func NewRemote(client *api.Client, retry *api.RetryConfig) *Remote {
	return &Remote{client: client, retry: retry}
}

type remoteRequest struct {
	History []float64 `json:"history"`
}

type remoteResponse struct {
	PredictedPrice *float64 `json:"predicted_price"`
}

func (r *Remote) Predict(ctx context.Context, history []float64) (float64, error) {
	if _, err := lastPrice(history); err != nil {
		return 0, err
	}

	var resp remoteResponse
	if err := r.client.PostJSONWithRetry(ctx, "", remoteRequest{History: history}, &resp, r.retry); err != nil {
		return 0, fmt.Errorf("remote predictor: %w", err)
	}
	if resp.PredictedPrice == nil {
		return 0, fmt.Errorf("remote predictor: response without predicted_price")
	}
	p := *resp.PredictedPrice
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return 0, fmt.Errorf("%w: remote predictor returned a non-finite price", types.ErrInvalidInput)
	}
	return p, nil
}
