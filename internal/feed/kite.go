package feed

import (
	"context"
	"fmt"
	"sort"
	"time"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	"stock-advisor-agent/internal/interfaces"
)

type candle struct {
	at    time.Time
	close float64
}

// historicalFetcher is the slice of the Kite Connect client the feed needs.
type historicalFetcher interface {
	dailyCandles(instrumentToken int, from, to time.Time) ([]candle, error)
}

type kiteClient struct {
	kc *kiteconnect.Client
}

func newKiteClient(apiKey, accessToken string) *kiteClient {
	kc := kiteconnect.New(apiKey)
	kc.SetAccessToken(accessToken)
	return &kiteClient{kc: kc}
}

func (k *kiteClient) dailyCandles(instrumentToken int, from, to time.Time) ([]candle, error) {
	data, err := k.kc.GetHistoricalData(instrumentToken, "day", from, to, false, false)
	if err != nil {
		return nil, err
	}
	out := make([]candle, 0, len(data))
	for _, d := range data {
		out = append(out, candle{at: d.Date.Time, close: d.Close})
	}
	return out, nil
}

// KiteSource pulls daily candles from Zerodha Kite Connect.
type KiteSource struct {
	client       historicalFetcher
	token        int
	lookbackDays int
	now          func() time.Time
}

var _ interfaces.PriceSource = (*KiteSource)(nil)

func NewKiteSource(client historicalFetcher, instrumentToken, lookbackDays int) *KiteSource {
	return &KiteSource{client: client, token: instrumentToken, lookbackDays: lookbackDays, now: time.Now}
}

func (s *KiteSource) Closes(ctx context.Context) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	to := s.now()
	from := to.AddDate(0, 0, -s.lookbackDays)

	candles, err := s.client.dailyCandles(s.token, from, to)
	if err != nil {
		return nil, fmt.Errorf("kite historical data for %d: %w", s.token, err)
	}
	sort.SliceStable(candles, func(i, j int) bool { return candles[i].at.Before(candles[j].at) })

	closes := make([]float64, 0, len(candles))
	for _, c := range candles {
		if c.close > 0 {
			closes = append(closes, c.close)
		}
	}
	return closes, nil
}
