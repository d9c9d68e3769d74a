package feed

import (
	"context"
	"math/rand"

	"stock-advisor-agent/internal/interfaces"
)

// Synthetic is a seeded random walk: each day moves the previous close by a
// uniform factor in ±dailyMove.
type Synthetic struct {
	initial   []float64
	days      int
	dailyMove float64
	seed      int64
}

var _ interfaces.PriceSource = (*Synthetic)(nil)

func NewSynthetic(initial []float64, days int, dailyMove float64, seed int64) *Synthetic {
	return &Synthetic{initial: initial, days: days, dailyMove: dailyMove, seed: seed}
}

// Initial is the seed history the walk starts from.
func (s *Synthetic) Initial() []float64 {
	return append([]float64(nil), s.initial...)
}

// Closes returns the initial history followed by the generated days.
func (s *Synthetic) Closes(ctx context.Context) ([]float64, error) {
	rng := rand.New(rand.NewSource(s.seed))
	out := make([]float64, 0, len(s.initial)+s.days)
	out = append(out, s.initial...)
	for i := 0; i < s.days; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		last := out[len(out)-1]
		out = append(out, last*(1+(rng.Float64()*2-1)*s.dailyMove))
	}
	return out, nil
}
