package metrics

import (
	"context"
	"encoding/json"
	"fmt"

	"stock-advisor-agent/internal/interfaces"
	"stock-advisor-agent/internal/policy"
	"stock-advisor-agent/internal/types"
)

// FileSink writes each snapshot as an indented JSON document, replacing the
// previous one atomically.
type FileSink struct {
	path string
}

var _ interfaces.MetricsSink = (*FileSink)(nil)

func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

func (s *FileSink) Write(ctx context.Context, m types.Metrics) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: metrics snapshot: %w", types.ErrIOFailure, err)
	}
	b, err := json.MarshalIndent(m, "", "    ")
	if err != nil {
		return fmt.Errorf("%w: encode metrics: %w", types.ErrIOFailure, err)
	}
	if err := policy.WriteJSONFile(s.path, b); err != nil {
		return fmt.Errorf("%w: write metrics %s: %w", types.ErrIOFailure, s.path, err)
	}
	return nil
}
