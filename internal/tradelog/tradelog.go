// Package tradelog writes the advisor's daily JSONL journal of decisions
// and evaluations.
package tradelog

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"stock-advisor-agent/internal/interfaces"
	"stock-advisor-agent/internal/types"
)

const fileExt = ".jsonl"

// Entry is one journal line.
type Entry struct {
	Time   string `json:"time"`
	RunID  string `json:"run_id"`
	Symbol string `json:"symbol"`
	Event  string `json:"event"`

	RecordID  int64   `json:"record_id,omitempty"`
	Action    string  `json:"action,omitempty"`
	Price     float64 `json:"price,omitempty"`
	Predicted float64 `json:"predicted,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`

	Volatility     *float64 `json:"volatility,omitempty"`
	RealizedChange *float64 `json:"realized_change,omitempty"`
	BetOutcome     *float64 `json:"bet_outcome,omitempty"`
	DynamicRate    *float64 `json:"dynamic_rate,omitempty"`
	ThresholdAfter *float64 `json:"threshold_after,omitempty"`
	Adjustment     string   `json:"adjustment,omitempty"`
}

// Journal appends entries to <dir>/<YYYY-MM-DD>.jsonl. Every process gets
// its own run id so interleaved runs can be told apart.
type Journal struct {
	mu     sync.Mutex
	dir    string
	symbol string
	runID  string
	now    func() time.Time
}

var _ interfaces.Journal = (*Journal)(nil)

func New(dir, symbol string) *Journal {
	return &Journal{
		dir:    dir,
		symbol: symbol,
		runID:  uuid.NewString(),
		now:    time.Now,
	}
}

func (j *Journal) RunID() string { return j.runID }

func (j *Journal) Dir() string { return j.dir }

func (j *Journal) RecordDecision(ctx context.Context, rec types.DecisionRecord) error {
	return j.append(Entry{
		Event:      "DECISION",
		RecordID:   rec.ID,
		Action:     string(rec.Action),
		Price:      rec.PriceAtDecision,
		Predicted:  rec.PredictedPrice,
		Threshold:  rec.ThresholdUsed,
		Volatility: rec.Volatility,
	})
}

func (j *Journal) RecordEvaluation(ctx context.Context, res types.LearnResult) error {
	if !res.Evaluated {
		return nil
	}
	return j.append(Entry{
		Event:          "EVALUATION",
		RecordID:       res.RecordID,
		Threshold:      res.ThresholdBefore,
		RealizedChange: &res.RealizedChange,
		BetOutcome:     &res.BetOutcome,
		DynamicRate:    &res.DynamicRate,
		ThresholdAfter: &res.ThresholdAfter,
		Adjustment:     string(res.Adjustment),
	})
}

func (j *Journal) dailyFilepath(t time.Time) string {
	return filepath.Join(j.dir, t.UTC().Format("2006-01-02")+fileExt)
}

func (j *Journal) append(e Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	now := j.now()
	e.Time = now.UTC().Format(time.RFC3339)
	e.RunID = j.runID
	e.Symbol = j.symbol

	p := j.dailyFilepath(now)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create journal dir: %w", err)
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer f.Close()

	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode journal entry: %w", err)
	}
	_, err = fmt.Fprintln(f, string(b))
	return err
}

// CompressOlder gzips journal files last modified more than retentionDays
// ago and removes the originals. A non-positive retention disables it.
func (j *Journal) CompressOlder(retentionDays int) (int, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	cutoff := j.now().AddDate(0, 0, -retentionDays)
	compressed := 0
	err := filepath.WalkDir(j.dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() || filepath.Ext(p) != fileExt {
			return nil
		}
		info, err := d.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			return nil
		}
		if err := gzipFile(p); err != nil {
			return err
		}
		compressed++
		return nil
	})
	return compressed, err
}

func gzipFile(p string) error {
	gz := p + ".gz"
	// already compressed by an earlier run that died before removing the original
	if _, err := os.Stat(gz); err == nil {
		return os.Remove(p)
	}

	in, err := os.Open(p)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(gz, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	gw := gzip.NewWriter(out)
	if _, err := io.Copy(gw, in); err != nil {
		_ = gw.Close()
		_ = out.Close()
		_ = os.Remove(gz)
		return fmt.Errorf("compress %s: %w", p, err)
	}
	if err := gw.Close(); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(p)
}
