// Package ledger stores the append-only history of advisor decisions.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"stock-advisor-agent/internal/interfaces"
	"stock-advisor-agent/internal/types"
)

const timeLayout = time.RFC3339Nano

// SQLLedger implements interfaces.Ledger on the history table.
type SQLLedger struct {
	db *sql.DB
}

var _ interfaces.Ledger = (*SQLLedger)(nil)

func NewSQLLedger(db *sql.DB) *SQLLedger {
	return &SQLLedger{db: db}
}

// Append inserts rec as a pending decision and returns its id. It refuses
// while another decision is still pending.
func (l *SQLLedger) Append(ctx context.Context, rec types.DecisionRecord) (int64, error) {
	if _, err := types.ParseAction(string(rec.Action)); err != nil {
		return 0, fmt.Errorf("%w: unknown action %q", types.ErrInvalidInput, rec.Action)
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, ioErr("begin append", err)
	}
	defer tx.Rollback()

	var pending int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM history WHERE evaluated = 0`).Scan(&pending); err != nil {
		return 0, ioErr("count pending", err)
	}
	if pending > 0 {
		return 0, types.ErrPendingDecision
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO history (decided_at, price_at_decision, predicted_price, action, threshold_used, volatility)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Timestamp.UTC().Format(timeLayout),
		rec.PriceAtDecision,
		rec.PredictedPrice,
		string(rec.Action),
		rec.ThresholdUsed,
		nullFloat(rec.Volatility),
	)
	if err != nil {
		return 0, ioErr("insert decision", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, ioErr("read decision id", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, ioErr("commit append", err)
	}
	return id, nil
}

// MostRecentPending returns the newest pending decision, or nil when none is pending.
// Append keeps at most one pending, so newest and oldest coincide.
func (l *SQLLedger) MostRecentPending(ctx context.Context) (*types.DecisionRecord, error) {
	row := l.db.QueryRowContext(ctx, selectColumns+` WHERE evaluated = 0 ORDER BY id DESC LIMIT 1`)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// MarkEvaluated writes the evaluation fields of a pending record exactly once.
func (l *SQLLedger) MarkEvaluated(ctx context.Context, id int64, learningRate, realReturn float64) error {
	res, err := l.db.ExecContext(ctx, `
		UPDATE history
		SET evaluated = 1, learning_rate_used = ?, real_return = ?, evaluated_at = ?
		WHERE id = ? AND evaluated = 0`,
		learningRate, realReturn, time.Now().UTC().Format(timeLayout), id,
	)
	if err != nil {
		return ioErr("mark evaluated", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return ioErr("mark evaluated", err)
	}
	if n == 1 {
		return nil
	}

	var evaluated bool
	err = l.db.QueryRowContext(ctx, `SELECT evaluated FROM history WHERE id = ?`, id).Scan(&evaluated)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%w: id %d", types.ErrRecordNotFound, id)
	case err != nil:
		return ioErr("lookup decision", err)
	}
	return fmt.Errorf("%w: id %d", types.ErrAlreadyEvaluated, id)
}

// AllEvaluated returns the outcomes of every evaluated decision in id order.
func (l *SQLLedger) AllEvaluated(ctx context.Context) ([]types.Outcome, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT action, real_return FROM history WHERE evaluated = 1 ORDER BY id`)
	if err != nil {
		return nil, ioErr("query outcomes", err)
	}
	defer rows.Close()

	var out []types.Outcome
	for rows.Next() {
		var action string
		var ret sql.NullFloat64
		if err := rows.Scan(&action, &ret); err != nil {
			return nil, ioErr("scan outcome", err)
		}
		a, err := types.ParseAction(action)
		if err != nil {
			return nil, err
		}
		if !ret.Valid {
			return nil, fmt.Errorf("%w: evaluated decision without real_return", types.ErrCorruptState)
		}
		out = append(out, types.Outcome{Action: a, RealReturn: ret.Float64})
	}
	if err := rows.Err(); err != nil {
		return nil, ioErr("iterate outcomes", err)
	}
	return out, nil
}

// All returns every decision in id order.
func (l *SQLLedger) All(ctx context.Context) ([]types.DecisionRecord, error) {
	rows, err := l.db.QueryContext(ctx, selectColumns+` ORDER BY id`)
	if err != nil {
		return nil, ioErr("query history", err)
	}
	defer rows.Close()

	var out []types.DecisionRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, ioErr("iterate history", err)
	}
	return out, nil
}

const selectColumns = `
	SELECT id, decided_at, price_at_decision, predicted_price, action, threshold_used,
	       volatility, learning_rate_used, real_return, evaluated, evaluated_at
	FROM history`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*types.DecisionRecord, error) {
	var (
		rec               types.DecisionRecord
		decidedAt, action string
		vol, lr, ret      sql.NullFloat64
		evaluatedAt       sql.NullString
	)
	err := s.Scan(&rec.ID, &decidedAt, &rec.PriceAtDecision, &rec.PredictedPrice, &action,
		&rec.ThresholdUsed, &vol, &lr, &ret, &rec.Evaluated, &evaluatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, ioErr("scan decision", err)
	}

	if rec.Action, err = types.ParseAction(action); err != nil {
		return nil, err
	}
	if rec.Timestamp, err = time.Parse(timeLayout, decidedAt); err != nil {
		return nil, fmt.Errorf("%w: decision %d timestamp %q", types.ErrCorruptState, rec.ID, decidedAt)
	}
	rec.Volatility = floatPtr(vol)
	rec.LearningRateUsed = floatPtr(lr)
	rec.RealReturn = floatPtr(ret)
	if evaluatedAt.Valid {
		t, err := time.Parse(timeLayout, evaluatedAt.String)
		if err != nil {
			return nil, fmt.Errorf("%w: decision %d evaluated_at %q", types.ErrCorruptState, rec.ID, evaluatedAt.String)
		}
		rec.EvaluatedAt = &t
	}
	return &rec, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func ioErr(op string, err error) error {
	return fmt.Errorf("%w: ledger %s: %w", types.ErrIOFailure, op, err)
}
