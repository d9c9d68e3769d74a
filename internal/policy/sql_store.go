package policy

import (
	"context"
	"database/sql"
	"fmt"

	"stock-advisor-agent/internal/interfaces"
	"stock-advisor-agent/internal/logger"
	"stock-advisor-agent/internal/types"
)

// SQLStore keeps the policy as key/value rows of the policy table.
type SQLStore struct {
	db *sql.DB
}

var _ interfaces.PolicyStore = (*SQLStore)(nil)

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Load(ctx context.Context) (types.Policy, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM policy`)
	if err != nil {
		return types.Policy{}, fmt.Errorf("%w: query policy: %w", types.ErrIOFailure, err)
	}
	defer rows.Close()

	m := map[string]float64{}
	for rows.Next() {
		var k string
		var v float64
		if err := rows.Scan(&k, &v); err != nil {
			return types.Policy{}, fmt.Errorf("%w: scan policy: %w", types.ErrIOFailure, err)
		}
		m[k] = v
	}
	if err := rows.Err(); err != nil {
		return types.Policy{}, fmt.Errorf("%w: iterate policy: %w", types.ErrIOFailure, err)
	}

	if len(m) == 0 {
		p := types.DefaultPolicy()
		logger.Info(ctx, "Policy table empty, bootstrapping defaults")
		if err := s.Save(ctx, p); err != nil {
			return types.Policy{}, err
		}
		return p, nil
	}
	return types.PolicyFromMap(m)
}

// Save upserts every key in one transaction.
func (s *SQLStore) Save(ctx context.Context, p types.Policy) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: refusing to save policy: %v", types.ErrInvalidInput, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin policy save: %w", types.ErrIOFailure, err)
	}
	defer tx.Rollback()

	for k, v := range p.ToMap() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO policy (key, value) VALUES (?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, k, v); err != nil {
			return fmt.Errorf("%w: save policy %s: %w", types.ErrIOFailure, k, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit policy: %w", types.ErrIOFailure, err)
	}
	return nil
}
