package database

// history is append-only: rows are never deleted and an evaluated row is frozen.
const schema = `
CREATE TABLE IF NOT EXISTS history (
	id                 INTEGER PRIMARY KEY AUTOINCREMENT,
	decided_at         TEXT    NOT NULL,
	price_at_decision  REAL    NOT NULL,
	predicted_price    REAL    NOT NULL,
	action             TEXT    NOT NULL CHECK (action IN ('BUY', 'SELL', 'HOLD')),
	threshold_used     REAL    NOT NULL,
	volatility         REAL,
	learning_rate_used REAL,
	real_return        REAL,
	evaluated          INTEGER NOT NULL DEFAULT 0 CHECK (evaluated IN (0, 1)),
	evaluated_at       TEXT
);

CREATE INDEX IF NOT EXISTS idx_history_pending ON history (evaluated, id);

CREATE TRIGGER IF NOT EXISTS history_no_delete
BEFORE DELETE ON history
BEGIN
	SELECT RAISE(ABORT, 'history is append-only');
END;

CREATE TRIGGER IF NOT EXISTS history_frozen_after_evaluation
BEFORE UPDATE ON history
WHEN OLD.evaluated = 1
BEGIN
	SELECT RAISE(ABORT, 'evaluated history rows are immutable');
END;

CREATE TABLE IF NOT EXISTS policy (
	key   TEXT PRIMARY KEY,
	value REAL NOT NULL
);
`
