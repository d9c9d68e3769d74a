package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"stock-advisor-agent/internal/database"
	"stock-advisor-agent/internal/engine"
	"stock-advisor-agent/internal/eod"
	"stock-advisor-agent/internal/eod/eodobs"
	"stock-advisor-agent/internal/interfaces"
	"stock-advisor-agent/internal/ledger"
	"stock-advisor-agent/internal/logger"
	"stock-advisor-agent/internal/metrics"
	"stock-advisor-agent/internal/policy"
	"stock-advisor-agent/internal/predictor"
	"stock-advisor-agent/internal/store"
	"stock-advisor-agent/internal/trace"
	"stock-advisor-agent/internal/tradelog"
)

// app holds everything a mode needs.
type app struct {
	cfg      *store.Config
	db       *database.DB
	ledger   interfaces.Ledger
	policies interfaces.PolicyStore
	metrics  *metrics.Aggregator
	journal  *tradelog.Journal
	reporter eod.Reporter
	advisor  interfaces.Advisor
}

// initializeSystem loads .env and sets up logging and tracing
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}
	return nil
}

func loadConfig(ctx context.Context, path string) (*store.Config, error) {
	cfg, err := store.LoadConfig(path)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err, "path", path)
		return nil, err
	}
	return cfg, nil
}

// openApp opens storage and wires the advisor. withAdvisor is false for
// read-only modes that must not need a predictor.
func openApp(ctx context.Context, cfg *store.Config, withAdvisor bool) (*app, error) {
	db, err := database.New(database.Config{
		Path:    cfg.Resolve(cfg.Storage.LedgerPath),
		Profile: database.ProfileLedger,
		Name:    "ledger",
	})
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	a := &app{cfg: cfg, db: db, ledger: ledger.NewSQLLedger(db.Conn())}
	a.policies = initializePolicyStore(ctx, cfg, db)
	a.metrics = metrics.NewAggregator(a.ledger, metrics.NewFileSink(cfg.Resolve(cfg.Storage.MetricsPath)))
	a.journal = tradelog.New(cfg.Resolve(cfg.Journal.Dir), cfg.Symbol)
	a.reporter = eodobs.Wrap(eod.NewReporter(a.ledger, cfg.Resolve(cfg.Report.Path)))

	logger.Info(ctx, "Storage opened",
		"ledger", db.Path(),
		"policy_backend", cfg.Storage.PolicyBackend,
		"run_id", a.journal.RunID(),
	)

	if !withAdvisor {
		return a, nil
	}

	p, err := predictor.New(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.advisor, err = engine.New(ctx, engine.ParamsFromConfig(cfg), engine.Deps{
		Predictor: p,
		Policies:  a.policies,
		Ledger:    a.ledger,
		Metrics:   a.metrics,
		Journal:   a.journal,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func initializePolicyStore(ctx context.Context, cfg *store.Config, db *database.DB) interfaces.PolicyStore {
	if cfg.Storage.PolicyBackend == "sqlite" {
		logger.Debug(ctx, "Policy kept in the ledger database")
		return policy.NewSQLStore(db.Conn())
	}
	return policy.NewFileStore(cfg.Resolve(cfg.Storage.PolicyPath))
}

// compressOldLogs gzips journal files past the configured retention
func (a *app) compressOldLogs(ctx context.Context) {
	n, err := a.journal.CompressOlder(a.cfg.Journal.RetentionDays)
	if err != nil {
		logger.Warn(ctx, "Failed to compress old journal files", "error", err)
		return
	}
	if n > 0 {
		logger.Info(ctx, "Compressed old journal files", "count", n)
	}
}

func (a *app) Close() {
	if a.db != nil {
		_ = a.db.Close()
	}
}
