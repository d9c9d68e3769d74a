package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stock-advisor-agent/internal/feed"
	"stock-advisor-agent/internal/feed/feedobs"
	"stock-advisor-agent/internal/logger"
	"stock-advisor-agent/internal/scheduler"
	"stock-advisor-agent/internal/trace"
	"stock-advisor-agent/internal/types"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	mode := flag.String("mode", "daily", "simulate, daily, schedule, report or policy")
	flag.Parse()

	if err := initializeSystem(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = trace.Shutdown(shutdownCtx)
	}()

	if err := run(ctx, *configPath, *mode); err != nil {
		logger.ErrorWithErr(ctx, "Advisor failed", err, "mode", *mode)
		stop()
		os.Exit(exitCode(err))
	}
}

func run(ctx context.Context, configPath, mode string) error {
	cfg, err := loadConfig(ctx, configPath)
	if err != nil {
		return err
	}

	switch mode {
	case "simulate", "daily", "schedule", "report", "policy":
	default:
		return fmt.Errorf("unknown mode %q", mode)
	}

	a, err := openApp(ctx, cfg, mode != "report" && mode != "policy")
	if err != nil {
		return err
	}
	defer a.Close()

	switch mode {
	case "simulate":
		return runSimulate(ctx, a)
	case "daily":
		return runDaily(ctx, a)
	case "schedule":
		return runSchedule(ctx, a)
	case "report":
		return runReport(ctx, a)
	default:
		return runPolicy(ctx, a)
	}
}

// runPolicy prints the stored policy without building a predictor.
func runPolicy(ctx context.Context, a *app) error {
	p, err := a.policies.Load(ctx)
	if err != nil {
		return err
	}
	return printJSON(p)
}

// runSimulate replays a synthetic random walk: every generated day first
// learns from the previous decision, then decides on the new close.
func runSimulate(ctx context.Context, a *app) error {
	cfg := a.cfg
	walk := feed.NewSynthetic(cfg.Simulation.Initial, cfg.Simulation.Days, cfg.Simulation.DailyMove, cfg.Simulation.Seed)
	closes, err := walk.Closes(ctx)
	if err != nil {
		return err
	}

	start := len(walk.Initial())
	for day := start; day < len(closes); day++ {
		res, err := a.advisor.Cycle(ctx, closes[:day+1])
		if err != nil {
			return fmt.Errorf("day %d: %w", day-start+1, err)
		}
		fmt.Printf("day %2d  price %9.2f  %-4s  delta %+6.2f%%  threshold %.4f%%",
			day-start+1, closes[day], res.Decision.Action, res.Decision.Delta*100, res.Policy.Threshold*100)
		if res.Learn.Evaluated {
			fmt.Printf("  (%s, moved %+.2f%%)", res.Learn.Message, res.Learn.RealizedChange*100)
		}
		fmt.Println()
	}
	a.compressOldLogs(ctx)
	return nil
}

// runDaily runs one learn-then-decide cycle on the latest close of the feed.
func runDaily(ctx context.Context, a *app) error {
	src, err := feed.New(a.cfg, os.Getenv("KITE_API_KEY"), os.Getenv("KITE_ACCESS_TOKEN"))
	if err != nil {
		return err
	}
	closes, err := src.Closes(ctx)
	if err != nil {
		return err
	}
	if err := feed.RequireHistory(closes, a.cfg.Feed.MinHistory); err != nil {
		return err
	}
	if csvSrc, ok := feedobs.Unwrap(src).(*feed.CSVSource); ok && csvSrc.Symbol() != "" {
		logger.Info(ctx, "Asset identified from price file", "symbol", csvSrc.Symbol())
	}

	res, err := a.advisor.Cycle(ctx, closes)
	if err != nil {
		return err
	}
	if err := printJSON(res); err != nil {
		return err
	}
	if _, err := a.reporter.Export(ctx); err != nil {
		logger.Warn(ctx, "Ledger report not written", "error", err)
	}
	a.compressOldLogs(ctx)
	return nil
}

// runSchedule runs the daily cycle on cfg.Schedule.Cron until interrupted.
func runSchedule(ctx context.Context, a *app) error {
	s := scheduler.New(ctx, time.Local)
	job := scheduler.JobFunc{JobName: "daily-cycle", Fn: func(ctx context.Context) error {
		return runDaily(ctx, a)
	}}
	if err := s.AddJob(a.cfg.Schedule.Cron, job); err != nil {
		return err
	}
	s.Start()
	logger.Info(ctx, "Waiting for next cycle", "next", s.Next())

	<-ctx.Done()
	s.Stop()
	return nil
}

// runReport exports the ledger and prints freshly computed metrics.
func runReport(ctx context.Context, a *app) error {
	sum, err := a.reporter.Export(ctx)
	if err != nil {
		return err
	}
	p, err := a.policies.Load(ctx)
	if err != nil {
		return err
	}
	m, err := a.metrics.Recompute(ctx, p.Threshold)
	if err != nil {
		return err
	}
	return printJSON(map[string]any{"report": sum, "metrics": m})
}

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

// exitCode maps the error taxonomy onto process exit codes.
func exitCode(err error) int {
	switch {
	case errors.Is(err, types.ErrInvalidInput):
		return 2
	case errors.Is(err, types.ErrCorruptState):
		return 3
	case errors.Is(err, types.ErrIOFailure):
		return 4
	default:
		return 1
	}
}
