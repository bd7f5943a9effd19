package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"adaptive-trading-bot/internal/engine"
	"adaptive-trading-bot/internal/logger"
	"adaptive-trading-bot/internal/trace"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	if err := initializeSystem(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := loadConfig(ctx)
	if err != nil {
		// invalid risk limits must prevent startup
		return fmt.Errorf("fatal configuration error: %w", err)
	}

	deps, err := buildDependencies(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.dlog.Sync()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	tick := time.NewTicker(time.Duration(cfg.PollSeconds) * time.Second)
	defer tick.Stop()

	logger.Info(ctx, "Decision engine started",
		"mode", cfg.Mode,
		"assets", len(cfg.Universe),
		"interval_s", cfg.PollSeconds,
	)

	for {
		select {
		case <-tick.C:
			runCycle(ctx, cfg.Universe, deps)
		case <-sigc:
			logger.Info(ctx, "Shutting down")
			cancel()
			_ = trace.Shutdown(context.Background())
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}

// runCycle steps every asset once. A failed asset is skipped and logged;
// it never takes the other assets or the process down with it.
func runCycle(ctx context.Context, assets []string, deps *dependencies) {
	for _, asset := range assets {
		if ctx.Err() != nil {
			return
		}
		st, err := deps.engine.Step(ctx, asset)
		if err != nil {
			if errors.Is(err, engine.ErrDataUnavailable) {
				logger.Warn(ctx, "Skipping asset this cycle: data unavailable", "asset", asset)
			} else if !errors.Is(err, context.Canceled) {
				logger.ErrorWithErr(ctx, "Pipeline step failed", err, "asset", asset)
			}
			continue
		}
		if st != nil {
			b, _ := json.Marshal(st)
			fmt.Println(string(b))
		}
	}
}
