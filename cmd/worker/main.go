package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alertframe/alertframe/internal/config"
)

// The worker periodically triggers the API's sweep endpoint, standing in
// for an external cron service. Deployments with a managed scheduler (or
// SWEEP_INTERVAL set on the API process) do not need it.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type sweepSummary struct {
	AlertsChecked   int `json:"alertsChecked"`
	ChangesDetected int `json:"changesDetected"`
	Errors          int `json:"errors"`
}

type sweepResponse struct {
	Success  bool         `json:"success"`
	Summary  sweepSummary `json:"summary"`
	Duration int64        `json:"duration"`
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := config.NewLogger(cfg.Environment)
	slog.SetDefault(logger)

	interval := cfg.SweepInterval
	if interval <= 0 {
		interval = time.Minute
	}

	logger.Info("starting AlertFrame sweep worker",
		slog.String("endpoint", cfg.CronEndpoint),
		slog.Duration("interval", interval),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := &http.Client{Timeout: 5 * time.Minute}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("sweep worker stopped")
			return nil
		case <-ticker.C:
			if err := triggerSweep(ctx, client, cfg, logger); err != nil {
				logger.Error("sweep trigger failed", "error", err)
			}
		}
	}
}

func triggerSweep(ctx context.Context, client *http.Client, cfg *config.Config, logger *slog.Logger) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.CronEndpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if cfg.CronSecret != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.CronSecret)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("trigger sweep: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("sweep endpoint returned HTTP %d", resp.StatusCode)
	}

	var result sweepResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode sweep response: %w", err)
	}

	logger.Info("sweep completed",
		"checked", result.Summary.AlertsChecked,
		"changes", result.Summary.ChangesDetected,
		"errors", result.Summary.Errors,
		"duration_ms", result.Duration,
	)

	return nil
}
