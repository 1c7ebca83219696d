package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Worker runs sweeps on a fixed interval for in-process scheduling.
type Worker struct {
	sweeper  *Sweeper
	logger   *slog.Logger
	interval time.Duration
	done     chan struct{}
	stopOnce sync.Once
}

func NewWorker(sweeper *Sweeper, logger *slog.Logger, interval time.Duration) *Worker {
	if interval == 0 {
		interval = time.Minute
	}

	return &Worker{
		sweeper:  sweeper,
		logger:   logger,
		interval: interval,
		done:     make(chan struct{}),
	}
}

func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("check worker started", "interval", w.interval)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("check worker stopped")
			return
		case <-w.done:
			w.logger.Info("check worker stopped")
			return
		case <-ticker.C:
			if _, err := w.sweeper.Sweep(ctx); err != nil {
				w.logger.Error("sweep failed", "error", err)
			}
		}
	}
}

// Stop terminates the loop. Safe to call more than once and alongside
// context cancellation.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.done) })
}
