package scheduler

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/alertframe/alertframe/internal/alert"
	"github.com/alertframe/alertframe/internal/extract/mock"
)

type countingStore struct {
	lists atomic.Int32
}

func (c *countingStore) ListDue(ctx context.Context, now time.Time) ([]alert.DueAlert, error) {
	c.lists.Add(1)
	return nil, nil
}

func (c *countingStore) SaveCheckSuccess(ctx context.Context, result *alert.CheckResult, frequencyMinutes int) error {
	return nil
}

func (c *countingStore) RecordCheckFailure(ctx context.Context, alertID uuid.UUID, message string, frequencyMinutes int) error {
	return nil
}

func newTestWorker(store Store, interval time.Duration) *Worker {
	logger := slog.New(slog.DiscardHandler)
	sweeper := NewSweeper(store, mock.New(), &fakeDispatcher{}, logger)
	return NewWorker(sweeper, logger, interval)
}

func TestWorker_SweepsOnInterval(t *testing.T) {
	store := &countingStore{}
	w := newTestWorker(store, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stopped := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(stopped)
	}()

	deadline := time.After(2 * time.Second)
	for store.lists.Load() < 2 {
		select {
		case <-deadline:
			t.Fatal("worker never swept")
		case <-time.After(time.Millisecond):
		}
	}

	w.Stop()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestWorker_StopIsIdempotent(t *testing.T) {
	w := newTestWorker(&countingStore{}, time.Hour)

	stopped := make(chan struct{})
	go func() {
		w.Start(context.Background())
		close(stopped)
	}()

	w.Stop()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}

	// A second Stop, or one racing a context cancel, must not panic.
	w.Stop()
}

func TestWorker_StopAfterContextCancel(t *testing.T) {
	w := newTestWorker(&countingStore{}, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())

	stopped := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(stopped)
	}()

	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}

	w.Stop()
}
