// Package worker contains the background sync worker that acknowledges
// expense events by marking records as synced in the primary store.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"spendlog/internal/amqp"
	"spendlog/internal/core"
)

// SyncStore is the slice of the primary store the worker needs.
type SyncStore interface {
	MarkSynced(ctx context.Context, id string) error
	GetUnsynced(ctx context.Context, limit int) ([]core.Expense, error)
}

// Consumer delivers expense events; the AMQP client satisfies it.
type Consumer interface {
	ConsumeExpenseEvents(ctx context.Context, handler func(*amqp.ExpenseEvent) error) error
}

// SyncWorker consumes expense events and flips the synced flag on the
// matching records. A periodic sweep over unsynced records backs up the
// event stream in case deliveries are lost.
type SyncWorker struct {
	storage   SyncStore
	consumer  Consumer
	batchSize int
	interval  time.Duration
}

func NewSyncWorker(storage SyncStore, consumer Consumer, batchSize int, interval time.Duration) *SyncWorker {
	return &SyncWorker{
		storage:   storage,
		consumer:  consumer,
		batchSize: batchSize,
		interval:  interval,
	}
}

// Run blocks until ctx is cancelled, driving the consumer loop and the
// periodic sweep together.
func (w *SyncWorker) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return w.consumer.ConsumeExpenseEvents(ctx, func(event *amqp.ExpenseEvent) error {
			return w.HandleEvent(ctx, event)
		})
	})

	g.Go(func() error {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if err := w.ProcessPending(ctx); err != nil {
					slog.ErrorContext(ctx, "Pending sweep failed", "error", err)
				}
			}
		}
	})

	return g.Wait()
}

// HandleEvent processes a single expense event.
func (w *SyncWorker) HandleEvent(ctx context.Context, event *amqp.ExpenseEvent) error {
	switch event.Kind {
	case amqp.EventExpenseCreated:
		if err := w.storage.MarkSynced(ctx, event.ExpenseID); err != nil {
			return fmt.Errorf("mark synced: %w", err)
		}
		slog.InfoContext(ctx, "Expense marked synced",
			"expense_id", event.ExpenseID)
		return nil
	case amqp.EventExpenseDeleted:
		// The record is already gone from the collection; nothing to flip.
		slog.InfoContext(ctx, "Expense delete event observed",
			"expense_id", event.ExpenseID)
		return nil
	default:
		slog.WarnContext(ctx, "Dropping event of unknown kind", "kind", event.Kind)
		return nil
	}
}

// ProcessPending marks any expenses that missed their event. This is a
// backup mechanism in case AMQP messages are lost.
func (w *SyncWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.storage.GetUnsynced(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get unsynced expenses: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing unsynced expenses", "count", len(pending))

	for _, e := range pending {
		if err := w.storage.MarkSynced(ctx, e.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to mark expense synced",
				"expense_id", e.ID, "error", err)
			continue
		}
	}
	return nil
}

// StartupCheck clears the unsynced backlog once at boot, with a larger batch
// to recover from worker downtime.
func (w *SyncWorker) StartupCheck(ctx context.Context) error {
	pending, err := w.storage.GetUnsynced(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get unsynced expenses for startup check: %w", err)
	}
	if len(pending) == 0 {
		slog.InfoContext(ctx, "No unsynced expenses found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found unsynced expenses on startup, processing...",
		"count", len(pending))

	synced := 0
	for _, e := range pending {
		if err := w.storage.MarkSynced(ctx, e.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to mark expense synced during startup",
				"expense_id", e.ID, "error", err)
			continue
		}
		synced++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending), "synced", synced)
	return nil
}
