// Package services holds the application-level orchestration around the
// in-memory expense collection, which stays authoritative for the lifetime
// of the process; storage is written behind it on every mutation.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"spendlog/internal/amqp"
	"spendlog/internal/core"
	"spendlog/internal/persist"
)

// Store is the persistence boundary the service writes through; the persist
// facade satisfies it.
type Store interface {
	Save(ctx context.Context, expenses []core.Expense) error
	Load(ctx context.Context) ([]core.Expense, error)
}

// Publisher emits sync events for downstream workers. A nil Publisher
// disables events without changing any other behavior.
type Publisher interface {
	PublishExpenseEvent(ctx context.Context, kind, expenseID string) error
}

// ExpenseService owns the in-memory collection and orchestrates persistence
// and sync events around it.
type ExpenseService struct {
	mu        sync.RWMutex
	store     Store
	publisher Publisher
	expenses  []core.Expense
}

func NewExpenseService(store Store, publisher Publisher) *ExpenseService {
	return &ExpenseService{
		store:     store,
		publisher: publisher,
		expenses:  []core.Expense{},
	}
}

// Load hydrates the collection from storage. A total storage failure is
// logged and swallowed: the service starts empty and stays usable.
func (s *ExpenseService) Load(ctx context.Context) error {
	expenses, err := s.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, persist.ErrAllBackendsFailed) {
			return fmt.Errorf("load expenses: %w", err)
		}
		slog.WarnContext(ctx, "Storage unavailable at startup, starting with empty collection", "error", err)
	}

	s.mu.Lock()
	s.expenses = expenses
	s.mu.Unlock()

	slog.InfoContext(ctx, "Expense collection loaded", "count", len(expenses))
	return nil
}

// Add validates and appends a new expense, then persists the whole
// collection. The returned error is persist.ErrAllBackendsFailed when the
// expense was accepted but could not be written anywhere; the in-memory
// mutation stands either way.
func (s *ExpenseService) Add(ctx context.Context, e core.Expense, userID string) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	e.ID = uuid.NewString()
	e.CreatedAt = time.Now().UTC()
	e.UserID = userID
	e.Synced = false

	s.mu.Lock()
	s.expenses = append(s.expenses, e)
	snapshot := append([]core.Expense(nil), s.expenses...)
	s.mu.Unlock()

	saveErr := s.store.Save(ctx, snapshot)
	if saveErr != nil && !errors.Is(saveErr, persist.ErrAllBackendsFailed) {
		saveErr = fmt.Errorf("save expenses: %w", saveErr)
	}

	s.publish(ctx, amqp.EventExpenseCreated, e.ID)

	slog.InfoContext(ctx, "Expense added",
		"expense_id", e.ID,
		"amount_cents", e.Amount.Cents,
		"category", string(e.Category))
	return e, saveErr
}

// Delete removes an expense by id. Deleting an absent id is a no-op; storage
// is only rewritten when something actually changed.
func (s *ExpenseService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	kept := make([]core.Expense, 0, len(s.expenses))
	removed := false
	for _, e := range s.expenses {
		if e.ID == id {
			removed = true
			continue
		}
		kept = append(kept, e)
	}
	if !removed {
		s.mu.Unlock()
		return nil
	}
	s.expenses = kept
	snapshot := append([]core.Expense(nil), s.expenses...)
	s.mu.Unlock()

	saveErr := s.store.Save(ctx, snapshot)
	if saveErr != nil && !errors.Is(saveErr, persist.ErrAllBackendsFailed) {
		saveErr = fmt.Errorf("save expenses: %w", saveErr)
	}

	s.publish(ctx, amqp.EventExpenseDeleted, id)

	slog.InfoContext(ctx, "Expense deleted", "expense_id", id)
	return saveErr
}

// All returns a copy of the full collection in insertion order.
func (s *ExpenseService) All() []core.Expense {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Expense(nil), s.expenses...)
}

// Summary is the aggregate view rendered from a set of visible expenses.
type Summary struct {
	Total         core.Money           `json:"total_cents"`
	DailyAverage  core.Money           `json:"daily_average_cents"`
	ByCategory    []core.CategoryTotal `json:"by_category"`
	Last7Days     []core.DayTotal      `json:"last_7_days"`
	ReferenceDate core.Date            `json:"reference_date"`
	Count         int                  `json:"count"`
}

// Summarize computes the aggregate view over the given expenses, with the
// daily series anchored at ref.
func Summarize(expenses []core.Expense, ref core.Date) Summary {
	series := core.DailySeries(expenses, ref)
	return Summary{
		Total:         core.Total(expenses),
		DailyAverage:  core.DailyAverage(series),
		ByCategory:    core.CategoryTotals(expenses),
		Last7Days:     series,
		ReferenceDate: ref,
		Count:         len(expenses),
	}
}

func (s *ExpenseService) publish(ctx context.Context, kind, expenseID string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishExpenseEvent(ctx, kind, expenseID); err != nil {
		// Sync events are best effort; the expense is already safe locally.
		slog.ErrorContext(ctx, "Failed to publish expense event",
			"kind", kind, "expense_id", expenseID, "error", err)
	}
}
