// Package persist is the single entry point for durable expense storage.
// It tries the primary record store first and transparently degrades to the
// fallback blob store; callers never learn which backend served a request.
package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"spendlog/internal/core"
)

// ExpensesKey is the fixed fallback-store key holding the JSON array of the
// full expense collection.
const ExpensesKey = "expense-tracker-data"

// ErrAllBackendsFailed reports that neither backend could serve the request.
// Callers treat it as a non-fatal warning: the in-memory collection stays
// authoritative for the rest of the session.
var ErrAllBackendsFailed = errors.New("all storage backends failed")

// RecordStore is the primary backend: a keyed record collection supporting
// atomic full replacement.
type RecordStore interface {
	ReplaceAll(ctx context.Context, expenses []core.Expense) error
	GetAll(ctx context.Context) ([]core.Expense, error)
}

// BlobStore is the fallback backend: a string key→value store written
// whole-value per call.
type BlobStore interface {
	Set(key, value string) error
	Get(key string) (string, bool, error)
}

type Facade struct {
	primary  RecordStore
	fallback BlobStore
}

func New(primary RecordStore, fallback BlobStore) *Facade {
	return &Facade{primary: primary, fallback: fallback}
}

// Save persists the full post-mutation collection. The primary store gets a
// clear-then-insert-all replacement; any primary failure degrades to writing
// the serialized collection under the fixed fallback key.
func (f *Facade) Save(ctx context.Context, expenses []core.Expense) error {
	primaryErr := f.primary.ReplaceAll(ctx, expenses)
	if primaryErr == nil {
		return nil
	}
	slog.WarnContext(ctx, "Primary store save failed, degrading to fallback",
		"error", primaryErr, "count", len(expenses))

	blob, err := json.Marshal(expenses)
	if err != nil {
		return fmt.Errorf("%w: primary: %v; encode: %v", ErrAllBackendsFailed, primaryErr, err)
	}
	if err := f.fallback.Set(ExpensesKey, string(blob)); err != nil {
		return fmt.Errorf("%w: primary: %v; fallback: %v", ErrAllBackendsFailed, primaryErr, err)
	}
	return nil
}

// Load reads the full collection, preferring the primary store. The result
// is never nil: on double failure it is empty alongside ErrAllBackendsFailed,
// and on a fresh install it is simply empty.
func (f *Facade) Load(ctx context.Context) ([]core.Expense, error) {
	expenses, primaryErr := f.primary.GetAll(ctx)
	if primaryErr == nil {
		if expenses == nil {
			expenses = []core.Expense{}
		}
		return expenses, nil
	}
	slog.WarnContext(ctx, "Primary store load failed, degrading to fallback",
		"error", primaryErr)

	blob, ok, err := f.fallback.Get(ExpensesKey)
	if err != nil {
		return []core.Expense{}, fmt.Errorf("%w: primary: %v; fallback: %v", ErrAllBackendsFailed, primaryErr, err)
	}
	if !ok {
		return []core.Expense{}, nil
	}
	return decodeCollection(ctx, blob), nil
}

// decodeCollection turns the stored blob back into the strict expense shape.
// Malformed entries are quarantined (skipped and logged) rather than taking
// the whole collection down with them.
func decodeCollection(ctx context.Context, blob string) []core.Expense {
	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(blob), &raw); err != nil {
		slog.WarnContext(ctx, "Fallback blob is not a JSON array, treating as empty", "error", err)
		return []core.Expense{}
	}

	expenses := make([]core.Expense, 0, len(raw))
	for i, entry := range raw {
		var e core.Expense
		if err := json.Unmarshal(entry, &e); err != nil {
			slog.WarnContext(ctx, "Quarantined malformed expense entry", "index", i, "error", err)
			continue
		}
		if e.ID == "" || e.Date.Validate() != nil || e.Amount.Validate() != nil {
			slog.WarnContext(ctx, "Quarantined invalid expense entry", "index", i, "id", e.ID)
			continue
		}
		expenses = append(expenses, e)
	}
	return expenses
}
