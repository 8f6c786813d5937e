// Package storage is the primary store adapter: an embedded SQLite database
// holding the full expense collection keyed by id.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"spendlog/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	db *sql.DB
}

// Open creates or connects to the database at dbPath and brings the schema
// up to date. Opening an already-initialized database only connects.
func Open(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Clear removes every record from the collection.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM expenses`); err != nil {
		return fmt.Errorf("clear expenses: %w", err)
	}
	return nil
}

// Insert adds one record to the collection.
func (s *SQLiteStore) Insert(ctx context.Context, e core.Expense) error {
	if err := insertTx(ctx, s.db, e); err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertTx(ctx context.Context, ex execer, e core.Expense) error {
	var createdAt any
	if !e.CreatedAt.IsZero() {
		createdAt = e.CreatedAt.UTC().Format(time.RFC3339)
	}
	_, err := ex.ExecContext(ctx, `
		INSERT INTO expenses (id, title, amount_cents, category, expense_date, notes, created_at, user_id, synced)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Title, e.Amount.Cents, string(e.Category), e.Date.ISO(),
		e.Notes, createdAt, e.UserID, boolToInt(e.Synced))
	return err
}

// ReplaceAll swaps the stored collection for expenses as one transaction:
// a crash cannot leave the store holding a partial mix of old and new rows.
func (s *SQLiteStore) ReplaceAll(ctx context.Context, expenses []core.Expense) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM expenses`); err != nil {
		return fmt.Errorf("clear expenses: %w", err)
	}
	for _, e := range expenses {
		if err := insertTx(ctx, tx, e); err != nil {
			return fmt.Errorf("insert expense %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace: %w", err)
	}

	slog.DebugContext(ctx, "Expense collection replaced", "count", len(expenses))
	return nil
}

// GetAll returns the full stored collection.
func (s *SQLiteStore) GetAll(ctx context.Context) ([]core.Expense, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, amount_cents, category, expense_date, notes, created_at, user_id, synced
		FROM expenses`)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	expenses := []core.Expense{}
	for rows.Next() {
		var (
			e         core.Expense
			category  string
			dateLabel string
			createdAt sql.NullString
			synced    int
		)
		if err := rows.Scan(&e.ID, &e.Title, &e.Amount.Cents, &category, &dateLabel,
			&e.Notes, &createdAt, &e.UserID, &synced); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		e.Category = core.Category(category)
		if e.Date, err = core.ParseDate(dateLabel); err != nil {
			return nil, fmt.Errorf("parse stored date %q: %w", dateLabel, err)
		}
		if createdAt.Valid {
			if t, err := time.Parse(time.RFC3339, createdAt.String); err == nil {
				e.CreatedAt = t
			}
		}
		e.Synced = synced != 0
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return expenses, nil
}

// MarkSynced flips the synced flag on one record. Unknown ids are a no-op.
func (s *SQLiteStore) MarkSynced(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE expenses SET synced = 1 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark expense synced: %w", err)
	}
	return nil
}

// GetUnsynced returns up to limit records whose sync event has not been
// confirmed yet. Used by the sweep side of the sync worker.
func (s *SQLiteStore) GetUnsynced(ctx context.Context, limit int) ([]core.Expense, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, amount_cents, category, expense_date, notes, created_at, user_id, synced
		FROM expenses WHERE synced = 0 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query unsynced expenses: %w", err)
	}
	defer rows.Close()

	expenses := []core.Expense{}
	for rows.Next() {
		var (
			e         core.Expense
			category  string
			dateLabel string
			createdAt sql.NullString
			synced    int
		)
		if err := rows.Scan(&e.ID, &e.Title, &e.Amount.Cents, &category, &dateLabel,
			&e.Notes, &createdAt, &e.UserID, &synced); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		e.Category = core.Category(category)
		if e.Date, err = core.ParseDate(dateLabel); err != nil {
			return nil, fmt.Errorf("parse stored date %q: %w", dateLabel, err)
		}
		if createdAt.Valid {
			if t, err := time.Parse(time.RFC3339, createdAt.String); err == nil {
				e.CreatedAt = t
			}
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
