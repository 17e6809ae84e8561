package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
)

// schemaStep is one versioned change to the database layout.
type schemaStep struct {
	version int
	name    string
	up      func(tx *sql.Tx) error
}

var schemaSteps = []schemaStep{
	{version: 1, name: "kv_store", up: migrateV001},
}

// JournalModes lists the values accepted for MigrationRunner.JournalMode.
var JournalModes = []string{"delete", "truncate", "persist", "memory", "wal", "off"}

// MigrationRunner brings a SQLite database up to the current schema.
type MigrationRunner struct {
	// JournalMode is set with PRAGMA journal_mode before migrating. Empty
	// leaves the connection default.
	JournalMode string

	db    *sql.DB
	steps []schemaStep
}

// NewMigrationRunner returns a runner for every known schema step.
func NewMigrationRunner(db *sql.DB) *MigrationRunner {
	steps := append([]schemaStep(nil), schemaSteps...)
	sort.Slice(steps, func(i, j int) bool { return steps[i].version < steps[j].version })
	return &MigrationRunner{db: db, steps: steps}
}

// ValidJournalMode reports whether mode is empty or a SQLite journal mode.
func ValidJournalMode(mode string) bool {
	if mode == "" {
		return true
	}
	mode = strings.ToLower(mode)
	for _, m := range JournalModes {
		if m == mode {
			return true
		}
	}
	return false
}

// Run sets the journal mode, then applies every step newer than the
// recorded schema, each in its own transaction.
func (r *MigrationRunner) Run(ctx context.Context) error {
	if r.JournalMode != "" {
		if !ValidJournalMode(r.JournalMode) {
			return fmt.Errorf("unknown journal mode %q", r.JournalMode)
		}
		// The pragma value cannot be bound as a parameter.
		var mode string
		q := "PRAGMA journal_mode = " + strings.ToUpper(r.JournalMode)
		if err := r.db.QueryRowContext(ctx, q).Scan(&mode); err != nil {
			return fmt.Errorf("set journal mode: %w", err)
		}
	}

	if _, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}

	current, err := r.currentVersion(ctx)
	if err != nil {
		return err
	}

	for _, step := range r.steps {
		if step.version <= current {
			continue
		}
		if err := r.apply(ctx, step); err != nil {
			return fmt.Errorf("apply migration %d (%s): %w", step.version, step.name, err)
		}
	}
	return nil
}

func (r *MigrationRunner) currentVersion(ctx context.Context) (int, error) {
	var v sql.NullInt64
	if err := r.db.QueryRowContext(ctx, "SELECT MAX(version) FROM schema_migrations").Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return int(v.Int64), nil
}

func (r *MigrationRunner) apply(ctx context.Context, step schemaStep) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := step.up(tx); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
		step.version, step.name,
	); err != nil {
		return fmt.Errorf("record migration: %w", err)
	}
	return tx.Commit()
}
