package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	// EventsKey is the key the event sequence is persisted under.
	EventsKey = "adas_events"
	// LastFixKey holds the most recent location fix between runs.
	LastFixKey = "adas_last_fix"
)

// Store defines the persistence operations for the event sequence.
type Store interface {
	Load(ctx context.Context) (LoadResult, error)
	Events(ctx context.Context) ([]Event, error)
	Save(ctx context.Context, events []Event) error
	Raw(ctx context.Context) ([]byte, bool, error)
	GetValue(ctx context.Context, key string) ([]byte, bool, error)
	PutValue(ctx context.Context, key string, value []byte) error
	GetStats(ctx context.Context) (*Stats, error)
	Close() error
}

// SQLiteStore implements Store on top of the kv table. The whole sequence
// is one JSON array under a single key and is rewritten on every Save.
type SQLiteStore struct {
	db  *sql.DB
	key string

	getValue *sql.Stmt
	putValue *sql.Stmt
}

// NewSQLiteStore creates a SQLiteStore from an already-opened and migrated
// database. An empty key selects EventsKey.
func NewSQLiteStore(db *sql.DB, key string) (*SQLiteStore, error) {
	if key == "" {
		key = EventsKey
	}
	s := &SQLiteStore{db: db, key: key}

	if err := s.prepareStatements(); err != nil {
		return nil, fmt.Errorf("prepare statements: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.getValue, err = s.db.Prepare(`SELECT value, updated_at FROM kv WHERE key = ?`)
	if err != nil {
		return err
	}

	s.putValue, err = s.db.Prepare(`
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`)
	if err != nil {
		return err
	}

	return nil
}

// Key returns the key this store persists under.
func (s *SQLiteStore) Key() string {
	return s.key
}

// Raw returns the persisted bytes and whether the key exists.
func (s *SQLiteStore) Raw(ctx context.Context) ([]byte, bool, error) {
	return s.GetValue(ctx, s.key)
}

// GetValue returns the bytes stored under any key in the kv table.
func (s *SQLiteStore) GetValue(ctx context.Context, key string) ([]byte, bool, error) {
	var value, updatedAt string
	err := s.getValue.QueryRowContext(ctx, key).Scan(&value, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read %s: %w", key, err)
	}
	return []byte(value), true, nil
}

// PutValue overwrites the bytes stored under key.
func (s *SQLiteStore) PutValue(ctx context.Context, key string, value []byte) error {
	updatedAt := time.Now().UTC().Format(time.RFC3339)
	if _, err := s.putValue.ExecContext(ctx, key, string(value), updatedAt); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// Load decodes the persisted sequence. A missing key or an undecodable
// value yields an empty sequence with the matching outcome and no error;
// only database failures are returned as errors.
func (s *SQLiteStore) Load(ctx context.Context) (LoadResult, error) {
	raw, ok, err := s.Raw(ctx)
	if err != nil {
		return LoadResult{Events: []Event{}}, err
	}
	if !ok {
		return LoadResult{Events: []Event{}, Outcome: LoadMissing}, nil
	}

	var events []Event
	if err := json.Unmarshal(raw, &events); err != nil {
		return LoadResult{Events: []Event{}, Outcome: LoadMalformed, Err: err}, nil
	}

	// "null" decodes to a nil slice
	if events == nil {
		events = []Event{}
	}

	return LoadResult{Events: events, Outcome: LoadOK}, nil
}

// Events returns the persisted sequence, empty when nothing usable is stored.
func (s *SQLiteStore) Events(ctx context.Context) ([]Event, error) {
	res, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return res.Events, nil
}

// Save overwrites the persisted sequence with events.
func (s *SQLiteStore) Save(ctx context.Context, events []Event) error {
	if events == nil {
		events = []Event{}
	}

	data, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("encode events: %w", err)
	}

	return s.PutValue(ctx, s.key, data)
}

// GetStats returns aggregate figures about the stored sequence.
func (s *SQLiteStore) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	var value, updatedAt string
	err := s.getValue.QueryRowContext(ctx, s.key).Scan(&value, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return stats, nil
		}
		return nil, fmt.Errorf("read %s: %w", s.key, err)
	}
	stats.UpdatedAt, _ = parseTimestamp(updatedAt)

	res, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}

	for _, e := range res.Events {
		stats.TotalEvents++
		if e.Geotagged() {
			stats.GeotaggedEvents++
		}
		ts, err := parseTimestamp(e.Time)
		if err != nil {
			continue
		}
		if stats.OldestEvent.IsZero() || ts.Before(stats.OldestEvent) {
			stats.OldestEvent = ts
		}
		if ts.After(stats.NewestEvent) {
			stats.NewestEvent = ts
		}
	}

	return stats, nil
}

// parseTimestamp tries several common timestamp formats.
func parseTimestamp(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse timestamp: %s", s)
}

// Close releases all prepared statements. The underlying *sql.DB is NOT
// closed; that is the caller's responsibility.
func (s *SQLiteStore) Close() error {
	stmts := []*sql.Stmt{s.getValue, s.putValue}
	for _, stmt := range stmts {
		if stmt != nil {
			stmt.Close()
		}
	}
	return nil
}
