package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/paulmach/orb"

	"github.com/runnerr0/adaslog/internal/config"
	"github.com/runnerr0/adaslog/internal/logging"
	"github.com/runnerr0/adaslog/internal/render"
	"github.com/runnerr0/adaslog/internal/storage"
)

// loadConfig reads --config if given, otherwise the default config file,
// creating it with defaults on first use.
func loadConfig(g *GlobalFlags) (*config.Config, error) {
	if g != nil && g.Config != "" {
		return config.Load(g.Config)
	}
	return config.LoadOrCreate()
}

// newLogger builds the stderr logger for a command.
func newLogger(cfg *config.Config, g *GlobalFlags) *slog.Logger {
	verbose := g != nil && g.Verbose
	return logging.New(os.Stderr, cfg.Logging.Level, verbose)
}

// openStore opens the configured SQLite database, runs migrations, and
// returns a ready-to-use store and the underlying *sql.DB.
func openStore(cfg *config.Config) (*storage.SQLiteStore, *sql.DB, error) {
	dbPath, err := cfg.Storage.DBPath()
	if err != nil {
		return nil, nil, err
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, nil, fmt.Errorf("create database directory: %w", err)
	}

	// The DSN applies the mode to every pooled connection; the runner
	// applies it up front so a bad value fails before any schema work.
	mode := cfg.Storage.SQLiteJournalMode
	dsn := dbPath
	if mode != "" {
		dsn += "?_journal_mode=" + strings.ToUpper(mode)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	runner := storage.NewMigrationRunner(db)
	runner.JournalMode = mode
	if err := runner.Run(context.Background()); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}

	store, err := storage.NewSQLiteStore(db, cfg.Storage.Key)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("init store: %w", err)
	}

	return store, db, nil
}

// prepare loads config, logger and store for a command. The returned
// cleanup closes the store and database.
func prepare(g *GlobalFlags) (*config.Config, *slog.Logger, *storage.SQLiteStore, func(), error) {
	cfg, err := loadConfig(g)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	log := newLogger(cfg, g)

	store, db, err := openStore(cfg)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	cleanup := func() {
		store.Close()
		db.Close()
	}
	return cfg, log, store, cleanup, nil
}

// newSurface builds the map surface for the configured initial view.
func newSurface(cfg *config.Config) *render.GeoJSONSurface {
	return render.NewGeoJSONSurface(render.SurfaceOptions{
		Center:  orb.Point{cfg.Map.CenterLng, cfg.Map.CenterLat},
		Zoom:    cfg.Map.Zoom,
		Width:   cfg.Map.Width,
		Height:  cfg.Map.Height,
		TileURL: cfg.Map.TileURL,
	})
}

// formatBytes formats a byte count into a human-readable string.
func formatBytes(b int64) string {
	switch {
	case b >= 1<<30:
		return fmt.Sprintf("%.1f GB", float64(b)/float64(1<<30))
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/float64(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
