package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/runnerr0/adaslog/internal/config"
	"github.com/runnerr0/adaslog/internal/storage"
)

// statusJSON is the JSON output structure for the status command.
type statusJSON struct {
	Version             string   `json:"version"`
	DatabasePath        string   `json:"database_path"`
	DatabaseSizeBytes   int64    `json:"database_size_bytes"`
	StorageKey          string   `json:"storage_key"`
	TotalEvents         int64    `json:"total_events"`
	GeotaggedEvents     int64    `json:"geotagged_events"`
	OldestEvent         string   `json:"oldest_event,omitempty"`
	NewestEvent         string   `json:"newest_event,omitempty"`
	GeolocationProvider string   `json:"geolocation_provider"`
	GeolocationTimeout  int      `json:"geolocation_timeout_ms"`
	GeolocationMaxAge   int      `json:"geolocation_max_cache_age_ms"`
	EventTypes          []string `json:"event_types"`
}

// Execute implements the go-flags Commander interface for StatusCommand.
func (c *StatusCommand) Execute(args []string) error {
	cfg, _, store, cleanup, err := prepare(c.globals)
	if err != nil {
		return err
	}
	defer cleanup()

	return c.executeWithStore(store, cfg)
}

// executeWithStore runs status against a provided store (for testing).
func (c *StatusCommand) executeWithStore(store storage.Store, cfg *config.Config) error {
	stats, err := store.GetStats(context.Background())
	if err != nil {
		return fmt.Errorf("get stats: %w", err)
	}

	dbPath, err := cfg.Storage.DBPath()
	if err != nil {
		return err
	}
	var dbSize int64
	if info, err := os.Stat(dbPath); err == nil {
		dbSize = info.Size()
	}

	if c.globals != nil && c.globals.JSON {
		return c.printStatusJSON(stats, cfg, dbPath, dbSize)
	}
	return c.printStatusHuman(stats, cfg, dbPath, dbSize)
}

func (c *StatusCommand) printStatusHuman(stats *storage.Stats, cfg *config.Config, dbPath string, dbSize int64) error {
	fmt.Println("adaslog Status")
	fmt.Println("==============")
	fmt.Printf("Version:       %s\n", c.version)
	fmt.Printf("Database:      %s (%s)\n", dbPath, formatBytes(dbSize))
	fmt.Printf("Key:           %s\n", cfg.Storage.Key)
	fmt.Printf("Events:        %d\n", stats.TotalEvents)

	if stats.TotalEvents > 0 {
		pct := float64(stats.GeotaggedEvents) / float64(stats.TotalEvents) * 100
		fmt.Printf("Geotagged:     %d (%.1f%%)\n", stats.GeotaggedEvents, pct)
		if !stats.OldestEvent.IsZero() {
			fmt.Printf("Oldest:        %s\n", stats.OldestEvent.Local().Format("2006-01-02 15:04:05"))
			fmt.Printf("Newest:        %s\n", stats.NewestEvent.Local().Format("2006-01-02 15:04:05"))
		}
	}

	fmt.Println()
	fmt.Printf("Geolocation:   %s (timeout %s, max age %s)\n",
		cfg.Geolocation.Provider, cfg.Geolocation.Timeout(), cfg.Geolocation.MaxCacheAge())
	fmt.Printf("Event types:   %s\n", strings.Join(cfg.Events.Types, ", "))

	return nil
}

func (c *StatusCommand) printStatusJSON(stats *storage.Stats, cfg *config.Config, dbPath string, dbSize int64) error {
	out := statusJSON{
		Version:             c.version,
		DatabasePath:        dbPath,
		DatabaseSizeBytes:   dbSize,
		StorageKey:          cfg.Storage.Key,
		TotalEvents:         stats.TotalEvents,
		GeotaggedEvents:     stats.GeotaggedEvents,
		GeolocationProvider: cfg.Geolocation.Provider,
		GeolocationTimeout:  cfg.Geolocation.TimeoutMs,
		GeolocationMaxAge:   cfg.Geolocation.MaxCacheAgeMs,
		EventTypes:          cfg.Events.Types,
	}

	if !stats.OldestEvent.IsZero() {
		out.OldestEvent = stats.OldestEvent.UTC().Format(time.RFC3339)
		out.NewestEvent = stats.NewestEvent.UTC().Format(time.RFC3339)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
