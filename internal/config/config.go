package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Default config file path.
const DefaultConfigPath = "~/.config/adaslog/config.yaml"

// EnvPrefix prefixes every environment override, e.g. ADASLOG_STORAGE_PATH.
const EnvPrefix = "ADASLOG_"

// Config holds all adaslog configuration.
type Config struct {
	Storage     StorageConfig     `yaml:"storage" envPrefix:"STORAGE_"`
	Events      EventsConfig      `yaml:"events"`
	Geolocation GeolocationConfig `yaml:"geolocation" envPrefix:"GEOLOCATION_"`
	Map         MapConfig         `yaml:"map" envPrefix:"MAP_"`
	Export      ExportConfig      `yaml:"export" envPrefix:"EXPORT_"`
	Enrich      EnrichConfig      `yaml:"enrich" envPrefix:"ENRICH_"`
	Logging     LoggingConfig     `yaml:"logging" envPrefix:"LOG_"`
}

type StorageConfig struct {
	Path              string `yaml:"path" env:"PATH"`
	SQLiteFile        string `yaml:"sqlite_file"`
	Key               string `yaml:"key" env:"KEY"`
	SQLiteJournalMode string `yaml:"sqlite_journal_mode"`
}

type EventsConfig struct {
	Types []string `yaml:"types"`
}

type GeolocationConfig struct {
	Provider         string  `yaml:"provider" env:"PROVIDER"` // none | static | http
	MaxCacheAgeMs    int     `yaml:"max_cache_age_ms" env:"MAX_CACHE_AGE_MS"`
	TimeoutMs        int     `yaml:"timeout_ms" env:"TIMEOUT_MS"`
	StaticLat        float64 `yaml:"static_lat" env:"STATIC_LAT"`
	StaticLng        float64 `yaml:"static_lng" env:"STATIC_LNG"`
	HTTPURL          string  `yaml:"http_url" env:"HTTP_URL"`
	HTTPLatPath      string  `yaml:"http_lat_path"`
	HTTPLngPath      string  `yaml:"http_lng_path"`
	HTTPSuccessPath  string  `yaml:"http_success_path"`
	HTTPSuccessValue string  `yaml:"http_success_value"`
}

type MapConfig struct {
	CenterLat  float64 `yaml:"center_lat"`
	CenterLng  float64 `yaml:"center_lng"`
	Zoom       int     `yaml:"zoom"`
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	PaddingPx  int     `yaml:"padding_px"`
	TileURL    string  `yaml:"tile_url"`
	OutputFile string  `yaml:"output_file" env:"OUTPUT_FILE"`
}

type ExportConfig struct {
	Dir string `yaml:"dir" env:"DIR"`
}

type EnrichConfig struct {
	OverpassURL    string `yaml:"overpass_url" env:"OVERPASS_URL"`
	Radii          []int  `yaml:"radii"`
	QueryTimeoutS  int    `yaml:"query_timeout_s"`
	HTTPTimeoutS   int    `yaml:"http_timeout_s"`
	ThrottleMs     int    `yaml:"throttle_ms" env:"THROTTLE_MS"`
	UserAgent      string `yaml:"user_agent"`
	MissingRoadTag string `yaml:"missing_road_tag"`
}

type LoggingConfig struct {
	Level string `yaml:"level" env:"LEVEL"`
}

// MaxCacheAge returns the geolocation cache bound as a duration.
func (g GeolocationConfig) MaxCacheAge() time.Duration {
	return time.Duration(g.MaxCacheAgeMs) * time.Millisecond
}

// Timeout returns the geolocation timeout as a duration.
func (g GeolocationConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutMs) * time.Millisecond
}

// DBPath returns the expanded SQLite database path.
func (s StorageConfig) DBPath() (string, error) {
	dir, err := ExpandPath(s.Path)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, s.SQLiteFile), nil
}

// Load reads a YAML config file at path and merges it with defaults.
// Returns an error if the file cannot be read or contains invalid YAML.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects values no component can work with.
func (c *Config) Validate() error {
	switch c.Geolocation.Provider {
	case "none", "static", "http":
	default:
		return fmt.Errorf("geolocation.provider: unknown provider %q", c.Geolocation.Provider)
	}
	if c.Geolocation.Provider == "http" && c.Geolocation.HTTPURL == "" {
		return fmt.Errorf("geolocation.http_url is required for the http provider")
	}
	if c.Geolocation.TimeoutMs <= 0 {
		return fmt.Errorf("geolocation.timeout_ms must be positive")
	}
	if c.Geolocation.MaxCacheAgeMs < 0 {
		return fmt.Errorf("geolocation.max_cache_age_ms must not be negative")
	}
	switch strings.ToLower(c.Storage.SQLiteJournalMode) {
	case "", "delete", "truncate", "persist", "memory", "wal", "off":
	default:
		return fmt.Errorf("storage.sqlite_journal_mode: unknown mode %q", c.Storage.SQLiteJournalMode)
	}
	if c.Map.Width <= 0 || c.Map.Height <= 0 {
		return fmt.Errorf("map.width and map.height must be positive")
	}
	return nil
}

// applyEnv overlays ADASLOG_* environment variables on cfg. Unset
// variables leave the file values alone.
func applyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// ExpandPath replaces a leading ~ with the user's home directory.
func ExpandPath(path string) (string, error) {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// LoadOrCreate loads the config from the default path. If the file does
// not exist, it creates the directory structure and writes defaults.
func LoadOrCreate() (*Config, error) {
	path, err := ExpandPath(DefaultConfigPath)
	if err != nil {
		return nil, err
	}
	return LoadOrCreateAt(path)
}

// LoadOrCreateAt loads the config from the given path. If the file does
// not exist, it creates the directory structure and writes defaults.
func LoadOrCreateAt(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()

		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating config directory: %w", err)
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return nil, fmt.Errorf("marshaling default config: %w", err)
		}

		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, fmt.Errorf("writing default config: %w", err)
		}

		if err := applyEnv(cfg); err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	return Load(path)
}
