package config

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Path:              "~/.config/adaslog",
			SQLiteFile:        "adaslog.db",
			Key:               "adas_events",
			SQLiteJournalMode: "wal",
		},
		Events: EventsConfig{
			Types: DefaultEventTypes(),
		},
		Geolocation: GeolocationConfig{
			Provider:         "none",
			MaxCacheAgeMs:    30000,
			TimeoutMs:        8000,
			HTTPLatPath:      "latitude",
			HTTPLngPath:      "longitude",
			HTTPSuccessPath:  "",
			HTTPSuccessValue: "",
		},
		Map: MapConfig{
			CenterLat:  51.505,
			CenterLng:  -0.09,
			Zoom:       13,
			Width:      800,
			Height:     500,
			PaddingPx:  20,
			TileURL:    "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
			OutputFile: "",
		},
		Export: ExportConfig{
			Dir: ".",
		},
		Enrich: EnrichConfig{
			OverpassURL:    "https://overpass-api.de/api/interpreter",
			Radii:          []int{20, 50},
			QueryTimeoutS:  25,
			HTTPTimeoutS:   60,
			ThrottleMs:     200,
			UserAgent:      "ADAS-Overpass-Client/1.0",
			MissingRoadTag: "NA",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
