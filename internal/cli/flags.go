package cli

import "github.com/runnerr0/adaslog/internal/geo"

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	Config  string `long:"config" description:"Path to config file" default:""`
	JSON    bool   `long:"json" description:"Output in JSON format"`
	Verbose bool   `long:"verbose" description:"Enable verbose output"`
	Version bool   `long:"version" description:"Show version and exit"`
}

// RecordCommand — record one event with an optional location fix.
type RecordCommand struct {
	Type string `long:"type" description:"Event type (e.g. brake, horn)"`
	Args struct {
		Type string `positional-arg-name:"type"`
	} `positional-args:"yes"`

	globals *GlobalFlags
	version string
	locator geo.Locator // injectable for testing; nil means build from config
}

// ListCommand — print stored events, most recent first.
type ListCommand struct {
	globals *GlobalFlags
	version string
}

// MapCommand — draw geotagged events as GeoJSON markers.
type MapCommand struct {
	Out     string `long:"out" description:"Output file, - for stdout (default: map.output_file or stdout)"`
	ZoomIn  []bool `long:"zoom-in" description:"Zoom in one level (repeatable, nets against --zoom-out)"`
	ZoomOut []bool `long:"zoom-out" description:"Zoom out one level (repeatable)"`

	globals *GlobalFlags
	version string
}

// ExportCommand — write all events to a CSV file.
type ExportCommand struct {
	Dir string `long:"dir" description:"Export directory (default: export.dir)"`

	globals *GlobalFlags
	version string
}

// EnrichCommand — append OpenStreetMap road types to an exported CSV.
type EnrichCommand struct {
	Args struct {
		Input  string `positional-arg-name:"input.csv" required:"yes"`
		Output string `positional-arg-name:"output.csv"`
	} `positional-args:"yes"`
	Throttle int `long:"throttle-ms" description:"Pause between looked-up rows in milliseconds (default: enrich.throttle_ms)" default:"-1"`

	globals *GlobalFlags
	version string
}

// StatusCommand — show storage location, event counts and configuration.
type StatusCommand struct {
	globals *GlobalFlags
	version string
}
