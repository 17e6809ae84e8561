package cli

import (
	"fmt"
	"os"

	goflags "github.com/jessevdk/go-flags"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Record *RecordCommand
	List   *ListCommand
	Map    *MapCommand
	Export *ExportCommand
	Enrich *EnrichCommand
	Status *StatusCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(version string) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "adaslog"
	parser.LongDescription = "Log driving events with time and location, view them as a list or map, and export them as CSV."

	cmds := &commands{
		Record: &RecordCommand{globals: &globals, version: version},
		List:   &ListCommand{globals: &globals, version: version},
		Map:    &MapCommand{globals: &globals, version: version},
		Export: &ExportCommand{globals: &globals, version: version},
		Enrich: &EnrichCommand{globals: &globals, version: version},
		Status: &StatusCommand{globals: &globals, version: version},
	}

	parser.AddCommand("record", "Record an event", "Record an event of the given type with the current time and, if available, location.", cmds.Record)
	parser.AddCommand("list", "List recorded events", "List all recorded events, most recent first.", cmds.List)
	parser.AddCommand("map", "Render events on a map", "Render geotagged events as GeoJSON markers with a fitted viewport.", cmds.Map)
	parser.AddCommand("export", "Export events as CSV", "Export all recorded events to a CSV file.", cmds.Export)
	parser.AddCommand("enrich", "Add road types to a CSV", "Append the OpenStreetMap road type near each row's coordinates to a CSV file.", cmds.Enrich)
	parser.AddCommand("status", "Show storage and configuration", "Show the database location, event counts and geolocation settings.", cmds.Status)

	return parser, &globals, cmds
}

// Run is the main entry point for the adaslog CLI using os.Args.
func Run(version string) error {
	return RunWithArgs(version, nil)
}

// RunWithArgs parses the given args (or os.Args if nil) and executes the matched subcommand.
func RunWithArgs(version string, args []string) error {
	// Handle --version before parser (go-flags requires a subcommand, but
	// --version is valid without one).
	checkArgs := args
	if checkArgs == nil {
		checkArgs = os.Args[1:]
	}
	for _, arg := range checkArgs {
		if arg == "--version" {
			fmt.Printf("adaslog %s\n", version)
			return nil
		}
		if arg == "--" {
			break
		}
	}

	parser, _, _ := buildParser(version)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}

	if err != nil {
		if flagsErr, ok := err.(*goflags.Error); ok {
			if flagsErr.Type == goflags.ErrHelp {
				return nil
			}
		}
		return err
	}

	return nil
}
