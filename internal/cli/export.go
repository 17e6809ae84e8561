package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/runnerr0/adaslog/internal/config"
	"github.com/runnerr0/adaslog/internal/export"
	"github.com/runnerr0/adaslog/internal/status"
	"github.com/runnerr0/adaslog/internal/storage"
)

// Execute implements the go-flags Commander interface for ExportCommand.
func (c *ExportCommand) Execute(args []string) error {
	cfg, log, store, cleanup, err := prepare(c.globals)
	if err != nil {
		return err
	}
	defer cleanup()

	return c.executeWithStore(store, cfg, log)
}

// executeWithStore runs the export against a provided store (for testing).
func (c *ExportCommand) executeWithStore(store storage.Store, cfg *config.Config, log *slog.Logger) error {
	dir := c.Dir
	if dir == "" {
		dir = cfg.Export.Dir
	}
	dir, err := config.ExpandPath(dir)
	if err != nil {
		return err
	}

	jsonOut := c.globals != nil && c.globals.JSON
	line := status.NewLine(os.Stdout)
	if jsonOut {
		line = status.NewLine(nil)
	}

	x := &export.Exporter{
		Source: store,
		Sink:   export.DirSink{Dir: dir},
		Status: line,
		Logger: log,
	}

	res, err := x.Export(context.Background())
	if err != nil && !errors.Is(err, export.ErrNoEvents) {
		return err
	}

	if jsonOut {
		out := map[string]interface{}{
			"exported": err == nil,
			"file":     res.Path,
			"rows":     res.Rows,
			"status":   line.Text(),
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if err == nil {
		fmt.Printf("Wrote: %s\n", res.Path)
	}
	return nil
}
