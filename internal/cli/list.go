package cli

import (
	"context"
	"encoding/json"
	"os"

	"github.com/runnerr0/adaslog/internal/render"
	"github.com/runnerr0/adaslog/internal/storage"
)

// Execute implements the go-flags Commander interface for ListCommand.
func (c *ListCommand) Execute(args []string) error {
	_, _, store, cleanup, err := prepare(c.globals)
	if err != nil {
		return err
	}
	defer cleanup()

	return c.executeWithStore(store)
}

// executeWithStore prints the list against a provided store (for testing).
func (c *ListCommand) executeWithStore(store storage.Store) error {
	ctx := context.Background()

	if c.globals != nil && c.globals.JSON {
		events, err := store.Events(ctx)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(events)
	}

	return render.NewList(store, os.Stdout).Render(ctx)
}
