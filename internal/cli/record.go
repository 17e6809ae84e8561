package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/runnerr0/adaslog/internal/config"
	"github.com/runnerr0/adaslog/internal/geo"
	"github.com/runnerr0/adaslog/internal/recorder"
	"github.com/runnerr0/adaslog/internal/render"
	"github.com/runnerr0/adaslog/internal/status"
	"github.com/runnerr0/adaslog/internal/storage"
)

// Execute implements the go-flags Commander interface for RecordCommand.
func (c *RecordCommand) Execute(args []string) error {
	cfg, log, store, cleanup, err := prepare(c.globals)
	if err != nil {
		return err
	}
	defer cleanup()

	return c.executeWithStore(store, cfg, log)
}

// eventType returns the requested type from --type or the positional arg.
func (c *RecordCommand) eventType() string {
	if c.Type != "" {
		return strings.TrimSpace(c.Type)
	}
	return strings.TrimSpace(c.Args.Type)
}

// executeWithStore runs the record logic against a provided store (used by tests).
func (c *RecordCommand) executeWithStore(store storage.Store, cfg *config.Config, log *slog.Logger) error {
	eventType := c.eventType()
	if eventType == "" {
		return fmt.Errorf("an event type is required, e.g. one of: %s", strings.Join(cfg.Events.Types, ", "))
	}

	locator := c.locator
	if locator == nil {
		var err error
		locator, err = geo.FromConfig(cfg.Geolocation, geo.KVFixStore{KV: store, Key: storage.LastFixKey})
		if err != nil {
			return err
		}
	}

	jsonOut := c.globals != nil && c.globals.JSON

	line := status.NewLine(os.Stdout)
	var renderers []render.Renderer
	if jsonOut {
		line = status.NewLine(nil)
	} else {
		renderers = append(renderers, render.NewList(store, os.Stdout))
	}
	if cfg.Map.OutputFile != "" {
		renderers = append(renderers, newMapFile(cfg, store, cfg.Map.OutputFile))
	}

	rec := recorder.New(recorder.Config{
		Store:     store,
		Locator:   locator,
		Options:   geo.OptionsFromConfig(cfg.Geolocation),
		Renderers: renderers,
		Status:    line,
		Logger:    log,
	})

	res, err := rec.Record(context.Background(), eventType)
	if err != nil {
		return fmt.Errorf("recording %s: %w", eventType, err)
	}

	if jsonOut {
		out := map[string]interface{}{
			"event":  res.Event,
			"geo":    res.Geo.Outcome.String(),
			"count":  res.Count,
			"status": line.Text(),
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	return nil
}
