package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/runnerr0/adaslog/internal/atomicfile"
	"github.com/runnerr0/adaslog/internal/config"
	"github.com/runnerr0/adaslog/internal/render"
	"github.com/runnerr0/adaslog/internal/storage"
)

// mapFile redraws the map and saves the surface to a GeoJSON file.
type mapFile struct {
	m       *render.Map
	surface *render.GeoJSONSurface
	path    string
}

func newMapFile(cfg *config.Config, src render.Source, path string) *mapFile {
	surface := newSurface(cfg)
	return &mapFile{
		m:       render.NewMap(src, surface, cfg.Map.PaddingPx),
		surface: surface,
		path:    path,
	}
}

func (f *mapFile) Render(ctx context.Context) error {
	if err := f.m.Render(ctx); err != nil {
		return err
	}
	var buf bytes.Buffer
	if _, err := f.surface.WriteTo(&buf); err != nil {
		return fmt.Errorf("encode map: %w", err)
	}
	if err := atomicfile.Write(f.path, buf.Bytes()); err != nil {
		return fmt.Errorf("write map: %w", err)
	}
	return nil
}

// Execute implements the go-flags Commander interface for MapCommand.
func (c *MapCommand) Execute(args []string) error {
	cfg, _, store, cleanup, err := prepare(c.globals)
	if err != nil {
		return err
	}
	defer cleanup()

	return c.executeWithStore(store, cfg)
}

// executeWithStore renders the map against a provided store (for testing).
func (c *MapCommand) executeWithStore(store storage.Store, cfg *config.Config) error {
	ctx := context.Background()

	surface := newSurface(cfg)
	if err := render.NewMap(store, surface, cfg.Map.PaddingPx).Render(ctx); err != nil {
		return err
	}
	// Steps net out before clamping, so order on the command line is irrelevant.
	if delta := len(c.ZoomIn) - len(c.ZoomOut); delta != 0 {
		surface.Zoom(delta)
	}

	out := c.Out
	if out == "" {
		out = cfg.Map.OutputFile
	}
	if out == "" || out == "-" {
		_, err := surface.WriteTo(os.Stdout)
		return err
	}

	var buf bytes.Buffer
	if _, err := surface.WriteTo(&buf); err != nil {
		return fmt.Errorf("encode map: %w", err)
	}
	if err := atomicfile.Write(out, buf.Bytes()); err != nil {
		return fmt.Errorf("write map: %w", err)
	}

	view := surface.Viewport()
	if c.globals != nil && c.globals.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{
			"file":    out,
			"markers": len(surface.Markers()),
			"center":  []float64{view.Center.Lon(), view.Center.Lat()},
			"zoom":    view.Zoom,
		})
	}

	fmt.Printf("Wrote %d markers to %s (center %.5f,%.5f zoom %d)\n",
		len(surface.Markers()), out, view.Center.Lat(), view.Center.Lon(), view.Zoom)
	return nil
}
