package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/runnerr0/adaslog/internal/config"
	"github.com/runnerr0/adaslog/internal/enrich"
)

// Execute implements the go-flags Commander interface for EnrichCommand.
func (c *EnrichCommand) Execute(args []string) error {
	cfg, err := loadConfig(c.globals)
	if err != nil {
		return err
	}
	return c.executeWithConfig(cfg, newLogger(cfg, c.globals))
}

// executeWithConfig runs the enrichment with a provided config (for testing).
func (c *EnrichCommand) executeWithConfig(cfg *config.Config, log *slog.Logger) error {
	in := c.Args.Input
	out := c.Args.Output
	if out == "" {
		out = enrich.OutputPath(in)
	}

	src, err := os.Open(in)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer dst.Close()

	e := enrich.FromConfig(cfg.Enrich, log)
	if c.Throttle >= 0 {
		e.Throttle = time.Duration(c.Throttle) * time.Millisecond
	}

	sum, err := e.Process(context.Background(), src, dst)
	if err != nil {
		return fmt.Errorf("enrich %s: %w", in, err)
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{
			"output":  out,
			"rows":    sum.Rows,
			"queried": sum.Queried,
			"found":   sum.Found,
		})
	}

	fmt.Printf("Wrote: %s\n", out)
	return nil
}
