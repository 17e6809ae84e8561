package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/runnerr0/adaslog/internal/atomicfile"
	"github.com/runnerr0/adaslog/internal/logging"
	"github.com/runnerr0/adaslog/internal/render"
	"github.com/runnerr0/adaslog/internal/status"
)

// ErrNoEvents is returned when there is nothing to export.
var ErrNoEvents = errors.New("no events to export")

// Sink receives a finished export and returns where it ended up.
type Sink interface {
	Save(ctx context.Context, filename, mimeType string, data []byte) (string, error)
}

// DirSink writes exports into Dir and returns the written path.
type DirSink struct {
	Dir string
}

func (d DirSink) Save(ctx context.Context, filename, _ string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path := filepath.Join(d.Dir, filename)
	if err := atomicfile.Write(path, data); err != nil {
		return "", fmt.Errorf("save export: %w", err)
	}
	return path, nil
}

// Exporter reads the whole sequence and hands a CSV document to its Sink.
type Exporter struct {
	Source render.Source
	Sink   Sink
	Status *status.Line
	Now    func() time.Time
	Logger *slog.Logger
}

// Result describes a completed export.
type Result struct {
	Filename string
	Path     string
	Rows     int // data rows, header excluded
	Data     []byte
}

// Export writes the CSV. With an empty sequence no file is produced and
// ErrNoEvents is returned.
func (x *Exporter) Export(ctx context.Context) (Result, error) {
	log := x.Logger
	if log == nil {
		log = logging.Discard()
	}
	line := x.Status
	if line == nil {
		line = status.NewLine(nil)
	}
	now := x.Now
	if now == nil {
		now = time.Now
	}

	events, err := x.Source.Events(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("load events: %w", err)
	}
	if len(events) == 0 {
		line.Set(status.NoEvents)
		return Result{}, ErrNoEvents
	}

	data := Encode(Rows(events))
	name := Filename(now())

	path, err := x.Sink.Save(ctx, name, MIMEType, data)
	if err != nil {
		return Result{}, err
	}

	log.Info("events exported", "file", path, "rows", len(events))
	line.Set(status.Exported)
	return Result{Filename: name, Path: path, Rows: len(events), Data: data}, nil
}
