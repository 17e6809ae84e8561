package render

import (
	"context"
	"fmt"
	"io"

	"github.com/runnerr0/adaslog/internal/storage"
)

// List writes one line per event, most recent first.
type List struct {
	Source Source
	Out    io.Writer
}

// NewList returns a List renderer reading from src and writing to out.
func NewList(src Source, out io.Writer) *List {
	return &List{Source: src, Out: out}
}

func (l *List) Render(ctx context.Context) error {
	events, err := l.Source.Events(ctx)
	if err != nil {
		return fmt.Errorf("load events: %w", err)
	}
	for _, line := range Lines(events) {
		if _, err := fmt.Fprintln(l.Out, line); err != nil {
			return err
		}
	}
	return nil
}

// Lines formats events in reverse insertion order.
func Lines(events []storage.Event) []string {
	lines := make([]string, 0, len(events))
	for i := len(events) - 1; i >= 0; i-- {
		lines = append(lines, Line(events[i]))
	}
	return lines
}

// Line formats a single event.
func Line(e storage.Event) string {
	if e.Geotagged() {
		return fmt.Sprintf("%s — %s (lat:%.5f lng:%.5f)", e.Type, e.Time, *e.Lat, *e.Lng)
	}
	return fmt.Sprintf("%s — %s (no-geo)", e.Type, e.Time)
}
