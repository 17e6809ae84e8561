package render

import (
	"context"
	"fmt"
	"html"

	"github.com/paulmach/orb"

	"github.com/runnerr0/adaslog/internal/storage"
)

// DefaultPaddingPx is the viewport padding used when fitting markers.
const DefaultPaddingPx = 20

// Viewport is the visible map area.
type Viewport struct {
	Center orb.Point
	Zoom   int
}

// MapSurface is a drawable map: point markers plus a viewport.
type MapSurface interface {
	ClearMarkers()
	AddMarker(p orb.Point, popup string)
	FitBounds(b orb.Bound, paddingPx int)
	Zoom(delta int)
	Viewport() Viewport
}

// Map draws a marker for every geotagged event and fits the viewport to
// them. Events without coordinates are skipped.
type Map struct {
	Source    Source
	Surface   MapSurface
	PaddingPx int
}

// NewMap returns a Map renderer drawing onto surface.
func NewMap(src Source, surface MapSurface, paddingPx int) *Map {
	return &Map{Source: src, Surface: surface, PaddingPx: paddingPx}
}

// Render redraws all markers. With no geotagged events the viewport is
// left where it was.
func (m *Map) Render(ctx context.Context) error {
	events, err := m.Source.Events(ctx)
	if err != nil {
		return fmt.Errorf("load events: %w", err)
	}

	m.Surface.ClearMarkers()

	var (
		bound orb.Bound
		drawn int
	)
	for _, e := range events {
		if !e.Geotagged() {
			continue
		}
		p := orb.Point{*e.Lng, *e.Lat}
		m.Surface.AddMarker(p, Popup(e))
		if drawn == 0 {
			bound = p.Bound()
		} else {
			bound = bound.Extend(p)
		}
		drawn++
	}

	if drawn > 0 {
		m.Surface.FitBounds(bound, m.PaddingPx)
	}
	return nil
}

// Popup returns the marker popup markup for e.
func Popup(e storage.Event) string {
	return fmt.Sprintf("<b>%s</b><br>%s", html.EscapeString(e.Type), html.EscapeString(e.Time))
}
