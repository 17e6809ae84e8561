package render

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/adaslog/internal/storage"
)

// staticSource serves a fixed sequence.
type staticSource struct {
	events []storage.Event
	err    error
}

func (s staticSource) Events(context.Context) ([]storage.Event, error) {
	return s.events, s.err
}

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func TestLine_Geotagged(t *testing.T) {
	e := storage.NewEvent("brake", t0).WithLocation(52.5200081, 13.4049549)
	assert.Equal(t, "brake — 2025-03-01T12:00:00.000Z (lat:52.52001 lng:13.40495)", Line(e))
}

func TestLine_NoGeo(t *testing.T) {
	e := storage.NewEvent("horn", t0)
	assert.Equal(t, "horn — 2025-03-01T12:00:00.000Z (no-geo)", Line(e))
}

func TestLine_ZeroCoordinatesAreGeotagged(t *testing.T) {
	e := storage.NewEvent("brake", t0).WithLocation(0, 0)
	assert.Contains(t, Line(e), "(lat:0.00000 lng:0.00000)")
}

func TestList_MostRecentFirst(t *testing.T) {
	src := staticSource{events: []storage.Event{
		storage.NewEvent("a", t0),
		storage.NewEvent("b", t0.Add(time.Second)),
	}}
	var buf bytes.Buffer

	require.NoError(t, NewList(src, &buf).Render(context.Background()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "b — "))
	assert.True(t, strings.HasPrefix(lines[1], "a — "))
}

func TestList_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewList(staticSource{}, &buf).Render(context.Background()))
	assert.Empty(t, buf.String())
}

func TestList_SourceError(t *testing.T) {
	var buf bytes.Buffer
	err := NewList(staticSource{err: errors.New("disk")}, &buf).Render(context.Background())
	assert.Error(t, err)
}

func TestLines_DoesNotReorderInput(t *testing.T) {
	events := []storage.Event{storage.NewEvent("a", t0), storage.NewEvent("b", t0)}
	_ = Lines(events)
	assert.Equal(t, "a", events[0].Type)
}

func newSurface() *GeoJSONSurface {
	return NewGeoJSONSurface(SurfaceOptions{
		Center: orb.Point{-0.09, 51.505},
		Zoom:   13,
		Width:  800,
		Height: 500,
	})
}

func TestMap_SkipsEventsWithoutLocation(t *testing.T) {
	surface := newSurface()
	src := staticSource{events: []storage.Event{
		storage.NewEvent("horn", t0),
		storage.NewEvent("brake", t0).WithLocation(48.1, 11.5),
	}}

	require.NoError(t, NewMap(src, surface, DefaultPaddingPx).Render(context.Background()))

	markers := surface.Markers()
	require.Len(t, markers, 1)
	p := markers[0].Geometry.(orb.Point)
	assert.Equal(t, 11.5, p.Lon())
	assert.Equal(t, 48.1, p.Lat())
	assert.Equal(t, "<b>brake</b><br>2025-03-01T12:00:00.000Z", markers[0].Properties["popup"])
}

func TestMap_NoMarkersLeavesViewport(t *testing.T) {
	surface := newSurface()
	before := surface.Viewport()

	src := staticSource{events: []storage.Event{storage.NewEvent("horn", t0)}}
	require.NoError(t, NewMap(src, surface, DefaultPaddingPx).Render(context.Background()))

	assert.Empty(t, surface.Markers())
	assert.Equal(t, before, surface.Viewport())
}

func TestMap_ClearsPreviousMarkers(t *testing.T) {
	surface := newSurface()
	r := NewMap(staticSource{events: []storage.Event{
		storage.NewEvent("a", t0).WithLocation(1, 1),
		storage.NewEvent("b", t0).WithLocation(2, 2),
	}}, surface, DefaultPaddingPx)
	require.NoError(t, r.Render(context.Background()))
	require.Len(t, surface.Markers(), 2)

	r.Source = staticSource{events: []storage.Event{storage.NewEvent("c", t0).WithLocation(3, 3)}}
	require.NoError(t, r.Render(context.Background()))
	assert.Len(t, surface.Markers(), 1)
}

func TestMap_FitsBoundsAroundMarkers(t *testing.T) {
	surface := newSurface()
	src := staticSource{events: []storage.Event{
		storage.NewEvent("a", t0).WithLocation(48.0, 11.0),
		storage.NewEvent("b", t0).WithLocation(48.2, 11.4),
	}}

	require.NoError(t, NewMap(src, surface, DefaultPaddingPx).Render(context.Background()))

	view := surface.Viewport()
	assert.InDelta(t, 11.2, view.Center.Lon(), 1e-6)
	assert.InDelta(t, 48.1, view.Center.Lat(), 0.01)
	assert.Equal(t, 11, view.Zoom)
}

func TestMap_SingleMarkerZoomsToMax(t *testing.T) {
	surface := newSurface()
	src := staticSource{events: []storage.Event{storage.NewEvent("a", t0).WithLocation(10, 20)}}

	require.NoError(t, NewMap(src, surface, DefaultPaddingPx).Render(context.Background()))

	view := surface.Viewport()
	assert.Equal(t, MaxZoom, view.Zoom)
	assert.InDelta(t, 20, view.Center.Lon(), 1e-9)
	assert.InDelta(t, 10, view.Center.Lat(), 1e-9)
}

func TestGeoJSONSurface_ZoomClamps(t *testing.T) {
	surface := newSurface()

	surface.Zoom(1)
	assert.Equal(t, 14, surface.Viewport().Zoom)
	surface.Zoom(-1)
	surface.Zoom(-1)
	assert.Equal(t, 12, surface.Viewport().Zoom)

	surface.Zoom(100)
	assert.Equal(t, MaxZoom, surface.Viewport().Zoom)
	surface.Zoom(-100)
	assert.Equal(t, MinZoom, surface.Viewport().Zoom)
}

func TestGeoJSONSurface_WriteTo(t *testing.T) {
	surface := NewGeoJSONSurface(SurfaceOptions{
		Center:  orb.Point{-0.09, 51.505},
		Zoom:    13,
		Width:   800,
		Height:  500,
		TileURL: "https://tile.example/{z}/{x}/{y}.png",
	})
	surface.AddMarker(orb.Point{11, 48}, "a")
	surface.AddMarker(orb.Point{12, 49}, "b")

	var buf bytes.Buffer
	_, err := surface.WriteTo(&buf)
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "FeatureCollection", doc["type"])
	assert.Len(t, doc["features"], 2)
	assert.Equal(t, []interface{}{11.0, 48.0, 12.0, 49.0}, doc["bbox"])
	assert.Equal(t, "https://tile.example/{z}/{x}/{y}.png", doc["tiles"])

	viewport := doc["viewport"].(map[string]interface{})
	assert.Equal(t, 13.0, viewport["zoom"])
}

func TestGeoJSONSurface_WriteToEmpty(t *testing.T) {
	var buf bytes.Buffer
	_, err := newSurface().WriteTo(&buf)
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Empty(t, doc["features"])
	assert.NotContains(t, doc, "bbox")
}

func TestBoundsZoom_WholeWorld(t *testing.T) {
	assert.Equal(t, 1, boundsZoom(1, 0.5, 760, 460))
	assert.Equal(t, MinZoom, boundsZoom(1, 1, 100, 100))
}

func TestProjectRoundTrip(t *testing.T) {
	p := orb.Point{13.405, 52.52}
	x, y := project(p)
	back := unproject(x, y)
	assert.InDelta(t, p.Lon(), back.Lon(), 1e-9)
	assert.InDelta(t, p.Lat(), back.Lat(), 1e-9)
}
