package render

import (
	"encoding/json"
	"io"
	"math"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

const (
	tileSize = 256
	MinZoom  = 0
	MaxZoom  = 19
)

// SurfaceOptions configure a GeoJSONSurface.
type SurfaceOptions struct {
	Center  orb.Point // initial center, lng/lat
	Zoom    int       // initial zoom
	Width   int       // viewport size in pixels
	Height  int
	TileURL string // XYZ template for viewers
}

// GeoJSONSurface is a MapSurface kept as a GeoJSON FeatureCollection. The
// viewport follows Web Mercator slippy-map math with 256px tiles.
type GeoJSONSurface struct {
	mu      sync.Mutex
	fc      *geojson.FeatureCollection
	view    Viewport
	width   int
	height  int
	tileURL string
}

// NewGeoJSONSurface returns an empty surface showing opts.Center.
func NewGeoJSONSurface(opts SurfaceOptions) *GeoJSONSurface {
	return &GeoJSONSurface{
		fc:      geojson.NewFeatureCollection(),
		view:    Viewport{Center: opts.Center, Zoom: clampZoom(opts.Zoom)},
		width:   opts.Width,
		height:  opts.Height,
		tileURL: opts.TileURL,
	}
}

func (s *GeoJSONSurface) ClearMarkers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fc = geojson.NewFeatureCollection()
}

func (s *GeoJSONSurface) AddMarker(p orb.Point, popup string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := geojson.NewFeature(p)
	f.Properties["popup"] = popup
	s.fc.Append(f)
}

// FitBounds centers the viewport on b and picks the largest zoom at which
// b fits inside the viewport minus paddingPx on every side.
func (s *GeoJSONSurface) FitBounds(b orb.Bound, paddingPx int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	x1, y1 := project(b.Min)
	x2, y2 := project(b.Max)

	s.view.Center = unproject((x1+x2)/2, (y1+y2)/2)
	s.view.Zoom = boundsZoom(math.Abs(x2-x1), math.Abs(y2-y1), s.width-2*paddingPx, s.height-2*paddingPx)
}

func (s *GeoJSONSurface) Zoom(delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view.Zoom = clampZoom(s.view.Zoom + delta)
}

func (s *GeoJSONSurface) Viewport() Viewport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Markers returns the drawn marker features.
func (s *GeoJSONSurface) Markers() []*geojson.Feature {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*geojson.Feature, len(s.fc.Features))
	copy(out, s.fc.Features)
	return out
}

// WriteTo writes the markers as a FeatureCollection with a bbox. The
// viewport and tile template are carried as foreign members.
func (s *GeoJSONSurface) WriteTo(w io.Writer) (int64, error) {
	s.mu.Lock()
	fc := geojson.NewFeatureCollection()
	fc.Features = append(fc.Features, s.fc.Features...)
	if len(fc.Features) > 0 {
		var mp orb.MultiPoint
		for _, f := range fc.Features {
			mp = append(mp, f.Geometry.(orb.Point))
		}
		fc.BBox = geojson.NewBBox(mp.Bound())
	}
	fc.ExtraMembers = geojson.Properties{
		"viewport": map[string]interface{}{
			"center": []float64{s.view.Center.Lon(), s.view.Center.Lat()},
			"zoom":   s.view.Zoom,
			"width":  s.width,
			"height": s.height,
		},
	}
	if s.tileURL != "" {
		fc.ExtraMembers["tiles"] = s.tileURL
	}
	s.mu.Unlock()

	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return 0, err
	}
	data = append(data, '\n')
	n, err := w.Write(data)
	return int64(n), err
}

func clampZoom(z int) int {
	if z < MinZoom {
		return MinZoom
	}
	if z > MaxZoom {
		return MaxZoom
	}
	return z
}

// project maps lng/lat to normalized Web Mercator coordinates in [0,1].
func project(p orb.Point) (float64, float64) {
	x := (p.Lon() + 180) / 360
	sin := math.Sin(p.Lat() * math.Pi / 180)
	sin = math.Max(math.Min(sin, 0.9999), -0.9999)
	y := 0.5 - math.Log((1+sin)/(1-sin))/(4*math.Pi)
	return x, y
}

func unproject(x, y float64) orb.Point {
	lng := x*360 - 180
	lat := math.Atan(math.Sinh(math.Pi*(1-2*y))) * 180 / math.Pi
	return orb.Point{lng, lat}
}

// boundsZoom returns the largest zoom at which a span of dx by dy
// normalized units fits in availW by availH pixels.
func boundsZoom(dx, dy float64, availW, availH int) int {
	if availW < 1 {
		availW = 1
	}
	if availH < 1 {
		availH = 1
	}

	z := math.Inf(1)
	if dx > 0 {
		z = math.Min(z, math.Log2(float64(availW)/(tileSize*dx)))
	}
	if dy > 0 {
		z = math.Min(z, math.Log2(float64(availH)/(tileSize*dy)))
	}
	if math.IsInf(z, 1) {
		return MaxZoom
	}
	return clampZoom(int(math.Floor(z)))
}
