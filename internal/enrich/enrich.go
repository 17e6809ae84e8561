// Package enrich adds an OpenStreetMap road type column to exported CSV
// files by asking the Overpass API which highway is near each point.
package enrich

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/runnerr0/adaslog/internal/config"
	"github.com/runnerr0/adaslog/internal/export"
	"github.com/runnerr0/adaslog/internal/logging"
)

// RoadTypeColumn is the header of the appended column.
const RoadTypeColumn = "RoadType"

// Enricher looks up road types for CSV rows.
type Enricher struct {
	Endpoint     string
	Radii        []int // meters, tried in order
	QueryTimeout int   // seconds, passed to Overpass
	UserAgent    string
	Throttle     time.Duration // pause after each looked-up row
	Missing      string        // value when no highway is found
	Client       *http.Client
	Logger       *slog.Logger
}

// Summary counts what Process did.
type Summary struct {
	Rows    int
	Queried int
	Found   int
}

// FromConfig builds an Enricher from the enrich config section.
func FromConfig(c config.EnrichConfig, log *slog.Logger) *Enricher {
	return &Enricher{
		Endpoint:     c.OverpassURL,
		Radii:        c.Radii,
		QueryTimeout: c.QueryTimeoutS,
		UserAgent:    c.UserAgent,
		Throttle:     time.Duration(c.ThrottleMs) * time.Millisecond,
		Missing:      c.MissingRoadTag,
		Client:       &http.Client{Timeout: time.Duration(c.HTTPTimeoutS) * time.Second},
		Logger:       log,
	}
}

func (e *Enricher) logger() *slog.Logger {
	if e.Logger == nil {
		return logging.Discard()
	}
	return e.Logger
}

// Process reads a CSV document with a header from r and writes it to w
// with a RoadType column appended. Every cell is quoted.
func (e *Enricher) Process(ctx context.Context, r io.Reader, w io.Writer) (Summary, error) {
	var sum Summary

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return sum, fmt.Errorf("empty input")
		}
		return sum, fmt.Errorf("read header: %w", err)
	}

	latIdx, lonIdx := coordinateColumns(header)
	if err := writeRow(w, append(header, RoadTypeColumn)); err != nil {
		return sum, err
	}
	if latIdx < 0 || lonIdx < 0 {
		e.logger().Warn("latitude/longitude columns not found, appending empty road types")
	}

	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return sum, fmt.Errorf("read row %d: %w", sum.Rows+1, err)
		}
		sum.Rows++

		road := ""
		if latIdx >= 0 && lonIdx >= 0 && latIdx < len(fields) && lonIdx < len(fields) {
			lat := strings.TrimSpace(fields[latIdx])
			lon := strings.TrimSpace(fields[lonIdx])
			if lat != "" && lon != "" {
				road = e.RoadType(ctx, lat, lon)
				sum.Queried++
				if road != e.Missing {
					sum.Found++
				}
				if err := sleep(ctx, e.Throttle); err != nil {
					return sum, err
				}
			}
		}

		if err := writeRow(w, append(fields, road)); err != nil {
			return sum, err
		}
	}

	return sum, nil
}

// RoadType returns the highway tag of the first way found around the
// point, trying each radius in turn, or e.Missing.
func (e *Enricher) RoadType(ctx context.Context, lat, lon string) string {
	for _, radius := range e.Radii {
		body, err := e.query(ctx, lat, lon, radius)
		if err != nil {
			e.logger().Debug("overpass query failed", "lat", lat, "lon", lon, "radius", radius, "err", err)
			continue
		}
		if !gjson.ValidBytes(body) {
			continue
		}
		elements := gjson.GetBytes(body, "elements")
		if !elements.IsArray() {
			continue
		}
		var road string
		elements.ForEach(func(_, el gjson.Result) bool {
			hw := el.Get("tags.highway")
			if hw.Exists() {
				road = hw.String()
				return false
			}
			return true
		})
		if road != "" {
			return road
		}
	}
	return e.Missing
}

// Query builds the Overpass QL request for ways with a highway tag.
func Query(lat, lon string, radius, timeoutS int) string {
	return fmt.Sprintf("[out:json][timeout:%d];way(around:%d,%s,%s)[highway];out tags;", timeoutS, radius, lat, lon)
}

func (e *Enricher) query(ctx context.Context, lat, lon string, radius int) ([]byte, error) {
	payload := Query(lat, lon, radius, e.QueryTimeout)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.Endpoint, strings.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if e.UserAgent != "" {
		req.Header.Set("User-Agent", e.UserAgent)
	}

	client := e.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("overpass returned status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 16<<20))
}

// coordinateColumns finds the latitude and longitude columns by name.
func coordinateColumns(header []string) (int, int) {
	latIdx, lonIdx := -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case "latitude", "lat":
			latIdx = i
		case "longitude", "lon", "lng":
			lonIdx = i
		}
	}
	return latIdx, lonIdx
}

func writeRow(w io.Writer, fields []string) error {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = export.QuoteCell(f)
	}
	_, err := io.WriteString(w, strings.Join(quoted, ",")+"\n")
	return err
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// OutputPath is the default output file for input.
func OutputPath(input string) string {
	return input + ".with_roads.csv"
}
