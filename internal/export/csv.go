// Package export writes the stored event sequence as a CSV document.
package export

import (
	"strconv"
	"strings"
	"time"

	"github.com/runnerr0/adaslog/internal/storage"
)

// MIMEType is the content type of exported files.
const MIMEType = "text/csv;charset=utf-8;"

// Header is the first row of every export.
var Header = []string{"Type", "Timestamp", "Latitude", "Longitude"}

// Rows returns the header followed by one row per event. Missing
// coordinates become empty cells.
func Rows(events []storage.Event) [][]string {
	rows := make([][]string, 0, len(events)+1)
	rows = append(rows, Header)
	for _, e := range events {
		lat, lng := "", ""
		if e.Geotagged() {
			lat = formatCoord(*e.Lat)
			lng = formatCoord(*e.Lng)
		}
		rows = append(rows, []string{e.Type, e.Time, lat, lng})
	}
	return rows
}

// Encode renders rows with every cell quoted and embedded quotes doubled.
// Rows are joined by "\n" with no trailing newline.
func Encode(rows [][]string) []byte {
	var b strings.Builder
	for i, row := range rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		for j, cell := range row {
			if j > 0 {
				b.WriteByte(',')
			}
			b.WriteString(QuoteCell(cell))
		}
	}
	return []byte(b.String())
}

// QuoteCell wraps s in double quotes, doubling any it contains.
func QuoteCell(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// Filename is the export name for an export made at t.
func Filename(t time.Time) string {
	stamp := t.UTC().Format("2006-01-02T15:04:05")
	return "adas-events-" + strings.ReplaceAll(stamp, ":", "-") + ".csv"
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
