package storage

import "time"

// TimeLayout is the ISO-8601 layout used for Event.Time: UTC with
// millisecond precision.
const TimeLayout = "2006-01-02T15:04:05.000Z"

// Event is one logged occurrence: a type, the instant it was recorded and
// optional coordinates. Lat and Lng are both set or both nil.
type Event struct {
	Type string   `json:"type"`
	Time string   `json:"time"`
	Lat  *float64 `json:"lat"`
	Lng  *float64 `json:"lng"`
}

// NewEvent builds a record without coordinates stamped with t.
func NewEvent(eventType string, t time.Time) Event {
	return Event{Type: eventType, Time: FormatTime(t)}
}

// WithLocation returns a copy of e carrying lat and lng.
func (e Event) WithLocation(lat, lng float64) Event {
	e.Lat = &lat
	e.Lng = &lng
	return e
}

// Geotagged reports whether the record carries coordinates.
func (e Event) Geotagged() bool {
	return e.Lat != nil && e.Lng != nil
}

// FormatTime formats t in TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// LoadOutcome describes how a Load resolved.
type LoadOutcome int

const (
	LoadOK        LoadOutcome = iota
	LoadMissing               // key absent, empty sequence
	LoadMalformed             // stored value undecodable, empty sequence
)

func (o LoadOutcome) String() string {
	switch o {
	case LoadOK:
		return "ok"
	case LoadMissing:
		return "missing"
	case LoadMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// LoadResult is the decoded sequence plus how it was obtained.
type LoadResult struct {
	Events  []Event
	Outcome LoadOutcome
	Err     error // decode error when Outcome is LoadMalformed
}

// Stats holds aggregate figures about the stored sequence.
type Stats struct {
	TotalEvents     int64
	GeotaggedEvents int64
	OldestEvent     time.Time
	NewestEvent     time.Time
	UpdatedAt       time.Time
}
