// Package status holds the latest human-readable status message.
package status

import (
	"fmt"
	"io"
	"sync"
)

const (
	GettingLocation = "Getting location..."
	NoEvents        = "No events to export"
	Exported        = "CSV exported"
)

// Saved is the message set after an event of eventType was stored.
func Saved(eventType string) string {
	return "Saved: " + eventType
}

// SaveFailed is the message set when storing an event failed.
func SaveFailed(eventType string) string {
	return "Save failed: " + eventType
}

// Line keeps only the most recent message. If Out is set, every message
// is also written to it on its own line.
type Line struct {
	Out io.Writer

	mu   sync.Mutex
	last string
}

// NewLine returns a Line echoing to w (nil for silent).
func NewLine(w io.Writer) *Line {
	return &Line{Out: w}
}

// Set replaces the current message.
func (l *Line) Set(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.last = msg
	if l.Out != nil {
		fmt.Fprintln(l.Out, msg)
	}
}

// Text returns the current message.
func (l *Line) Text() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.last
}
