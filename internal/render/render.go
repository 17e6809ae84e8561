// Package render draws the stored event sequence onto display surfaces:
// a text list and a map. Every Render call is a full redraw from the
// store; nothing is diffed.
package render

import (
	"context"

	"github.com/runnerr0/adaslog/internal/storage"
)

// Source supplies the current event sequence.
type Source interface {
	Events(ctx context.Context) ([]storage.Event, error)
}

// Renderer redraws one display surface from its Source.
type Renderer interface {
	Render(ctx context.Context) error
}
