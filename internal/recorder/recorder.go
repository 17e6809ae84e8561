// Package recorder turns a requested event type into a stored record:
// stamp the time, try for a location fix, append to the store, redraw.
package recorder

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/runnerr0/adaslog/internal/geo"
	"github.com/runnerr0/adaslog/internal/logging"
	"github.com/runnerr0/adaslog/internal/render"
	"github.com/runnerr0/adaslog/internal/status"
	"github.com/runnerr0/adaslog/internal/storage"
)

// EventStore is the part of storage.Store the recorder writes through.
type EventStore interface {
	Load(ctx context.Context) (storage.LoadResult, error)
	Save(ctx context.Context, events []storage.Event) error
}

// Config wires a Recorder. Store is required; everything else has a
// usable zero value.
type Config struct {
	Store     EventStore
	Locator   geo.Locator
	Options   geo.Options
	Renderers []render.Renderer
	Status    *status.Line
	Now       func() time.Time
	Logger    *slog.Logger
}

// Recorder appends events to its store. Appends from one Recorder are
// serialized, so concurrent Record calls never overwrite each other.
type Recorder struct {
	store     EventStore
	locator   geo.Locator
	opts      geo.Options
	renderers []render.Renderer
	status    *status.Line
	now       func() time.Time
	log       *slog.Logger

	mu sync.Mutex
}

// Result describes one completed recording.
type Result struct {
	Event storage.Event
	Geo   geo.Result
	Load  storage.LoadOutcome
	Count int // sequence length after the append
}

// New builds a Recorder from cfg.
func New(cfg Config) *Recorder {
	r := &Recorder{
		store:     cfg.Store,
		locator:   cfg.Locator,
		opts:      cfg.Options,
		renderers: cfg.Renderers,
		status:    cfg.Status,
		now:       cfg.Now,
		log:       cfg.Logger,
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.log == nil {
		r.log = logging.Discard()
	}
	if r.status == nil {
		r.status = status.NewLine(nil)
	}
	if r.opts == (geo.Options{}) {
		r.opts = geo.DefaultOptions()
	}
	return r
}

// Record stores one event of eventType. The timestamp is taken before the
// location request. A missing fix is not an error; only a store failure is.
func (r *Recorder) Record(ctx context.Context, eventType string) (Result, error) {
	r.status.Set(status.GettingLocation)

	base := storage.NewEvent(eventType, r.now())

	fix := geo.Acquire(ctx, r.locator, r.opts)
	event := base
	if fix.OK() {
		event = base.WithLocation(fix.Fix.Lat, fix.Fix.Lng)
	} else {
		r.log.Debug("no location for event", "type", eventType, "outcome", fix.Outcome.String(), "err", fix.Err)
	}

	res := Result{Event: event, Geo: fix}

	count, loadOutcome, err := r.appendEvent(ctx, event)
	if err != nil {
		r.status.Set(status.SaveFailed(eventType))
		return res, err
	}
	res.Count = count
	res.Load = loadOutcome

	for _, rd := range r.renderers {
		if err := rd.Render(ctx); err != nil {
			r.log.Warn("render after record failed", "type", eventType, "err", err)
		}
	}

	r.log.Info("event recorded", "type", eventType, "time", event.Time, "geo", fix.Outcome.String(), "count", count)
	r.status.Set(status.Saved(eventType))
	return res, nil
}

// RecordAsync runs Record in a goroutine and delivers its result once.
func (r *Recorder) RecordAsync(ctx context.Context, eventType string) <-chan Completion {
	ch := make(chan Completion, 1)
	go func() {
		res, err := r.Record(ctx, eventType)
		ch <- Completion{Result: res, Err: err}
		close(ch)
	}()
	return ch
}

// Completion is what RecordAsync delivers.
type Completion struct {
	Result Result
	Err    error
}

func (r *Recorder) appendEvent(ctx context.Context, event storage.Event) (int, storage.LoadOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	loaded, err := r.store.Load(ctx)
	if err != nil {
		return 0, loaded.Outcome, fmt.Errorf("load events: %w", err)
	}
	if loaded.Outcome == storage.LoadMalformed {
		r.log.Warn("stored events unreadable, starting a new sequence", "err", loaded.Err)
	}

	events := append(loaded.Events, event)
	if err := r.store.Save(ctx, events); err != nil {
		return 0, loaded.Outcome, fmt.Errorf("save events: %w", err)
	}
	return len(events), loaded.Outcome, nil
}
