// Package geo acquires one-shot location fixes for recorded events.
//
// A Locator is asked for a fix bounded by Options; every failure mode
// (capability missing, permission refused, timeout, provider error) is an
// error that Classify maps to an Outcome. Callers record the outcome and
// carry on without coordinates.
package geo

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	DefaultMaxCacheAge = 30 * time.Second
	DefaultTimeout     = 8 * time.Second
)

var (
	// ErrUnavailable means the host has no location capability.
	ErrUnavailable = errors.New("geolocation unavailable")
	// ErrDenied means the provider refused to report a position.
	ErrDenied = errors.New("geolocation denied")
	// ErrTimeout means no fix arrived within Options.Timeout.
	ErrTimeout = errors.New("geolocation timed out")
)

// Options bound a single fix request.
type Options struct {
	// MaxCacheAge is how old a previously obtained fix may be and still be
	// returned instead of asking the provider.
	MaxCacheAge time.Duration
	// Timeout bounds the provider call.
	Timeout time.Duration
}

// DefaultOptions returns the stock bounds: 30s cache age, 8s timeout.
func DefaultOptions() Options {
	return Options{MaxCacheAge: DefaultMaxCacheAge, Timeout: DefaultTimeout}
}

// Fix is a single coordinate reading.
type Fix struct {
	Lat float64   `json:"lat"`
	Lng float64   `json:"lng"`
	At  time.Time `json:"at"`
}

// Locator returns a fix or an error explaining why there is none.
type Locator interface {
	Locate(ctx context.Context, opts Options) (Fix, error)
}

// Outcome classifies how a fix request ended.
type Outcome int

const (
	OutcomeFix Outcome = iota
	OutcomeUnavailable
	OutcomeDenied
	OutcomeTimeout
	OutcomeError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFix:
		return "fix"
	case OutcomeUnavailable:
		return "unavailable"
	case OutcomeDenied:
		return "denied"
	case OutcomeTimeout:
		return "timeout"
	default:
		return "error"
	}
}

// Classify maps the error returned by a Locator to an Outcome.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeFix
	case errors.Is(err, ErrUnavailable):
		return OutcomeUnavailable
	case errors.Is(err, ErrDenied):
		return OutcomeDenied
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return OutcomeTimeout
	default:
		return OutcomeError
	}
}

// Result is the outcome of Acquire.
type Result struct {
	Fix     Fix
	Outcome Outcome
	Err     error
}

// OK reports whether a fix was obtained.
func (r Result) OK() bool {
	return r.Outcome == OutcomeFix
}

// Acquire asks l for one fix with opts.Timeout applied to ctx. A nil
// Locator counts as no capability. Acquire never fails: the error, if any,
// is carried in the Result. It returns when ctx ends even if l ignores ctx;
// the abandoned call finishes in the background.
func Acquire(ctx context.Context, l Locator, opts Options) Result {
	if l == nil {
		return Result{Outcome: OutcomeUnavailable, Err: ErrUnavailable}
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	type located struct {
		fix Fix
		err error
	}
	done := make(chan located, 1)
	go func() {
		fix, err := l.Locate(ctx, opts)
		done <- located{fix: fix, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return Result{Outcome: Classify(r.err), Err: r.err}
		}
		return Result{Fix: r.fix, Outcome: OutcomeFix}
	case <-ctx.Done():
		err := ctx.Err()
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return Result{Outcome: Classify(err), Err: err}
	}
}

// LocatorFunc adapts a function to Locator.
type LocatorFunc func(ctx context.Context, opts Options) (Fix, error)

func (f LocatorFunc) Locate(ctx context.Context, opts Options) (Fix, error) {
	return f(ctx, opts)
}
