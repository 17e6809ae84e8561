package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/tidwall/gjson"
)

// None is a Locator for hosts without a location capability.
type None struct{}

func (None) Locate(context.Context, Options) (Fix, error) {
	return Fix{}, ErrUnavailable
}

// Static always reports the same coordinate.
type Static struct {
	Lat, Lng float64
	Now      func() time.Time
}

func (s Static) Locate(ctx context.Context, _ Options) (Fix, error) {
	if err := ctx.Err(); err != nil {
		return Fix{}, err
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	return Fix{Lat: s.Lat, Lng: s.Lng, At: now()}, nil
}

// HTTP asks a JSON endpoint for the current position. LatPath and LngPath
// are gjson paths into the response body. When SuccessPath is set the
// value found there must equal SuccessValue, otherwise the request counts
// as denied.
type HTTP struct {
	URL          string
	LatPath      string
	LngPath      string
	SuccessPath  string
	SuccessValue string
	Client       *http.Client
}

func (h *HTTP) Locate(ctx context.Context, _ Options) (Fix, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL, nil)
	if err != nil {
		return Fix{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return Fix{}, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return Fix{}, fmt.Errorf("request position: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return Fix{}, fmt.Errorf("%w: status %d", ErrDenied, resp.StatusCode)
	default:
		return Fix{}, fmt.Errorf("position endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Fix{}, fmt.Errorf("read position: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return Fix{}, fmt.Errorf("position response is not JSON")
	}

	if h.SuccessPath != "" {
		if got := gjson.GetBytes(body, h.SuccessPath).String(); got != h.SuccessValue {
			return Fix{}, fmt.Errorf("%w: %s=%q", ErrDenied, h.SuccessPath, got)
		}
	}

	lat := gjson.GetBytes(body, h.LatPath)
	lng := gjson.GetBytes(body, h.LngPath)
	if lat.Type != gjson.Number || lng.Type != gjson.Number {
		return Fix{}, fmt.Errorf("position response lacks numeric %s/%s", h.LatPath, h.LngPath)
	}

	return Fix{Lat: lat.Float(), Lng: lng.Float(), At: time.Now()}, nil
}

// Cached reuses the last fix from Provider while it is younger than
// Options.MaxCacheAge. A zero MaxCacheAge always asks the provider. With a
// Store the last fix survives between processes; without one it only
// lives as long as the Cached value.
type Cached struct {
	Provider Locator
	Store    FixStore
	Now      func() time.Time

	mu     sync.Mutex
	last   *Fix
	loaded bool
}

// NewCached wraps p with a fix cache.
func NewCached(p Locator) *Cached {
	return &Cached{Provider: p}
}

func (c *Cached) Locate(ctx context.Context, opts Options) (Fix, error) {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}

	c.mu.Lock()
	if c.last == nil && c.Store != nil && !c.loaded {
		c.loaded = true
		if fix, ok, err := c.Store.LoadFix(ctx); err == nil && ok {
			c.last = &fix
		}
	}
	if c.last != nil && opts.MaxCacheAge > 0 && now().Sub(c.last.At) <= opts.MaxCacheAge {
		fix := *c.last
		c.mu.Unlock()
		return fix, nil
	}
	c.mu.Unlock()

	fix, err := c.Provider.Locate(ctx, opts)
	if err != nil {
		return Fix{}, err
	}
	if fix.At.IsZero() {
		fix.At = now()
	}

	c.mu.Lock()
	c.last = &fix
	c.mu.Unlock()

	if c.Store != nil {
		// A failed write only costs a provider call next time.
		_ = c.Store.SaveFix(ctx, fix)
	}

	return fix, nil
}

// FixStore keeps the most recent fix between processes.
type FixStore interface {
	LoadFix(ctx context.Context) (Fix, bool, error)
	SaveFix(ctx context.Context, fix Fix) error
}

// KV is a string-keyed byte store such as the storage kv table.
type KV interface {
	GetValue(ctx context.Context, key string) ([]byte, bool, error)
	PutValue(ctx context.Context, key string, value []byte) error
}

// KVFixStore keeps the fix as JSON under Key.
type KVFixStore struct {
	KV  KV
	Key string
}

// LoadFix returns the stored fix. An unreadable value counts as absent.
func (s KVFixStore) LoadFix(ctx context.Context) (Fix, bool, error) {
	raw, ok, err := s.KV.GetValue(ctx, s.Key)
	if err != nil || !ok {
		return Fix{}, false, err
	}
	var fix Fix
	if err := json.Unmarshal(raw, &fix); err != nil || fix.At.IsZero() {
		return Fix{}, false, nil
	}
	return fix, true, nil
}

func (s KVFixStore) SaveFix(ctx context.Context, fix Fix) error {
	data, err := json.Marshal(fix)
	if err != nil {
		return fmt.Errorf("encode fix: %w", err)
	}
	return s.KV.PutValue(ctx, s.Key, data)
}
