package geo

import (
	"fmt"

	"github.com/runnerr0/adaslog/internal/config"
)

// FromConfig builds the configured provider wrapped in a fix cache. A
// non-nil store carries the cached fix between runs.
func FromConfig(c config.GeolocationConfig, store FixStore) (Locator, error) {
	var p Locator
	switch c.Provider {
	case "", "none":
		return None{}, nil
	case "static":
		p = Static{Lat: c.StaticLat, Lng: c.StaticLng}
	case "http":
		if c.HTTPURL == "" {
			return nil, fmt.Errorf("http geolocation provider needs a URL")
		}
		p = &HTTP{
			URL:          c.HTTPURL,
			LatPath:      c.HTTPLatPath,
			LngPath:      c.HTTPLngPath,
			SuccessPath:  c.HTTPSuccessPath,
			SuccessValue: c.HTTPSuccessValue,
		}
	default:
		return nil, fmt.Errorf("unknown geolocation provider %q", c.Provider)
	}
	cached := NewCached(p)
	cached.Store = store
	return cached, nil
}

// OptionsFromConfig converts the configured bounds.
func OptionsFromConfig(c config.GeolocationConfig) Options {
	return Options{MaxCacheAge: c.MaxCacheAge(), Timeout: c.Timeout()}
}
