// Package geocode resolves free-text addresses to coordinates. Nominatim is
// the default provider; Mapbox is available when a token is configured. Both
// sit behind the Geocoder interface and can be wrapped in a CachedGeocoder.
package geocode

import (
	"context"
	"time"

	"github.com/fd-guo/ChatGeoPT/internal/observability"
)

// Location is one geocoding match.
type Location struct {
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	DisplayName string  `json:"display_name"`
}

// Geocoder maps an address string to a Location.
type Geocoder interface {
	// ForwardGeocode returns the best match for query. found is false when
	// the provider has no match; that is not an error. Transport and status
	// failures are returned as *upstream.Error.
	ForwardGeocode(ctx context.Context, query string) (loc Location, found bool, err error)
}

// observe records one provider call.
func observe(m *observability.Metrics, start time.Time, found bool, err error) {
	if m == nil {
		return
	}
	m.GeocodeAPIDuration.Observe(time.Since(start).Seconds())
	switch {
	case err != nil:
		m.GeocodeRequests.WithLabelValues("error").Inc()
	case found:
		m.GeocodeRequests.WithLabelValues("found").Inc()
	default:
		m.GeocodeRequests.WithLabelValues("miss").Inc()
	}
}
