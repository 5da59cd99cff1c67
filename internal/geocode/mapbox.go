package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/fd-guo/ChatGeoPT/internal/observability"
	"github.com/fd-guo/ChatGeoPT/internal/upstream"
)

// MapboxClient implements Geocoder using the Mapbox Geocoding API.
type MapboxClient struct {
	token      string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewMapboxClient creates a Mapbox geocoding client.
func NewMapboxClient(token string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *MapboxClient {
	return &MapboxClient{
		token: token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: "https://api.mapbox.com/geocoding/v5/mapbox.places",
		metrics: metrics,
		logger:  logger,
	}
}

// ForwardGeocode converts a free-text address to coordinates.
func (c *MapboxClient) ForwardGeocode(ctx context.Context, query string) (loc Location, found bool, err error) {
	start := time.Now()
	defer func() { observe(c.metrics, start, found, err) }()

	u := fmt.Sprintf("%s/%s.json", c.baseURL, url.PathEscape(query))
	params := url.Values{
		"access_token": {c.token},
		"limit":        {"1"},
		"types":        {"address,street,poi,place,locality"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u+"?"+params.Encode(), nil)
	if err != nil {
		return Location{}, false, fmt.Errorf("geocode: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Location{}, false, upstream.Wrap(upstream.ServiceGeocoder, 0, fmt.Errorf("mapbox request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Location{}, false, upstream.Wrap(upstream.ServiceGeocoder, resp.StatusCode,
			fmt.Errorf("mapbox API error: %s", body))
	}

	var mapboxResp mapboxResponse
	if err := json.NewDecoder(resp.Body).Decode(&mapboxResp); err != nil {
		return Location{}, false, upstream.Wrap(upstream.ServiceGeocoder, resp.StatusCode, fmt.Errorf("decode response: %w", err))
	}

	if len(mapboxResp.Features) == 0 || len(mapboxResp.Features[0].Center) != 2 {
		c.logger.Debug("mapbox: no match", "query", query)
		return Location{}, false, nil
	}

	f := mapboxResp.Features[0]
	// Mapbox uses lon,lat order.
	return Location{Lat: f.Center[1], Lon: f.Center[0], DisplayName: f.PlaceName}, true, nil
}

// Mapbox API response types.

type mapboxResponse struct {
	Features []mapboxFeature `json:"features"`
}

type mapboxFeature struct {
	Center    []float64 `json:"center"` // [lon, lat]
	PlaceName string    `json:"place_name"`
	Relevance float64   `json:"relevance"`
}
