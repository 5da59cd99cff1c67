package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fd-guo/ChatGeoPT/internal/observability"
	"github.com/fd-guo/ChatGeoPT/internal/upstream"
)

// DefaultNominatimURL is the public OpenStreetMap Nominatim instance.
const DefaultNominatimURL = "https://nominatim.openstreetmap.org"

// NominatimClient implements Geocoder using the Nominatim search API.
type NominatimClient struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewNominatimClient creates a Nominatim geocoding client. Nominatim's usage
// policy requires an identifying User-Agent on every request.
func NewNominatimClient(baseURL, userAgent string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *NominatimClient {
	if baseURL == "" {
		baseURL = DefaultNominatimURL
	}
	return &NominatimClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: timeout},
		metrics:    metrics,
		logger:     logger,
	}
}

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// ForwardGeocode returns the first Nominatim match for query.
func (c *NominatimClient) ForwardGeocode(ctx context.Context, query string) (loc Location, found bool, err error) {
	start := time.Now()
	defer func() { observe(c.metrics, start, found, err) }()

	params := url.Values{
		"q":      {query},
		"format": {"jsonv2"},
		"limit":  {"1"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return Location{}, false, fmt.Errorf("geocode: create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Location{}, false, upstream.Wrap(upstream.ServiceGeocoder, 0, fmt.Errorf("nominatim request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Location{}, false, upstream.Wrap(upstream.ServiceGeocoder, resp.StatusCode,
			fmt.Errorf("nominatim API error: %s", body))
	}

	var places []nominatimPlace
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&places); err != nil {
		return Location{}, false, upstream.Wrap(upstream.ServiceGeocoder, resp.StatusCode, fmt.Errorf("decode response: %w", err))
	}

	if len(places) == 0 {
		c.logger.Debug("nominatim: no match", "query", query)
		return Location{}, false, nil
	}

	p := places[0]
	lat, latErr := strconv.ParseFloat(p.Lat, 64)
	lon, lonErr := strconv.ParseFloat(p.Lon, 64)
	if latErr != nil || lonErr != nil {
		return Location{}, false, upstream.Wrap(upstream.ServiceGeocoder, resp.StatusCode,
			fmt.Errorf("bad coordinates %q,%q", p.Lat, p.Lon))
	}

	return Location{Lat: lat, Lon: lon, DisplayName: p.DisplayName}, true, nil
}
