// Package overpass fetches highway-tagged OpenStreetMap ways around a point
// from an Overpass API endpoint.
package overpass

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

// DefaultURL is the main public Overpass interpreter.
const DefaultURL = "https://overpass-api.de/api/interpreter"

// Node is one OSM node.
type Node struct {
	ID  int64   `json:"id"`
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// WaySegment is a way reduced to its first and last node. Intermediate nodes
// are dropped; renderers draw the way as one straight segment.
type WaySegment struct {
	WayID int64 `json:"way_id"`
	Start Node  `json:"start"`
	End   Node  `json:"end"`
}

// Client queries an Overpass endpoint.
type Client struct {
	url        string
	userAgent  string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an Overpass client.
func NewClient(endpoint, userAgent string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if endpoint == "" {
		endpoint = DefaultURL
	}
	return &Client{
		url:        endpoint,
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: timeout},
		metrics:    metrics,
		logger:     logger,
	}
}

// Query returns the Overpass QL selecting highway ways within radius meters
// of (lat, lon), recursing down to their nodes.
func Query(lat, lon, radius float64) string {
	return fmt.Sprintf("[out:json];way(around:%s,%s,%s)['highway'];(._;>;);out body;",
		formatFloat(radius), formatFloat(lat), formatFloat(lon))
}

// FetchWays returns the highway ways within radius meters of (lat, lon), in
// the order Overpass lists them. A radius of zero or less returns nothing
// and performs no request.
func (c *Client) FetchWays(ctx context.Context, lat, lon, radius float64) ([]WaySegment, error) {
	if radius <= 0 {
		return nil, nil
	}

	ways, err := c.fetch(ctx, Query(lat, lon, radius))
	if c.metrics != nil {
		if err != nil {
			c.metrics.MapDataRequests.WithLabelValues("error").Inc()
		} else {
			c.metrics.MapDataRequests.WithLabelValues("success").Inc()
			c.metrics.WaysFetched.Observe(float64(len(ways)))
		}
	}
	return ways, err
}

func (c *Client) fetch(ctx context.Context, query string) ([]WaySegment, error) {
	form := url.Values{"data": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("overpass: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, upstream.Wrap(upstream.ServiceMapData, 0, fmt.Errorf("overpass request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, upstream.Wrap(upstream.ServiceMapData, resp.StatusCode, fmt.Errorf("overpass API error: %s", body))
	}

	var parsed response
	if err := json.NewDecoder(io.LimitReader(resp.Body, 32<<20)).Decode(&parsed); err != nil {
		return nil, upstream.Wrap(upstream.ServiceMapData, resp.StatusCode, fmt.Errorf("decode response: %w", err))
	}

	return c.reduce(parsed.Elements), nil
}

// reduce keeps each way's first and last node. Ways whose endpoint nodes are
// not in the response are skipped.
func (c *Client) reduce(elements []element) []WaySegment {
	nodes := make(map[int64]Node)
	for _, el := range elements {
		if el.Type == "node" {
			nodes[el.ID] = Node{ID: el.ID, Lat: el.Lat, Lon: el.Lon}
		}
	}

	var out []WaySegment
	for _, el := range elements {
		if el.Type != "way" || len(el.Nodes) == 0 {
			continue
		}
		first, okFirst := nodes[el.Nodes[0]]
		last, okLast := nodes[el.Nodes[len(el.Nodes)-1]]
		if !okFirst || !okLast {
			c.logger.Warn("overpass: way endpoint missing from response", "way_id", el.ID)
			continue
		}
		out = append(out, WaySegment{WayID: el.ID, Start: first, End: last})
	}
	return out
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Overpass JSON response types.

type response struct {
	Elements []element `json:"elements"`
}

type element struct {
	Type  string            `json:"type"`
	ID    int64             `json:"id"`
	Lat   float64           `json:"lat"`
	Lon   float64           `json:"lon"`
	Nodes []int64           `json:"nodes"`
	Tags  map[string]string `json:"tags"`
}
