package overpass

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd-guo/ChatGeoPT/internal/observability"
	"github.com/fd-guo/ChatGeoPT/internal/upstream"
)

const sampleResponse = `{
  "elements": [
    {"type": "way", "id": 100, "nodes": [1, 2, 3], "tags": {"highway": "residential"}},
    {"type": "way", "id": 200, "nodes": [3, 4], "tags": {"highway": "primary"}},
    {"type": "way", "id": 300, "nodes": [5, 9], "tags": {"highway": "service"}},
    {"type": "node", "id": 1, "lat": 42.0, "lon": -71.0},
    {"type": "node", "id": 2, "lat": 42.1, "lon": -71.1},
    {"type": "node", "id": 3, "lat": 42.2, "lon": -71.2},
    {"type": "node", "id": 4, "lat": 42.3, "lon": -71.3},
    {"type": "node", "id": 5, "lat": 42.4, "lon": -71.4}
  ]
}`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestQuery(t *testing.T) {
	got := Query(42.3601, -71.0589, 100)
	assert.Equal(t, "[out:json];way(around:100,42.3601,-71.0589)['highway'];(._;>;);out body;", got)
}

func TestFetchWays_ReducesToEndpoints(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		assert.Contains(t, r.PostForm.Get("data"), "way(around:250,42,-71)")
		_, _ = w.Write([]byte(sampleResponse))
	}))
	defer srv.Close()

	m := observability.NewMetricsForTesting()
	c := NewClient(srv.URL, "test", 5*time.Second, m, discardLogger())

	ways, err := c.FetchWays(context.Background(), 42, -71, 250)
	require.NoError(t, err)
	require.Len(t, ways, 2, "way 300 has a missing endpoint and is skipped")

	assert.Equal(t, WaySegment{
		WayID: 100,
		Start: Node{ID: 1, Lat: 42.0, Lon: -71.0},
		End:   Node{ID: 3, Lat: 42.2, Lon: -71.2},
	}, ways[0])
	assert.Equal(t, int64(200), ways[1].WayID)
	assert.Equal(t, int64(4), ways[1].End.ID)

	assert.InDelta(t, 1, testutil.ToFloat64(m.MapDataRequests.WithLabelValues("success")), 0)
}

func TestFetchWays_ZeroRadiusMakesNoRequest(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"elements":[]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test", 5*time.Second, nil, discardLogger())
	for _, r := range []float64{0, -10} {
		ways, err := c.FetchWays(context.Background(), 42, -71, r)
		require.NoError(t, err)
		assert.Empty(t, ways)
	}
	assert.Equal(t, int32(0), hits.Load())
}

func TestFetchWays_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusGatewayTimeout)
		_, _ = w.Write([]byte("runtime error: query timed out"))
	}))
	defer srv.Close()

	m := observability.NewMetricsForTesting()
	c := NewClient(srv.URL, "test", 5*time.Second, m, discardLogger())

	_, err := c.FetchWays(context.Background(), 42, -71, 100)
	ue, ok := upstream.As(err)
	require.True(t, ok, "expected *upstream.Error, got %v", err)
	assert.Equal(t, upstream.ServiceMapData, ue.Service)
	assert.Equal(t, http.StatusGatewayTimeout, ue.StatusCode)
	assert.InDelta(t, 1, testutil.ToFloat64(m.MapDataRequests.WithLabelValues("error")), 0)
}

func TestFetchWays_NoWays(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"elements":[]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test", 5*time.Second, nil, discardLogger())
	ways, err := c.FetchWays(context.Background(), 42, -71, 100)
	require.NoError(t, err)
	assert.Empty(t, ways)
}
