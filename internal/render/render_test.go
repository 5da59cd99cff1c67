package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd-guo/ChatGeoPT/internal/overpass"
	"github.com/fd-guo/ChatGeoPT/internal/scoring"
	"github.com/fd-guo/ChatGeoPT/internal/spatial"
)

// ─── RiskMap ──────────────────────────────────────────────────────────────────

func TestTierFill(t *testing.T) {
	tests := []struct {
		tier        scoring.RiskTier
		fill, popup string
	}{
		{scoring.TierExtreme, "#8b0000", "extreme high risk region"},
		{scoring.TierHigh, "purple", "high risk region"},
		{scoring.TierMedium, "orange", "medium risk region"},
		{scoring.TierLow, "#008080", "low risk region"},
		{scoring.RiskTier("unknown"), "#008080", "low risk region"},
	}
	for _, tt := range tests {
		fill, popup := TierFill(tt.tier)
		assert.Equal(t, tt.fill, fill, string(tt.tier))
		assert.Equal(t, tt.popup, popup, string(tt.tier))
	}
}

func TestRiskMap(t *testing.T) {
	at := spatial.LatLng{Lat: 42.3467, Lon: -71.0972}
	origin, ok := spatial.CellOf(at.Lat, at.Lon, 9)
	require.True(t, ok)
	ring, ok := spatial.Neighbors(origin, 1)
	require.True(t, ok)

	cells := make([]scoring.CellRisk, len(ring))
	for i, c := range ring {
		cells[i] = scoring.CellRisk{Cell: c, Tier: scoring.TierLow}
	}
	cells[0].Tier = scoring.TierExtreme
	cells[3].Tier = scoring.TierMedium
	cells = append(cells, scoring.CellRisk{Cell: "bogus", Tier: scoring.TierHigh})

	b, _ := spatial.Boundary(origin)
	center := spatial.Centroid(b)
	m := RiskMap("Fenway Park, Boston", at, center, cells)

	assert.Equal(t, ZoomRisk, m.Zoom)
	assert.Equal(t, center, m.Center)
	require.Len(t, m.Markers, 1)
	assert.Equal(t, "Fenway Park, Boston", m.Markers[0].Popup)
	require.Len(t, m.Polygons, 7, "unparseable cell is skipped")

	// low cells first, then medium, with the extreme cell drawn last
	for _, p := range m.Polygons[:5] {
		assert.Equal(t, "low risk region", p.Popup)
	}
	assert.Equal(t, "medium risk region", m.Polygons[5].Popup)

	top := m.Polygons[6]
	assert.Equal(t, "#8b0000", top.Style.FillColor)
	assert.Equal(t, "grey", top.Style.Color)
	assert.InDelta(t, 2, top.Style.Weight, 0)
	assert.Equal(t, "extreme high risk region", top.Popup)
	assert.Len(t, top.Ring, 6)

	assert.Equal(t, scoring.TierExtreme, cells[0].Tier, "input order is left alone")
}

// ─── WaysMap / TripMap ────────────────────────────────────────────────────────

func TestWaysMap(t *testing.T) {
	at := spatial.LatLng{Lat: 42, Lon: -71}
	ways := []overpass.WaySegment{
		{WayID: 1, Start: overpass.Node{ID: 10, Lat: 42.001, Lon: -71.001}, End: overpass.Node{ID: 11, Lat: 42.002, Lon: -71.002}},
	}

	m := WaysMap(at, ways)
	assert.Equal(t, ZoomWays, m.Zoom)
	require.Len(t, m.Circles, 1)
	assert.InDelta(t, 10, m.Circles[0].Radius, 0)
	assert.Equal(t, "black", m.Circles[0].Style.Color)

	require.Len(t, m.Polylines, 1)
	assert.Equal(t, []spatial.LatLng{{Lat: 42.001, Lon: -71.001}, {Lat: 42.002, Lon: -71.002}}, m.Polylines[0].Points)
	assert.Equal(t, "orange", m.Polylines[0].Style.Color)
}

func TestTripMap(t *testing.T) {
	m := TripMap([]TripSample{
		{At: spatial.LatLng{Lat: 1, Lon: 1}, OnHighway: true},
		{At: spatial.LatLng{Lat: 3, Lon: 3}},
	})
	assert.Equal(t, spatial.LatLng{Lat: 2, Lon: 2}, m.Center)
	assert.Equal(t, ZoomTrip, m.Zoom)
	require.Len(t, m.Circles, 2)
	assert.Equal(t, "red", m.Circles[0].Style.Color)
	assert.Equal(t, "blue", m.Circles[1].Style.Color)
	assert.InDelta(t, 2, m.Circles[1].Radius, 0)
}

// ─── GeoJSON ──────────────────────────────────────────────────────────────────

func TestGeoJSON_LonLatOrderAndClosedRings(t *testing.T) {
	m := NewMap(spatial.LatLng{Lat: 10, Lon: 20}, 12)
	m.Markers = []Marker{{At: spatial.LatLng{Lat: 10, Lon: 20}, Popup: "here"}}
	m.Polygons = []Polygon{{
		Ring:  []spatial.LatLng{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 1}, {Lat: 1, Lon: 1}},
		Style: Style{FillColor: "purple", Fill: true},
		Popup: "high risk region",
	}}

	raw, err := m.GeoJSON()
	require.NoError(t, err)

	fc, err := geojson.UnmarshalFeatureCollection(raw)
	require.NoError(t, err)
	require.Len(t, fc.Features, 2)

	pt, ok := fc.Features[0].Geometry.(orb.Point)
	require.True(t, ok)
	assert.Equal(t, orb.Point{20, 10}, pt)
	assert.Equal(t, "here", fc.Features[0].Properties["popup"])

	poly, ok := fc.Features[1].Geometry.(orb.Polygon)
	require.True(t, ok)
	require.Len(t, poly[0], 4)
	assert.True(t, poly[0].Closed())
	assert.Equal(t, "purple", fc.Features[1].Properties["fill_color"])

	var members map[string]any
	require.NoError(t, json.Unmarshal(raw, &members))
	assert.Equal(t, []any{20.0, 10.0}, members["center"])
	assert.InDelta(t, 12, members["zoom"], 0)
}

func TestMap_Empty(t *testing.T) {
	m := NewMap(spatial.LatLng{}, 1)
	assert.True(t, m.Empty())
	m.Circles = append(m.Circles, Circle{})
	assert.False(t, m.Empty())
}

// ─── Pages ────────────────────────────────────────────────────────────────────

func testPages(t *testing.T) *Pages {
	t.Helper()
	p, err := NewPages(Basemap{URL: "https://tiles.example/{z}/{x}/{y}.png", Attribution: "Example"}, []ViewInfo{
		{Path: "/claims", Title: "Crash Claim Labeller"},
		{Path: "/roads", Title: "Road Risk Expert"},
	})
	require.NoError(t, err)
	return p
}

func TestPages_Index(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, testPages(t).Index(&buf))
	assert.Contains(t, buf.String(), `href="/claims"`)
	assert.Contains(t, buf.String(), "Road Risk Expert")
}

func TestPages_ViewEscapesInputAndEmbedsMap(t *testing.T) {
	m := WaysMap(spatial.LatLng{Lat: 42, Lon: -71}, nil)

	var buf bytes.Buffer
	err := testPages(t).View(&buf, PageData{
		View:     ViewInfo{Path: "/roads", Title: "Road Risk Expert"},
		Text:     "<script>alert(1)</script>",
		Messages: []string{"The latitude and longitude for the given address is (42, -71)"},
		Map:      m,
	})
	require.NoError(t, err)

	out := buf.String()
	assert.NotContains(t, out, "<script>alert(1)</script>")
	assert.Contains(t, out, "The latitude and longitude for the given address is (42, -71)")
	assert.Contains(t, out, `id="map"`)
	assert.Contains(t, out, `"kind":"circle"`)
}

func TestPages_ViewWithoutMap(t *testing.T) {
	var buf bytes.Buffer
	err := testPages(t).View(&buf, PageData{
		View:     ViewInfo{Path: "/claims", Title: "Crash Claim Labeller"},
		Messages: []string{"No results found in OSM"},
	})
	require.NoError(t, err)
	assert.False(t, strings.Contains(buf.String(), `id="map"`))
	assert.Contains(t, buf.String(), "No results found in OSM")
}

func TestPages_ViewBindsPopupsAsText(t *testing.T) {
	const hostile = `<img src=x onerror=alert(1)>`
	at := spatial.LatLng{Lat: 42.3467, Lon: -71.0972}
	m := RiskMap(hostile, at, at, nil)

	var buf bytes.Buffer
	require.NoError(t, testPages(t).View(&buf, PageData{
		View: ViewInfo{Path: "/roads", Title: "Road Risk Expert"},
		Map:  m,
	}))

	out := buf.String()
	assert.Contains(t, out, "popup.textContent = p.popup")
	assert.NotContains(t, out, "bindPopup(p.popup")
	assert.NotContains(t, out, hostile, "popup text is JSON-escaped inside the script")
	assert.Contains(t, out, `\u003cimg src=x onerror=alert(1)\u003e`)
}

func TestPages_ViewSkipsEmptyMap(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, testPages(t).View(&buf, PageData{
		View:     ViewInfo{Path: "/roads", Title: "Road Risk Expert"},
		Messages: []string{"No results found in OSM"},
		Map:      NewMap(spatial.LatLng{Lat: 42, Lon: -71}, ZoomWays),
	}))
	assert.NotContains(t, buf.String(), `id="map"`)
	assert.NotContains(t, buf.String(), "leaflet.js")
}
