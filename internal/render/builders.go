package render

import (
	"slices"

	"github.com/fd-guo/ChatGeoPT/internal/overpass"
	"github.com/fd-guo/ChatGeoPT/internal/scoring"
	"github.com/fd-guo/ChatGeoPT/internal/spatial"
)

// ─── RISK MAP ─────────────────────────────────────────────────────────────────

// Colours and popup text per risk tier. Cells without events share the low
// tier's teal.
var tierStyles = map[scoring.RiskTier]struct {
	fill  string
	popup string
}{
	scoring.TierExtreme: {"#8b0000", "extreme high risk region"},
	scoring.TierHigh:    {"purple", "high risk region"},
	scoring.TierMedium:  {"orange", "medium risk region"},
	scoring.TierLow:     {"#008080", "low risk region"},
}

// TierFill returns the fill colour and popup text for tier.
func TierFill(tier scoring.RiskTier) (fill, popup string) {
	s, ok := tierStyles[tier]
	if !ok {
		s = tierStyles[scoring.TierLow]
	}
	return s.fill, s.popup
}

// RiskMap draws a marker at the address and one filled hexagon per cell,
// centred on center. Cells whose boundary cannot be computed are left out.
// Hexagons are drawn low tier first so the riskiest cells end up on top.
func RiskMap(address string, at, center spatial.LatLng, cells []scoring.CellRisk) *Map {
	m := NewMap(center, ZoomRisk)
	m.Markers = append(m.Markers, Marker{At: at, Popup: address})

	ordered := slices.Clone(cells)
	slices.SortStableFunc(ordered, func(a, b scoring.CellRisk) int {
		return a.Tier.Rank() - b.Tier.Rank()
	})

	for _, c := range ordered {
		boundary, ok := spatial.Boundary(c.Cell)
		if !ok {
			continue
		}
		fill, popup := TierFill(c.Tier)
		m.Polygons = append(m.Polygons, Polygon{
			Ring: spatial.HullOrder(boundary),
			Style: Style{
				Color:     "grey",
				FillColor: fill,
				Weight:    2,
				Fill:      true,
			},
			Popup: popup,
		})
	}
	return m
}

// ─── WAYS MAP ─────────────────────────────────────────────────────────────────

// WaysMap draws a black 10 m circle at the address and each way as a single
// orange segment between its endpoints.
func WaysMap(at spatial.LatLng, ways []overpass.WaySegment) *Map {
	m := NewMap(at, ZoomWays)
	m.Circles = append(m.Circles, Circle{
		At:     at,
		Radius: 10,
		Style:  Style{Color: "black", FillColor: "black", Fill: true},
	})

	for _, w := range ways {
		m.Polylines = append(m.Polylines, Polyline{
			Points: []spatial.LatLng{
				{Lat: w.Start.Lat, Lon: w.Start.Lon},
				{Lat: w.End.Lat, Lon: w.End.Lon},
			},
			Style: Style{Color: "orange", Weight: 2},
		})
	}
	return m
}

// ─── TRIP MAP ─────────────────────────────────────────────────────────────────

// TripSample is one trip point with its highway tag.
type TripSample struct {
	At        spatial.LatLng
	OnHighway bool
}

// TripMap draws each sample as a 2 m circle, red on the highway and blue
// elsewhere, centred on the mean of all samples.
func TripMap(samples []TripSample) *Map {
	pts := make([]spatial.LatLng, len(samples))
	for i, s := range samples {
		pts[i] = s.At
	}
	m := NewMap(spatial.Centroid(pts), ZoomTrip)

	for _, s := range samples {
		color := "blue"
		if s.OnHighway {
			color = "red"
		}
		m.Circles = append(m.Circles, Circle{
			At:     s.At,
			Radius: 2,
			Style:  Style{Color: color, FillColor: color, Fill: true},
		})
	}
	return m
}
