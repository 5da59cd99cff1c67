// Package render turns assistant results into a map: a small vector model
// (markers, circles, polylines, filled polygons) that serialises to GeoJSON
// and is drawn over a tiled basemap by the HTML views.
package render

import (
	"github.com/fd-guo/ChatGeoPT/internal/spatial"
)

// Default zoom levels per map kind.
const (
	ZoomRisk = 14
	ZoomWays = 16
	ZoomTrip = 14
)

// Style is the stroke and fill of one vector shape.
type Style struct {
	Color     string  `json:"color,omitempty"`
	FillColor string  `json:"fill_color,omitempty"`
	Weight    float64 `json:"weight,omitempty"`
	Fill      bool    `json:"fill,omitempty"`
}

// Marker is a pin with an optional popup.
type Marker struct {
	At    spatial.LatLng
	Popup string
}

// Circle is a circle with a radius in meters.
type Circle struct {
	At     spatial.LatLng
	Radius float64
	Style  Style
	Popup  string
}

// Polyline is an open line through Points.
type Polyline struct {
	Points []spatial.LatLng
	Style  Style
	Popup  string
}

// Polygon is a filled ring. Ring must already be in drawing order; it is
// closed automatically when serialised.
type Polygon struct {
	Ring  []spatial.LatLng
	Style Style
	Popup string
}

// Map is everything one map pane shows.
type Map struct {
	Center    spatial.LatLng
	Zoom      int
	Markers   []Marker
	Circles   []Circle
	Polylines []Polyline
	Polygons  []Polygon
}

// NewMap returns an empty map centred on center.
func NewMap(center spatial.LatLng, zoom int) *Map {
	return &Map{Center: center, Zoom: zoom}
}

// Empty reports whether the map has no shapes.
func (m *Map) Empty() bool {
	return len(m.Markers) == 0 && len(m.Circles) == 0 && len(m.Polylines) == 0 && len(m.Polygons) == 0
}
