package render

import (
	"encoding/json"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/fd-guo/ChatGeoPT/internal/spatial"
)

// Feature kinds written to the "kind" property.
const (
	KindMarker   = "marker"
	KindCircle   = "circle"
	KindPolyline = "polyline"
	KindPolygon  = "polygon"
)

// FeatureCollection converts m to GeoJSON. Centre and zoom travel as foreign
// members ("center" as [lon, lat], "zoom").
func (m *Map) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	fc.ExtraMembers = geojson.Properties{
		"center": []float64{m.Center.Lon, m.Center.Lat},
		"zoom":   m.Zoom,
	}

	for _, mk := range m.Markers {
		f := geojson.NewFeature(point(mk.At))
		f.Properties["kind"] = KindMarker
		setPopup(f, mk.Popup)
		fc.Append(f)
	}

	for _, c := range m.Circles {
		f := geojson.NewFeature(point(c.At))
		f.Properties["kind"] = KindCircle
		f.Properties["radius"] = c.Radius
		setStyle(f, c.Style)
		setPopup(f, c.Popup)
		fc.Append(f)
	}

	for _, pl := range m.Polylines {
		line := make(orb.LineString, len(pl.Points))
		for i, p := range pl.Points {
			line[i] = point(p)
		}
		f := geojson.NewFeature(line)
		f.Properties["kind"] = KindPolyline
		setStyle(f, pl.Style)
		setPopup(f, pl.Popup)
		fc.Append(f)
	}

	for _, pg := range m.Polygons {
		f := geojson.NewFeature(orb.Polygon{closedRing(pg.Ring)})
		f.Properties["kind"] = KindPolygon
		setStyle(f, pg.Style)
		setPopup(f, pg.Popup)
		fc.Append(f)
	}

	return fc
}

// GeoJSON marshals the feature collection.
func (m *Map) GeoJSON() ([]byte, error) {
	return json.Marshal(m.FeatureCollection())
}

// MarshalJSON lets a *Map be embedded directly in API responses.
func (m *Map) MarshalJSON() ([]byte, error) {
	return m.GeoJSON()
}

// GeoJSON uses [lon, lat] order.
func point(p spatial.LatLng) orb.Point {
	return orb.Point{p.Lon, p.Lat}
}

func closedRing(pts []spatial.LatLng) orb.Ring {
	ring := make(orb.Ring, 0, len(pts)+1)
	for _, p := range pts {
		ring = append(ring, point(p))
	}
	if len(ring) > 0 && !ring.Closed() {
		ring = append(ring, ring[0])
	}
	return ring
}

func setStyle(f *geojson.Feature, s Style) {
	if s.Color != "" {
		f.Properties["color"] = s.Color
	}
	if s.FillColor != "" {
		f.Properties["fill_color"] = s.FillColor
	}
	if s.Weight > 0 {
		f.Properties["weight"] = s.Weight
	}
	f.Properties["fill"] = s.Fill
}

func setPopup(f *geojson.Feature, popup string) {
	if popup != "" {
		f.Properties["popup"] = popup
	}
}
