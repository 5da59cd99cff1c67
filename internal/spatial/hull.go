package spatial

import "sort"

// HullOrder returns the convex hull of points in counter-clockwise order
// (longitude as x, latitude as y), starting from the lowest-longitude vertex.
// Collinear and duplicate points are dropped. Fewer than three distinct points
// are returned sorted.
func HullOrder(points []LatLng) []LatLng {
	pts := make([]LatLng, len(points))
	copy(pts, points)
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].Lon != pts[j].Lon {
			return pts[i].Lon < pts[j].Lon
		}
		return pts[i].Lat < pts[j].Lat
	})
	pts = dedupe(pts)
	if len(pts) < 3 {
		return pts
	}

	// Andrew's monotone chain.
	hull := make([]LatLng, 0, 2*len(pts))
	for _, p := range pts {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(pts) - 2; i >= 0; i-- {
		p := pts[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull[:len(hull)-1]
}

func cross(o, a, b LatLng) float64 {
	return (a.Lon-o.Lon)*(b.Lat-o.Lat) - (a.Lat-o.Lat)*(b.Lon-o.Lon)
}

func dedupe(sorted []LatLng) []LatLng {
	out := make([]LatLng, 0, len(sorted))
	for _, p := range sorted {
		if len(out) > 0 && p == out[len(out)-1] {
			continue
		}
		out = append(out, p)
	}
	return out
}
