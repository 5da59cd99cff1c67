// Package spatial wraps the H3 hexagonal grid behind the three lookups the
// assistant needs: point → cell, cell → ring neighbourhood, cell → boundary.
//
// Every lookup reports failure as a boolean rather than an error. A point that
// cannot be indexed is excluded from cell-based classification by the caller;
// it never aborts the surrounding computation.
package spatial

import (
	"math"

	"github.com/uber/h3-go/v4"
)

// Resolution bounds of the H3 grid.
const (
	MinResolution = 0
	MaxResolution = 15
)

// Cell is the canonical hexadecimal string form of an H3 index, e.g.
// "8928308280fffff". Reference datasets store cells in this form.
type Cell string

// LatLng is a WGS-84 coordinate pair in degrees.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// CellOf returns the cell containing (lat, lon) at resolution res.
// ok is false when the coordinates or resolution are out of range.
func CellOf(lat, lon float64, res int) (cell Cell, ok bool) {
	if !validCoord(lat, lon) || res < MinResolution || res > MaxResolution {
		return "", false
	}
	c, err := h3.LatLngToCell(h3.NewLatLng(lat, lon), res)
	if err != nil || !c.IsValid() {
		return "", false
	}
	return Cell(c.String()), true
}

// Neighbors returns cell together with every cell within ring grid steps.
// Ring 1 yields the 7-cell neighbourhood. ok is false for an unparseable cell.
func Neighbors(cell Cell, ring int) ([]Cell, bool) {
	c, ok := parse(cell)
	if !ok || ring < 0 {
		return nil, false
	}
	disk, err := h3.GridDisk(c, ring)
	if err != nil {
		return nil, false
	}
	out := make([]Cell, 0, len(disk))
	for _, d := range disk {
		if d == 0 {
			continue
		}
		out = append(out, Cell(d.String()))
	}
	return out, true
}

// Boundary returns the cell's polygon vertices in the order the grid library
// produces them. Use HullOrder before filling the polygon.
func Boundary(cell Cell) ([]LatLng, bool) {
	c, ok := parse(cell)
	if !ok {
		return nil, false
	}
	b, err := h3.CellToBoundary(c)
	if err != nil {
		return nil, false
	}
	out := make([]LatLng, len(b))
	for i, v := range b {
		out[i] = LatLng{Lat: v.Lat, Lon: v.Lng}
	}
	return out, true
}

// Resolution returns the grid resolution of cell. ok is false for an
// unparseable cell.
func Resolution(cell Cell) (int, bool) {
	c, ok := parse(cell)
	if !ok {
		return 0, false
	}
	return c.Resolution(), true
}

// Valid reports whether c parses as an H3 cell.
func (c Cell) Valid() bool {
	_, ok := parse(c)
	return ok
}

// Centroid is the arithmetic mean of points. It returns the zero value for an
// empty slice.
func Centroid(points []LatLng) LatLng {
	if len(points) == 0 {
		return LatLng{}
	}
	var lat, lon float64
	for _, p := range points {
		lat += p.Lat
		lon += p.Lon
	}
	n := float64(len(points))
	return LatLng{Lat: lat / n, Lon: lon / n}
}

func parse(cell Cell) (h3.Cell, bool) {
	if cell == "" {
		return 0, false
	}
	c := h3.Cell(h3.IndexFromString(string(cell)))
	if !c.IsValid() {
		return 0, false
	}
	return c, true
}

func validCoord(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
