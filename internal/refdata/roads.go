package refdata

import (
	"fmt"
	"sort"

	"github.com/fd-guo/ChatGeoPT/internal/scoring"
	"github.com/fd-guo/ChatGeoPT/internal/spatial"
)

// Road is the reference road a claim's trip is matched against.
type Road struct {
	// Points are sorted by latitude, ascending.
	Points []spatial.LatLng
	// Cells is the set of cells the road's points fall in.
	Cells      scoring.CellSet
	Resolution int
}

// Start is the southernmost point of the road.
func (r *Road) Start() (spatial.LatLng, bool) {
	if len(r.Points) == 0 {
		return spatial.LatLng{}, false
	}
	return r.Points[0], true
}

// End is the northernmost point of the road.
func (r *Road) End() (spatial.LatLng, bool) {
	if len(r.Points) == 0 {
		return spatial.LatLng{}, false
	}
	return r.Points[len(r.Points)-1], true
}

// Contains reports whether cell is one of the road's cells.
func (r *Road) Contains(cell spatial.Cell) bool {
	return scoring.IsOnHighway(cell, r.Cells)
}

// TripPoint is one map-matched trip sample.
type TripPoint struct {
	spatial.LatLng
	// Cell is empty when the point could not be indexed.
	Cell spatial.Cell `json:"cell,omitempty"`
}

// LoadRoad reads the reference road points at path and indexes them at res.
func LoadRoad(path string, res int) (*Road, LoadStats, error) {
	points, stats, err := readPoints(path)
	if err != nil {
		return nil, stats, err
	}
	return NewRoad(points, res), stats, nil
}

// NewRoad sorts points by latitude and indexes them at res.
func NewRoad(points []spatial.LatLng, res int) *Road {
	sorted := make([]spatial.LatLng, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Lat < sorted[j].Lat })

	return &Road{
		Points:     sorted,
		Cells:      scoring.NewCellSet(sorted, res),
		Resolution: res,
	}
}

// LoadTrip reads the matched trip points at path, keeping file order, and
// indexes each one at res.
func LoadTrip(path string, res int) ([]TripPoint, LoadStats, error) {
	points, stats, err := readPoints(path)
	if err != nil {
		return nil, stats, err
	}
	trip := IndexTrip(points, res)
	stats.Indexed = 0
	for _, p := range trip {
		if p.Cell != "" {
			stats.Indexed++
		}
	}
	stats.Skipped = stats.Rows - stats.Indexed
	return trip, stats, nil
}

// IndexTrip tags every point with its cell at res.
func IndexTrip(points []spatial.LatLng, res int) []TripPoint {
	out := make([]TripPoint, len(points))
	for i, p := range points {
		out[i] = TripPoint{LatLng: p}
		if c, ok := spatial.CellOf(p.Lat, p.Lon, res); ok {
			out[i].Cell = c
		}
	}
	return out
}

// readPoints reads a lat/lon CSV. Rows whose coordinates do not parse are
// dropped and counted as skipped.
func readPoints(path string) ([]spatial.LatLng, LoadStats, error) {
	t, err := readTable(path)
	if err != nil {
		return nil, LoadStats{}, err
	}
	latCol, lonCol, ok := t.coordColumns()
	if !ok {
		return nil, LoadStats{}, fmt.Errorf("refdata: %s: missing lat/lon columns", path)
	}

	stats := LoadStats{Rows: len(t.rows)}
	points := make([]spatial.LatLng, 0, len(t.rows))
	for _, row := range t.rows {
		lat, latErr := parseFloat(row[latCol])
		lon, lonErr := parseFloat(row[lonCol])
		if latErr != nil || lonErr != nil {
			stats.Skipped++
			continue
		}
		points = append(points, spatial.LatLng{Lat: lat, Lon: lon})
	}
	stats.Indexed = len(points)
	return points, stats, nil
}
