package scoring

import (
	"fmt"
	"sort"

	"github.com/fd-guo/ChatGeoPT/internal/spatial"
)

// EventRow is one historical event already tagged with its cell.
type EventRow struct {
	Cell spatial.Cell
	Risk float64
}

// CellRisk is the classification of one cell against a set of thresholds.
type CellRisk struct {
	Cell    spatial.Cell `json:"cell"`
	Risk    float64      `json:"risk"`
	Present bool         `json:"present"`
	Tier    RiskTier     `json:"tier"`
}

// EventsAggregate holds one summed risk score per cell. It is built once and
// never mutated, so it is safe for concurrent readers.
type EventsAggregate struct {
	risk  map[spatial.Cell]float64
	cells []spatial.Cell // sorted, for deterministic iteration
}

// NewEventsAggregate sums rows by cell. Rows without a cell are skipped.
func NewEventsAggregate(rows []EventRow) *EventsAggregate {
	risk := make(map[spatial.Cell]float64)
	for _, r := range rows {
		if r.Cell == "" {
			continue
		}
		risk[r.Cell] += r.Risk
	}
	cells := make([]spatial.Cell, 0, len(risk))
	for c := range risk {
		cells = append(cells, c)
	}
	sort.Slice(cells, func(i, j int) bool { return cells[i] < cells[j] })
	return &EventsAggregate{risk: risk, cells: cells}
}

// Len is the number of distinct cells.
func (a *EventsAggregate) Len() int { return len(a.cells) }

// Risk returns the summed risk for cell and whether the cell is present.
func (a *EventsAggregate) Risk(cell spatial.Cell) (float64, bool) {
	v, ok := a.risk[cell]
	return v, ok
}

// Scores returns every per-cell sum in cell order.
func (a *EventsAggregate) Scores() []float64 {
	out := make([]float64, len(a.cells))
	for i, c := range a.cells {
		out[i] = a.risk[c]
	}
	return out
}

// Thresholds recomputes the tier cutoffs from the current aggregate.
// Results are not cached.
func (a *EventsAggregate) Thresholds() (Thresholds, error) {
	if a.Len() == 0 {
		return Thresholds{}, fmt.Errorf("scoring: events aggregate is empty")
	}
	return ComputeThresholds(a.Scores()), nil
}

// ClassifyCell classifies cell against th. A cell absent from the aggregate is
// low risk.
func (a *EventsAggregate) ClassifyCell(cell spatial.Cell, th Thresholds) CellRisk {
	v, ok := a.risk[cell]
	if !ok {
		return CellRisk{Cell: cell, Tier: TierLow}
	}
	return CellRisk{Cell: cell, Risk: v, Present: true, Tier: Classify(v, th)}
}

// ClassifyCells classifies each cell in order.
func (a *EventsAggregate) ClassifyCells(cells []spatial.Cell, th Thresholds) []CellRisk {
	out := make([]CellRisk, len(cells))
	for i, c := range cells {
		out[i] = a.ClassifyCell(c, th)
	}
	return out
}

// ─── HIGHWAY MEMBERSHIP ───────────────────────────────────────────────────────

// CellSet is a set of cells built from a reference polyline.
type CellSet map[spatial.Cell]struct{}

// NewCellSet indexes points at res. Points that cannot be indexed are skipped.
func NewCellSet(points []spatial.LatLng, res int) CellSet {
	set := make(CellSet, len(points))
	for _, p := range points {
		if c, ok := spatial.CellOf(p.Lat, p.Lon, res); ok {
			set[c] = struct{}{}
		}
	}
	return set
}

// IsOnHighway reports exact cell membership. An empty cell (an unindexable
// point) is never on the highway. Points near a cell edge may miss.
func IsOnHighway(cell spatial.Cell, ways CellSet) bool {
	if cell == "" {
		return false
	}
	_, ok := ways[cell]
	return ok
}
