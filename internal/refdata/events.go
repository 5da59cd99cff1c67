// Package refdata loads the read-only reference datasets the assistant
// classifies against: historical risk events, the reference road, and the
// matched trip points. Everything is loaded once at startup.
//
// A row whose coordinates cannot be indexed is kept out of cell lookups but
// never fails the load.
package refdata

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/fd-guo/ChatGeoPT/internal/scoring"
	"github.com/fd-guo/ChatGeoPT/internal/spatial"
)

// LoadStats counts what a load kept and dropped.
type LoadStats struct {
	Rows    int `json:"rows"`
	Indexed int `json:"indexed"`
	Skipped int `json:"skipped"`
}

// eventRecord is one events row. Files either carry the cell directly (h3_9)
// or raw coordinates; both are accepted.
type eventRecord struct {
	Cell     string
	Lat, Lon float64
	HasCoord bool
	Risk     float64
}

// parquetEvent is the on-disk Parquet layout.
type parquetEvent struct {
	H3   string  `parquet:"h3_9,optional"`
	Lat  float64 `parquet:"lat,optional"`
	Lon  float64 `parquet:"lon,optional"`
	Risk float64 `parquet:"risk"`
}

// LoadEvents reads the events table at path (.parquet or .csv) and sums risk
// per cell at resolution res.
//
// A stored cell is used when its resolution equals res; otherwise the row is
// re-indexed from lat/lon. Rows with neither, or with a non-finite risk, are
// skipped.
func LoadEvents(path string, res int) (*scoring.EventsAggregate, LoadStats, error) {
	var (
		records []eventRecord
		err     error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		records, err = readEventsParquet(path)
	case ".csv":
		records, err = readEventsCSV(path)
	default:
		return nil, LoadStats{}, fmt.Errorf("refdata: events %s: unsupported file type", path)
	}
	if err != nil {
		return nil, LoadStats{}, err
	}

	stats := LoadStats{Rows: len(records)}
	rows := make([]scoring.EventRow, 0, len(records))
	for _, rec := range records {
		// A NaN or infinite risk would sort to the ends of the score pool and
		// move every threshold.
		if math.IsNaN(rec.Risk) || math.IsInf(rec.Risk, 0) {
			stats.Skipped++
			continue
		}
		cell, ok := rec.cellAt(res)
		if !ok {
			stats.Skipped++
			continue
		}
		stats.Indexed++
		rows = append(rows, scoring.EventRow{Cell: cell, Risk: rec.Risk})
	}
	return scoring.NewEventsAggregate(rows), stats, nil
}

func (r eventRecord) cellAt(res int) (spatial.Cell, bool) {
	if r.Cell != "" {
		c := spatial.Cell(strings.TrimSpace(r.Cell))
		if got, ok := spatial.Resolution(c); ok && got == res {
			return c, true
		}
	}
	if !r.HasCoord {
		return "", false
	}
	return spatial.CellOf(r.Lat, r.Lon, res)
}

func readEventsParquet(path string) ([]eventRecord, error) {
	rows, err := parquet.ReadFile[parquetEvent](path)
	if err != nil {
		return nil, fmt.Errorf("refdata: read events %s: %w", path, err)
	}
	records := make([]eventRecord, len(rows))
	for i, r := range rows {
		records[i] = eventRecord{
			Cell: r.H3,
			Lat:  r.Lat,
			Lon:  r.Lon,
			// Absent optional columns read as zero; treat (0, 0) as "no coordinates".
			HasCoord: r.Lat != 0 || r.Lon != 0,
			Risk:     r.Risk,
		}
	}
	return records, nil
}

func readEventsCSV(path string) ([]eventRecord, error) {
	t, err := readTable(path)
	if err != nil {
		return nil, err
	}
	riskCol, ok := t.column("risk")
	if !ok {
		return nil, fmt.Errorf("refdata: events %s: missing risk column", path)
	}
	cellCol, hasCell := t.column("h3_9", "h3")
	latCol, lonCol, hasCoord := t.coordColumns()
	if !hasCell && !hasCoord {
		return nil, fmt.Errorf("refdata: events %s: need an h3_9 column or lat/lon columns", path)
	}

	out := make([]eventRecord, 0, len(t.rows))
	for i, row := range t.rows {
		risk, err := parseFloat(row[riskCol])
		if err != nil {
			return nil, fmt.Errorf("refdata: events %s line %d: risk: %w", path, i+2, err)
		}
		rec := eventRecord{Risk: risk}
		if hasCell {
			rec.Cell = row[cellCol]
		}
		if hasCoord {
			lat, latErr := parseFloat(row[latCol])
			lon, lonErr := parseFloat(row[lonCol])
			rec.Lat, rec.Lon = lat, lon
			rec.HasCoord = latErr == nil && lonErr == nil
		}
		out = append(out, rec)
	}
	return out, nil
}
