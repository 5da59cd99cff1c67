package refdata

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// table is a CSV file read fully into memory with a header index.
type table struct {
	header map[string]int
	rows   [][]string
}

func readTable(path string) (*table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("refdata: open %s: %w", path, err)
	}
	defer f.Close()

	t, err := parseTable(f)
	if err != nil {
		return nil, fmt.Errorf("refdata: read %s: %w", path, err)
	}
	return t, nil
}

func parseTable(r io.Reader) (*table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	head, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	t := &table{header: make(map[string]int, len(head))}
	for i, name := range head {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, dup := t.header[name]; !dup {
			t.header[name] = i
		}
	}

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	t.rows = rows
	return t, nil
}

// column returns the index of the first name present in the header.
func (t *table) column(names ...string) (int, bool) {
	for _, n := range names {
		if i, ok := t.header[n]; ok {
			return i, true
		}
	}
	return 0, false
}

// coordColumns finds the latitude and longitude columns. Map-matched
// columns (mm_lat, mm_lon) take precedence over raw lat/lon.
func (t *table) coordColumns() (lat, lon int, ok bool) {
	lat, okLat := t.column("mm_lat", "lat", "latitude")
	lon, okLon := t.column("mm_lon", "lon", "lng", "longitude")
	return lat, lon, okLat && okLon
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}
