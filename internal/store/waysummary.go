package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/fd-guo/ChatGeoPT/internal/overpass"
)

// ErrNoSummary is returned by ReadWaySummary when no summary has been
// written yet or the artifact is disabled.
var ErrNoSummary = errors.New("store: no way summary")

// WaySummaryHeader is the column layout of the way summary artifact.
var WaySummaryHeader = []string{
	"way_id",
	"start_node_id", "start_node_lat", "start_node_lon",
	"end_node_id", "end_node_lat", "end_node_lon",
}

// WriteWaySummary replaces the way summary with one row per way. An empty
// slice still writes the header so the artifact reflects the latest query.
func (s *Store) WriteWaySummary(ways []overpass.WaySegment) error {
	if s.waySummaryPath == "" {
		return nil
	}
	return withTempFile(s.waySummaryPath, func(w io.Writer) error {
		return EncodeWaySummary(w, ways)
	})
}

// EncodeWaySummary writes ways as CSV with WaySummaryHeader.
func EncodeWaySummary(w io.Writer, ways []overpass.WaySegment) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(WaySummaryHeader); err != nil {
		return err
	}
	for _, way := range ways {
		rec := []string{
			strconv.FormatInt(way.WayID, 10),
			strconv.FormatInt(way.Start.ID, 10),
			formatCoord(way.Start.Lat),
			formatCoord(way.Start.Lon),
			strconv.FormatInt(way.End.ID, 10),
			formatCoord(way.End.Lat),
			formatCoord(way.End.Lon),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadWaySummary reads the current artifact back.
func (s *Store) ReadWaySummary() ([]overpass.WaySegment, error) {
	if s.waySummaryPath == "" {
		return nil, ErrNoSummary
	}
	f, err := os.Open(s.waySummaryPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoSummary
	}
	if err != nil {
		return nil, fmt.Errorf("store: open way summary: %w", err)
	}
	defer f.Close()

	return DecodeWaySummary(f)
}

// DecodeWaySummary parses CSV written by EncodeWaySummary.
func DecodeWaySummary(r io.Reader) ([]overpass.WaySegment, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(WaySummaryHeader)

	head, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("store: way summary header: %w", err)
	}
	for i, name := range WaySummaryHeader {
		if head[i] != name {
			return nil, fmt.Errorf("store: way summary column %d is %q, want %q", i, head[i], name)
		}
	}

	var out []overpass.WaySegment
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("store: way summary line %d: %w", line, err)
		}
		way, err := parseWayRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("store: way summary line %d: %w", line, err)
		}
		out = append(out, way)
	}
}

func parseWayRecord(rec []string) (overpass.WaySegment, error) {
	var (
		way  overpass.WaySegment
		errs []error
	)
	parseID := func(s string) int64 {
		v, err := strconv.ParseInt(s, 10, 64)
		errs = append(errs, err)
		return v
	}
	parseCoord := func(s string) float64 {
		v, err := strconv.ParseFloat(s, 64)
		errs = append(errs, err)
		return v
	}

	way.WayID = parseID(rec[0])
	way.Start = overpass.Node{ID: parseID(rec[1]), Lat: parseCoord(rec[2]), Lon: parseCoord(rec[3])}
	way.End = overpass.Node{ID: parseID(rec[4]), Lat: parseCoord(rec[5]), Lon: parseCoord(rec[6])}

	return way, errors.Join(errs...)
}

func formatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
