package refdata

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd-guo/ChatGeoPT/internal/scoring"
	"github.com/fd-guo/ChatGeoPT/internal/spatial"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func mustCell(t *testing.T, lat, lon float64, res int) spatial.Cell {
	t.Helper()
	c, ok := spatial.CellOf(lat, lon, res)
	require.True(t, ok)
	return c
}

// ─── Events ───────────────────────────────────────────────────────────────────

func TestLoadEvents_CSVWithCells(t *testing.T) {
	a := mustCell(t, 40.7128, -74.0060, 9)
	b := mustCell(t, 40.7306, -73.9352, 9)
	path := writeFile(t, "events.csv", strings.Join([]string{
		"h3_9,risk",
		string(a) + ",10",
		string(a) + ",5.5",
		string(b) + ",2",
	}, "\n"))

	agg, stats, err := LoadEvents(path, 9)
	require.NoError(t, err)
	assert.Equal(t, LoadStats{Rows: 3, Indexed: 3}, stats)
	assert.Equal(t, 2, agg.Len())

	risk, ok := agg.Risk(a)
	require.True(t, ok)
	assert.InDelta(t, 15.5, risk, 1e-9)
}

func TestLoadEvents_CSVWithCoordinatesSkipsBadRows(t *testing.T) {
	path := writeFile(t, "events.csv", strings.Join([]string{
		"lat,lon,risk",
		"40.7128,-74.0060,1",
		"95,-74.0060,1",     // latitude out of range
		"north,-74.0060,1",  // unparseable
		"40.7128,-74.0060,2",
	}, "\n"))

	agg, stats, err := LoadEvents(path, 9)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Rows)
	assert.Equal(t, 2, stats.Indexed)
	assert.Equal(t, 2, stats.Skipped)

	risk, ok := agg.Risk(mustCell(t, 40.7128, -74.0060, 9))
	require.True(t, ok)
	assert.InDelta(t, 3, risk, 1e-9)
}

func TestLoadEvents_NonFiniteRiskIsSkipped(t *testing.T) {
	a := mustCell(t, 40.7128, -74.0060, 9)
	b := mustCell(t, 40.7306, -73.9352, 9)
	path := writeFile(t, "events.csv", strings.Join([]string{
		"h3_9,risk",
		string(a) + ",NaN",
		string(a) + ",1",
		string(b) + ",+Inf",
		string(b) + ",-inf",
		string(b) + ",2",
		string(b) + ",3",
	}, "\n"))

	agg, stats, err := LoadEvents(path, 9)
	require.NoError(t, err)
	assert.Equal(t, LoadStats{Rows: 6, Indexed: 3, Skipped: 3}, stats)

	// Only the finite scores feed the thresholds: cells sum to 1 and 5.
	th, err := agg.Thresholds()
	require.NoError(t, err)
	assert.Equal(t, scoring.ComputeThresholds([]float64{1, 5}), th)
}

func TestLoadEvents_StoredCellAtOtherResolutionIsReindexed(t *testing.T) {
	coarse := mustCell(t, 40.7128, -74.0060, 7)
	path := writeFile(t, "events.csv", "h3_9,lat,lon,risk\n"+string(coarse)+",40.7128,-74.0060,4\n")

	agg, _, err := LoadEvents(path, 9)
	require.NoError(t, err)
	_, ok := agg.Risk(mustCell(t, 40.7128, -74.0060, 9))
	assert.True(t, ok)
}

func TestLoadEvents_Parquet(t *testing.T) {
	a := mustCell(t, 51.5074, -0.1278, 9)
	path := filepath.Join(t.TempDir(), "events.parquet")
	require.NoError(t, parquet.WriteFile(path, []parquetEvent{
		{H3: string(a), Risk: 3},
		{Lat: 51.5074, Lon: -0.1278, Risk: 4},
		{Risk: 100}, // no cell, no coordinates
	}))

	agg, stats, err := LoadEvents(path, 9)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Skipped)

	risk, ok := agg.Risk(a)
	require.True(t, ok)
	assert.InDelta(t, 7, risk, 1e-9)
}

func TestLoadEvents_Errors(t *testing.T) {
	cases := map[string]struct {
		name, content string
	}{
		"unsupported extension": {"events.json", "{}"},
		"missing risk column":   {"events.csv", "h3_9\nabc\n"},
		"missing cell columns":  {"events.csv", "risk\n1\n"},
		"bad risk value":        {"events.csv", "lat,lon,risk\n1,1,high\n"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := LoadEvents(writeFile(t, tc.name, tc.content), 9)
			assert.Error(t, err)
		})
	}
}

// ─── Road and trip ────────────────────────────────────────────────────────────

func TestLoadRoad_SortedByLatitude(t *testing.T) {
	path := writeFile(t, "highway.csv", strings.Join([]string{
		"lat,lon",
		"29.70,-82.33",
		"29.60,-82.32",
		"29.80,-82.34",
		"29.65,-82.325",
	}, "\n"))

	road, stats, err := LoadRoad(path, 10)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Rows)

	start, ok := road.Start()
	require.True(t, ok)
	end, ok := road.End()
	require.True(t, ok)
	assert.Equal(t, spatial.LatLng{Lat: 29.60, Lon: -82.32}, start)
	assert.Equal(t, spatial.LatLng{Lat: 29.80, Lon: -82.34}, end)

	for i := 1; i < len(road.Points); i++ {
		assert.LessOrEqual(t, road.Points[i-1].Lat, road.Points[i].Lat)
	}
	assert.True(t, road.Contains(mustCell(t, 29.70, -82.33, 10)))
}

func TestRoad_EmptyHasNoEndpoints(t *testing.T) {
	road := NewRoad(nil, 10)
	_, ok := road.Start()
	assert.False(t, ok)
	_, ok = road.End()
	assert.False(t, ok)
}

func TestLoadTrip_MapMatchedColumnsAndOrder(t *testing.T) {
	path := writeFile(t, "crash_ad.csv", strings.Join([]string{
		"trip_id,mm_lat,mm_lon",
		"t1,29.70,-82.33",
		"t1,29.60,-82.32",
		"t1,200,-82.32",
	}, "\n"))

	trip, stats, err := LoadTrip(path, 10)
	require.NoError(t, err)
	require.Len(t, trip, 3)
	assert.Equal(t, 1, stats.Skipped)

	assert.InDelta(t, 29.70, trip[0].Lat, 1e-9, "file order is kept")
	assert.Equal(t, mustCell(t, 29.70, -82.33, 10), trip[0].Cell)
	assert.Empty(t, trip[2].Cell, "out-of-range point is not indexed")
}

func TestReadPoints_MissingColumns(t *testing.T) {
	_, _, err := LoadRoad(writeFile(t, "road.csv", "x,y\n1,2\n"), 10)
	assert.Error(t, err)
}

// ─── Load ─────────────────────────────────────────────────────────────────────

func TestLoad_AllDatasets(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
		return p
	}

	opts := Options{
		EventsPath:     write("events.csv", "lat,lon,risk\n29.70,-82.33,1\n"),
		RoadPointsPath: write("road.csv", "lat,lon\n29.70,-82.33\n"),
		TripPointsPath: write("trip.csv", "mm_lat,mm_lon\n29.70,-82.33\n"),
		RiskResolution: 9,
		RoadResolution: 10,
	}
	d, err := Load(opts, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	require.NotNil(t, d.Events)
	require.NotNil(t, d.Road)
	require.Len(t, d.Trip, 1)
	assert.True(t, scoring.IsOnHighway(d.Trip[0].Cell, d.Road.Cells))
}

func TestLoad_EmptyEventsIsError(t *testing.T) {
	path := writeFile(t, "events.csv", "lat,lon,risk\n")
	_, err := Load(Options{EventsPath: path, RiskResolution: 9}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}

func TestData_Missing(t *testing.T) {
	d := &Data{}
	if got := strings.Join(d.Missing(), ","); got != "events,road,trip" {
		t.Errorf("Missing() = %q", got)
	}
	d.Road = NewRoad(nil, 10)
	if got := strings.Join(d.Missing(), ","); got != "events,trip" {
		t.Errorf("Missing() = %q", got)
	}
}
