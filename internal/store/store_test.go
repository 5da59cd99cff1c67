package store_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fd-guo/ChatGeoPT/internal/overpass"
	"github.com/fd-guo/ChatGeoPT/internal/store"
)

var sampleWays = []overpass.WaySegment{
	{
		WayID: 5031234,
		Start: overpass.Node{ID: 101, Lat: 42.3601, Lon: -71.0589},
		End:   overpass.Node{ID: 109, Lat: 42.3612, Lon: -71.0571},
	},
	{
		WayID: 7788,
		Start: overpass.Node{ID: 109, Lat: 42.3612, Lon: -71.0571},
		End:   overpass.Node{ID: 110, Lat: 42.3620, Lon: -71.0550},
	},
}

// ─── WRITE / READ ─────────────────────────────────────────────────────────────

func TestWaySummary_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wayid_outputs", "wayid_summary.csv")
	st := store.New(path)

	if err := st.WriteWaySummary(sampleWays); err != nil {
		t.Fatalf("WriteWaySummary: %v", err)
	}

	got, err := st.ReadWaySummary()
	if err != nil {
		t.Fatalf("ReadWaySummary: %v", err)
	}
	if len(got) != len(sampleWays) {
		t.Fatalf("got %d ways, want %d", len(got), len(sampleWays))
	}
	for i := range got {
		if got[i] != sampleWays[i] {
			t.Errorf("way %d = %+v, want %+v", i, got[i], sampleWays[i])
		}
	}
}

func TestWaySummary_HeaderLayout(t *testing.T) {
	var buf bytes.Buffer
	if err := store.EncodeWaySummary(&buf, sampleWays[:1]); err != nil {
		t.Fatalf("encode: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	want := "way_id,start_node_id,start_node_lat,start_node_lon,end_node_id,end_node_lat,end_node_lon"
	if lines[0] != want {
		t.Errorf("header = %q, want %q", lines[0], want)
	}
	if lines[1] != "5031234,101,42.3601,-71.0589,109,42.3612,-71.0571" {
		t.Errorf("row = %q", lines[1])
	}
}

func TestWaySummary_OverwritesPreviousQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.csv")
	st := store.New(path)

	if err := st.WriteWaySummary(sampleWays); err != nil {
		t.Fatal(err)
	}
	if err := st.WriteWaySummary(nil); err != nil {
		t.Fatal(err)
	}

	got, err := st.ReadWaySummary()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty summary after overwrite, got %d rows", len(got))
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %v", entries)
	}
}

func TestWaySummary_MissingIsErrNoSummary(t *testing.T) {
	st := store.New(filepath.Join(t.TempDir(), "never-written.csv"))
	if _, err := st.ReadWaySummary(); !errors.Is(err, store.ErrNoSummary) {
		t.Errorf("expected ErrNoSummary, got %v", err)
	}
}

func TestWaySummary_DisabledIsNoOp(t *testing.T) {
	st := store.New("")
	if err := st.WriteWaySummary(sampleWays); err != nil {
		t.Errorf("disabled store should not fail: %v", err)
	}
	if _, err := st.ReadWaySummary(); !errors.Is(err, store.ErrNoSummary) {
		t.Errorf("expected ErrNoSummary, got %v", err)
	}
}

func TestDecodeWaySummary_Rejects(t *testing.T) {
	cases := map[string]string{
		"wrong header": "id,a,b,c,d,e,f\n",
		"short row":    "way_id,start_node_id,start_node_lat,start_node_lon,end_node_id,end_node_lat,end_node_lon\n1,2,3\n",
		"bad id":       "way_id,start_node_id,start_node_lat,start_node_lon,end_node_id,end_node_lat,end_node_lon\nx,2,3,4,5,6,7\n",
		"empty":        "",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := store.DecodeWaySummary(strings.NewReader(in)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
