package refdata

import (
	"fmt"
	"log/slog"

	"github.com/fd-guo/ChatGeoPT/internal/scoring"
)

// Options names the dataset files and the resolutions to index them at.
type Options struct {
	EventsPath     string
	RoadPointsPath string
	TripPointsPath string
	RiskResolution int
	RoadResolution int
}

// Data is every reference dataset, read-only after Load.
type Data struct {
	Events *scoring.EventsAggregate
	Road   *Road
	Trip   []TripPoint
}

// Load reads all datasets named in opts. An empty path leaves that dataset
// nil; the assistant reports it as unavailable when asked.
func Load(opts Options, logger *slog.Logger) (*Data, error) {
	d := &Data{}

	if opts.EventsPath != "" {
		events, stats, err := LoadEvents(opts.EventsPath, opts.RiskResolution)
		if err != nil {
			return nil, err
		}
		if events.Len() == 0 {
			return nil, fmt.Errorf("refdata: events %s: no indexable rows", opts.EventsPath)
		}
		d.Events = events
		logger.Info("refdata: events loaded",
			"path", opts.EventsPath, "rows", stats.Rows, "skipped", stats.Skipped, "cells", events.Len())
	}

	if opts.RoadPointsPath != "" {
		road, stats, err := LoadRoad(opts.RoadPointsPath, opts.RoadResolution)
		if err != nil {
			return nil, err
		}
		d.Road = road
		logger.Info("refdata: road loaded",
			"path", opts.RoadPointsPath, "rows", stats.Rows, "skipped", stats.Skipped, "cells", len(road.Cells))
	}

	if opts.TripPointsPath != "" {
		trip, stats, err := LoadTrip(opts.TripPointsPath, opts.RoadResolution)
		if err != nil {
			return nil, err
		}
		d.Trip = trip
		logger.Info("refdata: trip loaded",
			"path", opts.TripPointsPath, "rows", stats.Rows, "unindexed", stats.Skipped)
	}

	return d, nil
}

// Missing names the datasets that were not loaded, in a fixed order.
func (d *Data) Missing() []string {
	var out []string
	if d.Events == nil {
		out = append(out, "events")
	}
	if d.Road == nil {
		out = append(out, "road")
	}
	if len(d.Trip) == 0 {
		out = append(out, "trip")
	}
	return out
}
