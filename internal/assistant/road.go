package assistant

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/fd-guo/ChatGeoPT/internal/ai"
	"github.com/fd-guo/ChatGeoPT/internal/geocode"
	"github.com/fd-guo/ChatGeoPT/internal/overpass"
	"github.com/fd-guo/ChatGeoPT/internal/render"
	"github.com/fd-guo/ChatGeoPT/internal/scoring"
	"github.com/fd-guo/ChatGeoPT/internal/spatial"
)

// answerRoadQuestion runs the road risk expert: extract the task, geocode the
// address, then answer the coordinate, way and risk parts that were asked.
func (s *Service) answerRoadQuestion(ctx context.Context, text string, ans *Answer) error {
	llmStart := s.clock.Now()
	task, err := s.extractor.ExtractLocationTask(ctx, text)
	s.timeLLM("location", llmStart)
	if err != nil {
		return err
	}
	ans.Record = task

	address := strings.TrimSpace(task.Address)
	if address == "" {
		ans.say(MsgNoResults)
		return nil
	}

	loc, found, err := s.geocoder.ForwardGeocode(ctx, address)
	if err != nil {
		return err
	}
	if !found {
		ans.say(MsgNoResults)
		return nil
	}
	ans.Location = &loc
	at := spatial.LatLng{Lat: loc.Lat, Lon: loc.Lon}

	if task.Coordinate {
		ans.say("The latitude and longitude for the given address is %s", formatLatLng(at))
	}

	if task.WantsWays() {
		if err := s.answerWays(ctx, task, at, ans); err != nil {
			return err
		}
	}

	if task.Risk {
		return s.answerRisk(task, loc, ans)
	}
	return nil
}

// answerWays fetches the ways around at. When risk was not asked for, the
// way ids are listed, the summary artifact is rewritten and the ways map is
// drawn; otherwise the risk map takes the map pane.
func (s *Service) answerWays(ctx context.Context, task ai.LocationTaskRecord, at spatial.LatLng, ans *Answer) error {
	ways, err := s.ways.FetchWays(ctx, at.Lat, at.Lon, task.QueryRadius())
	if err != nil {
		return err
	}
	ans.Ways = ways

	if task.Risk {
		return nil
	}

	ans.say("Way_id includes %s", joinWayIDs(ways))
	if s.summary != nil && s.summary.WaySummaryPath() != "" {
		if err := s.summary.WriteWaySummary(ways); err != nil {
			return fmt.Errorf("assistant: write way summary: %w", err)
		}
		ans.say("Detailed way id information is stored in %q", s.summary.WaySummaryPath())
	}
	ans.Map = render.WaysMap(at, ways)
	return nil
}

// answerRisk classifies the address cell and its ring-1 neighbours against
// thresholds recomputed from the events aggregate.
func (s *Service) answerRisk(task ai.LocationTaskRecord, loc geocode.Location, ans *Answer) error {
	events := s.data.Events
	if events == nil {
		return fmt.Errorf("%w: events", ErrReferenceDataUnavailable)
	}
	th, err := events.Thresholds()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrReferenceDataUnavailable, err)
	}

	origin, ok := spatial.CellOf(loc.Lat, loc.Lon, s.riskRes)
	if !ok {
		ans.say(MsgNoRiskGridCell)
		return nil
	}
	ring, ok := spatial.Neighbors(origin, 1)
	if !ok {
		ans.say(MsgNoRiskGridCell)
		return nil
	}

	cells := events.ClassifyCells(ring, th)
	tiers := make([]scoring.RiskTier, len(cells))
	for i, c := range cells {
		tiers[i] = c.Tier
	}
	counts := scoring.CountByTier(tiers)
	if s.metrics != nil {
		for tier, n := range counts {
			s.metrics.RiskCells.WithLabelValues(string(tier)).Add(float64(n))
		}
	}
	ans.Risk = &RiskResult{
		Thresholds: th,
		Cells:      cells,
		Counts:     counts,
		Elevated:   scoring.FilterByTier(cells, scoring.TierHigh, scoring.TierExtreme),
	}
	s.logger.Debug("road: risk classified",
		"origin", origin,
		"extreme", counts[scoring.TierExtreme],
		"high", counts[scoring.TierHigh],
		"medium", counts[scoring.TierMedium],
		"low", counts[scoring.TierLow],
	)

	boundary, _ := spatial.Boundary(origin)
	center := spatial.Centroid(boundary)
	at := spatial.LatLng{Lat: loc.Lat, Lon: loc.Lon}

	ans.say(MsgCheckRiskMap)
	ans.Map = render.RiskMap(task.Address, at, center, cells)
	return nil
}

func joinWayIDs(ways []overpass.WaySegment) string {
	ids := make([]string, len(ways))
	for i, w := range ways {
		ids[i] = strconv.FormatInt(w.WayID, 10)
	}
	return strings.Join(ids, ",")
}
