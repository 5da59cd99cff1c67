package assistant

import (
	"context"
	"strconv"
	"strings"

	"github.com/fd-guo/ChatGeoPT/internal/ai"
	"github.com/fd-guo/ChatGeoPT/internal/claimsink"
	"github.com/fd-guo/ChatGeoPT/internal/geocode"
	"github.com/fd-guo/ChatGeoPT/internal/render"
	"github.com/fd-guo/ChatGeoPT/internal/spatial"
)

// Fixed user-facing messages.
const (
	MsgNoResults      = "No results found in OSM"
	MsgNoStreet       = "From the description, I cannot identify any information about the street on which the crash happened."
	MsgCannotLocate   = "However, I cannot locate this road in the OSM dataset"
	MsgTripContinues  = "After the crash, the driver did not come to a sudden stop but continued to drive."
	MsgSuddenStop     = "After the crash, the driver came to a sudden stop and did not continue to drive."
	MsgReasoningLead  = "The reasoning for this categorization is as follows:"
	MsgCheckRiskMap   = "Please check the road risk map."
	MsgNoTripOverlay  = "No matched trip is available to overlay on the map."
	MsgNoRiskGridCell = "The address could not be placed on the risk grid."
)

// labelClaim runs the claim labeller: extract, geocode the street, describe
// the claim, and overlay the matched trip on the reference road.
func (s *Service) labelClaim(ctx context.Context, text string, ans *Answer) error {
	llmStart := s.clock.Now()
	rec, err := s.extractor.ExtractClaim(ctx, text)
	s.timeLLM("claim", llmStart)
	if err != nil {
		return err
	}
	ans.Record = rec

	address := strings.TrimSpace(rec.FullAddress)
	if !rec.ContainStreetInformation || address == "" {
		ans.say(MsgNoStreet)
		s.publish(ctx, ans, text, rec, nil)
		return nil
	}

	loc, found, err := s.geocoder.ForwardGeocode(ctx, address)
	if err != nil {
		return err
	}
	if !found {
		ans.say("From the description, I have identified that the crash happened on this road: %s", address)
		ans.say(MsgCannotLocate)
		ans.say(MsgNoResults)
		s.publish(ctx, ans, text, rec, nil)
		return nil
	}
	ans.Location = &loc

	ans.say("From the description, I have identified that the crash happened on this street: %s", address)
	if rec.TravelDirection != "" {
		ans.say("Before the crash happened, the driver was traveling in this direction: %s.", rec.TravelDirection)
	}
	ans.say("The crash incident can be categorized as %s with %d%% confidence.", rec.SeverityLevel, rec.ConfidencePercent())
	ans.say(MsgReasoningLead)
	ans.say("%s", rec.SeverityReasoning)
	if rec.CrashSceneEndType == ai.EndTripContinues {
		ans.say(MsgTripContinues)
	} else {
		ans.say(MsgSuddenStop)
	}

	s.overlayTrip(ans)
	s.publish(ctx, ans, text, rec, &loc)
	return nil
}

// overlayTrip reports the reference road's endpoints and draws the matched
// trip, each point coloured by exact cell membership in the road.
func (s *Service) overlayTrip(ans *Answer) {
	road := s.data.Road
	if road == nil {
		ans.say(MsgNoTripOverlay)
		return
	}

	if start, ok := road.Start(); ok {
		ans.say("The START latitude and longitude of the road is %s", formatLatLng(start))
	}
	if end, ok := road.End(); ok {
		ans.say("The END latitude and longitude of the road is %s", formatLatLng(end))
	}

	if len(s.data.Trip) == 0 {
		ans.say(MsgNoTripOverlay)
		return
	}
	samples := make([]render.TripSample, len(s.data.Trip))
	for i, p := range s.data.Trip {
		samples[i] = render.TripSample{At: p.LatLng, OnHighway: road.Contains(p.Cell)}
	}
	ans.Map = render.TripMap(samples)
}

// publish hands the labelled claim to the claims sink. A publish failure is
// logged and does not fail the request.
func (s *Service) publish(ctx context.Context, ans *Answer, text string, rec ai.ClaimRecord, loc *geocode.Location) {
	claim := claimsink.LabelledClaim{
		ID:          ans.ID.String(),
		Description: text,
		Record:      rec,
		LabelledAt:  s.clock.Now().UTC(),
	}
	if loc != nil {
		claim.Located = true
		claim.Lat, claim.Lon = loc.Lat, loc.Lon
	}
	if err := s.claims.Publish(ctx, claim); err != nil {
		s.logger.Warn("assistant: publish labelled claim", "id", claim.ID, "error", err)
	}
}

// formatLatLng prints "(lat, lon)" using the shortest exact decimal form.
func formatLatLng(p spatial.LatLng) string {
	return "(" + formatCoord(p.Lat) + ", " + formatCoord(p.Lon) + ")"
}

func formatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
