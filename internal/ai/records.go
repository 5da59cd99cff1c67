package ai

// Severity is the model's three-way crash severity label.
type Severity string

const (
	SeverityLow  Severity = "low-severity"
	SeverityMid  Severity = "mid-severity"
	SeverityHigh Severity = "high-severity"
)

// EndType says how the trip ended after the crash.
type EndType string

const (
	EndSuddenStop    EndType = "sudden_stop"
	EndTripContinues EndType = "trip_continues"
)

// ClaimRecord is the structured summary of one crash description.
type ClaimRecord struct {
	ContainStreetInformation bool     `json:"contain_street_information"`
	ContainTravelDirection   bool     `json:"contain_travel_direction"`
	Street                   string   `json:"street"`
	FullAddress              string   `json:"full_address"`
	SeverityLevel            Severity `json:"severity_level"`
	SeverityConfidence       float64  `json:"severity_confidence"`
	SeverityReasoning        string   `json:"severity_reasoning"`
	TravelDirection          string   `json:"travel_direction"`
	CrashSceneEndType        EndType  `json:"crash_scene_end_type"`
}

// ConfidencePercent is the confidence as a whole percentage, truncated.
func (r ClaimRecord) ConfidencePercent() int {
	return int(r.SeverityConfidence * 100)
}

// LocationTaskRecord is the structured form of one road question.
// A radius of 0 means that lookup was not requested.
type LocationTaskRecord struct {
	Address    string  `json:"address"`
	Coordinate bool    `json:"coordinate"`
	Risk       bool    `json:"risk"`
	WayRadius  float64 `json:"way_radius"`
	NodeRadius float64 `json:"node_radius"`
}

// WantsWays reports whether the question asked for way or node ids.
func (r LocationTaskRecord) WantsWays() bool {
	return r.WayRadius > 0 || r.NodeRadius > 0
}

// QueryRadius is the radius used for the map-data query: the way radius, or
// the node radius when only node ids were asked for.
func (r LocationTaskRecord) QueryRadius() float64 {
	if r.WayRadius > 0 {
		return r.WayRadius
	}
	return r.NodeRadius
}
