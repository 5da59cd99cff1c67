// Package scoring implements the road-risk bucketing: per-cell risk sums are
// compared against percentile thresholds drawn from the whole aggregate and
// placed in one of four ordered tiers. It imports nothing from internal/
// except spatial's Cell type and can be tested without any network.
package scoring

import (
	"math"
	"sort"
)

// ─── CONSTANTS ────────────────────────────────────────────────────────────────

// Percentiles of the per-cell risk distribution that open each elevated tier.
const (
	MediumPercentile  = 70.0
	HighPercentile    = 80.0
	ExtremePercentile = 90.0
)

// ─── TYPES ────────────────────────────────────────────────────────────────────

// RiskTier is the four-bucket ordered classification of a cell.
type RiskTier string

const (
	TierLow     RiskTier = "low"
	TierMedium  RiskTier = "medium"
	TierHigh    RiskTier = "high"
	TierExtreme RiskTier = "extreme"
)

// Rank orders tiers: low < medium < high < extreme. Unknown tiers rank as low.
func (t RiskTier) Rank() int {
	switch t {
	case TierMedium:
		return 1
	case TierHigh:
		return 2
	case TierExtreme:
		return 3
	default:
		return 0
	}
}

// Thresholds are the lower bounds of the medium, high and extreme tiers.
type Thresholds struct {
	Medium  float64 `json:"medium"`
	High    float64 `json:"high"`
	Extreme float64 `json:"extreme"`
}

// ─── CORE FUNCTIONS ───────────────────────────────────────────────────────────

// Percentile returns the p-th percentile (0–100) of values using linear
// interpolation between closest ranks, the same definition numpy uses by
// default. values is not modified. Returns 0 for an empty slice.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	p = math.Max(0, math.Min(100, p))
	pos := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// round1 rounds to one decimal place, halves away from zero.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// ComputeThresholds derives the tier cutoffs from the 70th, 80th and 90th
// percentiles of scores, each rounded to one decimal. It is a pure function of
// its input and is meant to be called afresh for every risk query.
func ComputeThresholds(scores []float64) Thresholds {
	return Thresholds{
		Medium:  round1(Percentile(scores, MediumPercentile)),
		High:    round1(Percentile(scores, HighPercentile)),
		Extreme: round1(Percentile(scores, ExtremePercentile)),
	}
}

// Classify places score in a tier using half-open intervals:
//
//	extreme — [Extreme, +∞)
//	high    — [High, Extreme)
//	medium  — [Medium, High)
//	low     — everything below Medium
//
// Checking from the top down keeps the function total and monotonic even when
// two thresholds coincide. NaN scores are low.
func Classify(score float64, th Thresholds) RiskTier {
	switch {
	case score >= th.Extreme:
		return TierExtreme
	case score >= th.High:
		return TierHigh
	case score >= th.Medium:
		return TierMedium
	default:
		return TierLow
	}
}

// ─── AGGREGATE HELPERS ────────────────────────────────────────────────────────

// CountByTier tallies how many of the given tiers fall in each bucket.
func CountByTier(tiers []RiskTier) map[RiskTier]int {
	out := map[RiskTier]int{TierLow: 0, TierMedium: 0, TierHigh: 0, TierExtreme: 0}
	for _, t := range tiers {
		out[t]++
	}
	return out
}

// FilterByTier returns only the cells whose tier matches any of tiers,
// preserving order.
func FilterByTier(cells []CellRisk, tiers ...RiskTier) []CellRisk {
	set := make(map[RiskTier]struct{}, len(tiers))
	for _, t := range tiers {
		set[t] = struct{}{}
	}
	out := make([]CellRisk, 0, len(cells))
	for _, c := range cells {
		if _, ok := set[c.Tier]; ok {
			out = append(out, c)
		}
	}
	return out
}
