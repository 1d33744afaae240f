// Package hype computes the composite hype score for a tracked paper from
// daily metric snapshots. The computation is pure: the caller supplies the
// aligned metric readings, the paper age, and the comparison-set maximum,
// and gets back a score with its full component breakdown. Missing metric
// streams (no linked repository, paper not yet indexed for citations) are
// expected states that degrade the relevant components to zero; the
// functions here never error or panic on well-typed input.
package hype

import "math"

// FormulaVersion names a published weighting of the score components.
// Persisted scores carry the version they were computed with, so historical
// scores remain reproducible if the formula changes later.
type FormulaVersion string

const (
	// FormulaV1Recency is the original formula: growth rates, absolute
	// scale, and a recency bonus, scaled to a 0-100 display range.
	// Votes are ignored.
	FormulaV1Recency FormulaVersion = "v1-recency"

	// FormulaV2Votes folds the dampened vote component in, in place of the
	// recency bonus. Not scaled by 100: the vote term is already on a
	// roughly 0-15 scale, so this variant lives on a different scale than v1.
	FormulaV2Votes FormulaVersion = "v2-votes"
)

// weights is the fixed per-component weight vector of a formula version.
// A component the version does not use carries weight 0, so every total is
// a plain weighted sum of the published breakdown.
type weights struct {
	starVelocity     float64
	citationVelocity float64
	absolute         float64
	recency          float64
	vote             float64
	scale            float64
}

var formulaWeights = map[FormulaVersion]weights{
	FormulaV1Recency: {starVelocity: 0.4, citationVelocity: 0.3, absolute: 0.2, recency: 0.1, scale: 100},
	FormulaV2Votes:   {starVelocity: 0.35, citationVelocity: 0.35, absolute: 0.20, vote: 0.10, scale: 1},
}

// Valid reports whether v names a known formula version.
func (v FormulaVersion) Valid() bool {
	_, ok := formulaWeights[v]
	return ok
}

// Observation is a single day's metric reading for a paper. Stars is nil
// when the paper has no linked repository; Citations is nil when the paper
// has not been indexed by the citation source yet. Votes defaults to zero
// for papers nobody has voted on.
type Observation struct {
	Stars     *int
	Citations *int
	Votes     int
}

// Inputs carries everything one scoring call needs. The caller aligns the
// lookback readings: WeekAgo is the snapshot dated 7 days before today, or
// the nearest available earlier one; MonthAgo likewise at 30 days.
// MaxStars is the maximum star count across the comparison set (papers in
// the same topic, or the global set) and must be held fixed for all papers
// scored in one batch group.
type Inputs struct {
	Today            Observation
	WeekAgo          Observation
	MonthAgo         Observation
	DaysSincePublish int
	MaxStars         int
}

// Trend labels the short-term star trajectory for display. It is derived
// from the 7-day star growth rate alone, independent of the composed score.
type Trend string

const (
	TrendRising    Trend = "rising"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
)

// Result is the composed score plus its breakdown. Every component field is
// always populated (0.0 when the underlying metric is absent) so display
// code can render all metric cards without null checks.
type Result struct {
	TotalScore            float64        `json:"total_score"`
	StarVelocityScore     float64        `json:"star_velocity_score"`
	CitationVelocityScore float64        `json:"citation_velocity_score"`
	AbsoluteMetricsScore  float64        `json:"absolute_metrics_score"`
	RecencyScore          float64        `json:"recency_score"`
	VoteComponent         float64        `json:"vote_component"`
	Trend                 Trend          `json:"trend"`
	Formula               FormulaVersion `json:"formula"`
}

// Score computes the hype score for one paper under the given formula
// version. Unknown versions fall back to FormulaV1Recency. The total is
// clamped to be non-negative; the individual components are reported
// unclamped so a decline stays visible in the breakdown.
func Score(in Inputs, v FormulaVersion) Result {
	w, ok := formulaWeights[v]
	if !ok {
		v = FormulaV1Recency
		w = formulaWeights[v]
	}

	starGrowth := growthRate(in.Today.Stars, in.WeekAgo.Stars)

	r := Result{
		StarVelocityScore:     starGrowth,
		CitationVelocityScore: growthRate(in.Today.Citations, in.MonthAgo.Citations),
		AbsoluteMetricsScore:  normalizeStars(in.Today.Stars, in.MaxStars),
		RecencyScore:          recencyBonus(in.DaysSincePublish),
		VoteComponent:         voteComponent(in.Today.Votes),
		Trend:                 trendLabel(starGrowth),
		Formula:               v,
	}

	total := (w.starVelocity*r.StarVelocityScore +
		w.citationVelocity*r.CitationVelocityScore +
		w.absolute*r.AbsoluteMetricsScore +
		w.recency*r.RecencyScore +
		w.vote*r.VoteComponent) * w.scale

	r.TotalScore = math.Max(0, total)
	return r
}

// trendLabel buckets the 7-day star growth rate: above +10% is rising,
// below -5% is declining, anything between is stable.
func trendLabel(starGrowth float64) Trend {
	switch {
	case starGrowth > 0.10:
		return TrendRising
	case starGrowth < -0.05:
		return TrendDeclining
	default:
		return TrendStable
	}
}
