package hype

import "math"

// growthRate is the windowed relative change (today - prev) / max(prev, 1).
// A nil current reading means the metric stream is absent and degrades to 0.
// A nil baseline also degrades to 0: with no earlier snapshot in the window
// there is no velocity to measure. The max(prev, 1) floor makes a 0 -> N
// jump read as growth N instead of dividing by zero.
func growthRate(today, prev *int) float64 {
	if today == nil || prev == nil {
		return 0
	}
	return float64(*today-*prev) / math.Max(float64(*prev), 1)
}

// normalizeStars maps the absolute star count onto [0, 1] against the
// comparison set: log10(stars+1) / log10(max+1). Logarithmic compression
// keeps one outlier repo from crushing everyone else's normalized value
// toward zero. Absent stars or an empty comparison set (max <= 0) yield 0.
func normalizeStars(stars *int, maxStars int) float64 {
	if stars == nil || maxStars <= 0 {
		return 0
	}
	return math.Log10(float64(*stars)+1) / math.Log10(float64(maxStars)+1)
}

// recencyBonus is 1.0 for papers younger than 30 days, decays linearly to
// 0.0 at 60 days, and stays 0 after that. A negative day count (future
// publication date, a data-quality problem upstream) also yields 0.
func recencyBonus(daysSincePublish int) float64 {
	switch {
	case daysSincePublish < 0:
		return 0
	case daysSincePublish < 30:
		return 1
	default:
		return math.Max(0, 1-float64(daysSincePublish-30)/30)
	}
}

// voteComponent dampens the net community vote tally logarithmically,
// log10(1 + votes) * 5, so raw vote counts never approach the scale of the
// growth terms: 10 votes ~ 5.2, 100 ~ 10.0, 1000 ~ 15.0. Zero or negative
// tallies contribute exactly 0, which keeps the component non-negative.
func voteComponent(votes int) float64 {
	if votes <= 0 {
		return 0
	}
	return math.Log10(1+float64(votes)) * 5
}
