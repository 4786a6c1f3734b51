package types

import "fmt"

// Rating is a user's five-point quality score for one analysis.
type Rating int

// Rating values, best first.
const (
	RatingExcellent Rating = 5
	RatingGood      Rating = 4
	RatingAverage   Rating = 3
	RatingBad       Rating = 2
	RatingTerrible  Rating = 1
)

// AllRatings lists ratings in keyboard order.
var AllRatings = []Rating{RatingExcellent, RatingGood, RatingAverage, RatingBad, RatingTerrible}

var ratingLabels = map[Rating]string{
	RatingExcellent: "عالی",
	RatingGood:      "خوب",
	RatingAverage:   "متوسط",
	RatingBad:       "بد",
	RatingTerrible:  "افتضاح",
}

// Valid reports whether r is within 1..5.
func (r Rating) Valid() bool {
	return r >= RatingTerrible && r <= RatingExcellent
}

// Label returns the localized label, or "نامشخص" for out-of-range values.
func (r Rating) Label() string {
	if label, ok := ratingLabels[r]; ok {
		return label
	}
	return "نامشخص"
}

// Stars renders the rating as star glyphs.
func (r Rating) Stars() string {
	if !r.Valid() {
		return ""
	}
	s := ""
	for i := 0; i < int(r); i++ {
		s += "⭐️"
	}
	return s
}

// ButtonText is the keyboard caption, e.g. "⭐️⭐️⭐️ متوسط".
func (r Rating) ButtonText() string {
	return fmt.Sprintf("%s %s", r.Stars(), r.Label())
}

// QualityMetrics summarises all submitted ratings.
type QualityMetrics struct {
	TotalRatings int            `json:"total_ratings"`
	Average      float64        `json:"average_rating"`
	Distribution map[Rating]int `json:"rating_distribution"`
}

// ComputeQualityMetrics aggregates ratings; invalid values are ignored.
func ComputeQualityMetrics(ratings []Rating) QualityMetrics {
	counts := make(map[Rating]int, len(AllRatings))
	for _, r := range ratings {
		counts[r]++
	}
	return QualityMetricsFromCounts(counts)
}

// QualityMetricsFromCounts builds metrics from per-rating counts. The
// distribution always has an entry for each of 1..5.
func QualityMetricsFromCounts(counts map[Rating]int) QualityMetrics {
	m := QualityMetrics{Distribution: make(map[Rating]int, len(AllRatings))}

	sum := 0
	for _, r := range AllRatings {
		n := counts[r]
		m.Distribution[r] = n
		m.TotalRatings += n
		sum += n * int(r)
	}
	if m.TotalRatings > 0 {
		m.Average = float64(sum) / float64(m.TotalRatings)
	}
	return m
}
