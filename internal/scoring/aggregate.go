// Package scoring holds the pure aggregation math for student totals and the
// global ranking order. Persistence and transactions live in the service
// layer; everything here is deterministic and directly testable.
package scoring

import (
	"sort"

	"meritboard/internal/models"
)

// Limits are the per-category caps consulted on every recompute.
type Limits struct {
	AMax float64
	BMax float64
	CMax float64
}

// DefaultLimits returns the caps used when no ScoreLimit row exists.
func DefaultLimits() Limits {
	return Limits{
		AMax: models.DefaultAMax,
		BMax: models.DefaultBMax,
		CMax: models.DefaultCMax,
	}
}

// SubjectScore derives the capped GPA-based subject score.
func SubjectScore(gpa, aValue, aMax float64) float64 {
	score := (gpa / 4) * aValue
	if score > aMax {
		return aMax
	}
	return score
}

// ClampScore floors a single bonus record score at zero.
func ClampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	return score
}

// TotalScore combines the three categories. Each category sum is capped on
// its own before the combined total is capped again at 100; the double cap
// is deliberate.
func TotalScore(subjectCalculated float64, academic, comprehensive []float64, limits Limits) float64 {
	total := subjectCalculated + cappedSum(academic, limits.BMax) + cappedSum(comprehensive, limits.CMax)
	if total > 100 {
		return 100
	}
	return total
}

func cappedSum(scores []float64, limit float64) float64 {
	var sum float64
	for _, score := range scores {
		sum += score
	}
	if sum > limit {
		return limit
	}
	return sum
}

// Standing is one student's input to the ranking pass.
type Standing struct {
	StudentID  uint
	TotalScore float64
	Ranking    int
}

// Placement is a ranking assignment produced by Rank.
type Placement struct {
	StudentID uint
	Ranking   int
}

// Rank orders all students by total score descending, ties broken by id
// ascending, and assigns positions 1..N. Only students whose position
// changed are returned, so callers persist the minimum number of rows.
func Rank(standings []Standing) []Placement {
	ordered := make([]Standing, len(standings))
	copy(ordered, standings)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].TotalScore != ordered[j].TotalScore {
			return ordered[i].TotalScore > ordered[j].TotalScore
		}
		return ordered[i].StudentID < ordered[j].StudentID
	})

	var changed []Placement
	for i, standing := range ordered {
		rank := i + 1
		if standing.Ranking != rank {
			changed = append(changed, Placement{StudentID: standing.StudentID, Ranking: rank})
		}
	}
	return changed
}
