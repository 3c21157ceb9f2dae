package scoring

import (
	"testing"
)

func TestSubjectScore(t *testing.T) {
	testCases := []struct {
		name   string
		gpa    float64
		aValue float64
		aMax   float64
		want   float64
	}{
		{"full gpa at cap", 4, 80, 80, 80},
		{"half gpa", 2, 80, 80, 40},
		{"cap lower than configured value", 4, 80, 50, 50},
		{"zero gpa", 0, 80, 80, 0},
		{"fractional gpa", 3.2, 80, 80, 64},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := SubjectScore(tc.gpa, tc.aValue, tc.aMax)
			if got != tc.want {
				t.Errorf("SubjectScore(%v, %v, %v) = %v, want %v", tc.gpa, tc.aValue, tc.aMax, got, tc.want)
			}
			if got > tc.aMax {
				t.Errorf("subject score %v exceeds cap %v", got, tc.aMax)
			}
		})
	}
}

func TestClampScore(t *testing.T) {
	if got := ClampScore(-3); got != 0 {
		t.Errorf("ClampScore(-3) = %v, want 0", got)
	}
	if got := ClampScore(7.5); got != 7.5 {
		t.Errorf("ClampScore(7.5) = %v, want 7.5", got)
	}
}

func TestTotalScore(t *testing.T) {
	testCases := []struct {
		name          string
		subject       float64
		academic      []float64
		comprehensive []float64
		limits        Limits
		want          float64
	}{
		{
			name:          "default limits no bonus",
			subject:       60,
			limits:        DefaultLimits(),
			want:          60,
		},
		{
			name:          "category sums capped independently",
			subject:       50,
			academic:      []float64{8, 10},
			comprehensive: []float64{9, 6},
			limits:        Limits{AMax: 50, BMax: 12, CMax: 10},
			want:          72,
		},
		{
			name:          "combined total capped at 100",
			subject:       80,
			academic:      []float64{15},
			comprehensive: []float64{10},
			limits:        Limits{AMax: 80, BMax: 15, CMax: 10},
			want:          100,
		},
		{
			name:          "under both caps",
			subject:       40,
			academic:      []float64{3, 4},
			comprehensive: []float64{1},
			limits:        DefaultLimits(),
			want:          48,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := TotalScore(tc.subject, tc.academic, tc.comprehensive, tc.limits)
			if got != tc.want {
				t.Errorf("TotalScore = %v, want %v", got, tc.want)
			}
			if got > 100 {
				t.Errorf("total score %v exceeds 100", got)
			}
		})
	}
}

// Mirrors the worked scenario from the product requirements: gpa 4 against a
// configured a_value of 80 but an a_max of 50 yields 50, bonus categories cap
// at 12 and 10, for a total of 72.
func TestTotalScoreWorkedExample(t *testing.T) {
	limits := Limits{AMax: 50, BMax: 12, CMax: 10}
	subject := SubjectScore(4, 80, limits.AMax)
	if subject != 50 {
		t.Fatalf("subject score = %v, want 50", subject)
	}
	total := TotalScore(subject, []float64{8, 10}, []float64{9, 6}, limits)
	if total != 72 {
		t.Fatalf("total = %v, want 72", total)
	}
}

func TestRank(t *testing.T) {
	standings := []Standing{
		{StudentID: 1, TotalScore: 70, Ranking: 1},
		{StudentID: 2, TotalScore: 85, Ranking: 2},
		{StudentID: 3, TotalScore: 70, Ranking: 3},
		{StudentID: 4, TotalScore: 10, Ranking: 4},
	}

	changed := Rank(standings)

	// Expected order: 2 (85), 1 (70, lower id), 3 (70), 4 (10). Students 2
	// and 1 move; 3 and 4 keep their positions.
	want := map[uint]int{2: 1, 1: 2}
	if len(changed) != len(want) {
		t.Fatalf("expected %d changed placements, got %d: %+v", len(want), len(changed), changed)
	}
	for _, placement := range changed {
		if want[placement.StudentID] != placement.Ranking {
			t.Errorf("student %d ranked %d, want %d", placement.StudentID, placement.Ranking, want[placement.StudentID])
		}
	}
}

func TestRankStableOnNoChange(t *testing.T) {
	standings := []Standing{
		{StudentID: 1, TotalScore: 90, Ranking: 1},
		{StudentID: 2, TotalScore: 80, Ranking: 2},
	}
	if changed := Rank(standings); len(changed) != 0 {
		t.Errorf("expected no placements to change, got %+v", changed)
	}
}
