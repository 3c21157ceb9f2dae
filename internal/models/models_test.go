package models

import "testing"

func TestNormalizeEntityKind(t *testing.T) {
	tests := []struct {
		label string
		want  string
		ok    bool
	}{
		{"academicexpertise", EntityAcademicExpertise, true},
		{"comprehensiveperformance", EntityComprehensivePerformance, true},
		{"AcademicExpertise", EntityAcademicExpertise, true},
		{"scoring.academicexpertise", EntityAcademicExpertise, true},
		{"meritboard.scoring.ComprehensivePerformance", EntityComprehensivePerformance, true},
		{"volunteer", "", false},
		{"scoring.volunteer", "", false},
		{"", "", false},
		{"scoring.", "", false},
	}

	for _, tt := range tests {
		got, ok := NormalizeEntityKind(tt.label)
		if got != tt.want || ok != tt.ok {
			t.Errorf("NormalizeEntityKind(%q) = (%q, %v), want (%q, %v)", tt.label, got, ok, tt.want, tt.ok)
		}
	}
}
