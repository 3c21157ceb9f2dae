package review

import (
	"strings"
	"testing"
	"time"

	"meritboard/internal/apperrors"
	"meritboard/internal/models"
)

var testTime = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func TestNextStage(t *testing.T) {
	testCases := []struct {
		current string
		want    string
	}{
		{models.StageOne, models.StageTwo},
		{models.StageTwo, models.StageThree},
		{models.StageThree, models.StageCompleted},
		{models.StageCompleted, models.StageCompleted},
		{"bogus", models.StageOne},
	}
	for _, tc := range testCases {
		if got := NextStage(tc.current); got != tc.want {
			t.Errorf("NextStage(%q) = %q, want %q", tc.current, got, tc.want)
		}
	}
}

func TestApplyAdvanceFullPath(t *testing.T) {
	s := NewState()

	for i, wantStage := range []string{models.StageTwo, models.StageThree, models.StageCompleted} {
		var err error
		s, err = Apply(s, DecisionAdvance, "teacher-1", "ok", testTime)
		if err != nil {
			t.Fatalf("advance %d: %v", i+1, err)
		}
		if s.Stage != wantStage {
			t.Fatalf("advance %d: stage = %q, want %q", i+1, s.Stage, wantStage)
		}
		if len(s.Trail) != i+1 {
			t.Fatalf("advance %d: trail length = %d, want %d", i+1, len(s.Trail), i+1)
		}
		if s.Trail[i].Stage != wantStage {
			t.Errorf("advance %d: trail entry stage = %q, want post-transition stage %q", i+1, s.Trail[i].Stage, wantStage)
		}

		wantStatus := models.StatusPending
		if wantStage == models.StageCompleted {
			wantStatus = models.StatusApproved
		}
		if s.Status != wantStatus {
			t.Errorf("advance %d: status = %q, want %q", i+1, s.Status, wantStatus)
		}
	}

	if !IsTerminal(s) {
		t.Error("completed approved record should be terminal")
	}
}

func TestApplyReject(t *testing.T) {
	s := NewState()
	s, err := Apply(s, DecisionAdvance, "teacher-1", "looks fine", testTime)
	if err != nil {
		t.Fatal(err)
	}
	s, err = Apply(s, DecisionReject, "teacher-2", "missing proof", testTime)
	if err != nil {
		t.Fatal(err)
	}

	if s.Status != models.StatusRejected {
		t.Errorf("status = %q, want rejected", s.Status)
	}
	if s.Stage != models.StageTwo {
		t.Errorf("stage = %q, reject must keep the current stage", s.Stage)
	}
	if len(s.Trail) != 2 {
		t.Fatalf("trail length = %d, want 2", len(s.Trail))
	}
	if s.Trail[1].Note != "missing proof" || s.Trail[1].Reviewer != "teacher-2" {
		t.Errorf("unexpected reject trail entry: %+v", s.Trail[1])
	}
	if !IsTerminal(s) {
		t.Error("rejected record should be terminal")
	}
}

func TestApplyResetReplacesTrail(t *testing.T) {
	s := NewState()
	for range 2 {
		var err error
		s, err = Apply(s, DecisionAdvance, "teacher-1", "ok", testTime)
		if err != nil {
			t.Fatal(err)
		}
	}

	s, err := Apply(s, DecisionReset, "teacher-1", "wrong attachment reviewed", testTime)
	if err != nil {
		t.Fatal(err)
	}
	if s.Stage != models.StageOne || s.Status != models.StatusPending {
		t.Errorf("reset state = %q/%q, want stage1/pending", s.Stage, s.Status)
	}
	if len(s.Trail) != 1 {
		t.Fatalf("trail length = %d, reset must leave exactly the reset entry", len(s.Trail))
	}
	if s.Trail[0].Note != "wrong attachment reviewed" {
		t.Errorf("unexpected reset trail entry: %+v", s.Trail[0])
	}
}

func TestApplyUnknownDecision(t *testing.T) {
	_, err := Apply(NewState(), "escalate", "teacher-1", "", testTime)
	if !apperrors.IsKind(err, apperrors.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestApplyOverridePendingRejected(t *testing.T) {
	_, err := ApplyOverride(NewState(), OverrideReopen, "admin", "", testTime)
	if !apperrors.IsKind(err, apperrors.KindValidation) {
		t.Fatalf("expected validation error for pending override, got %v", err)
	}
}

func TestApplyOverrideReopen(t *testing.T) {
	s := NewState()
	s, err := Apply(s, DecisionReject, "teacher-1", "no", testTime)
	if err != nil {
		t.Fatal(err)
	}

	s, err = ApplyOverride(s, OverrideReopen, "admin", "second look warranted", testTime)
	if err != nil {
		t.Fatal(err)
	}
	if s.Stage != models.StageOne || s.Status != models.StatusPending {
		t.Errorf("reopen state = %q/%q, want stage1/pending", s.Stage, s.Status)
	}
	if len(s.Trail) != 1 {
		t.Fatalf("reopen must wipe the trail, got %d entries", len(s.Trail))
	}
	if !strings.HasPrefix(s.Trail[0].Note, "admin review") {
		t.Errorf("reopen trail note %q missing admin marker", s.Trail[0].Note)
	}
}

func TestApplyOverrideCancelAppends(t *testing.T) {
	s := NewState()
	for range 3 {
		var err error
		s, err = Apply(s, DecisionAdvance, "teacher-1", "ok", testTime)
		if err != nil {
			t.Fatal(err)
		}
	}
	if s.Status != models.StatusApproved {
		t.Fatalf("setup: expected approved record, got %q", s.Status)
	}

	s, err := ApplyOverride(s, OverrideCancel, "admin", "duplicate submission", testTime)
	if err != nil {
		t.Fatal(err)
	}
	if s.Status != models.StatusCancelled {
		t.Errorf("status = %q, want cancelled", s.Status)
	}
	if len(s.Trail) != 4 {
		t.Fatalf("cancel must append to the trail, got %d entries", len(s.Trail))
	}
	if !strings.HasPrefix(s.Trail[3].Note, "admin review: ") {
		t.Errorf("cancel trail note %q missing admin marker", s.Trail[3].Note)
	}
	if !IsTerminal(s) {
		t.Error("cancelled record should be terminal")
	}
}

func TestApplyDoesNotAliasTrail(t *testing.T) {
	s := NewState()
	s, err := Apply(s, DecisionAdvance, "teacher-1", "ok", testTime)
	if err != nil {
		t.Fatal(err)
	}
	before := s.Trail

	if _, err := Apply(s, DecisionAdvance, "teacher-2", "ok", testTime); err != nil {
		t.Fatal(err)
	}
	if len(before) != 1 || before[0].Reviewer != "teacher-1" {
		t.Errorf("applying a decision mutated the caller's trail: %+v", before)
	}
}

func TestResetForEdit(t *testing.T) {
	s := ResetForEdit()
	if s.Stage != models.StageOne || s.Status != models.StatusPending {
		t.Errorf("state = %q/%q, want stage1/pending", s.Stage, s.Status)
	}
	if len(s.Trail) != 0 {
		t.Errorf("trail must be empty after a student edit, got %d entries", len(s.Trail))
	}
}
