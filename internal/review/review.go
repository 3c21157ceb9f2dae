// Package review implements the multi-stage review state machine shared by
// volunteer records and student review tickets. It is pure: callers load the
// record, apply a transition, and persist the result.
package review

import (
	"time"

	"meritboard/internal/apperrors"
	"meritboard/internal/models"
)

// Decisions a reviewer can take on a pending record.
const (
	DecisionAdvance = "advance"
	DecisionReject  = "reject"
	DecisionReset   = "reset"
)

// Admin override actions on an already-decided record.
const (
	OverrideReopen = "reopen"
	OverrideCancel = "cancel"
)

// Note prefix marking trail entries created through the admin override path.
const adminNotePrefix = "admin review"

// Stages in review order. The last element is the terminal stage.
var stages = []string{
	models.StageOne,
	models.StageTwo,
	models.StageThree,
	models.StageCompleted,
}

// State is the reviewable portion of a record.
type State struct {
	Stage  string
	Status string
	Notes  string
	Trail  models.ReviewTrail
}

// NewState returns the initial state of a freshly submitted record.
func NewState() State {
	return State{
		Stage:  models.StageOne,
		Status: models.StatusPending,
		Trail:  models.ReviewTrail{},
	}
}

// NextStage returns the stage after current in review order. Unknown stages
// restart at stage one; the terminal stage stays terminal.
func NextStage(current string) string {
	for i, stage := range stages {
		if stage != current {
			continue
		}
		if i >= len(stages)-1 {
			return models.StageCompleted
		}
		return stages[i+1]
	}
	return models.StageOne
}

// IsTerminal reports whether the state can no longer move through the
// ordinary review path.
func IsTerminal(s State) bool {
	switch s.Status {
	case models.StatusRejected, models.StatusCancelled:
		return true
	case models.StatusApproved:
		return s.Stage == models.StageCompleted
	}
	return false
}

// Apply executes one reviewer decision and returns the new state. Every
// decision appends exactly one trail entry, except reset which replaces the
// whole trail with the entry describing the restart.
func Apply(s State, decision, reviewer, note string, now time.Time) (State, error) {
	switch decision {
	case DecisionReject:
		s.Status = models.StatusRejected
		s.Notes = note
		s.Trail = appendEntry(s.Trail, s.Stage, reviewer, note, now)
	case DecisionReset:
		s.Stage = models.StageOne
		s.Status = models.StatusPending
		s.Notes = note
		s.Trail = models.ReviewTrail{entry(s.Stage, reviewer, note, now)}
	case DecisionAdvance:
		next := NextStage(s.Stage)
		s.Stage = next
		if next == models.StageCompleted {
			s.Status = models.StatusApproved
		}
		s.Notes = note
		s.Trail = appendEntry(s.Trail, s.Stage, reviewer, note, now)
	default:
		return s, apperrors.Validation("unknown review decision %q", decision)
	}
	return s, nil
}

// ApplyOverride executes an admin override on an already-decided record.
// Pending records must go through the ordinary review path first.
func ApplyOverride(s State, action, reviewer, note string, now time.Time) (State, error) {
	if s.Status == models.StatusPending {
		return s, apperrors.Validation("pending records must be reviewed by a teacher, not overridden")
	}

	adminNote := adminNotePrefix
	if note != "" {
		adminNote = adminNotePrefix + ": " + note
	}

	if action == OverrideReopen {
		s.Stage = models.StageOne
		s.Status = models.StatusPending
		s.Notes = note
		s.Trail = models.ReviewTrail{entry(s.Stage, reviewer, adminNote, now)}
		return s, nil
	}

	// Any other override action cancels the record; the trail is kept.
	s.Status = models.StatusCancelled
	s.Notes = note
	s.Trail = appendEntry(s.Trail, s.Stage, reviewer, adminNote, now)
	return s, nil
}

// ResetForEdit returns the state a self-submitted record falls back to when
// its owning student edits it: any partial review is invalidated.
func ResetForEdit() State {
	return NewState()
}

func appendEntry(trail models.ReviewTrail, stage, reviewer, note string, now time.Time) models.ReviewTrail {
	out := make(models.ReviewTrail, len(trail), len(trail)+1)
	copy(out, trail)
	return append(out, entry(stage, reviewer, note, now))
}

func entry(stage, reviewer, note string, now time.Time) models.TrailEntry {
	return models.TrailEntry{
		Stage:     stage,
		Reviewer:  reviewer,
		Note:      note,
		Timestamp: now,
	}
}
