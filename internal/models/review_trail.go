package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// TrailEntry is one reviewer action recorded on a reviewable record. Stage is
// the stage the record is in after the action.
type TrailEntry struct {
	Stage     string    `json:"stage"`
	Reviewer  string    `json:"reviewer"`
	Note      string    `json:"note"`
	Timestamp time.Time `json:"timestamp"`
}

// ReviewTrail is the ordered audit log of reviewer actions, stored as a JSONB
// column. It only grows, except for reset and administrative reopen which
// replace it wholesale.
type ReviewTrail []TrailEntry

// Value implements driver.Valuer so the trail can be written as JSONB.
func (t ReviewTrail) Value() (driver.Value, error) {
	if t == nil {
		t = ReviewTrail{}
	}
	b, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal review trail: %w", err)
	}
	return b, nil
}

// Scan implements sql.Scanner for reading the JSONB column.
func (t *ReviewTrail) Scan(src interface{}) error {
	if src == nil {
		*t = ReviewTrail{}
		return nil
	}
	var b []byte
	switch v := src.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("unsupported review trail source type %T", src)
	}
	if len(b) == 0 {
		*t = ReviewTrail{}
		return nil
	}
	return json.Unmarshal(b, t)
}
