package authz

import (
	"testing"

	"meritboard/internal/models"
)

func TestCan(t *testing.T) {
	student := Principal{UserID: 1, Account: "s1", Role: models.RoleStudent}
	teacher := Principal{UserID: 2, Account: "t1", Role: models.RoleTeacher}
	admin := Principal{UserID: 3, Account: "a1", Role: models.RoleAdmin}

	testCases := []struct {
		name      string
		principal Principal
		action    string
		resource  string
		want      bool
	}{
		{"student cannot review volunteer records", student, ActionReview, ResourceVolunteerRecord, false},
		{"teacher reviews volunteer records", teacher, ActionReview, ResourceVolunteerRecord, true},
		{"teacher cannot override volunteer records", teacher, ActionOverride, ResourceVolunteerRecord, false},
		{"admin overrides volunteer records", admin, ActionOverride, ResourceVolunteerRecord, true},
		{"teacher creates student tickets", teacher, ActionCreate, ResourceStudentTicket, true},
		{"student cannot create student tickets", student, ActionCreate, ResourceStudentTicket, false},
		{"teacher cannot configure score limits", teacher, ActionConfigure, ResourceScoreLimit, false},
		{"admin configures score limits", admin, ActionConfigure, ResourceScoreLimit, true},
		{"teacher reviews proofs", teacher, ActionReview, ResourceProofReview, true},
		{"student cannot review proofs", student, ActionReview, ResourceProofReview, false},
		{"teacher creates projects", teacher, ActionCreate, ResourceProject, true},
		{"student cannot create projects", student, ActionCreate, ResourceProject, false},
		{"teacher cannot read audit logs", teacher, ActionRead, ResourceAuditLog, false},
		{"admin reads audit logs", admin, ActionRead, ResourceAuditLog, true},
		{"teacher lists students", teacher, ActionRead, ResourceStudent, true},
		{"unknown resource denied", teacher, ActionRead, "secret_vault", false},
		{"unknown action denied", teacher, "promote", ResourceVolunteerRecord, false},
		{"admin passes unknown resource", admin, ActionRead, "secret_vault", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Can(tc.principal, tc.action, tc.resource); got != tc.want {
				t.Errorf("Can(%s, %s, %s) = %v, want %v", tc.principal.Role, tc.action, tc.resource, got, tc.want)
			}
		})
	}
}

func TestIsStaff(t *testing.T) {
	if (Principal{Role: models.RoleStudent}).IsStaff() {
		t.Error("student should not be staff")
	}
	if !(Principal{Role: models.RoleTeacher}).IsStaff() {
		t.Error("teacher should be staff")
	}
	if !(Principal{Role: models.RoleAdmin}).IsStaff() {
		t.Error("admin should be staff")
	}
}
