package authz

import "meritboard/internal/models"

// Principal is the authenticated actor a request runs as.
type Principal struct {
	UserID  uint
	Account string
	Role    string
}

// IsStaff reports whether the principal holds a staff-equivalent role.
func (p Principal) IsStaff() bool {
	return p.Role == models.RoleTeacher || p.Role == models.RoleAdmin
}

// Actions
const (
	ActionCreate    = "create"
	ActionRead      = "read"
	ActionUpdate    = "update"
	ActionDelete    = "delete"
	ActionReview    = "review"
	ActionOverride  = "override"
	ActionConfigure = "configure"
)

// Resources
const (
	ResourceVolunteerRecord = "volunteer_record"
	ResourceStudentTicket   = "student_ticket"
	ResourceScoreLimit      = "score_limit"
	ResourceCategoryRule    = "category_rule"
	ResourceProofReview     = "proof_review"
	ResourceProject         = "project"
	ResourcePolicy          = "policy"
	ResourceAuditLog        = "audit_log"
	ResourceStudent         = "student"
)

// rules maps resource -> action -> roles allowed. Listing/reading of
// reviewable records is handled separately in the services because students
// may always see their own records.
var rules = map[string]map[string][]string{
	ResourceVolunteerRecord: {
		ActionCreate:   {models.RoleTeacher},
		ActionUpdate:   {models.RoleTeacher},
		ActionDelete:   {models.RoleTeacher},
		ActionReview:   {models.RoleTeacher},
		ActionOverride: {models.RoleAdmin},
		ActionRead:     {models.RoleTeacher, models.RoleAdmin},
	},
	ResourceStudentTicket: {
		ActionCreate:   {models.RoleTeacher},
		ActionUpdate:   {models.RoleTeacher},
		ActionDelete:   {models.RoleTeacher},
		ActionReview:   {models.RoleTeacher},
		ActionOverride: {models.RoleAdmin},
		ActionRead:     {models.RoleTeacher, models.RoleAdmin},
	},
	ResourceScoreLimit: {
		ActionConfigure: {models.RoleAdmin},
	},
	ResourceCategoryRule: {
		ActionConfigure: {models.RoleAdmin},
	},
	ResourceProofReview: {
		ActionReview: {models.RoleTeacher, models.RoleAdmin},
	},
	ResourceProject: {
		ActionCreate: {models.RoleTeacher, models.RoleAdmin},
		ActionUpdate: {models.RoleTeacher, models.RoleAdmin},
	},
	ResourcePolicy: {
		ActionConfigure: {models.RoleAdmin},
	},
	ResourceAuditLog: {
		ActionRead: {models.RoleAdmin},
	},
	ResourceStudent: {
		ActionRead: {models.RoleTeacher, models.RoleAdmin},
	},
}

// Can reports whether the principal may perform action on resource. Admins
// are superuser-equivalent and pass every check.
func Can(p Principal, action, resource string) bool {
	if p.Role == models.RoleAdmin {
		return true
	}
	actions, ok := rules[resource]
	if !ok {
		return false
	}
	roles, ok := actions[action]
	if !ok {
		return false
	}
	for _, role := range roles {
		if role == p.Role {
			return true
		}
	}
	return false
}
