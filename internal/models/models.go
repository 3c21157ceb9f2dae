package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Student roles
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

// Default score caps, used when no ScoreLimit row exists
const (
	DefaultAMax = 80 // subject score cap
	DefaultBMax = 15 // academic expertise cap
	DefaultCMax = 5  // comprehensive performance cap
)

// Student represents a user in the system. Teachers and admins are students
// with an elevated role. TotalScore and Ranking are derived values maintained
// by the scoring service.
type Student struct {
	ID           uint      `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	StudentID    string    `json:"student_id" db:"student_id"`
	Email        *string   `json:"email,omitempty" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         string    `json:"role" db:"role"`
	TotalScore   float64   `json:"total_score" db:"total_score"`
	Ranking      int       `json:"ranking" db:"ranking"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// IsStaff reports whether the student holds a staff-equivalent role.
func (s *Student) IsStaff() bool {
	return s.Role == RoleTeacher || s.Role == RoleAdmin
}

// ScoreLimit is the singleton global cap configuration consulted by the
// scoring aggregator on every recompute.
type ScoreLimit struct {
	ID        uint      `json:"id" db:"id"`
	AMax      float64   `json:"a_max" db:"a_max"`
	BMax      float64   `json:"b_max" db:"b_max"`
	CMax      float64   `json:"c_max" db:"c_max"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ScoreCategoryRule is a named bonus category with a cap and a percentage
// ratio. The active set of rules must have ratios summing to exactly 100.
type ScoreCategoryRule struct {
	ID        uint      `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Cap       float64   `json:"cap" db:"cap"`
	Ratio     int       `json:"ratio" db:"ratio"`
	Order     int       `json:"order" db:"sort_order"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// SubjectScore is the one-to-one GPA-derived subject score of a student.
type SubjectScore struct {
	ID              uint      `json:"id" db:"id"`
	StudentID       uint      `json:"student_id" db:"student_id"`
	GPA             float64   `json:"gpa" db:"gpa"`
	AValue          float64   `json:"a_value" db:"a_value"`
	CalculatedScore float64   `json:"calculated_score" db:"calculated_score"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// AcademicExpertise is a many-to-one bonus record with optional proof material.
type AcademicExpertise struct {
	ID        uint      `json:"id" db:"id"`
	StudentID uint      `json:"student_id" db:"student_id"`
	Name      string    `json:"name" db:"name"`
	Score     float64   `json:"score" db:"score"`
	Material  *string   `json:"material,omitempty" db:"material"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ComprehensivePerformance is a many-to-one bonus record with optional proof
// material.
type ComprehensivePerformance struct {
	ID        uint      `json:"id" db:"id"`
	StudentID uint      `json:"student_id" db:"student_id"`
	Name      string    `json:"name" db:"name"`
	Score     float64   `json:"score" db:"score"`
	Material  *string   `json:"material,omitempty" db:"material"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Review stages a reviewable record passes through, in order.
const (
	StageOne       = "stage1"
	StageTwo       = "stage2"
	StageThree     = "stage3"
	StageCompleted = "completed"
)

// Review statuses
const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
)

// Submission channels for volunteer records
const (
	SubmittedViaStudent = "student"
	SubmittedViaTeacher = "teacher"
)

// Project statuses
const (
	ProjectActive   = "active"
	ProjectPaused   = "paused"
	ProjectArchived = "archived"
)

// Selection statuses
const (
	SelectionActive    = "active"
	SelectionCancelled = "cancelled"
)

// VolunteerRecord is a reviewable volunteer-hours submission.
type VolunteerRecord struct {
	ID             string      `json:"id" db:"id"`
	StudentName    string      `json:"student_name" db:"student_name"`
	StudentAccount string      `json:"student_account" db:"student_account"`
	StudentID      string      `json:"student_id" db:"student_id"`
	Activity       string      `json:"activity" db:"activity"`
	Hours          float64     `json:"hours" db:"hours"`
	Proof          string      `json:"proof" db:"proof"`
	RequireOCR     bool        `json:"require_ocr" db:"require_ocr"`
	SubmittedVia   string      `json:"submitted_via" db:"submitted_via"`
	ProjectID      *string     `json:"project_id,omitempty" db:"project_id"`
	ReviewStage    string      `json:"review_stage" db:"review_stage"`
	Status         string      `json:"status" db:"status"`
	ReviewNotes    string      `json:"review_notes" db:"review_notes"`
	ReviewTrail    ReviewTrail `json:"review_trail" db:"review_trail"`
	CreatedAt      time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at" db:"updated_at"`
}

// StudentReviewTicket is a reviewable ticket opened for a student's overall
// qualification review.
type StudentReviewTicket struct {
	ID          string      `json:"id" db:"id"`
	StudentName string      `json:"student_name" db:"student_name"`
	StudentID   string      `json:"student_id" db:"student_id"`
	College     string      `json:"college" db:"college"`
	Major       string      `json:"major" db:"major"`
	ReviewStage string      `json:"review_stage" db:"review_stage"`
	Status      string      `json:"status" db:"status"`
	ReviewNotes string      `json:"review_notes" db:"review_notes"`
	ReviewTrail ReviewTrail `json:"review_trail" db:"review_trail"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
}

// TeacherProject is a capacity-limited project students can select.
type TeacherProject struct {
	ID          string     `json:"id" db:"id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	Points      float64    `json:"points" db:"points"`
	Deadline    *time.Time `json:"deadline,omitempty" db:"deadline"`
	Slots       int        `json:"slots" db:"slots"`
	Status      string     `json:"status" db:"status"`
	TeacherID   *uint      `json:"teacher_id,omitempty" db:"teacher_id"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`

	// SelectedCount is the number of active selections, filled by queries.
	SelectedCount int `json:"selected_count" db:"-"`
}

// ProjectSelection is a student's enrollment in a teacher project. Only one
// active selection per (project, student_account) may exist; cancelled rows
// are kept and do not block re-selection.
type ProjectSelection struct {
	ID             string    `json:"id" db:"id"`
	ProjectID      string    `json:"project_id" db:"project_id"`
	StudentName    string    `json:"student_name" db:"student_name"`
	StudentAccount string    `json:"student_account" db:"student_account"`
	StudentID      string    `json:"student_id" db:"student_id"`
	Status         string    `json:"status" db:"status"`
	Notes          string    `json:"notes" db:"notes"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// Proof review statuses
const (
	ProofPending  = "pending"
	ProofApproved = "approved"
	ProofRejected = "rejected"
)

// Material-bearing entity kinds resolvable by the proof review gate.
const (
	EntityAcademicExpertise        = "academicexpertise"
	EntityComprehensivePerformance = "comprehensiveperformance"
)

// NormalizeEntityKind resolves a client-supplied entity kind label, bare
// ("academicexpertise") or namespaced ("scoring.academicexpertise"), to a
// known kind. It returns false for unknown labels.
func NormalizeEntityKind(label string) (string, bool) {
	if i := strings.LastIndexByte(label, '.'); i >= 0 {
		label = label[i+1:]
	}
	switch strings.ToLower(label) {
	case EntityAcademicExpertise:
		return EntityAcademicExpertise, true
	case EntityComprehensivePerformance:
		return EntityComprehensivePerformance, true
	}
	return "", false
}

// ProofReview is an immutable audit record of one proof material decision
// against a material-bearing entity.
type ProofReview struct {
	ID         uint       `json:"id" db:"id"`
	EntityKind string     `json:"entity_kind" db:"entity_kind"`
	EntityID   uint       `json:"entity_id" db:"entity_id"`
	StudentID  uint       `json:"student_id" db:"student_id"`
	FilePath   *string    `json:"file_path,omitempty" db:"file_path"`
	Status     string     `json:"status" db:"status"`
	Reason     *string    `json:"reason,omitempty" db:"reason"`
	ReviewerID *uint      `json:"reviewer_id,omitempty" db:"reviewer_id"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty" db:"reviewed_at"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

// File visibility levels
const (
	VisibilityPrivate = "private"
	VisibilitySchool  = "school"
	VisibilityPublic  = "public"
)

// File statuses
const (
	FileUploaded = "uploaded"
	FileScanned  = "scanned"
	FileFailed   = "failed"
	FileArchived = "archived"
)

// File holds metadata about an uploaded blob. The blob itself lives in the
// blob store; other entities reference files by id or path.
type File struct {
	ID           string     `json:"id" db:"id"`
	Path         string     `json:"path" db:"path"`
	OwnerID      *uint      `json:"owner_id,omitempty" db:"owner_id"`
	Size         *int64     `json:"size,omitempty" db:"size"`
	MimeType     *string    `json:"mime_type,omitempty" db:"mime_type"`
	Checksum     *string    `json:"checksum,omitempty" db:"checksum"`
	Visibility   string     `json:"visibility" db:"visibility"`
	Status       string     `json:"status" db:"status"`
	EntityKind   *string    `json:"entity_kind,omitempty" db:"entity_kind"`
	EntityID     *uint      `json:"entity_id,omitempty" db:"entity_id"`
	ErrorMessage *string    `json:"error_message,omitempty" db:"error_message"`
	UploadedAt   time.Time  `json:"uploaded_at" db:"uploaded_at"`
	ProcessedAt  *time.Time `json:"processed_at,omitempty" db:"processed_at"`
}

// DictEntry is a generic dictionary entry grouped by category.
type DictEntry struct {
	ID          uint      `json:"id" db:"id"`
	Category    string    `json:"category" db:"category"`
	Code        string    `json:"code" db:"code"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description,omitempty" db:"description"`
	Order       int       `json:"order" db:"sort_order"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Policy is an admin-managed policy document.
type Policy struct {
	ID         uint      `json:"id" db:"id"`
	Title      string    `json:"title" db:"title"`
	Summary    *string   `json:"summary,omitempty" db:"summary"`
	FileID     *string   `json:"file_id,omitempty" db:"file_id"`
	UploadedBy *uint     `json:"uploaded_by,omitempty" db:"uploaded_by"`
	IsActive   bool      `json:"is_active" db:"is_active"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// AuditLog represents an audit log entry
type AuditLog struct {
	ID        uint      `json:"id" db:"id"`
	UserID    *uint     `json:"user_id,omitempty" db:"user_id"`
	Action    string    `json:"action" db:"action"`
	Resource  string    `json:"resource" db:"resource"`
	Details   string    `json:"details,omitempty" db:"details"`
	IPAddress string    `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent string    `json:"user_agent,omitempty" db:"user_agent"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// NewProjectID returns a fresh prefixed project id.
func NewProjectID() string { return prefixedID("proj") }

// NewSelectionID returns a fresh prefixed selection id.
func NewSelectionID() string { return prefixedID("sel") }

// NewVolunteerID returns a fresh prefixed volunteer record id.
func NewVolunteerID() string { return prefixedID("vol") }

// NewTicketID returns a fresh prefixed student ticket id.
func NewTicketID() string { return prefixedID("stu") }

// NewFileID returns a fresh prefixed file id.
func NewFileID() string { return prefixedID("file") }

func prefixedID(prefix string) string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + "-" + hex[:10]
}
