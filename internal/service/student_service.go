package service

import (
	"fmt"

	"meritboard/internal/apperrors"
	"meritboard/internal/auth"
	"meritboard/internal/models"
	"meritboard/internal/repository"
)

// StudentService handles accounts, authentication and profile reads.
type StudentService struct {
	studentRepo        *repository.StudentRepository
	authService        *auth.Service
	scoringService     *ScoringService
	auditService       *AuditService
	enableRegistration bool
}

// NewStudentService creates a new student service
func NewStudentService(
	studentRepo *repository.StudentRepository,
	authService *auth.Service,
	scoringService *ScoringService,
	auditService *AuditService,
	enableRegistration bool,
) *StudentService {
	return &StudentService{
		studentRepo:        studentRepo,
		authService:        authService,
		scoringService:     scoringService,
		auditService:       auditService,
		enableRegistration: enableRegistration,
	}
}

// Register creates a new student account. Registration always yields the
// student role; staff roles are granted by an admin afterwards.
func (s *StudentService) Register(username, studentID, password string, emailAddr *string) (*models.Student, error) {
	if !s.enableRegistration {
		return nil, apperrors.Permission("registration is disabled")
	}
	if username == "" || studentID == "" {
		return nil, apperrors.Validation("username and student_id are required")
	}
	if len(password) < 8 {
		return nil, apperrors.Validation("password must be at least 8 characters")
	}

	hash, err := s.authService.HashPassword(password)
	if err != nil {
		return nil, apperrors.Internal("failed to hash password", err)
	}

	student := &models.Student{
		Username:     username,
		StudentID:    studentID,
		Email:        emailAddr,
		PasswordHash: hash,
		Role:         models.RoleStudent,
		IsActive:     true,
	}
	if err := s.studentRepo.Create(student); err == repository.ErrStudentExists {
		return nil, apperrors.Conflict("an account with this username or student id already exists")
	} else if err != nil {
		return nil, apperrors.Internal("failed to create account", err)
	}

	s.auditService.Log(student.ID, "create", "student", fmt.Sprintf("Registered account %s", username))
	return student, nil
}

// TokenPair is the result of a successful login
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Login verifies credentials and issues a token pair
func (s *StudentService) Login(username, password string) (*TokenPair, *models.Student, error) {
	student, err := s.studentRepo.GetByUsername(username)
	if err == repository.ErrStudentNotFound {
		return nil, nil, apperrors.Unauthenticated("invalid credentials")
	}
	if err != nil {
		return nil, nil, apperrors.Internal("failed to load account", err)
	}
	if !student.IsActive {
		return nil, nil, apperrors.Unauthenticated("account is disabled")
	}
	if err := s.authService.VerifyPassword(student.PasswordHash, password); err != nil {
		return nil, nil, apperrors.Unauthenticated("invalid credentials")
	}

	access, err := s.authService.GenerateToken(student.ID, student.Username, student.Role)
	if err != nil {
		return nil, nil, apperrors.Internal("failed to issue token", err)
	}
	refresh, err := s.authService.GenerateRefreshToken(student.ID, student.Username, student.Role)
	if err != nil {
		return nil, nil, apperrors.Internal("failed to issue refresh token", err)
	}

	s.auditService.Log(student.ID, "login", "student", "Logged in")
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, student, nil
}

// Refresh exchanges a valid refresh token for a new token pair
func (s *StudentService) Refresh(refreshToken string) (*TokenPair, error) {
	claims, err := s.authService.ValidateToken(refreshToken)
	if err != nil {
		return nil, apperrors.Unauthenticated("invalid refresh token")
	}

	student, err := s.studentRepo.GetByID(claims.UserID)
	if err != nil {
		return nil, apperrors.Unauthenticated("account no longer exists")
	}
	if !student.IsActive {
		return nil, apperrors.Unauthenticated("account is disabled")
	}

	access, err := s.authService.GenerateToken(student.ID, student.Username, student.Role)
	if err != nil {
		return nil, apperrors.Internal("failed to issue token", err)
	}
	refresh, err := s.authService.GenerateRefreshToken(student.ID, student.Username, student.Role)
	if err != nil {
		return nil, apperrors.Internal("failed to issue refresh token", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Profile bundles a student with their scoring breakdown
type Profile struct {
	Student       models.Student                    `json:"student"`
	SubjectScore  *models.SubjectScore              `json:"subject_score,omitempty"`
	Academic      []models.AcademicExpertise        `json:"academic_expertise"`
	Comprehensive []models.ComprehensivePerformance `json:"comprehensive_performance"`
}

// GetProfile retrieves a student with their score breakdown
func (s *StudentService) GetProfile(studentID uint) (*Profile, error) {
	student, err := s.studentRepo.GetByID(studentID)
	if err == repository.ErrStudentNotFound {
		return nil, apperrors.NotFound("student %d not found", studentID)
	}
	if err != nil {
		return nil, apperrors.Internal("failed to load student", err)
	}

	subject, err := s.scoringService.GetSubjectScore(studentID)
	if err != nil {
		return nil, apperrors.Internal("failed to load subject score", err)
	}
	academic, err := s.scoringService.ListAcademicExpertise(studentID)
	if err != nil {
		return nil, apperrors.Internal("failed to load academic expertise", err)
	}
	comprehensive, err := s.scoringService.ListComprehensivePerformance(studentID)
	if err != nil {
		return nil, apperrors.Internal("failed to load comprehensive performance", err)
	}

	return &Profile{
		Student:       *student,
		SubjectScore:  subject,
		Academic:      academic,
		Comprehensive: comprehensive,
	}, nil
}

// List retrieves students matching the filters, ordered by ranking
func (s *StudentService) List(filters repository.StudentFilters) ([]models.Student, int, error) {
	return s.studentRepo.List(filters)
}

// GetByID retrieves a single student
func (s *StudentService) GetByID(id uint) (*models.Student, error) {
	student, err := s.studentRepo.GetByID(id)
	if err == repository.ErrStudentNotFound {
		return nil, apperrors.NotFound("student %d not found", id)
	}
	if err != nil {
		return nil, apperrors.Internal("failed to load student", err)
	}
	return student, nil
}

// ChangePassword verifies the current password and sets a new one
func (s *StudentService) ChangePassword(studentID uint, current, next string) error {
	student, err := s.GetByID(studentID)
	if err != nil {
		return err
	}
	if err := s.authService.VerifyPassword(student.PasswordHash, current); err != nil {
		return apperrors.Unauthenticated("current password is incorrect")
	}
	if len(next) < 8 {
		return apperrors.Validation("password must be at least 8 characters")
	}

	hash, err := s.authService.HashPassword(next)
	if err != nil {
		return apperrors.Internal("failed to hash password", err)
	}
	if err := s.studentRepo.UpdatePassword(studentID, hash); err != nil {
		return apperrors.Internal("failed to update password", err)
	}

	s.auditService.Log(studentID, "update", "student", "Changed password")
	return nil
}

// SetRole changes a student's role (admin operation)
func (s *StudentService) SetRole(actorID, studentID uint, role string) error {
	switch role {
	case models.RoleStudent, models.RoleTeacher, models.RoleAdmin:
	default:
		return apperrors.Validation("unknown role %q", role)
	}

	student, err := s.GetByID(studentID)
	if err != nil {
		return err
	}
	student.Role = role
	if err := s.studentRepo.Update(student); err != nil {
		return apperrors.Internal("failed to update role", err)
	}

	s.auditService.Log(actorID, "update", "student",
		fmt.Sprintf("Set role of student %d to %s", studentID, role))
	return nil
}

// SetActive enables or disables an account (admin operation)
func (s *StudentService) SetActive(actorID, studentID uint, active bool) error {
	if _, err := s.GetByID(studentID); err != nil {
		return err
	}
	if err := s.studentRepo.SetActive(studentID, active); err != nil {
		return apperrors.Internal("failed to update account state", err)
	}

	s.auditService.Log(actorID, "update", "student",
		fmt.Sprintf("Set active=%t for student %d", active, studentID))
	return nil
}
