package service

import (
	"fmt"
	"log/slog"
	"time"

	"meritboard/internal/apperrors"
	"meritboard/internal/authz"
	"meritboard/internal/metrics"
	"meritboard/internal/models"
	"meritboard/internal/repository"
	"meritboard/internal/scoring"
)

// ScoringService owns subject scores, bonus records and the derived totals
// and rankings. Every write that can move a total triggers a synchronous
// recompute, so reads never see a stale ranking.
type ScoringService struct {
	subjectRepo       *repository.SubjectScoreRepository
	academicRepo      *repository.AcademicExpertiseRepository
	comprehensiveRepo *repository.ComprehensivePerformanceRepository
	proofRepo         *repository.ProofReviewRepository
	limitRepo         *repository.ScoreLimitRepository
	rankingRepo       *repository.RankingRepository
	auditService      *AuditService
}

// NewScoringService creates a new scoring service
func NewScoringService(
	subjectRepo *repository.SubjectScoreRepository,
	academicRepo *repository.AcademicExpertiseRepository,
	comprehensiveRepo *repository.ComprehensivePerformanceRepository,
	proofRepo *repository.ProofReviewRepository,
	limitRepo *repository.ScoreLimitRepository,
	rankingRepo *repository.RankingRepository,
	auditService *AuditService,
) *ScoringService {
	return &ScoringService{
		subjectRepo:       subjectRepo,
		academicRepo:      academicRepo,
		comprehensiveRepo: comprehensiveRepo,
		proofRepo:         proofRepo,
		limitRepo:         limitRepo,
		rankingRepo:       rankingRepo,
		auditService:      auditService,
	}
}

// Recompute rebuilds totals for the given students (all students when none
// are given) and reassigns the global ranking.
func (s *ScoringService) Recompute(studentIDs ...uint) error {
	start := time.Now()
	changed, err := s.rankingRepo.RecomputeAndRank(studentIDs)
	metrics.RecomputeDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return apperrors.Internal("failed to recompute scores", err)
	}

	metrics.RankingChangesTotal.Add(float64(changed))
	if changed > 0 {
		slog.Debug("Rankings reassigned", "changed", changed)
	}
	return nil
}

// GetSubjectScore retrieves a student's subject score, or nil when none has
// been recorded yet.
func (s *ScoringService) GetSubjectScore(studentID uint) (*models.SubjectScore, error) {
	score, err := s.subjectRepo.GetByStudentID(studentID)
	if err == repository.ErrSubjectScoreNotFound {
		return nil, nil
	}
	return score, err
}

// SetSubjectScore records or replaces a student's GPA-based subject score
// and recomputes totals.
func (s *ScoringService) SetSubjectScore(p authz.Principal, studentID uint, gpa, aValue float64) (*models.SubjectScore, error) {
	if !p.IsStaff() && studentID != p.UserID {
		return nil, apperrors.Permission("students may only record their own subject score")
	}
	if gpa < 0 || gpa > 4 {
		return nil, apperrors.Validation("gpa must be between 0 and 4")
	}

	limit, err := s.limitRepo.Get()
	if err != nil {
		return nil, apperrors.Internal("failed to load score limits", err)
	}
	if aValue != limit.AMax {
		return nil, apperrors.Validation("a_value must equal the current subject cap %.1f", limit.AMax)
	}

	score := &models.SubjectScore{
		StudentID:       studentID,
		GPA:             gpa,
		AValue:          aValue,
		CalculatedScore: scoring.SubjectScore(gpa, aValue, limit.AMax),
	}
	if err := s.subjectRepo.Upsert(score); err != nil {
		return nil, apperrors.Internal("failed to save subject score", err)
	}

	if err := s.Recompute(studentID); err != nil {
		return nil, err
	}

	s.auditService.Log(p.UserID, "update", "subject_score",
		fmt.Sprintf("Set subject score for student %d (gpa=%.2f)", studentID, gpa))
	return score, nil
}

// ListAcademicExpertise retrieves a student's academic expertise records
func (s *ScoringService) ListAcademicExpertise(studentID uint) ([]models.AcademicExpertise, error) {
	return s.academicRepo.ListByStudent(studentID)
}

// AddAcademicExpertise records a new academic expertise entry and recomputes
// totals. A material reference opens a pending proof review.
func (s *ScoringService) AddAcademicExpertise(p authz.Principal, rec *models.AcademicExpertise) (*models.AcademicExpertise, error) {
	if !p.IsStaff() {
		rec.StudentID = p.UserID
	}
	if err := validateBonus(rec.Name); err != nil {
		return nil, err
	}
	rec.Score = scoring.ClampScore(rec.Score)

	if err := s.academicRepo.Create(rec); err != nil {
		return nil, apperrors.Internal("failed to create academic expertise record", err)
	}
	if rec.Material != nil {
		s.openProofReview(models.EntityAcademicExpertise, rec.ID, rec.StudentID, rec.Material)
	}

	if err := s.Recompute(rec.StudentID); err != nil {
		return nil, err
	}

	s.auditService.Log(p.UserID, "create", "academic_expertise",
		fmt.Sprintf("Added academic expertise %q for student %d", rec.Name, rec.StudentID))
	return rec, nil
}

// UpdateAcademicExpertise updates an existing record and recomputes totals
func (s *ScoringService) UpdateAcademicExpertise(p authz.Principal, rec *models.AcademicExpertise) error {
	if err := validateBonus(rec.Name); err != nil {
		return err
	}

	existing, err := s.academicRepo.GetByID(rec.ID)
	if err == repository.ErrBonusRecordNotFound {
		return apperrors.NotFound("academic expertise record %d not found", rec.ID)
	}
	if err != nil {
		return apperrors.Internal("failed to load academic expertise record", err)
	}
	if !p.IsStaff() && existing.StudentID != p.UserID {
		return apperrors.Permission("students may only edit their own records")
	}

	rec.StudentID = existing.StudentID
	rec.Score = scoring.ClampScore(rec.Score)
	if err := s.academicRepo.Update(rec); err != nil {
		return apperrors.Internal("failed to update academic expertise record", err)
	}
	if rec.Material != nil && (existing.Material == nil || *existing.Material != *rec.Material) {
		s.openProofReview(models.EntityAcademicExpertise, rec.ID, rec.StudentID, rec.Material)
	}

	return s.Recompute(rec.StudentID)
}

// DeleteAcademicExpertise removes a record and recomputes totals
func (s *ScoringService) DeleteAcademicExpertise(p authz.Principal, id uint) error {
	existing, err := s.academicRepo.GetByID(id)
	if err == repository.ErrBonusRecordNotFound {
		return apperrors.NotFound("academic expertise record %d not found", id)
	}
	if err != nil {
		return apperrors.Internal("failed to load academic expertise record", err)
	}
	if !p.IsStaff() && existing.StudentID != p.UserID {
		return apperrors.Permission("students may only delete their own records")
	}

	if err := s.academicRepo.Delete(id); err != nil {
		return apperrors.Internal("failed to delete academic expertise record", err)
	}

	s.auditService.Log(p.UserID, "delete", "academic_expertise",
		fmt.Sprintf("Deleted academic expertise %d of student %d", id, existing.StudentID))
	return s.Recompute(existing.StudentID)
}

// ListComprehensivePerformance retrieves a student's comprehensive
// performance records
func (s *ScoringService) ListComprehensivePerformance(studentID uint) ([]models.ComprehensivePerformance, error) {
	return s.comprehensiveRepo.ListByStudent(studentID)
}

// AddComprehensivePerformance records a new comprehensive performance entry
// and recomputes totals. A material reference opens a pending proof review.
func (s *ScoringService) AddComprehensivePerformance(p authz.Principal, rec *models.ComprehensivePerformance) (*models.ComprehensivePerformance, error) {
	if !p.IsStaff() {
		rec.StudentID = p.UserID
	}
	if err := validateBonus(rec.Name); err != nil {
		return nil, err
	}
	rec.Score = scoring.ClampScore(rec.Score)

	if err := s.comprehensiveRepo.Create(rec); err != nil {
		return nil, apperrors.Internal("failed to create comprehensive performance record", err)
	}
	if rec.Material != nil {
		s.openProofReview(models.EntityComprehensivePerformance, rec.ID, rec.StudentID, rec.Material)
	}

	if err := s.Recompute(rec.StudentID); err != nil {
		return nil, err
	}

	s.auditService.Log(p.UserID, "create", "comprehensive_performance",
		fmt.Sprintf("Added comprehensive performance %q for student %d", rec.Name, rec.StudentID))
	return rec, nil
}

// UpdateComprehensivePerformance updates an existing record and recomputes
// totals
func (s *ScoringService) UpdateComprehensivePerformance(p authz.Principal, rec *models.ComprehensivePerformance) error {
	if err := validateBonus(rec.Name); err != nil {
		return err
	}

	existing, err := s.comprehensiveRepo.GetByID(rec.ID)
	if err == repository.ErrBonusRecordNotFound {
		return apperrors.NotFound("comprehensive performance record %d not found", rec.ID)
	}
	if err != nil {
		return apperrors.Internal("failed to load comprehensive performance record", err)
	}
	if !p.IsStaff() && existing.StudentID != p.UserID {
		return apperrors.Permission("students may only edit their own records")
	}

	rec.StudentID = existing.StudentID
	rec.Score = scoring.ClampScore(rec.Score)
	if err := s.comprehensiveRepo.Update(rec); err != nil {
		return apperrors.Internal("failed to update comprehensive performance record", err)
	}
	if rec.Material != nil && (existing.Material == nil || *existing.Material != *rec.Material) {
		s.openProofReview(models.EntityComprehensivePerformance, rec.ID, rec.StudentID, rec.Material)
	}

	return s.Recompute(rec.StudentID)
}

// DeleteComprehensivePerformance removes a record and recomputes totals
func (s *ScoringService) DeleteComprehensivePerformance(p authz.Principal, id uint) error {
	existing, err := s.comprehensiveRepo.GetByID(id)
	if err == repository.ErrBonusRecordNotFound {
		return apperrors.NotFound("comprehensive performance record %d not found", id)
	}
	if err != nil {
		return apperrors.Internal("failed to load comprehensive performance record", err)
	}
	if !p.IsStaff() && existing.StudentID != p.UserID {
		return apperrors.Permission("students may only delete their own records")
	}

	if err := s.comprehensiveRepo.Delete(id); err != nil {
		return apperrors.Internal("failed to delete comprehensive performance record", err)
	}

	s.auditService.Log(p.UserID, "delete", "comprehensive_performance",
		fmt.Sprintf("Deleted comprehensive performance %d of student %d", id, existing.StudentID))
	return s.Recompute(existing.StudentID)
}

func (s *ScoringService) openProofReview(kind string, entityID, studentID uint, material *string) {
	err := s.proofRepo.Create(&models.ProofReview{
		EntityKind: kind,
		EntityID:   entityID,
		StudentID:  studentID,
		FilePath:   material,
		Status:     models.ProofPending,
	})
	if err != nil {
		// The record itself is saved; the proof just won't appear in the
		// review queue until re-uploaded.
		slog.Error("Failed to open proof review", "kind", kind, "entity_id", entityID, "error", err)
	}
}

// validateBonus checks the fields a bonus record must carry. Negative scores
// are not an error; they are floored to zero on save.
func validateBonus(name string) error {
	if name == "" {
		return apperrors.Validation("name is required")
	}
	return nil
}
