package service

import (
	"fmt"
	"log/slog"
	"time"

	"meritboard/internal/apperrors"
	"meritboard/internal/models"
	"meritboard/internal/repository"
	"meritboard/internal/storage"
)

// RulesService manages the scoring configuration and the proof review gate.
type RulesService struct {
	limitRepo         *repository.ScoreLimitRepository
	ruleRepo          *repository.CategoryRuleRepository
	proofRepo         *repository.ProofReviewRepository
	academicRepo      *repository.AcademicExpertiseRepository
	comprehensiveRepo *repository.ComprehensivePerformanceRepository
	store             storage.BlobStore
	auditService      *AuditService
}

// NewRulesService creates a new rules service
func NewRulesService(
	limitRepo *repository.ScoreLimitRepository,
	ruleRepo *repository.CategoryRuleRepository,
	proofRepo *repository.ProofReviewRepository,
	academicRepo *repository.AcademicExpertiseRepository,
	comprehensiveRepo *repository.ComprehensivePerformanceRepository,
	store storage.BlobStore,
	auditService *AuditService,
) *RulesService {
	return &RulesService{
		limitRepo:         limitRepo,
		ruleRepo:          ruleRepo,
		proofRepo:         proofRepo,
		academicRepo:      academicRepo,
		comprehensiveRepo: comprehensiveRepo,
		store:             store,
		auditService:      auditService,
	}
}

// GetLimits retrieves the current score limits
func (s *RulesService) GetLimits() (*models.ScoreLimit, error) {
	limit, err := s.limitRepo.Get()
	if err != nil {
		return nil, apperrors.Internal("failed to load score limits", err)
	}
	return limit, nil
}

// LimitUpdate carries a partial score limit update. Nil fields keep their
// current value.
type LimitUpdate struct {
	AMax *float64 `json:"a_max" validate:"omitempty,gt=0"`
	BMax *float64 `json:"b_max" validate:"omitempty,gt=0"`
	CMax *float64 `json:"c_max" validate:"omitempty,gt=0"`
}

// UpdateLimits applies a partial limit update. Existing totals are not
// recomputed here; they pick up the new caps when a contributing record is
// next written, or when an admin forces a full recompute.
func (s *RulesService) UpdateLimits(actorID uint, update LimitUpdate) (*models.ScoreLimit, error) {
	limit, err := s.limitRepo.Get()
	if err != nil {
		return nil, apperrors.Internal("failed to load score limits", err)
	}

	if update.AMax != nil {
		if *update.AMax <= 0 {
			return nil, apperrors.Validation("a_max must be positive")
		}
		limit.AMax = *update.AMax
	}
	if update.BMax != nil {
		if *update.BMax <= 0 {
			return nil, apperrors.Validation("b_max must be positive")
		}
		limit.BMax = *update.BMax
	}
	if update.CMax != nil {
		if *update.CMax <= 0 {
			return nil, apperrors.Validation("c_max must be positive")
		}
		limit.CMax = *update.CMax
	}

	if err := s.limitRepo.Save(limit); err != nil {
		return nil, apperrors.Internal("failed to save score limits", err)
	}

	s.auditService.Log(actorID, "configure", "score_limit",
		fmt.Sprintf("Updated score limits (a=%.1f b=%.1f c=%.1f)", limit.AMax, limit.BMax, limit.CMax))
	return limit, nil
}

// ListCategoryRules retrieves the category rules in display order
func (s *RulesService) ListCategoryRules() ([]models.ScoreCategoryRule, error) {
	return s.ruleRepo.List()
}

// ReplaceCategoryRules validates and atomically replaces the whole rule set.
// Ratios are whole percentages and must sum to exactly 100 for a non-empty
// list; an empty list clears all rules.
func (s *RulesService) ReplaceCategoryRules(actorID uint, rules []models.ScoreCategoryRule) ([]models.ScoreCategoryRule, error) {
	seen := make(map[string]bool, len(rules))
	ratioSum := 0
	for i := range rules {
		rule := &rules[i]
		if rule.Name == "" {
			return nil, apperrors.Validation("rule name is required")
		}
		if seen[rule.Name] {
			return nil, apperrors.Validation("duplicate rule name %q", rule.Name)
		}
		seen[rule.Name] = true
		if rule.Cap < 0 {
			return nil, apperrors.Validation("rule %q: cap must not be negative", rule.Name)
		}
		if rule.Ratio < 0 || rule.Ratio > 100 {
			return nil, apperrors.Validation("rule %q: ratio must be between 0 and 100", rule.Name)
		}
		rule.Order = i
		ratioSum += rule.Ratio
	}
	if len(rules) > 0 && ratioSum != 100 {
		return nil, apperrors.Validation("rule ratios must sum to 100, got %d", ratioSum)
	}

	if err := s.ruleRepo.ReplaceAll(rules); err != nil {
		return nil, apperrors.Internal("failed to replace category rules", err)
	}

	s.auditService.Log(actorID, "configure", "category_rule",
		fmt.Sprintf("Replaced category rules (%d rules)", len(rules)))
	return rules, nil
}

// ListProofReviews retrieves proof reviews matching the filters
func (s *RulesService) ListProofReviews(filters repository.ProofReviewFilters) ([]models.ProofReview, int, error) {
	return s.proofRepo.List(filters)
}

// GetProofReview retrieves one proof review
func (s *RulesService) GetProofReview(id uint) (*models.ProofReview, error) {
	pr, err := s.proofRepo.GetByID(id)
	if err == repository.ErrProofReviewNotFound {
		return nil, apperrors.NotFound("proof review %d not found", id)
	}
	if err != nil {
		return nil, apperrors.Internal("failed to load proof review", err)
	}
	return pr, nil
}

// DecideProof records an approve or reject decision on a pending proof
// review. Rejection removes the proof material from the underlying record;
// the blob delete is best-effort and never blocks the decision.
func (s *RulesService) DecideProof(reviewerID, id uint, approve bool, reason string) (*models.ProofReview, error) {
	pr, err := s.GetProofReview(id)
	if err != nil {
		return nil, err
	}
	if pr.Status != models.ProofPending {
		return nil, apperrors.Validation("proof review %d has already been decided", id)
	}

	status := models.ProofApproved
	var reasonPtr *string
	if !approve {
		status = models.ProofRejected
		if reason == "" {
			return nil, apperrors.Validation("a reason is required to reject a proof")
		}
		reasonPtr = &reason

		// Material cleanup is best-effort on both fronts: the review row
		// still marks rejected when the reference save or blob delete fails.
		if err := s.clearMaterial(pr); err != nil {
			slog.Error("Failed to clear rejected proof material",
				"entity_kind", pr.EntityKind, "entity_id", pr.EntityID, "error", err)
		}
		if pr.FilePath != nil {
			if err := s.store.Delete(*pr.FilePath); err != nil {
				slog.Error("Failed to delete rejected proof blob", "path", *pr.FilePath, "error", err)
			}
		}
	}

	if err := s.proofRepo.Decide(id, status, reasonPtr, reviewerID); err == repository.ErrProofReviewDecided {
		return nil, apperrors.Conflict("proof review %d was decided by another reviewer", id)
	} else if err != nil {
		return nil, apperrors.Internal("failed to record proof decision", err)
	}

	pr.Status = status
	pr.Reason = reasonPtr
	pr.ReviewerID = &reviewerID
	now := time.Now()
	pr.ReviewedAt = &now

	s.auditService.Log(reviewerID, "review", "proof_review",
		fmt.Sprintf("Proof review %d (%s/%d): %s", id, pr.EntityKind, pr.EntityID, status))
	return pr, nil
}

// DecideProofForEntity decides the proof material of a target entity named
// by kind label and id. The label may be bare ("academicexpertise") or
// namespaced ("scoring.academicexpertise"). When no pending review row
// exists for the target, one is opened at decision time, so a record whose
// queued review failed to open can still be decided.
func (s *RulesService) DecideProofForEntity(reviewerID uint, kindLabel string, entityID uint, approve bool, reason string) (*models.ProofReview, error) {
	kind, ok := models.NormalizeEntityKind(kindLabel)
	if !ok {
		return nil, apperrors.Validation("unknown entity kind %q", kindLabel)
	}

	pr, err := s.proofRepo.GetPendingByEntity(kind, entityID)
	if err == repository.ErrProofReviewNotFound {
		pr, err = s.openReviewForEntity(kind, entityID)
	}
	if err != nil {
		return nil, err
	}

	return s.DecideProof(reviewerID, pr.ID, approve, reason)
}

// openReviewForEntity resolves the target entity and opens a pending proof
// review for its material.
func (s *RulesService) openReviewForEntity(kind string, entityID uint) (*models.ProofReview, error) {
	var studentID uint
	var material *string

	switch kind {
	case models.EntityAcademicExpertise:
		rec, err := s.academicRepo.GetByID(entityID)
		if err == repository.ErrBonusRecordNotFound {
			return nil, apperrors.NotFound("%s %d not found", kind, entityID)
		}
		if err != nil {
			return nil, apperrors.Internal("failed to load proof target", err)
		}
		studentID, material = rec.StudentID, rec.Material
	case models.EntityComprehensivePerformance:
		rec, err := s.comprehensiveRepo.GetByID(entityID)
		if err == repository.ErrBonusRecordNotFound {
			return nil, apperrors.NotFound("%s %d not found", kind, entityID)
		}
		if err != nil {
			return nil, apperrors.Internal("failed to load proof target", err)
		}
		studentID, material = rec.StudentID, rec.Material
	default:
		return nil, apperrors.Validation("unknown entity kind %q", kind)
	}

	pr := &models.ProofReview{
		EntityKind: kind,
		EntityID:   entityID,
		StudentID:  studentID,
		FilePath:   material,
		Status:     models.ProofPending,
	}
	if err := s.proofRepo.Create(pr); err != nil {
		return nil, apperrors.Internal("failed to open proof review", err)
	}
	return pr, nil
}

// clearMaterial resolves the reviewed entity by kind and drops its material
// reference.
func (s *RulesService) clearMaterial(pr *models.ProofReview) error {
	var err error
	switch pr.EntityKind {
	case models.EntityAcademicExpertise:
		err = s.academicRepo.ClearMaterial(pr.EntityID)
	case models.EntityComprehensivePerformance:
		err = s.comprehensiveRepo.ClearMaterial(pr.EntityID)
	default:
		return apperrors.Validation("unknown proof entity kind %q", pr.EntityKind)
	}
	if err != nil {
		return apperrors.Internal("failed to clear proof material", err)
	}
	return nil
}
