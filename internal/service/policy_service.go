package service

import (
	"fmt"

	"meritboard/internal/apperrors"
	"meritboard/internal/models"
	"meritboard/internal/repository"
)

// PolicyService manages published policy documents.
type PolicyService struct {
	policyRepo   *repository.PolicyRepository
	fileRepo     *repository.FileRepository
	auditService *AuditService
}

// NewPolicyService creates a new policy service
func NewPolicyService(policyRepo *repository.PolicyRepository, fileRepo *repository.FileRepository, auditService *AuditService) *PolicyService {
	return &PolicyService{
		policyRepo:   policyRepo,
		fileRepo:     fileRepo,
		auditService: auditService,
	}
}

// List retrieves policies. Non-staff readers only see active ones.
func (s *PolicyService) List(staff bool) ([]models.Policy, error) {
	return s.policyRepo.List(!staff)
}

// Get retrieves a policy
func (s *PolicyService) Get(id uint) (*models.Policy, error) {
	policy, err := s.policyRepo.GetByID(id)
	if err == repository.ErrPolicyNotFound {
		return nil, apperrors.NotFound("policy %d not found", id)
	}
	if err != nil {
		return nil, apperrors.Internal("failed to load policy", err)
	}
	return policy, nil
}

// Create publishes a new policy, optionally attached to an uploaded file
func (s *PolicyService) Create(actorID uint, policy *models.Policy) (*models.Policy, error) {
	if policy.Title == "" {
		return nil, apperrors.Validation("title is required")
	}
	if policy.FileID != nil {
		if _, err := s.fileRepo.GetByID(*policy.FileID); err == repository.ErrFileNotFound {
			return nil, apperrors.Validation("attached file %s does not exist", *policy.FileID)
		} else if err != nil {
			return nil, apperrors.Internal("failed to check attached file", err)
		}
	}

	policy.UploadedBy = &actorID
	policy.IsActive = true
	if err := s.policyRepo.Create(policy); err != nil {
		return nil, apperrors.Internal("failed to create policy", err)
	}

	s.auditService.Log(actorID, "create", "policy", fmt.Sprintf("Published policy %q", policy.Title))
	return policy, nil
}

// Update edits a policy
func (s *PolicyService) Update(actorID uint, policy *models.Policy) (*models.Policy, error) {
	existing, err := s.Get(policy.ID)
	if err != nil {
		return nil, err
	}

	if policy.Title != "" {
		existing.Title = policy.Title
	}
	existing.Summary = policy.Summary
	existing.FileID = policy.FileID
	existing.IsActive = policy.IsActive

	if err := s.policyRepo.Update(existing); err != nil {
		return nil, apperrors.Internal("failed to update policy", err)
	}
	return existing, nil
}

// Delete removes a policy
func (s *PolicyService) Delete(actorID, id uint) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	if err := s.policyRepo.Delete(id); err != nil {
		return apperrors.Internal("failed to delete policy", err)
	}
	s.auditService.Log(actorID, "delete", "policy", fmt.Sprintf("Deleted policy %d", id))
	return nil
}
