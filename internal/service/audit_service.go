package service

import (
	"meritboard/internal/models"
	"meritboard/internal/repository"
)

// AuditService handles audit logging
type AuditService struct {
	auditRepo *repository.AuditRepository
}

// NewAuditService creates a new audit service
func NewAuditService(auditRepo *repository.AuditRepository) *AuditService {
	return &AuditService{auditRepo: auditRepo}
}

// Log creates an audit log entry, ignoring errors. Audit failures never fail
// the main operation.
func (s *AuditService) Log(userID uint, action, resource, details string) {
	entry := &models.AuditLog{
		Action:   action,
		Resource: resource,
		Details:  details,
	}
	if userID != 0 {
		entry.UserID = &userID
	}
	_ = s.auditRepo.Create(entry)
}

// List retrieves audit log entries matching the filters
func (s *AuditService) List(filters repository.AuditFilters) ([]models.AuditLog, int, error) {
	return s.auditRepo.List(filters)
}
