package service

import (
	"fmt"

	"meritboard/internal/apperrors"
	"meritboard/internal/models"
	"meritboard/internal/repository"
)

// DictService manages the dictionary catalog (colleges, majors, activity
// types and other enumerations the UI offers as dropdowns).
type DictService struct {
	dictRepo     *repository.DictRepository
	auditService *AuditService
}

// NewDictService creates a new dictionary service
func NewDictService(dictRepo *repository.DictRepository, auditService *AuditService) *DictService {
	return &DictService{dictRepo: dictRepo, auditService: auditService}
}

// ListCategories retrieves the available dictionary categories
func (s *DictService) ListCategories() ([]string, error) {
	return s.dictRepo.ListCategories()
}

// ListByCategory retrieves the active entries of a category
func (s *DictService) ListByCategory(category string) ([]models.DictEntry, error) {
	if category == "" {
		return nil, apperrors.Validation("category is required")
	}
	return s.dictRepo.ListByCategory(category)
}

// Create adds a dictionary entry
func (s *DictService) Create(actorID uint, entry *models.DictEntry) (*models.DictEntry, error) {
	if entry.Category == "" || entry.Code == "" || entry.Name == "" {
		return nil, apperrors.Validation("category, code and name are required")
	}
	entry.IsActive = true

	if err := s.dictRepo.Create(entry); err != nil {
		return nil, apperrors.Internal("failed to create dictionary entry", err)
	}

	s.auditService.Log(actorID, "create", "dict_entry",
		fmt.Sprintf("Added %s/%s", entry.Category, entry.Code))
	return entry, nil
}

// Update edits a dictionary entry
func (s *DictService) Update(actorID uint, entry *models.DictEntry) (*models.DictEntry, error) {
	existing, err := s.dictRepo.GetByID(entry.ID)
	if err == repository.ErrDictEntryNotFound {
		return nil, apperrors.NotFound("dictionary entry %d not found", entry.ID)
	}
	if err != nil {
		return nil, apperrors.Internal("failed to load dictionary entry", err)
	}

	if entry.Category != "" {
		existing.Category = entry.Category
	}
	if entry.Code != "" {
		existing.Code = entry.Code
	}
	if entry.Name != "" {
		existing.Name = entry.Name
	}
	existing.Description = entry.Description
	existing.Order = entry.Order
	existing.IsActive = entry.IsActive

	if err := s.dictRepo.Update(existing); err != nil {
		return nil, apperrors.Internal("failed to update dictionary entry", err)
	}
	return existing, nil
}

// Delete removes a dictionary entry
func (s *DictService) Delete(actorID, id uint) error {
	if _, err := s.dictRepo.GetByID(id); err == repository.ErrDictEntryNotFound {
		return apperrors.NotFound("dictionary entry %d not found", id)
	} else if err != nil {
		return apperrors.Internal("failed to load dictionary entry", err)
	}

	if err := s.dictRepo.Delete(id); err != nil {
		return apperrors.Internal("failed to delete dictionary entry", err)
	}
	s.auditService.Log(actorID, "delete", "dict_entry", fmt.Sprintf("Deleted entry %d", id))
	return nil
}
