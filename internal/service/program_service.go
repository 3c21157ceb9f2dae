package service

import (
	"fmt"
	"time"

	"meritboard/internal/apperrors"
	"meritboard/internal/authz"
	"meritboard/internal/models"
	"meritboard/internal/repository"
)

// ProgramService manages teacher projects and student selections.
type ProgramService struct {
	projectRepo   *repository.ProjectRepository
	selectionRepo *repository.SelectionRepository
	studentRepo   *repository.StudentRepository
	auditService  *AuditService
}

// NewProgramService creates a new program service
func NewProgramService(
	projectRepo *repository.ProjectRepository,
	selectionRepo *repository.SelectionRepository,
	studentRepo *repository.StudentRepository,
	auditService *AuditService,
) *ProgramService {
	return &ProgramService{
		projectRepo:   projectRepo,
		selectionRepo: selectionRepo,
		studentRepo:   studentRepo,
		auditService:  auditService,
	}
}

// CreateProject creates a new teacher project
func (s *ProgramService) CreateProject(p authz.Principal, project *models.TeacherProject) (*models.TeacherProject, error) {
	if project.Title == "" {
		return nil, apperrors.Validation("title is required")
	}
	if project.Slots <= 0 {
		return nil, apperrors.Validation("slots must be positive")
	}
	if project.Points < 0 {
		return nil, apperrors.Validation("points must not be negative")
	}

	project.ID = models.NewProjectID()
	if project.Status == "" {
		project.Status = models.ProjectActive
	}
	project.TeacherID = &p.UserID

	if err := s.projectRepo.Create(project); err != nil {
		return nil, apperrors.Internal("failed to create project", err)
	}

	s.auditService.Log(p.UserID, "create", "project",
		fmt.Sprintf("Created project %s (%q, %d slots)", project.ID, project.Title, project.Slots))
	return project, nil
}

// GetProject retrieves a project with its active selection count
func (s *ProgramService) GetProject(id string) (*models.TeacherProject, error) {
	project, err := s.projectRepo.GetByID(id)
	if err == repository.ErrProjectNotFound {
		return nil, apperrors.NotFound("project %s not found", id)
	}
	if err != nil {
		return nil, apperrors.Internal("failed to load project", err)
	}
	return project, nil
}

// ListProjects retrieves projects matching the filters
func (s *ProgramService) ListProjects(filters repository.ProjectFilters) ([]models.TeacherProject, int, error) {
	return s.projectRepo.List(filters)
}

// UpdateProject updates a project. Teachers may only edit their own
// projects; admins may edit any.
func (s *ProgramService) UpdateProject(p authz.Principal, project *models.TeacherProject) (*models.TeacherProject, error) {
	existing, err := s.GetProject(project.ID)
	if err != nil {
		return nil, err
	}
	if p.Role != models.RoleAdmin && (existing.TeacherID == nil || *existing.TeacherID != p.UserID) {
		return nil, apperrors.Permission("you may only edit your own projects")
	}

	if project.Title != "" {
		existing.Title = project.Title
	}
	existing.Description = project.Description
	if project.Points >= 0 {
		existing.Points = project.Points
	}
	existing.Deadline = project.Deadline
	if project.Slots > 0 {
		existing.Slots = project.Slots
	}
	if project.Status != "" {
		switch project.Status {
		case models.ProjectActive, models.ProjectPaused, models.ProjectArchived:
			existing.Status = project.Status
		default:
			return nil, apperrors.Validation("unknown project status %q", project.Status)
		}
	}

	if err := s.projectRepo.Update(existing); err != nil {
		return nil, apperrors.Internal("failed to update project", err)
	}
	return existing, nil
}

// DeleteProject removes a project and its selection history
func (s *ProgramService) DeleteProject(p authz.Principal, id string) error {
	existing, err := s.GetProject(id)
	if err != nil {
		return err
	}
	if p.Role != models.RoleAdmin && (existing.TeacherID == nil || *existing.TeacherID != p.UserID) {
		return apperrors.Permission("you may only delete your own projects")
	}

	if err := s.projectRepo.Delete(id); err != nil {
		return apperrors.Internal("failed to delete project", err)
	}
	s.auditService.Log(p.UserID, "delete", "project", fmt.Sprintf("Deleted project %s", id))
	return nil
}

// SelectProject enrolls the requesting student in a project. At most one
// active selection per student and project can exist; a concurrent duplicate
// surfaces as a conflict.
func (s *ProgramService) SelectProject(p authz.Principal, projectID, notes string) (*models.ProjectSelection, error) {
	project, err := s.GetProject(projectID)
	if err != nil {
		return nil, err
	}
	if project.Status != models.ProjectActive {
		return nil, apperrors.Validation("project %s is not open for selection", projectID)
	}
	if project.Deadline != nil && time.Now().After(*project.Deadline) {
		return nil, apperrors.Validation("the selection deadline for project %s has passed", projectID)
	}
	student, err := s.studentRepo.GetByID(p.UserID)
	if err != nil {
		return nil, apperrors.Internal("failed to load student", err)
	}

	sel := &models.ProjectSelection{
		ID:             models.NewSelectionID(),
		ProjectID:      projectID,
		StudentName:    student.Username,
		StudentAccount: student.Username,
		StudentID:      student.StudentID,
		Status:         models.SelectionActive,
		Notes:          notes,
	}

	// Capacity is decided by the store under the project row lock, so a
	// race for the last slot has exactly one winner.
	switch err := s.selectionRepo.Create(sel); err {
	case nil:
	case repository.ErrDuplicateSelection:
		return nil, apperrors.Conflict("you already have an active selection for project %s", projectID)
	case repository.ErrNoFreeSlots:
		return nil, apperrors.Conflict("project %s has no free slots", projectID)
	case repository.ErrProjectNotFound:
		return nil, apperrors.NotFound("project %s not found", projectID)
	default:
		return nil, apperrors.Internal("failed to create selection", err)
	}

	s.auditService.Log(p.UserID, "create", "project_selection",
		fmt.Sprintf("Selected project %s (selection %s)", projectID, sel.ID))
	return sel, nil
}

// CancelSelection cancels a selection. Students may only cancel their own.
func (s *ProgramService) CancelSelection(p authz.Principal, selectionID, notes string) error {
	sel, err := s.selectionRepo.GetByID(selectionID)
	if err == repository.ErrSelectionNotFound {
		return apperrors.NotFound("selection %s not found", selectionID)
	}
	if err != nil {
		return apperrors.Internal("failed to load selection", err)
	}

	if !p.IsStaff() && sel.StudentAccount != p.Account {
		return apperrors.Permission("you may only cancel your own selections")
	}
	if sel.Status != models.SelectionActive {
		return apperrors.Validation("selection %s is not active", selectionID)
	}

	if err := s.selectionRepo.Cancel(selectionID, notes); err != nil {
		return apperrors.Internal("failed to cancel selection", err)
	}

	s.auditService.Log(p.UserID, "update", "project_selection",
		fmt.Sprintf("Cancelled selection %s", selectionID))
	return nil
}

// ListProjectSelections retrieves the selections of a project (staff only,
// enforced at the routing layer)
func (s *ProgramService) ListProjectSelections(projectID string) ([]models.ProjectSelection, error) {
	if _, err := s.GetProject(projectID); err != nil {
		return nil, err
	}
	return s.selectionRepo.ListByProject(projectID)
}

// ListMySelections retrieves the requesting student's selection history
func (s *ProgramService) ListMySelections(p authz.Principal) ([]models.ProjectSelection, error) {
	return s.selectionRepo.ListByStudent(p.Account)
}
