package service

import (
	"fmt"
	"log/slog"
	"time"

	"meritboard/internal/apperrors"
	"meritboard/internal/authz"
	"meritboard/internal/email"
	"meritboard/internal/metrics"
	"meritboard/internal/models"
	"meritboard/internal/repository"
	"meritboard/internal/review"
)

// ReviewService drives volunteer records and student review tickets through
// the staged review pipeline.
type ReviewService struct {
	volunteerRepo *repository.VolunteerRepository
	ticketRepo    *repository.TicketRepository
	studentRepo   *repository.StudentRepository
	emailService  *email.Service
	auditService  *AuditService
}

// NewReviewService creates a new review service
func NewReviewService(
	volunteerRepo *repository.VolunteerRepository,
	ticketRepo *repository.TicketRepository,
	studentRepo *repository.StudentRepository,
	emailService *email.Service,
	auditService *AuditService,
) *ReviewService {
	return &ReviewService{
		volunteerRepo: volunteerRepo,
		ticketRepo:    ticketRepo,
		studentRepo:   studentRepo,
		emailService:  emailService,
		auditService:  auditService,
	}
}

// SubmitVolunteer creates a volunteer record. Students always submit for
// themselves; staff may submit on behalf of any student.
func (s *ReviewService) SubmitVolunteer(p authz.Principal, rec *models.VolunteerRecord) (*models.VolunteerRecord, error) {
	if rec.Activity == "" {
		return nil, apperrors.Validation("activity is required")
	}
	if rec.Hours <= 0 {
		return nil, apperrors.Validation("hours must be positive")
	}

	if p.IsStaff() {
		rec.SubmittedVia = models.SubmittedViaTeacher
		if rec.StudentAccount == "" {
			return nil, apperrors.Validation("student_account is required")
		}
	} else {
		rec.SubmittedVia = models.SubmittedViaStudent
		rec.StudentAccount = p.Account
	}

	state := review.NewState()
	rec.ID = models.NewVolunteerID()
	rec.ReviewStage = state.Stage
	rec.Status = state.Status
	rec.ReviewNotes = ""
	rec.ReviewTrail = state.Trail

	if err := s.volunteerRepo.Create(rec); err != nil {
		return nil, apperrors.Internal("failed to create volunteer record", err)
	}

	s.auditService.Log(p.UserID, "create", "volunteer_record",
		fmt.Sprintf("Submitted volunteer record %s for %s", rec.ID, rec.StudentAccount))
	return rec, nil
}

// GetVolunteer retrieves a volunteer record. Students can only see their own.
func (s *ReviewService) GetVolunteer(p authz.Principal, id string) (*models.VolunteerRecord, error) {
	rec, err := s.volunteerRepo.GetByID(id)
	if err == repository.ErrVolunteerRecordNotFound {
		return nil, apperrors.NotFound("volunteer record %s not found", id)
	}
	if err != nil {
		return nil, apperrors.Internal("failed to load volunteer record", err)
	}
	if !p.IsStaff() && rec.StudentAccount != p.Account {
		return nil, apperrors.Permission("you may only view your own volunteer records")
	}
	return rec, nil
}

// ListVolunteers retrieves volunteer records. Students are always scoped to
// their own submissions regardless of the requested filters.
func (s *ReviewService) ListVolunteers(p authz.Principal, filters repository.VolunteerFilters) ([]models.VolunteerRecord, int, error) {
	if !p.IsStaff() {
		filters.StudentAccount = p.Account
	}
	return s.volunteerRepo.List(filters)
}

// UpdateVolunteer edits a volunteer record. Only pending records can be
// edited, and any edit restarts the review from scratch. Students may only
// touch their own self-submitted records.
func (s *ReviewService) UpdateVolunteer(p authz.Principal, rec *models.VolunteerRecord) (*models.VolunteerRecord, error) {
	if rec.Activity == "" {
		return nil, apperrors.Validation("activity is required")
	}
	if rec.Hours <= 0 {
		return nil, apperrors.Validation("hours must be positive")
	}

	existing, err := s.volunteerRepo.GetByID(rec.ID)
	if err == repository.ErrVolunteerRecordNotFound {
		return nil, apperrors.NotFound("volunteer record %s not found", rec.ID)
	}
	if err != nil {
		return nil, apperrors.Internal("failed to load volunteer record", err)
	}

	if !p.IsStaff() {
		if existing.StudentAccount != p.Account || existing.SubmittedVia != models.SubmittedViaStudent {
			return nil, apperrors.Permission("you may only edit your own submissions")
		}
	}
	// Decided records cannot be edited by anyone; a reviewer has to reset
	// them first.
	if existing.Status != models.StatusPending {
		return nil, apperrors.Validation("only pending submissions can be edited")
	}
	// The edit invalidates whatever partial review existed.
	state := review.ResetForEdit()
	existing.ReviewStage = state.Stage
	existing.Status = state.Status
	existing.ReviewNotes = ""
	existing.ReviewTrail = state.Trail

	existing.Activity = rec.Activity
	existing.Hours = rec.Hours
	existing.Proof = rec.Proof
	existing.RequireOCR = rec.RequireOCR
	existing.ProjectID = rec.ProjectID
	if rec.StudentName != "" {
		existing.StudentName = rec.StudentName
	}
	if rec.StudentID != "" {
		existing.StudentID = rec.StudentID
	}

	if err := s.volunteerRepo.Update(existing); err != nil {
		return nil, apperrors.Internal("failed to update volunteer record", err)
	}
	return existing, nil
}

// DeleteVolunteer removes a volunteer record
func (s *ReviewService) DeleteVolunteer(p authz.Principal, id string) error {
	rec, err := s.GetVolunteer(p, id)
	if err != nil {
		return err
	}
	if !p.IsStaff() {
		if rec.SubmittedVia != models.SubmittedViaStudent {
			return apperrors.Permission("you may only delete your own submissions")
		}
		if rec.Status != models.StatusPending {
			return apperrors.Validation("only pending submissions can be deleted")
		}
	}
	if err := s.volunteerRepo.Delete(id); err != nil {
		return apperrors.Internal("failed to delete volunteer record", err)
	}
	s.auditService.Log(p.UserID, "delete", "volunteer_record", fmt.Sprintf("Deleted volunteer record %s", id))
	return nil
}

// ReviewVolunteer applies a reviewer decision to a volunteer record
func (s *ReviewService) ReviewVolunteer(p authz.Principal, id, decision, note string) (*models.VolunteerRecord, error) {
	rec, err := s.GetVolunteer(p, id)
	if err != nil {
		return nil, err
	}

	state := review.State{Stage: rec.ReviewStage, Status: rec.Status, Notes: rec.ReviewNotes, Trail: rec.ReviewTrail}
	if decision != review.DecisionReset && state.Status != models.StatusPending {
		return nil, apperrors.Validation("record is not pending review")
	}
	if state.Status == models.StatusCancelled {
		return nil, apperrors.Validation("cancelled records cannot be reviewed")
	}

	next, err := review.Apply(state, decision, p.Account, note, time.Now())
	if err != nil {
		return nil, err
	}

	rec.ReviewStage = next.Stage
	rec.Status = next.Status
	rec.ReviewNotes = next.Notes
	rec.ReviewTrail = next.Trail
	if err := s.volunteerRepo.Update(rec); err != nil {
		return nil, apperrors.Internal("failed to save review decision", err)
	}

	metrics.ReviewActionsTotal.WithLabelValues("volunteer_record", decision).Inc()
	s.auditService.Log(p.UserID, "review", "volunteer_record",
		fmt.Sprintf("Applied %s to volunteer record %s (now %s/%s)", decision, rec.ID, rec.ReviewStage, rec.Status))

	if rec.Status == models.StatusApproved || rec.Status == models.StatusRejected {
		s.notifyDecision(rec.StudentAccount, rec.StudentName, "volunteer record "+rec.Activity, rec.Status, note)
	}
	return rec, nil
}

// OverrideVolunteer applies an admin override to a decided volunteer record
func (s *ReviewService) OverrideVolunteer(p authz.Principal, id, action, note string) (*models.VolunteerRecord, error) {
	if p.Role != models.RoleAdmin {
		return nil, apperrors.Permission("only administrators may override review decisions")
	}
	rec, err := s.GetVolunteer(p, id)
	if err != nil {
		return nil, err
	}

	state := review.State{Stage: rec.ReviewStage, Status: rec.Status, Notes: rec.ReviewNotes, Trail: rec.ReviewTrail}
	next, err := review.ApplyOverride(state, action, p.Account, note, time.Now())
	if err != nil {
		return nil, err
	}

	rec.ReviewStage = next.Stage
	rec.Status = next.Status
	rec.ReviewNotes = next.Notes
	rec.ReviewTrail = next.Trail
	if err := s.volunteerRepo.Update(rec); err != nil {
		return nil, apperrors.Internal("failed to save override", err)
	}

	metrics.ReviewActionsTotal.WithLabelValues("volunteer_record", "override_"+action).Inc()
	s.auditService.Log(p.UserID, "override", "volunteer_record",
		fmt.Sprintf("Override %s on volunteer record %s (now %s/%s)", action, rec.ID, rec.ReviewStage, rec.Status))
	return rec, nil
}

// CreateTicket opens a student review ticket
func (s *ReviewService) CreateTicket(p authz.Principal, ticket *models.StudentReviewTicket) (*models.StudentReviewTicket, error) {
	if ticket.StudentName == "" || ticket.StudentID == "" {
		return nil, apperrors.Validation("student_name and student_id are required")
	}

	state := review.NewState()
	ticket.ID = models.NewTicketID()
	ticket.ReviewStage = state.Stage
	ticket.Status = state.Status
	ticket.ReviewNotes = ""
	ticket.ReviewTrail = state.Trail

	if err := s.ticketRepo.Create(ticket); err != nil {
		return nil, apperrors.Internal("failed to create student review ticket", err)
	}

	s.auditService.Log(p.UserID, "create", "student_ticket",
		fmt.Sprintf("Opened review ticket %s for student %s", ticket.ID, ticket.StudentID))
	return ticket, nil
}

// GetTicket retrieves a student review ticket. Students can only see tickets
// about themselves.
func (s *ReviewService) GetTicket(p authz.Principal, id string) (*models.StudentReviewTicket, error) {
	ticket, err := s.ticketRepo.GetByID(id)
	if err == repository.ErrTicketNotFound {
		return nil, apperrors.NotFound("student review ticket %s not found", id)
	}
	if err != nil {
		return nil, apperrors.Internal("failed to load student review ticket", err)
	}
	if !p.IsStaff() {
		owns, err := s.ownsTicket(p, ticket)
		if err != nil {
			return nil, err
		}
		if !owns {
			return nil, apperrors.Permission("you may only view your own review tickets")
		}
	}
	return ticket, nil
}

// ListTickets retrieves student review tickets. Students are scoped to
// tickets about themselves.
func (s *ReviewService) ListTickets(p authz.Principal, filters repository.TicketFilters) ([]models.StudentReviewTicket, int, error) {
	if !p.IsStaff() {
		student, err := s.studentRepo.GetByID(p.UserID)
		if err != nil {
			return nil, 0, apperrors.Internal("failed to load student", err)
		}
		filters.StudentID = student.StudentID
	}
	return s.ticketRepo.List(filters)
}

// UpdateTicket edits ticket profile fields without touching review state
func (s *ReviewService) UpdateTicket(p authz.Principal, ticket *models.StudentReviewTicket) (*models.StudentReviewTicket, error) {
	existing, err := s.ticketRepo.GetByID(ticket.ID)
	if err == repository.ErrTicketNotFound {
		return nil, apperrors.NotFound("student review ticket %s not found", ticket.ID)
	}
	if err != nil {
		return nil, apperrors.Internal("failed to load student review ticket", err)
	}

	if ticket.StudentName != "" {
		existing.StudentName = ticket.StudentName
	}
	existing.College = ticket.College
	existing.Major = ticket.Major

	if err := s.ticketRepo.Update(existing); err != nil {
		return nil, apperrors.Internal("failed to update student review ticket", err)
	}
	return existing, nil
}

// DeleteTicket removes a student review ticket
func (s *ReviewService) DeleteTicket(p authz.Principal, id string) error {
	if _, err := s.GetTicket(p, id); err != nil {
		return err
	}
	if err := s.ticketRepo.Delete(id); err != nil {
		return apperrors.Internal("failed to delete student review ticket", err)
	}
	s.auditService.Log(p.UserID, "delete", "student_ticket", fmt.Sprintf("Deleted review ticket %s", id))
	return nil
}

// ReviewTicket applies a reviewer decision to a student review ticket
func (s *ReviewService) ReviewTicket(p authz.Principal, id, decision, note string) (*models.StudentReviewTicket, error) {
	ticket, err := s.GetTicket(p, id)
	if err != nil {
		return nil, err
	}

	state := review.State{Stage: ticket.ReviewStage, Status: ticket.Status, Notes: ticket.ReviewNotes, Trail: ticket.ReviewTrail}
	if decision != review.DecisionReset && state.Status != models.StatusPending {
		return nil, apperrors.Validation("ticket is not pending review")
	}
	if state.Status == models.StatusCancelled {
		return nil, apperrors.Validation("cancelled tickets cannot be reviewed")
	}

	next, err := review.Apply(state, decision, p.Account, note, time.Now())
	if err != nil {
		return nil, err
	}

	ticket.ReviewStage = next.Stage
	ticket.Status = next.Status
	ticket.ReviewNotes = next.Notes
	ticket.ReviewTrail = next.Trail
	if err := s.ticketRepo.Update(ticket); err != nil {
		return nil, apperrors.Internal("failed to save review decision", err)
	}

	metrics.ReviewActionsTotal.WithLabelValues("student_ticket", decision).Inc()
	s.auditService.Log(p.UserID, "review", "student_ticket",
		fmt.Sprintf("Applied %s to ticket %s (now %s/%s)", decision, ticket.ID, ticket.ReviewStage, ticket.Status))
	return ticket, nil
}

// OverrideTicket applies an admin override to a decided ticket
func (s *ReviewService) OverrideTicket(p authz.Principal, id, action, note string) (*models.StudentReviewTicket, error) {
	if p.Role != models.RoleAdmin {
		return nil, apperrors.Permission("only administrators may override review decisions")
	}
	ticket, err := s.GetTicket(p, id)
	if err != nil {
		return nil, err
	}

	state := review.State{Stage: ticket.ReviewStage, Status: ticket.Status, Notes: ticket.ReviewNotes, Trail: ticket.ReviewTrail}
	next, err := review.ApplyOverride(state, action, p.Account, note, time.Now())
	if err != nil {
		return nil, err
	}

	ticket.ReviewStage = next.Stage
	ticket.Status = next.Status
	ticket.ReviewNotes = next.Notes
	ticket.ReviewTrail = next.Trail
	if err := s.ticketRepo.Update(ticket); err != nil {
		return nil, apperrors.Internal("failed to save override", err)
	}

	metrics.ReviewActionsTotal.WithLabelValues("student_ticket", "override_"+action).Inc()
	s.auditService.Log(p.UserID, "override", "student_ticket",
		fmt.Sprintf("Override %s on ticket %s (now %s/%s)", action, ticket.ID, ticket.ReviewStage, ticket.Status))
	return ticket, nil
}

func (s *ReviewService) ownsTicket(p authz.Principal, ticket *models.StudentReviewTicket) (bool, error) {
	student, err := s.studentRepo.GetByID(p.UserID)
	if err != nil {
		return false, apperrors.Internal("failed to load student", err)
	}
	return student.StudentID == ticket.StudentID, nil
}

// notifyDecision emails the student about a terminal review decision.
// Failures are logged and swallowed.
func (s *ReviewService) notifyDecision(account, name, label, status, note string) {
	if !s.emailService.Enabled() {
		return
	}
	student, err := s.studentRepo.GetByUsername(account)
	if err != nil || student.Email == nil {
		return
	}
	if err := s.emailService.SendReviewDecision(*student.Email, name, label, status, note); err != nil {
		slog.Error("Failed to send review notification", "account", account, "error", err)
	}
}
