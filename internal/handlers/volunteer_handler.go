package handlers

import (
	"net/http"

	"meritboard/internal/middleware"
	"meritboard/internal/models"
	"meritboard/internal/repository"
	"meritboard/internal/service"
)

// VolunteerHandler handles volunteer record submission and review
type VolunteerHandler struct {
	reviewService *service.ReviewService
}

// NewVolunteerHandler creates a new volunteer handler
func NewVolunteerHandler(reviewService *service.ReviewService) *VolunteerHandler {
	return &VolunteerHandler{reviewService: reviewService}
}

// VolunteerRequest represents a volunteer record submission
type VolunteerRequest struct {
	StudentName    string  `json:"student_name" validate:"required"`
	StudentAccount string  `json:"student_account"`
	StudentID      string  `json:"student_id" validate:"required"`
	Activity       string  `json:"activity" validate:"required"`
	Hours          float64 `json:"hours" validate:"gt=0"`
	Proof          string  `json:"proof"`
	RequireOCR     bool    `json:"require_ocr"`
	ProjectID      *string `json:"project_id,omitempty"`
}

// ReviewRequest represents a review decision
type ReviewRequest struct {
	Decision string `json:"decision" validate:"required,oneof=advance reject reset"`
	Note     string `json:"note"`
}

// OverrideRequest represents an admin override action
type OverrideRequest struct {
	Action string `json:"action" validate:"required,oneof=reopen cancel"`
	Note   string `json:"note"`
}

// Create submits a new volunteer record
// @Summary Submit volunteer record
// @Description Submit a volunteer record; it enters the review pipeline at stage one
// @Tags Volunteer
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body VolunteerRequest true "Record data"
// @Success 201 {object} models.VolunteerRecord
// @Failure 400 {object} map[string]string "Invalid input"
// @Router /volunteer-records [post]
func (h *VolunteerHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.GetPrincipal(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	var req VolunteerRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	rec := &models.VolunteerRecord{
		StudentName:    req.StudentName,
		StudentAccount: req.StudentAccount,
		StudentID:      req.StudentID,
		Activity:       req.Activity,
		Hours:          req.Hours,
		Proof:          req.Proof,
		RequireOCR:     req.RequireOCR,
		ProjectID:      req.ProjectID,
	}
	created, err := h.reviewService.SubmitVolunteer(p, rec)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}

// Get retrieves a volunteer record
// @Summary Get volunteer record
// @Tags Volunteer
// @Produce json
// @Security BearerAuth
// @Param id path string true "Record ID"
// @Success 200 {object} models.VolunteerRecord
// @Failure 404 {object} map[string]string "Not found"
// @Router /volunteer-records/{id} [get]
func (h *VolunteerHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.GetPrincipal(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	rec, err := h.reviewService.GetVolunteer(p, r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, rec)
}

// List retrieves volunteer records
// @Summary List volunteer records
// @Description List volunteer records; students see only their own
// @Tags Volunteer
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status"
// @Param stage query string false "Filter by review stage"
// @Param student_account query string false "Filter by student account (staff only)"
// @Param project_id query string false "Filter by project"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} listResponse
// @Router /volunteer-records [get]
func (h *VolunteerHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.GetPrincipal(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	limit, offset := pagination(r)
	filters := repository.VolunteerFilters{
		Status:         r.URL.Query().Get("status"),
		Stage:          r.URL.Query().Get("stage"),
		StudentAccount: r.URL.Query().Get("student_account"),
		ProjectID:      r.URL.Query().Get("project_id"),
		Limit:          limit,
		Offset:         offset,
	}

	records, total, err := h.reviewService.ListVolunteers(p, filters)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, listResponse{Items: records, Total: total})
}

// Update edits a volunteer record
// @Summary Update volunteer record
// @Description Edit a record; a student edit resets the review pipeline
// @Tags Volunteer
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Record ID"
// @Param body body VolunteerRequest true "Record data"
// @Success 200 {object} models.VolunteerRecord
// @Router /volunteer-records/{id} [put]
func (h *VolunteerHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.GetPrincipal(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	var req VolunteerRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	rec := &models.VolunteerRecord{
		ID:          r.PathValue("id"),
		StudentName: req.StudentName,
		StudentID:   req.StudentID,
		Activity:    req.Activity,
		Hours:       req.Hours,
		Proof:       req.Proof,
		RequireOCR:  req.RequireOCR,
		ProjectID:   req.ProjectID,
	}
	updated, err := h.reviewService.UpdateVolunteer(p, rec)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, updated)
}

// Delete removes a volunteer record
// @Summary Delete volunteer record
// @Tags Volunteer
// @Produce json
// @Security BearerAuth
// @Param id path string true "Record ID"
// @Success 200 {object} map[string]string
// @Router /volunteer-records/{id} [delete]
func (h *VolunteerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.GetPrincipal(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	if err := h.reviewService.DeleteVolunteer(p, r.PathValue("id")); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Record deleted"})
}

// Review applies a review decision to a volunteer record
// @Summary Review volunteer record
// @Description Advance, reject or reset a pending record (staff only)
// @Tags Volunteer
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Record ID"
// @Param body body ReviewRequest true "Decision"
// @Success 200 {object} models.VolunteerRecord
// @Failure 400 {object} map[string]string "Invalid decision"
// @Router /volunteer-records/{id}/review [post]
func (h *VolunteerHandler) Review(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.GetPrincipal(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	var req ReviewRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	rec, err := h.reviewService.ReviewVolunteer(p, r.PathValue("id"), req.Decision, req.Note)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, rec)
}

// Override applies an admin override to a volunteer record
// @Summary Override volunteer record
// @Description Reopen or cancel a decided record (admin only)
// @Tags Volunteer
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Record ID"
// @Param body body OverrideRequest true "Override action"
// @Success 200 {object} models.VolunteerRecord
// @Router /volunteer-records/{id}/override [post]
func (h *VolunteerHandler) Override(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.GetPrincipal(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	var req OverrideRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	rec, err := h.reviewService.OverrideVolunteer(p, r.PathValue("id"), req.Action, req.Note)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, rec)
}
