package handlers

import (
	"net/http"

	"meritboard/internal/middleware"
	"meritboard/internal/models"
	"meritboard/internal/repository"
	"meritboard/internal/service"
)

// StudentHandler handles student accounts and the per-student score records
type StudentHandler struct {
	studentService *service.StudentService
	scoringService *service.ScoringService
}

// NewStudentHandler creates a new student handler
func NewStudentHandler(
	studentService *service.StudentService,
	scoringService *service.ScoringService,
) *StudentHandler {
	return &StudentHandler{
		studentService: studentService,
		scoringService: scoringService,
	}
}

// SetRoleRequest represents a role assignment request
type SetRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=student teacher admin"`
}

// SetActiveRequest represents an account activation request
type SetActiveRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

// SubjectScoreRequest represents a GPA submission
type SubjectScoreRequest struct {
	GPA    float64 `json:"gpa" validate:"min=0,max=4"`
	AValue float64 `json:"a_value" validate:"required,gt=0"`
}

// BonusRecordRequest represents an academic expertise or comprehensive
// performance submission. Negative scores are accepted and floored to zero
// on save.
type BonusRecordRequest struct {
	Name     string  `json:"name" validate:"required"`
	Score    float64 `json:"score"`
	Material *string `json:"material,omitempty"`
}

// List retrieves students ordered by ranking
// @Summary List students
// @Description List students ordered by ranking (staff only)
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param role query string false "Filter by role"
// @Param search query string false "Search username or student id"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} listResponse
// @Failure 403 {object} map[string]string "Permission denied"
// @Router /students [get]
func (h *StudentHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	filters := repository.StudentFilters{
		Role:   r.URL.Query().Get("role"),
		Search: r.URL.Query().Get("search"),
		Limit:  limit,
		Offset: offset,
	}

	students, total, err := h.studentService.List(filters)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, listResponse{Items: students, Total: total})
}

// Rankings retrieves the global student leaderboard
// @Summary Rankings
// @Description List students by rank; visible to every authenticated user
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} listResponse
// @Router /rankings [get]
func (h *StudentHandler) Rankings(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	filters := repository.StudentFilters{
		Role:   models.RoleStudent,
		Limit:  limit,
		Offset: offset,
	}

	students, total, err := h.studentService.List(filters)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, listResponse{Items: students, Total: total})
}

// Get retrieves one student's profile with score breakdown
// @Summary Get student
// @Description Get a student's profile and score breakdown (staff only)
// @Tags Students
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Success 200 {object} service.Profile
// @Failure 404 {object} map[string]string "Student not found"
// @Router /students/{id} [get]
func (h *StudentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidID)
		return
	}

	profile, err := h.studentService.GetProfile(id)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, profile)
}

// SetRole assigns a role to a student
// @Summary Set role
// @Description Assign a role to a student (admin only)
// @Tags Students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Param body body SetRoleRequest true "Role"
// @Success 200 {object} map[string]string
// @Failure 400 {object} map[string]string "Invalid role"
// @Router /students/{id}/role [put]
func (h *StudentHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.GetPrincipal(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}
	id, err := pathID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidID)
		return
	}

	var req SetRoleRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.studentService.SetRole(p.UserID, id, req.Role); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Role updated"})
}

// SetActive enables or disables a student account
// @Summary Set active
// @Description Enable or disable a student account (admin only)
// @Tags Students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Param body body SetActiveRequest true "Activation flag"
// @Success 200 {object} map[string]string
// @Router /students/{id}/active [put]
func (h *StudentHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.GetPrincipal(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}
	id, err := pathID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidID)
		return
	}

	var req SetActiveRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.studentService.SetActive(p.UserID, id, *req.IsActive); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Account updated"})
}

// studentScope resolves the {id} path segment and rejects students reaching
// for records that are not their own.
func studentScope(w http.ResponseWriter, r *http.Request) (uint, bool) {
	p, ok := middleware.GetPrincipal(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return 0, false
	}
	id, err := pathID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidID)
		return 0, false
	}
	if !p.IsStaff() && id != p.UserID {
		respondWithError(w, http.StatusForbidden, "permission denied")
		return 0, false
	}
	return id, true
}

// GetSubjectScore retrieves a student's subject score
// @Summary Get subject score
// @Description Get a student's GPA-based subject score
// @Tags Scores
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Success 200 {object} models.SubjectScore
// @Router /students/{id}/subject-score [get]
func (h *StudentHandler) GetSubjectScore(w http.ResponseWriter, r *http.Request) {
	id, ok := studentScope(w, r)
	if !ok {
		return
	}

	score, err := h.scoringService.GetSubjectScore(id)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	if score == nil {
		respondWithError(w, http.StatusNotFound, "No subject score recorded")
		return
	}

	respondWithJSON(w, http.StatusOK, score)
}

// SetSubjectScore records or replaces a student's subject score
// @Summary Set subject score
// @Description Record a GPA and conversion factor; totals and rankings recompute immediately
// @Tags Scores
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Param body body SubjectScoreRequest true "GPA data"
// @Success 200 {object} models.SubjectScore
// @Failure 400 {object} map[string]string "Invalid input"
// @Router /students/{id}/subject-score [put]
func (h *StudentHandler) SetSubjectScore(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.GetPrincipal(r)
	id, ok := studentScope(w, r)
	if !ok {
		return
	}

	var req SubjectScoreRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	score, err := h.scoringService.SetSubjectScore(p, id, req.GPA, req.AValue)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, score)
}

// ListAcademicExpertise retrieves a student's academic expertise records
// @Summary List academic expertise
// @Tags Scores
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Success 200 {array} models.AcademicExpertise
// @Router /students/{id}/academic-expertise [get]
func (h *StudentHandler) ListAcademicExpertise(w http.ResponseWriter, r *http.Request) {
	id, ok := studentScope(w, r)
	if !ok {
		return
	}

	records, err := h.scoringService.ListAcademicExpertise(id)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, records)
}

// AddAcademicExpertise records a new academic expertise entry
// @Summary Add academic expertise
// @Description Add a capped bonus record; a material reference opens a proof review
// @Tags Scores
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Param body body BonusRecordRequest true "Record data"
// @Success 201 {object} models.AcademicExpertise
// @Router /students/{id}/academic-expertise [post]
func (h *StudentHandler) AddAcademicExpertise(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.GetPrincipal(r)
	id, ok := studentScope(w, r)
	if !ok {
		return
	}

	var req BonusRecordRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	rec := &models.AcademicExpertise{
		StudentID: id,
		Name:      req.Name,
		Score:     req.Score,
		Material:  req.Material,
	}
	created, err := h.scoringService.AddAcademicExpertise(p, rec)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}

// UpdateAcademicExpertise updates an academic expertise record
// @Summary Update academic expertise
// @Tags Scores
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Record ID"
// @Param body body BonusRecordRequest true "Record data"
// @Success 200 {object} map[string]string
// @Router /academic-expertise/{id} [put]
func (h *StudentHandler) UpdateAcademicExpertise(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.GetPrincipal(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}
	id, err := pathID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidID)
		return
	}

	var req BonusRecordRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	rec := &models.AcademicExpertise{
		ID:       id,
		Name:     req.Name,
		Score:    req.Score,
		Material: req.Material,
	}
	if err := h.scoringService.UpdateAcademicExpertise(p, rec); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Record updated"})
}

// DeleteAcademicExpertise removes an academic expertise record
// @Summary Delete academic expertise
// @Tags Scores
// @Produce json
// @Security BearerAuth
// @Param id path int true "Record ID"
// @Success 200 {object} map[string]string
// @Router /academic-expertise/{id} [delete]
func (h *StudentHandler) DeleteAcademicExpertise(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.GetPrincipal(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}
	id, err := pathID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidID)
		return
	}

	if err := h.scoringService.DeleteAcademicExpertise(p, id); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Record deleted"})
}

// ListComprehensivePerformance retrieves a student's comprehensive
// performance records
// @Summary List comprehensive performance
// @Tags Scores
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Success 200 {array} models.ComprehensivePerformance
// @Router /students/{id}/comprehensive-performance [get]
func (h *StudentHandler) ListComprehensivePerformance(w http.ResponseWriter, r *http.Request) {
	id, ok := studentScope(w, r)
	if !ok {
		return
	}

	records, err := h.scoringService.ListComprehensivePerformance(id)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, records)
}

// AddComprehensivePerformance records a new comprehensive performance entry
// @Summary Add comprehensive performance
// @Tags Scores
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student ID"
// @Param body body BonusRecordRequest true "Record data"
// @Success 201 {object} models.ComprehensivePerformance
// @Router /students/{id}/comprehensive-performance [post]
func (h *StudentHandler) AddComprehensivePerformance(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.GetPrincipal(r)
	id, ok := studentScope(w, r)
	if !ok {
		return
	}

	var req BonusRecordRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	rec := &models.ComprehensivePerformance{
		StudentID: id,
		Name:      req.Name,
		Score:     req.Score,
		Material:  req.Material,
	}
	created, err := h.scoringService.AddComprehensivePerformance(p, rec)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}

// UpdateComprehensivePerformance updates a comprehensive performance record
// @Summary Update comprehensive performance
// @Tags Scores
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Record ID"
// @Param body body BonusRecordRequest true "Record data"
// @Success 200 {object} map[string]string
// @Router /comprehensive-performance/{id} [put]
func (h *StudentHandler) UpdateComprehensivePerformance(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.GetPrincipal(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}
	id, err := pathID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidID)
		return
	}

	var req BonusRecordRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	rec := &models.ComprehensivePerformance{
		ID:       id,
		Name:     req.Name,
		Score:    req.Score,
		Material: req.Material,
	}
	if err := h.scoringService.UpdateComprehensivePerformance(p, rec); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Record updated"})
}

// DeleteComprehensivePerformance removes a comprehensive performance record
// @Summary Delete comprehensive performance
// @Tags Scores
// @Produce json
// @Security BearerAuth
// @Param id path int true "Record ID"
// @Success 200 {object} map[string]string
// @Router /comprehensive-performance/{id} [delete]
func (h *StudentHandler) DeleteComprehensivePerformance(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.GetPrincipal(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}
	id, err := pathID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidID)
		return
	}

	if err := h.scoringService.DeleteComprehensivePerformance(p, id); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Record deleted"})
}
