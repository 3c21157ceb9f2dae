package handlers

import (
	"net/http"
	"strconv"
	"time"

	"meritboard/internal/middleware"
	"meritboard/internal/models"
	"meritboard/internal/repository"
	"meritboard/internal/service"
)

// ProgramHandler handles teacher projects and student selections
type ProgramHandler struct {
	programService *service.ProgramService
}

// NewProgramHandler creates a new program handler
func NewProgramHandler(programService *service.ProgramService) *ProgramHandler {
	return &ProgramHandler{programService: programService}
}

// ProjectRequest represents a project create/update payload
type ProjectRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Points      float64    `json:"points" validate:"min=0"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	Slots       int        `json:"slots" validate:"min=0"`
	Status      string     `json:"status" validate:"omitempty,oneof=active paused archived"`
}

// SelectionRequest represents a project selection payload
type SelectionRequest struct {
	Notes string `json:"notes"`
}

// Create creates a new project
// @Summary Create project
// @Description Create a capacity-limited project (staff only)
// @Tags Projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body ProjectRequest true "Project data"
// @Success 201 {object} models.TeacherProject
// @Failure 400 {object} map[string]string "Invalid input"
// @Router /projects [post]
func (h *ProgramHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.GetPrincipal(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	var req ProjectRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	project := &models.TeacherProject{
		Title:       req.Title,
		Description: req.Description,
		Points:      req.Points,
		Deadline:    req.Deadline,
		Slots:       req.Slots,
		Status:      req.Status,
	}
	created, err := h.programService.CreateProject(p, project)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}

// Get retrieves a project
// @Summary Get project
// @Tags Projects
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Success 200 {object} models.TeacherProject
// @Failure 404 {object} map[string]string "Not found"
// @Router /projects/{id} [get]
func (h *ProgramHandler) Get(w http.ResponseWriter, r *http.Request) {
	project, err := h.programService.GetProject(r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, project)
}

// List retrieves projects
// @Summary List projects
// @Tags Projects
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status"
// @Param teacher_id query int false "Filter by owning teacher"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} listResponse
// @Router /projects [get]
func (h *ProgramHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	filters := repository.ProjectFilters{
		Status: r.URL.Query().Get("status"),
		Limit:  limit,
		Offset: offset,
	}
	if v := r.URL.Query().Get("teacher_id"); v != "" {
		if id, err := strconv.ParseUint(v, 10, 32); err == nil {
			filters.TeacherID = uint(id)
		}
	}

	projects, total, err := h.programService.ListProjects(filters)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, listResponse{Items: projects, Total: total})
}

// Update edits a project
// @Summary Update project
// @Description Edit a project; teachers may only edit their own (staff only)
// @Tags Projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Param body body ProjectRequest true "Project data"
// @Success 200 {object} models.TeacherProject
// @Router /projects/{id} [put]
func (h *ProgramHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.GetPrincipal(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	var req ProjectRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	project := &models.TeacherProject{
		ID:          r.PathValue("id"),
		Title:       req.Title,
		Description: req.Description,
		Points:      req.Points,
		Deadline:    req.Deadline,
		Slots:       req.Slots,
		Status:      req.Status,
	}
	updated, err := h.programService.UpdateProject(p, project)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, updated)
}

// Delete removes a project
// @Summary Delete project
// @Tags Projects
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Success 200 {object} map[string]string
// @Router /projects/{id} [delete]
func (h *ProgramHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.GetPrincipal(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	if err := h.programService.DeleteProject(p, r.PathValue("id")); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Project deleted"})
}

// Select enrolls the requesting student in a project
// @Summary Select project
// @Description Enroll in a project; a full or already-selected project yields a conflict
// @Tags Projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Param body body SelectionRequest true "Selection notes"
// @Success 201 {object} models.ProjectSelection
// @Failure 409 {object} map[string]string "Project full or already selected"
// @Router /projects/{id}/select [post]
func (h *ProgramHandler) Select(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.GetPrincipal(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	var req SelectionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	selection, err := h.programService.SelectProject(p, r.PathValue("id"), req.Notes)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, selection)
}

// ListSelections retrieves all selections of a project
// @Summary List project selections
// @Description List all selections of a project including cancelled ones (staff only)
// @Tags Projects
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Success 200 {array} models.ProjectSelection
// @Router /projects/{id}/selections [get]
func (h *ProgramHandler) ListSelections(w http.ResponseWriter, r *http.Request) {
	selections, err := h.programService.ListProjectSelections(r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, selections)
}

// MySelections retrieves the requesting student's selections
// @Summary My selections
// @Tags Projects
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.ProjectSelection
// @Router /selections [get]
func (h *ProgramHandler) MySelections(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.GetPrincipal(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	selections, err := h.programService.ListMySelections(p)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, selections)
}

// CancelSelection cancels an active selection
// @Summary Cancel selection
// @Description Cancel an active selection; the row is kept for history
// @Tags Projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Selection ID"
// @Param body body SelectionRequest true "Cancellation notes"
// @Success 200 {object} map[string]string
// @Router /selections/{id}/cancel [post]
func (h *ProgramHandler) CancelSelection(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.GetPrincipal(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	var req SelectionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.programService.CancelSelection(p, r.PathValue("id"), req.Notes); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Selection cancelled"})
}
