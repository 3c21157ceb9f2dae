package handlers

import (
	"net/http"

	"meritboard/internal/middleware"
	"meritboard/internal/models"
	"meritboard/internal/repository"
	"meritboard/internal/service"
)

// TicketHandler handles student review tickets
type TicketHandler struct {
	reviewService *service.ReviewService
}

// NewTicketHandler creates a new ticket handler
func NewTicketHandler(reviewService *service.ReviewService) *TicketHandler {
	return &TicketHandler{reviewService: reviewService}
}

// TicketRequest represents a student review ticket submission
type TicketRequest struct {
	StudentName string `json:"student_name" validate:"required"`
	StudentID   string `json:"student_id" validate:"required"`
	College     string `json:"college"`
	Major       string `json:"major"`
}

// Create opens a student review ticket
// @Summary Open review ticket
// @Description Open a qualification review ticket for a student
// @Tags Tickets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body TicketRequest true "Ticket data"
// @Success 201 {object} models.StudentReviewTicket
// @Router /review-tickets [post]
func (h *TicketHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.GetPrincipal(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	var req TicketRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	ticket := &models.StudentReviewTicket{
		StudentName: req.StudentName,
		StudentID:   req.StudentID,
		College:     req.College,
		Major:       req.Major,
	}
	created, err := h.reviewService.CreateTicket(p, ticket)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}

// Get retrieves a student review ticket
// @Summary Get review ticket
// @Tags Tickets
// @Produce json
// @Security BearerAuth
// @Param id path string true "Ticket ID"
// @Success 200 {object} models.StudentReviewTicket
// @Failure 404 {object} map[string]string "Not found"
// @Router /review-tickets/{id} [get]
func (h *TicketHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.GetPrincipal(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	ticket, err := h.reviewService.GetTicket(p, r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, ticket)
}

// List retrieves student review tickets
// @Summary List review tickets
// @Description List review tickets; students see only their own
// @Tags Tickets
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status"
// @Param stage query string false "Filter by review stage"
// @Param student_id query string false "Filter by student id (staff only)"
// @Param college query string false "Filter by college"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} listResponse
// @Router /review-tickets [get]
func (h *TicketHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.GetPrincipal(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	limit, offset := pagination(r)
	filters := repository.TicketFilters{
		Status:    r.URL.Query().Get("status"),
		Stage:     r.URL.Query().Get("stage"),
		StudentID: r.URL.Query().Get("student_id"),
		College:   r.URL.Query().Get("college"),
		Limit:     limit,
		Offset:    offset,
	}

	tickets, total, err := h.reviewService.ListTickets(p, filters)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, listResponse{Items: tickets, Total: total})
}

// Update edits ticket profile fields
// @Summary Update review ticket
// @Description Edit ticket profile fields without touching review state (staff only)
// @Tags Tickets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Ticket ID"
// @Param body body TicketRequest true "Ticket data"
// @Success 200 {object} models.StudentReviewTicket
// @Router /review-tickets/{id} [put]
func (h *TicketHandler) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.GetPrincipal(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	var req TicketRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	ticket := &models.StudentReviewTicket{
		ID:          r.PathValue("id"),
		StudentName: req.StudentName,
		College:     req.College,
		Major:       req.Major,
	}
	updated, err := h.reviewService.UpdateTicket(p, ticket)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, updated)
}

// Delete removes a student review ticket
// @Summary Delete review ticket
// @Tags Tickets
// @Produce json
// @Security BearerAuth
// @Param id path string true "Ticket ID"
// @Success 200 {object} map[string]string
// @Router /review-tickets/{id} [delete]
func (h *TicketHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.GetPrincipal(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	if err := h.reviewService.DeleteTicket(p, r.PathValue("id")); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Ticket deleted"})
}

// Review applies a review decision to a ticket
// @Summary Review ticket
// @Description Advance, reject or reset a pending ticket (staff only)
// @Tags Tickets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Ticket ID"
// @Param body body ReviewRequest true "Decision"
// @Success 200 {object} models.StudentReviewTicket
// @Router /review-tickets/{id}/review [post]
func (h *TicketHandler) Review(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.GetPrincipal(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	var req ReviewRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	ticket, err := h.reviewService.ReviewTicket(p, r.PathValue("id"), req.Decision, req.Note)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, ticket)
}

// Override applies an admin override to a ticket
// @Summary Override ticket
// @Description Reopen or cancel a decided ticket (admin only)
// @Tags Tickets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Ticket ID"
// @Param body body OverrideRequest true "Override action"
// @Success 200 {object} models.StudentReviewTicket
// @Router /review-tickets/{id}/override [post]
func (h *TicketHandler) Override(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.GetPrincipal(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	var req OverrideRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	ticket, err := h.reviewService.OverrideTicket(p, r.PathValue("id"), req.Action, req.Note)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, ticket)
}
