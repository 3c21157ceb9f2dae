package handlers

import (
	"net/http"

	"meritboard/internal/middleware"
	"meritboard/internal/models"
	"meritboard/internal/service"
)

// PolicyHandler handles policy documents
type PolicyHandler struct {
	policyService *service.PolicyService
}

// NewPolicyHandler creates a new policy handler
func NewPolicyHandler(policyService *service.PolicyService) *PolicyHandler {
	return &PolicyHandler{policyService: policyService}
}

// PolicyRequest represents a policy document payload
type PolicyRequest struct {
	Title    string  `json:"title" validate:"required"`
	Summary  *string `json:"summary,omitempty"`
	FileID   *string `json:"file_id,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// List retrieves policy documents
// @Summary List policies
// @Description List policy documents; students see only active ones
// @Tags Policies
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Policy
// @Router /policies [get]
func (h *PolicyHandler) List(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.GetPrincipal(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	policies, err := h.policyService.List(p.IsStaff())
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, policies)
}

// Get retrieves one policy document
// @Summary Get policy
// @Tags Policies
// @Produce json
// @Security BearerAuth
// @Param id path int true "Policy ID"
// @Success 200 {object} models.Policy
// @Failure 404 {object} map[string]string "Not found"
// @Router /policies/{id} [get]
func (h *PolicyHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidID)
		return
	}

	policy, err := h.policyService.Get(id)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, policy)
}

// Create adds a policy document
// @Summary Create policy
// @Tags Policies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body PolicyRequest true "Policy data"
// @Success 201 {object} models.Policy
// @Router /admin/policies [post]
func (h *PolicyHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.GetPrincipal(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	var req PolicyRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	uploadedBy := p.UserID
	policy := &models.Policy{
		Title:      req.Title,
		Summary:    req.Summary,
		FileID:     req.FileID,
		UploadedBy: &uploadedBy,
		IsActive:   req.IsActive == nil || *req.IsActive,
	}
	created, err := h.policyService.Create(p.UserID, policy)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}

// Update edits a policy document
// @Summary Update policy
// @Tags Policies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Policy ID"
// @Param body body PolicyRequest true "Policy data"
// @Success 200 {object} models.Policy
// @Router /admin/policies/{id} [put]
func (h *PolicyHandler) Update(w http.ResponseWriter, r *http.Request) {
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

	var req PolicyRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	policy := &models.Policy{
		ID:       id,
		Title:    req.Title,
		Summary:  req.Summary,
		FileID:   req.FileID,
		IsActive: req.IsActive == nil || *req.IsActive,
	}
	updated, err := h.policyService.Update(p.UserID, policy)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, updated)
}

// Delete removes a policy document
// @Summary Delete policy
// @Tags Policies
// @Produce json
// @Security BearerAuth
// @Param id path int true "Policy ID"
// @Success 200 {object} map[string]string
// @Router /admin/policies/{id} [delete]
func (h *PolicyHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

	if err := h.policyService.Delete(p.UserID, id); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Policy deleted"})
}
