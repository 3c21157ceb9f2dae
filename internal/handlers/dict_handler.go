package handlers

import (
	"net/http"

	"meritboard/internal/middleware"
	"meritboard/internal/models"
	"meritboard/internal/service"
)

// DictHandler handles dictionary entries
type DictHandler struct {
	dictService *service.DictService
}

// NewDictHandler creates a new dict handler
func NewDictHandler(dictService *service.DictService) *DictHandler {
	return &DictHandler{dictService: dictService}
}

// DictEntryRequest represents a dictionary entry payload
type DictEntryRequest struct {
	Category    string  `json:"category" validate:"required"`
	Code        string  `json:"code" validate:"required"`
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description,omitempty"`
	Order       int     `json:"order"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// ListCategories retrieves the known dictionary categories
// @Summary List dictionary categories
// @Tags Dictionaries
// @Produce json
// @Security BearerAuth
// @Success 200 {array} string
// @Router /dicts [get]
func (h *DictHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.dictService.ListCategories()
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, categories)
}

// ListByCategory retrieves the active entries of one category
// @Summary List dictionary entries
// @Tags Dictionaries
// @Produce json
// @Security BearerAuth
// @Param category path string true "Category"
// @Success 200 {array} models.DictEntry
// @Router /dicts/{category} [get]
func (h *DictHandler) ListByCategory(w http.ResponseWriter, r *http.Request) {
	entries, err := h.dictService.ListByCategory(r.PathValue("category"))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, entries)
}

// Create adds a dictionary entry
// @Summary Create dictionary entry
// @Tags Dictionaries
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body DictEntryRequest true "Entry data"
// @Success 201 {object} models.DictEntry
// @Router /admin/dicts [post]
func (h *DictHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.GetPrincipal(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	var req DictEntryRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	entry := &models.DictEntry{
		Category:    req.Category,
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
		Order:       req.Order,
		IsActive:    req.IsActive == nil || *req.IsActive,
	}
	created, err := h.dictService.Create(p.UserID, entry)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, created)
}

// Update edits a dictionary entry
// @Summary Update dictionary entry
// @Tags Dictionaries
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Entry ID"
// @Param body body DictEntryRequest true "Entry data"
// @Success 200 {object} models.DictEntry
// @Router /admin/dicts/{id} [put]
func (h *DictHandler) Update(w http.ResponseWriter, r *http.Request) {
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

	var req DictEntryRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	entry := &models.DictEntry{
		ID:          id,
		Category:    req.Category,
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
		Order:       req.Order,
		IsActive:    req.IsActive == nil || *req.IsActive,
	}
	updated, err := h.dictService.Update(p.UserID, entry)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, updated)
}

// Delete removes a dictionary entry
// @Summary Delete dictionary entry
// @Tags Dictionaries
// @Produce json
// @Security BearerAuth
// @Param id path int true "Entry ID"
// @Success 200 {object} map[string]string
// @Router /admin/dicts/{id} [delete]
func (h *DictHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

	if err := h.dictService.Delete(p.UserID, id); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Entry deleted"})
}
