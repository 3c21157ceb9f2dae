package handlers

import (
	"net/http"
	"strconv"

	"meritboard/internal/middleware"
	"meritboard/internal/models"
	"meritboard/internal/repository"
	"meritboard/internal/service"
)

// RulesHandler handles score limits, category rules and proof reviews
type RulesHandler struct {
	rulesService   *service.RulesService
	scoringService *service.ScoringService
}

// NewRulesHandler creates a new rules handler
func NewRulesHandler(
	rulesService *service.RulesService,
	scoringService *service.ScoringService,
) *RulesHandler {
	return &RulesHandler{
		rulesService:   rulesService,
		scoringService: scoringService,
	}
}

// CategoryRuleRequest represents one category rule in a replacement set
type CategoryRuleRequest struct {
	Name  string  `json:"name" validate:"required"`
	Cap   float64 `json:"cap" validate:"min=0"`
	Ratio int     `json:"ratio" validate:"min=0,max=100"`
}

// CategoryRulesRequest represents a full category rule replacement. An empty
// rule list clears the rule set.
type CategoryRulesRequest struct {
	Rules []CategoryRuleRequest `json:"rules" validate:"dive"`
}

// ProofDecisionRequest represents a proof review decision
type ProofDecisionRequest struct {
	Approve bool   `json:"approve"`
	Reason  string `json:"reason"`
}

// ProofEntityDecisionRequest decides the proof of a target entity addressed
// by kind and id rather than by review row
type ProofEntityDecisionRequest struct {
	EntityKind string `json:"entity_kind" validate:"required"`
	EntityID   uint   `json:"entity_id" validate:"required"`
	Approve    bool   `json:"approve"`
	Reason     string `json:"reason"`
}

// GetLimits retrieves the global score caps
// @Summary Get score limits
// @Tags Rules
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.ScoreLimit
// @Router /score-limits [get]
func (h *RulesHandler) GetLimits(w http.ResponseWriter, r *http.Request) {
	limits, err := h.rulesService.GetLimits()
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, limits)
}

// UpdateLimits applies a partial update to the global score caps
// @Summary Update score limits
// @Description Update any subset of the caps; all totals recompute under the new values (admin only)
// @Tags Rules
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.LimitUpdate true "Caps to change"
// @Success 200 {object} models.ScoreLimit
// @Failure 400 {object} map[string]string "Invalid input"
// @Router /score-limits [put]
func (h *RulesHandler) UpdateLimits(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.GetPrincipal(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	var req service.LimitUpdate
	if !decodeAndValidate(w, r, &req) {
		return
	}

	limits, err := h.rulesService.UpdateLimits(p.UserID, req)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, limits)
}

// ListCategoryRules retrieves the active category rules
// @Summary List category rules
// @Tags Rules
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.ScoreCategoryRule
// @Router /category-rules [get]
func (h *RulesHandler) ListCategoryRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.rulesService.ListCategoryRules()
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, rules)
}

// ReplaceCategoryRules replaces the whole category rule set
// @Summary Replace category rules
// @Description Atomically replace all category rules; ratios must sum to 100 (admin only)
// @Tags Rules
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CategoryRulesRequest true "New rule set"
// @Success 200 {array} models.ScoreCategoryRule
// @Failure 400 {object} map[string]string "Invalid rule set"
// @Router /category-rules [put]
func (h *RulesHandler) ReplaceCategoryRules(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.GetPrincipal(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	var req CategoryRulesRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	rules := make([]models.ScoreCategoryRule, len(req.Rules))
	for i, rr := range req.Rules {
		rules[i] = models.ScoreCategoryRule{Name: rr.Name, Cap: rr.Cap, Ratio: rr.Ratio}
	}

	saved, err := h.rulesService.ReplaceCategoryRules(p.UserID, rules)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, saved)
}

// Recompute rebuilds every student's total and the global ranking
// @Summary Recompute scores
// @Description Force a full recompute of totals and rankings (admin only)
// @Tags Rules
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]string
// @Router /scores/recompute [post]
func (h *RulesHandler) Recompute(w http.ResponseWriter, r *http.Request) {
	if err := h.scoringService.Recompute(); err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Recompute complete"})
}

// ListProofReviews retrieves proof reviews
// @Summary List proof reviews
// @Description List proof reviews in the moderation queue (staff only)
// @Tags Proofs
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status"
// @Param entity_kind query string false "Filter by entity kind"
// @Param student_id query int false "Filter by student"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} listResponse
// @Router /proof-reviews [get]
func (h *RulesHandler) ListProofReviews(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	filters := repository.ProofReviewFilters{
		Status: r.URL.Query().Get("status"),
		Limit:  limit,
		Offset: offset,
	}
	if label := r.URL.Query().Get("entity_kind"); label != "" {
		kind, ok := models.NormalizeEntityKind(label)
		if !ok {
			respondWithError(w, http.StatusBadRequest, "Unknown entity kind")
			return
		}
		filters.EntityKind = kind
	}
	if v := r.URL.Query().Get("student_id"); v != "" {
		if id, err := strconv.ParseUint(v, 10, 32); err == nil {
			filters.StudentID = uint(id)
		}
	}

	reviews, total, err := h.rulesService.ListProofReviews(filters)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, listResponse{Items: reviews, Total: total})
}

// GetProofReview retrieves one proof review
// @Summary Get proof review
// @Tags Proofs
// @Produce json
// @Security BearerAuth
// @Param id path int true "Proof review ID"
// @Success 200 {object} models.ProofReview
// @Failure 404 {object} map[string]string "Not found"
// @Router /proof-reviews/{id} [get]
func (h *RulesHandler) GetProofReview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidID)
		return
	}

	review, err := h.rulesService.GetProofReview(id)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, review)
}

// DecideProof approves or rejects a pending proof
// @Summary Decide proof review
// @Description Approve a proof, or reject it with a reason; rejection removes the material from the record (staff only)
// @Tags Proofs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Proof review ID"
// @Param body body ProofDecisionRequest true "Decision"
// @Success 200 {object} models.ProofReview
// @Failure 400 {object} map[string]string "Invalid decision"
// @Router /proof-reviews/{id}/decide [post]
func (h *RulesHandler) DecideProof(w http.ResponseWriter, r *http.Request) {
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

	var req ProofDecisionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	review, err := h.rulesService.DecideProof(p.UserID, id, req.Approve, req.Reason)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, review)
}

// DecideProofByEntity decides the proof of an entity named by kind and id
// @Summary Decide proof by entity
// @Description Approve or reject the proof of a record addressed by entity kind and id, opening a review row on demand when none is pending (staff only)
// @Tags Proofs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body ProofEntityDecisionRequest true "Target and decision"
// @Success 200 {object} models.ProofReview
// @Failure 400 {object} map[string]string "Invalid decision"
// @Router /proof-reviews/decide [post]
func (h *RulesHandler) DecideProofByEntity(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.GetPrincipal(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ErrMsgUnauthorized)
		return
	}

	var req ProofEntityDecisionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	review, err := h.rulesService.DecideProofForEntity(p.UserID, req.EntityKind, req.EntityID, req.Approve, req.Reason)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, review)
}
