package handlers

import (
	"net/http"
	"strconv"

	"meritboard/internal/repository"
	"meritboard/internal/service"
)

// AuditHandler exposes the audit log to administrators
type AuditHandler struct {
	auditService *service.AuditService
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(auditService *service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// List retrieves audit log entries
// @Summary List audit logs
// @Description List audit log entries, newest first (admin only)
// @Tags Audit
// @Produce json
// @Security BearerAuth
// @Param user_id query int false "Filter by acting user"
// @Param action query string false "Filter by action"
// @Param resource query string false "Filter by resource"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} listResponse
// @Router /admin/audit-logs [get]
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	filters := repository.AuditFilters{
		Action:   r.URL.Query().Get("action"),
		Resource: r.URL.Query().Get("resource"),
		Limit:    limit,
		Offset:   offset,
	}
	if v := r.URL.Query().Get("user_id"); v != "" {
		if id, err := strconv.ParseUint(v, 10, 32); err == nil {
			filters.UserID = uint(id)
		}
	}

	entries, total, err := h.auditService.List(filters)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, listResponse{Items: entries, Total: total})
}
