package middleware

import (
	"database/sql"
	"net/http"

	"meritboard/internal/models"
	"meritboard/internal/repository"
)

// AuditMiddleware records security-relevant requests with client metadata.
// Domain-level audit entries are written by the services; this captures the
// surrounding request (IP, user agent) for sensitive routes.
type AuditMiddleware struct {
	auditRepo *repository.AuditRepository
}

// NewAuditMiddleware creates a new audit middleware
func NewAuditMiddleware(db *sql.DB) *AuditMiddleware {
	return &AuditMiddleware{
		auditRepo: repository.NewAuditRepository(db),
	}
}

// Log records an audit entry after the wrapped handler runs
func (m *AuditMiddleware) Log(action, resource, details string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)

			var userID *uint
			if p, ok := GetPrincipal(r); ok {
				id := p.UserID
				userID = &id
			}

			_ = m.auditRepo.Create(&models.AuditLog{
				UserID:    userID,
				Action:    action,
				Resource:  resource,
				Details:   details,
				IPAddress: getIP(r),
				UserAgent: r.UserAgent(),
			})
		})
	}
}
