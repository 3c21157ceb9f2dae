package middleware

import (
	"context"
	"net/http"
	"strings"

	"meritboard/internal/auth"
	"meritboard/internal/authz"
	"meritboard/internal/repository"
)

type contextKey string

const principalKey contextKey = "principal"

// AuthMiddleware validates JWT tokens and attaches the principal
type AuthMiddleware struct {
	authService *auth.Service
	studentRepo *repository.StudentRepository
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(authService *auth.Service, studentRepo *repository.StudentRepository) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
		studentRepo: studentRepo,
	}
}

// Authenticate validates the JWT token, verifies the account is still active
// and adds the principal to the request context. The role comes from the
// database, not the token, so a demotion takes effect immediately.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			respondWithError(w, http.StatusUnauthorized, "Missing authorization header")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			respondWithError(w, http.StatusUnauthorized, "Invalid authorization header format")
			return
		}

		claims, err := m.authService.ValidateToken(parts[1])
		if err != nil {
			respondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		student, err := m.studentRepo.GetByID(claims.UserID)
		if err != nil {
			respondWithError(w, http.StatusUnauthorized, "Account no longer exists")
			return
		}
		if !student.IsActive {
			respondWithError(w, http.StatusUnauthorized, "Account is disabled")
			return
		}

		principal := authz.Principal{
			UserID:  student.ID,
			Account: student.Username,
			Role:    student.Role,
		}
		ctx := context.WithValue(r.Context(), principalKey, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetPrincipal retrieves the authenticated principal from the request context
func GetPrincipal(r *http.Request) (authz.Principal, bool) {
	p, ok := r.Context().Value(principalKey).(authz.Principal)
	return p, ok
}

// respondWithError writes a minimal JSON error body
func respondWithError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(`{"error":"` + message + `"}`))
}
