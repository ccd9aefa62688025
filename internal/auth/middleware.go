package auth

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/projecthub-edu/projecthub-api/internal/domain"
	"github.com/projecthub-edu/projecthub-api/internal/session"
	"go.uber.org/zap"
)

// Middleware handles authentication for HTTP requests
type Middleware struct {
	logger *zap.Logger
}

// NewMiddleware creates a new authentication middleware
func NewMiddleware(logger *zap.Logger) *Middleware {
	return &Middleware{logger: logger}
}

// Authenticate requires a bearer token that parses and is not within the
// expiry margin. Identity claims go into the request context; the upstream
// backend verifies the signature on forwarded calls.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			m.unauthorized(w, "Missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			m.unauthorized(w, "Invalid authorization header format")
			return
		}
		token := parts[1]

		if session.TokenExpired(token, time.Now()) {
			m.logger.Debug("expired token rejected",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
			)
			m.unauthorized(w, "Token expired")
			return
		}

		userCtx, err := ParseUserToken(token)
		if err != nil {
			m.logger.Warn("token parsing failed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
				zap.Error(err),
			)
			m.unauthorized(w, "Invalid token")
			return
		}

		m.logger.Debug("request authenticated",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int64("user_id", userCtx.UserID),
			zap.String("user_email", userCtx.Email),
			zap.String("role", string(userCtx.Role)),
			zap.Duration("auth_duration", time.Since(start)),
		)

		ctx := WithUserContext(r.Context(), userCtx)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole ensures the user has one of the specified roles
func (m *Middleware) RequireRole(roles ...domain.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userCtx, ok := FromContext(r.Context())
			if !ok {
				m.forbidden(w, "No user context")
				return
			}

			if !userCtx.HasAnyRole(roles...) {
				m.forbidden(w, "Insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireTeacher ensures the user is a teacher or admin
func (m *Middleware) RequireTeacher(next http.Handler) http.Handler {
	return m.RequireRole(domain.RoleTeacher, domain.RoleAdmin)(next)
}

func (m *Middleware) unauthorized(w http.ResponseWriter, detail string) {
	m.respondProblem(w, http.StatusUnauthorized, domain.ErrorTypeUnauthorized, "Unauthorized", detail)
}

func (m *Middleware) forbidden(w http.ResponseWriter, detail string) {
	m.respondProblem(w, http.StatusForbidden, domain.ErrorTypeForbidden, "Forbidden", detail)
}

func (m *Middleware) respondProblem(w http.ResponseWriter, status int, errType, title, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(&domain.APIError{
		Type:   errType,
		Title:  title,
		Status: status,
		Detail: detail,
	}); err != nil {
		m.logger.Error("Failed to encode error response", zap.Error(err))
	}
}
