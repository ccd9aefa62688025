package auth

import (
	"context"

	"github.com/projecthub-edu/projecthub-api/internal/domain"
)

// UserContext holds authenticated user information for a request. The access
// token is kept so proxy handlers can forward it upstream.
type UserContext struct {
	UserID      int64
	Email       string
	Name        string
	Role        domain.UserRole
	AccessToken string
}

type contextKey string

const userContextKey contextKey = "userContext"

// WithUserContext adds user context to the context
func WithUserContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// FromContext extracts user context from the context
func FromContext(ctx context.Context) (*UserContext, bool) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	return user, ok
}

// MustFromContext extracts user context or panics
func MustFromContext(ctx context.Context) *UserContext {
	user, ok := FromContext(ctx)
	if !ok {
		panic("user context not found in context")
	}
	return user
}

// HasAnyRole checks if the user has any of the specified roles
func (u *UserContext) HasAnyRole(roles ...domain.UserRole) bool {
	for _, role := range roles {
		if u.Role == role {
			return true
		}
	}
	return false
}

// IsTeacher reports whether the user may manage promotions and defenses
func (u *UserContext) IsTeacher() bool {
	return u.Role == domain.RoleTeacher || u.Role == domain.RoleAdmin
}
