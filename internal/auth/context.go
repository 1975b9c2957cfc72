package auth

import (
	"context"

	"github.com/motorserv/srf-api/internal/domain"
)

// Authentication methods recorded on the user context.
const (
	AuthTypeJWT    = "jwt"
	AuthTypeAPIKey = "api_key"
)

// UserContext holds authenticated user information
type UserContext struct {
	Username    string
	DisplayName string
	Role        domain.UserRole
	AuthType    string
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
	return user, ok && user != nil
}

// MustFromContext extracts user context or panics
func MustFromContext(ctx context.Context) *UserContext {
	user, ok := FromContext(ctx)
	if !ok {
		panic("user context not found in context")
	}
	return user
}

// HasRole checks if user has a specific role
func (u *UserContext) HasRole(role domain.UserRole) bool {
	return u.Role == role
}

// IsAdmin checks if user holds the elevated role
func (u *UserContext) IsAdmin() bool {
	return u.HasRole(domain.RoleAdmin)
}
