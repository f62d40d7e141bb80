package auth

import (
	"context"
	"slices"

	"github.com/google/uuid"
)

// Roles recognized by the API. Bearer tokens carry them as Azure AD app
// roles; API key callers are granted the admin role implicitly.
const (
	RoleAdmin    = "preflight.admin"
	RoleOperator = "preflight.operator"
)

// UserContext holds authenticated caller information
type UserContext struct {
	UserID      uuid.UUID
	DisplayName string
	Email       string
	Roles       []string
	// AuthType records how the caller authenticated: "api_key" or "jwt"
	AuthType string
}

type contextKey string

const userContextKey contextKey = "userContext"

// WithUserContext attaches the caller identity to a request context.
func WithUserContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// FromContext returns the caller identity, if one was attached.
func FromContext(ctx context.Context) (*UserContext, bool) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	return user, ok
}

// MustFromContext returns the caller identity or panics. Only for
// handlers mounted behind Authenticate.
func MustFromContext(ctx context.Context) *UserContext {
	user, ok := FromContext(ctx)
	if !ok {
		panic("user context not found in context")
	}
	return user
}

// HasRole reports whether the caller holds the exact role.
func (u *UserContext) HasRole(role string) bool {
	return slices.Contains(u.Roles, role)
}

// HasAnyRole reports whether the caller holds at least one of the roles.
func (u *UserContext) HasAnyRole(roles ...string) bool {
	for _, role := range roles {
		if u.HasRole(role) {
			return true
		}
	}
	return false
}
