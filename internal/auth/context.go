package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/superdoll/tracker-api/internal/domain"
)

// UserContext holds authenticated user information
type UserContext struct {
	UserID      uuid.UUID
	Username    string
	DisplayName string
	Role        domain.UserRole
	// System is set for API-key callers such as schedulers and integrations
	System bool
}

type contextKey string

const userContextKey contextKey = "userContext"

// SystemUserID identifies API-key callers
var SystemUserID = uuid.MustParse("00000000-0000-0000-0000-000000000000")

// WithUserContext adds user context to the context
func WithUserContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// FromContext extracts user context from the context
func FromContext(ctx context.Context) (*UserContext, bool) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	return user, ok
}

// HasRole checks if user has a specific role
func (u *UserContext) HasRole(role domain.UserRole) bool {
	return u.Role == role
}

// HasAnyRole checks if user has any of the specified roles. System callers pass every check.
func (u *UserContext) HasAnyRole(roles ...domain.UserRole) bool {
	if u.System {
		return true
	}
	for _, role := range roles {
		if u.HasRole(role) {
			return true
		}
	}
	return false
}

// IsManager reports whether the user can manage stock, reports and exports
func (u *UserContext) IsManager() bool {
	return u.HasAnyRole(domain.RoleAdmin, domain.RoleManager)
}

// IsAdmin reports whether the user can manage staff accounts
func (u *UserContext) IsAdmin() bool {
	return u.HasAnyRole(domain.RoleAdmin)
}
