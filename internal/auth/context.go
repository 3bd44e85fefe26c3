package auth

import (
	"context"

	"github.com/kirjastoapp/kirjasto-server/internal/domain"
)

// ctxKey is the type for context keys to avoid collisions.
type ctxKey string

// currentUserKey is the context key for the authenticated user.
const currentUserKey ctxKey = "currentUser"

// WithCurrentUser stores the authenticated user in context.
// Called once per request by the transport middleware after token verification.
func WithCurrentUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, currentUserKey, user)
}

// CurrentUser returns the authenticated user from context, or nil for
// anonymous requests. Mutations that require authentication check this
// before touching any state.
func CurrentUser(ctx context.Context) *domain.User {
	user, _ := ctx.Value(currentUserKey).(*domain.User)
	return user
}
