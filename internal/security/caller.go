package security

import (
	"context"

	"usersvc/internal/models"
)

// Caller is the authenticated identity behind a request.
type Caller struct {
	Username string
	Roles    models.RoleSet
}

// IsAdmin reports whether the caller holds the ADMIN role.
func (c Caller) IsAdmin() bool {
	return c.Roles.Has(models.RoleAdmin)
}

type callerKey struct{}

// WithCaller returns a context carrying the caller.
func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFrom extracts the caller stored by WithCaller.
func CallerFrom(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(callerKey{}).(Caller)
	return c, ok
}
