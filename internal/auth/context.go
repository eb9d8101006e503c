package auth

import (
	"context"

	"storegate/internal/models"
)

type ctxKey string

const principalKey ctxKey = "principal"

// Principal is the authenticated identity attached to a request.
type Principal struct {
	ID    string
	Email string
	Role  models.Role
}

func (p Principal) Authenticated() bool {
	return p.ID != ""
}

func (p Principal) HasRole(role models.Role) bool {
	return p.Role == role
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func FromContext(ctx context.Context) Principal {
	if v, ok := ctx.Value(principalKey).(Principal); ok {
		return v
	}
	return Principal{}
}

func Subject(ctx context.Context) string {
	return FromContext(ctx).ID
}
