package auth

import (
	"context"

	"JNChoral/model"
)

// Principal is the authenticated caller of a request.
type Principal struct {
	ID    string
	Email string
	Name  string
	Role  model.Role

	// Chorister is set only from a fresh account lookup, never from token claims.
	Chorister bool
}

// PrincipalFor describes user as currently stored.
func PrincipalFor(user *model.User) *Principal {
	return &Principal{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		Chorister: user.VerifiedChorister(),
	}
}

type principalKey struct{}

// WithPrincipal attaches p to ctx.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the request principal, or nil for anonymous requests.
func FromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey{}).(*Principal)
	return p
}
