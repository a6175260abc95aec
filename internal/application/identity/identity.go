// Package identity answers "who is calling?" for the booking engine.
// The engine only reads the user ID and tier; routing unauthenticated
// callers is the outer layer's job.
package identity

import (
	"context"

	"gymbooking/internal/domain/booking"
	"gymbooking/internal/domain/user"
)

// Provider returns the current user, or false when nobody is signed in.
type Provider interface {
	CurrentUser(ctx context.Context) (user.Identity, bool)
}

type contextKey struct{}

// WithUser returns a context carrying id.
func WithUser(ctx context.Context, id user.Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the identity stored by WithUser.
func FromContext(ctx context.Context) (user.Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(user.Identity)
	if !ok || id.UserID == "" {
		return user.Identity{}, false
	}
	return id, true
}

// ContextProvider reads the identity the HTTP session middleware put on the
// request context.
type ContextProvider struct{}

// CurrentUser implements Provider.
func (ContextProvider) CurrentUser(ctx context.Context) (user.Identity, bool) {
	return FromContext(ctx)
}

// Fixed always reports the same identity. The CLI runs as user.System.
type Fixed user.Identity

// CurrentUser implements Provider.
func (f Fixed) CurrentUser(ctx context.Context) (user.Identity, bool) {
	id := user.Identity(f)
	return id, id.UserID != ""
}

// Require returns the current user or booking.ErrNotAuthenticated.
func Require(ctx context.Context, p Provider) (user.Identity, error) {
	if p == nil {
		return user.Identity{}, booking.ErrNotAuthenticated
	}
	id, ok := p.CurrentUser(ctx)
	if !ok {
		return user.Identity{}, booking.ErrNotAuthenticated
	}
	return id, nil
}

// RequireAdmin returns the current user if they hold the admin tier.
func RequireAdmin(ctx context.Context, p Provider) (user.Identity, error) {
	id, err := Require(ctx, p)
	if err != nil {
		return user.Identity{}, err
	}
	if !id.IsAdmin() {
		return user.Identity{}, booking.ErrAdminRequired
	}
	return id, nil
}
