package auth

import (
	"context"

	"github.com/locallibrary/catalog/internal/model"
)

type contextKey struct{}

// ContextWithAuth adds AuthContext to the context.
func ContextWithAuth(ctx context.Context, auth *model.AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, auth)
}

// AuthFromContext retrieves AuthContext from the context, or nil.
func AuthFromContext(ctx context.Context) *model.AuthContext {
	auth, _ := ctx.Value(contextKey{}).(*model.AuthContext)
	return auth
}

// UserIDFromContext returns the authenticated user's ID, or "".
func UserIDFromContext(ctx context.Context) string {
	if auth := AuthFromContext(ctx); auth != nil {
		return auth.UserID
	}
	return ""
}

// KeyIDFromContext returns the authenticated key's ID, or "".
func KeyIDFromContext(ctx context.Context) string {
	if auth := AuthFromContext(ctx); auth != nil {
		return auth.KeyID
	}
	return ""
}

// HasScope reports whether the caller holds scope, directly or through a
// broader one.
func HasScope(ctx context.Context, scope string) bool {
	auth := AuthFromContext(ctx)
	return auth != nil && model.GrantsScope(auth.Scopes, scope)
}
