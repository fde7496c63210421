package middleware

import (
	"net/http"

	"github.com/locallibrary/catalog/internal/auth"
	"github.com/locallibrary/catalog/internal/handler/dto"
	"github.com/locallibrary/catalog/internal/model"
)

// RequireScope rejects requests whose key does not grant scope. Broader
// scopes satisfy narrower ones. Must run after Auth.
func RequireScope(scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx := auth.AuthFromContext(r.Context())
			if authCtx == nil {
				writeError(w, http.StatusUnauthorized, dto.CodeUnauthorized, "Authentication required")
				return
			}
			if !authCtx.HasScope(scope) {
				writeError(w, http.StatusForbidden, dto.CodeForbidden,
					"Insufficient permissions. Required scope: "+scope)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRead admits members and above.
func RequireRead() func(http.Handler) http.Handler {
	return RequireScope(model.ScopeRead)
}

// RequireLibrarian admits library staff: the renewal and catalog editing
// permission.
func RequireLibrarian() func(http.Handler) http.Handler {
	return RequireScope(model.ScopeLibrarian)
}

// RequireAdmin admits administrators only.
func RequireAdmin() func(http.Handler) http.Handler {
	return RequireScope(model.ScopeAdmin)
}
