package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/sabflip/account-link/internal/domain"
)

type contextKey string

const identityKey contextKey = "identity"

// IdentityVerifier resolves a bearer token to the calling user.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (*domain.Identity, error)
}

// Auth returns middleware that validates the Bearer token and injects the identity into context.
// Requests without a valid token never reach next.
func Auth(verifier IdentityVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			tokenStr := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
			if !strings.HasPrefix(authHeader, "Bearer ") || tokenStr == "" {
				writeJSONError(w, http.StatusUnauthorized, "Authentication required.")
				return
			}
			id, err := verifier.Verify(r.Context(), tokenStr)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "Invalid or expired token.")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id *domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext extracts the authenticated caller from the request context.
func IdentityFromContext(ctx context.Context) (*domain.Identity, bool) {
	id, ok := ctx.Value(identityKey).(*domain.Identity)
	return id, ok && id != nil
}
