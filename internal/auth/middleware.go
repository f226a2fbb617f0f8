package auth

import (
	"context"
	"net/http"
	"strings"
)

// contextKey is an unexported type used for context keys in this package.
// Only this package can create a key of this type, so no other package
// can read or shadow the identity stored in the request context.
type contextKey string

const identityKey contextKey = "identity"

// RequireAuth is the middleware that enforces authentication on
// protected routes.
//
// Per-request state machine: the request arrives unauthenticated; if a
// token is present and verifies, the resolved identity (userID + role)
// is attached to the context and the handler runs; otherwise the chain
// short-circuits with 401 before any resource logic executes.
//
// The token is read from the "token" HttpOnly cookie (set on login) or,
// failing that, from an "Authorization: Bearer" header — the cookie
// serves browser clients, the header serves API clients.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := extractIdentity(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"success":false,"error":"valid authentication required"}`))
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects authenticated requests whose role is not in the
// allowed set. Must be mounted after RequireAuth.
func RequireRole(allowed ...string) func(http.Handler) http.Handler {
	allowedSet := make(map[string]bool, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok || !allowedSet[identity.Role] {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				w.Write([]byte(`{"success":false,"error":"role is not authorized to access this route"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// IdentityFromContext retrieves the authenticated identity from the
// request context. Returns (Identity{}, false) on an anonymous request.
//
// Usage in handlers:
//
//	identity, ok := auth.IdentityFromContext(r.Context())
//	if !ok {
//	    // anonymous — cannot happen behind RequireAuth
//	}
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey).(Identity)
	return identity, ok && identity.UserID != ""
}

// extractIdentity reads and verifies the session token from the request.
// Cookie first, Authorization header as the fallback.
func extractIdentity(r *http.Request, tokens *TokenService) (Identity, error) {
	if cookie, err := r.Cookie("token"); err == nil && cookie.Value != "" {
		return tokens.Verify(cookie.Value)
	}

	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok && token != "" {
		return tokens.Verify(token)
	}

	return Identity{}, ErrTokenInvalid
}
