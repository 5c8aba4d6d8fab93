package auth

import (
	"context"
	"net/http"
	"strings"
)

// contextKey is an unexported type used for context keys in this package.
//
// context.WithValue takes any key, but a plain string key like "userID" can
// be read or shadowed by any package that knows the string. A package-private
// type means only this package can put identities into a request context.
type contextKey string

const identityKey contextKey = "identity"

// Identity is the authenticated caller, derived from a validated session
// token. Handlers MUST take the voter's identity from here and never from a
// request body — body-supplied emails are trivially spoofable.
type Identity struct {
	UserID string
	Email  string
}

// RequireSession is a middleware that enforces authentication on protected
// routes. It reads `Authorization: Bearer <jwt>`, validates a session-purpose
// token, and stores the Identity in the request context. A missing or invalid
// token ends the request with 401 before the handler runs.
func RequireSession(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := extractIdentity(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"unauthorized","message":"valid session token required"}`))
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext retrieves the authenticated caller from the request
// context. Returns (zero, false) on routes without RequireSession.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok && id.UserID != ""
}

// extractIdentity reads and validates the bearer token.
func extractIdentity(r *http.Request, tokens *TokenService) (Identity, error) {
	header := r.Header.Get("Authorization")
	tokenStr, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || tokenStr == "" {
		return Identity{}, ErrInvalidToken
	}

	userID, email, err := tokens.ValidateSession(tokenStr)
	if err != nil {
		return Identity{}, err
	}
	return Identity{UserID: userID, Email: email}, nil
}
