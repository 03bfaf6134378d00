package server

import (
	"context"
	"net/http"
	"strings"

	apperrors "github.com/jrsteele09/storefront-sessions/internal/errors"
	"github.com/jrsteele09/storefront-sessions/session"
	"github.com/jrsteele09/storefront-sessions/users"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyPrincipal stores the authenticated principal
	ContextKeyPrincipal ContextKey = "principal"
)

// PrincipalFromContext returns the principal stored by RequireAuth.
func PrincipalFromContext(ctx context.Context) (*users.Principal, bool) {
	p, ok := ctx.Value(ContextKeyPrincipal).(*users.Principal)
	return p, ok && p != nil
}

// bearerToken extracts the credential from an "Authorization: Bearer <token>" header.
func bearerToken(r *http.Request) (string, bool) {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// RequireAuth validates the bearer credential and stores the principal in the request
// context. Every rejection gets the same 401 body; storage failures get a 503.
func (s *Server) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		credential, ok := bearerToken(r)
		if !ok {
			writeUnauthorized(w)
			return
		}

		principal, err := s.auth.Validate(r.Context(), credential)
		if err != nil {
			if apperrors.Is(err, session.ErrUnavailable) {
				writeAppError(w, err)
				return
			}
			writeUnauthorized(w)
			return
		}

		ctx := context.WithValue(r.Context(), ContextKeyPrincipal, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireType allows the request through when the authenticated principal is one of
// types. Must be chained after RequireAuth.
func (s *Server) RequireType(types ...users.PrincipalType) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				writeUnauthorized(w)
				return
			}
			if !principal.Is(types...) {
				writeAppError(w, apperrors.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
