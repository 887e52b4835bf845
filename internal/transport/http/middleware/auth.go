package middleware

import (
	"context"
	"net/http"
	"strings"

	jwtinfra "github.com/go-chat-push/internal/infrastructure/jwt"
)

type contextKey string

const claimsKey contextKey = "claims"

// TokenVerifier validates a bearer token and returns its claims.
type TokenVerifier interface {
	Verify(token string) (*jwtinfra.Claims, error)
}

// Auth returns middleware that validates the Bearer JWT and injects claims into context.
func Auth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, ok := bearer(r)
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "unauthenticated", "missing or invalid authorization header")
				return
			}
			claims, err := verifier.Verify(tokenStr)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "unauthenticated", "invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// Identify is the lenient form of Auth: a valid token injects claims, and
// anything else passes the request through anonymously for the handler to judge.
func Identify(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tokenStr, ok := bearer(r); ok {
				if claims, err := verifier.Verify(tokenStr); err == nil {
					r = r.WithContext(WithClaims(r.Context(), claims))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearer(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return "", false
	}
	tok := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	return tok, tok != ""
}

func WithClaims(ctx context.Context, claims *jwtinfra.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFromContext extracts JWT claims from the request context.
func ClaimsFromContext(ctx context.Context) (*jwtinfra.Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*jwtinfra.Claims)
	return c, ok && c != nil
}
