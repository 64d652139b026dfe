package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"ypg-admin-api/internal/apperrors"
	"ypg-admin-api/internal/auth"
)

// TokenVerifier validates a bearer token.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

type claimsKey struct{}

// ClaimsFromContext returns the claims stored by RequireSupervisor.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*auth.Claims)
	return claims, ok
}

// WithClaims returns a copy of ctx carrying claims.
func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// RequireSupervisor rejects requests without a valid bearer token (401) or
// whose token does not carry the supervisor role (403).
func RequireSupervisor(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			claims, err := verifier.Verify(token)
			if err != nil {
				message := apperrors.ErrInvalidToken.Error()
				if errors.Is(err, apperrors.ErrExpiredToken) {
					message = apperrors.ErrExpiredToken.Error()
				}
				writeError(w, http.StatusUnauthorized, message)
				return
			}

			if claims.Role != auth.RoleSupervisor {
				writeError(w, http.StatusForbidden, "supervisor access required")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
