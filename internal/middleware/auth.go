package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/ssi-studios/auth-service/internal/model"
)

type tokenValidator interface {
	ValidateAccessToken(tokenString string) (model.AccessClaims, error)
}

type contextKey string

const authClaimsContextKey contextKey = "auth_claims"

type AuthMiddleware struct {
	validator tokenValidator
}

func NewAuthMiddleware(validator tokenValidator) *AuthMiddleware {
	return &AuthMiddleware{validator: validator}
}

// RequireAuth admits requests carrying a valid access token, taken from the
// access_token cookie or a Bearer header. Refresh tokens are rejected by the
// codec's type check.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := accessTokenFromRequest(r)
		if tokenString == "" {
			writeUnauthorized(w, r, "authentication required")
			return
		}

		claims, err := m.validator.ValidateAccessToken(tokenString)
		if err != nil {
			writeUnauthorized(w, r, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), authClaimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func ClaimsFromContext(ctx context.Context) (model.AccessClaims, bool) {
	claims, ok := ctx.Value(authClaimsContextKey).(model.AccessClaims)
	return claims, ok
}

func accessTokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie("access_token"); err == nil && strings.TrimSpace(cookie.Value) != "" {
		return strings.TrimSpace(cookie.Value)
	}

	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

func writeUnauthorized(w http.ResponseWriter, r *http.Request, message string) {
	writeJSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", message, "")
}
