package middleware

import (
	"net/http"
	"strings"

	"go-soft-delete/internal/model"
	"go-soft-delete/internal/reqctx"
)

type tokenValidator interface {
	ValidateToken(tokenString string) (*model.AuthClaims, error)
}

type AuthMiddleware struct {
	validator tokenValidator
}

func NewAuthMiddleware(validator tokenValidator) *AuthMiddleware {
	return &AuthMiddleware{validator: validator}
}

// Authenticate resolves the bearer token, when one is sent, into the request
// actor. Requests without a token continue anonymously; the soft-delete
// layer attributes their deletes to the api kind.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}
		if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid authorization header")
			return
		}

		claims, err := m.validator.ValidateToken(strings.TrimSpace(header[7:]))
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired token")
			return
		}

		actor := claims.Actor()
		actor.IP = extractClientIP(r)
		next.ServeHTTP(w, r.WithContext(reqctx.WithActor(r.Context(), actor)))
	})
}

// RequireAuth rejects anonymous requests. It must run after Authenticate.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reqctx.Actor(r.Context()) == nil {
			writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
