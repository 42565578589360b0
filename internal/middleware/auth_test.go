package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-soft-delete/internal/model"
	"go-soft-delete/internal/reqctx"
)

type stubValidator struct{}

func (stubValidator) ValidateToken(token string) (*model.AuthClaims, error) {
	if token != "good" {
		return nil, errors.New("bad token")
	}
	return &model.AuthClaims{UserID: "u1", Username: "alice", Role: "editor"}, nil
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	mw := NewAuthMiddleware(stubValidator{})

	tests := []struct {
		name      string
		header    string
		wantCode  int
		wantActor bool
	}{
		{name: "anonymous", wantCode: http.StatusOK},
		{name: "valid bearer", header: "Bearer good", wantCode: http.StatusOK, wantActor: true},
		{name: "invalid token", header: "Bearer nope", wantCode: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", wantCode: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen *model.Actor
			handler := mw.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = reqctx.Actor(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
			req.RemoteAddr = "192.0.2.10:5555"
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			if !tt.wantActor {
				assert.Nil(t, seen)
				return
			}
			require.NotNil(t, seen)
			assert.Equal(t, "u1", seen.ID)
			assert.Equal(t, model.ActorKindAdmin, seen.Kind)
			assert.Equal(t, "192.0.2.10", seen.IP)
		})
	}
}

func TestRequireAuth(t *testing.T) {
	t.Parallel()

	mw := NewAuthMiddleware(stubValidator{})
	handler := mw.Authenticate(mw.RequireAuth(okHandler()))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogging_PropagatesRequestID(t *testing.T) {
	t.Parallel()

	var seen string
	handler := Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = reqctx.RequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "req-42", seen)
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
}
