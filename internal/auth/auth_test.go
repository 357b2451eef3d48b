package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"freightboard/internal/auth"

	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func protected(t *testing.T) (http.Handler, *auth.Session) {
	var got auth.Session
	h := auth.Middleware(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, ok := auth.SessionFrom(r.Context())
		require.True(t, ok)
		got = *s
		w.WriteHeader(http.StatusOK)
	}))
	return h, &got
}

func TestMiddlewareValidToken(t *testing.T) {
	token, err := auth.NewToken(secret, "acct-1", "trucker", time.Hour)
	require.NoError(t, err)

	h, session := protected(t)
	req := httptest.NewRequest(http.MethodGet, "/api/bids", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "acct-1", session.AccountID)
	require.Equal(t, "trucker", session.Role)
}

func TestMiddlewareMissingHeader(t *testing.T) {
	h, _ := protected(t)
	req := httptest.NewRequest(http.MethodGet, "/api/bids", nil)
	w := httptest.NewRecorder()

	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "error")
}

func TestMiddlewareExpiredToken(t *testing.T) {
	token, err := auth.NewToken(secret, "acct-1", "trucker", -time.Minute)
	require.NoError(t, err)

	h, _ := protected(t)
	req := httptest.NewRequest(http.MethodGet, "/api/bids", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMiddlewareWrongSecret(t *testing.T) {
	token, err := auth.NewToken("other-secret", "acct-1", "trucker", time.Hour)
	require.NoError(t, err)

	h, _ := protected(t)
	req := httptest.NewRequest(http.MethodGet, "/api/bids", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}
