package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func signToken(t *testing.T, secret string, expiresIn time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "admin",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func doRequest(t *testing.T, authHeader string) *httptest.ResponseRecorder {
	t.Helper()
	mw := NewAuthMiddleware(testSecret)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/grants", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	mw.Authenticate(next).ServeHTTP(rec, req)
	return rec
}

func TestAuthenticate(t *testing.T) {
	t.Run("accepts a valid token", func(t *testing.T) {
		rec := doRequest(t, "Bearer "+signToken(t, testSecret, time.Hour))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("rejects a missing header", func(t *testing.T) {
		rec := doRequest(t, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects a malformed header", func(t *testing.T) {
		rec := doRequest(t, "Token abc")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects a token signed with another secret", func(t *testing.T) {
		rec := doRequest(t, "Bearer "+signToken(t, "ffffffffffffffffffffffffffffffff", time.Hour))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects an expired token", func(t *testing.T) {
		rec := doRequest(t, "Bearer "+signToken(t, testSecret, -time.Hour))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
