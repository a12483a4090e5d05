package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func authProbe(t *testing.T, keys []string, authHeader string) int {
	t.Helper()

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	wrapped := NewAuth(keys)(handler)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/compare", http.NoBody)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}

	w := httptest.NewRecorder()
	wrapped.ServeHTTP(w, req)

	return w.Code
}

func TestNewAuth_ValidKey(t *testing.T) {
	code := authProbe(t, []string{"test-key-123"}, "Bearer test-key-123")
	assert.Equal(t, http.StatusOK, code)
}

func TestNewAuth_InvalidKey(t *testing.T) {
	code := authProbe(t, []string{"test-key-123"}, "Bearer wrong-key")
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestNewAuth_MissingHeader(t *testing.T) {
	code := authProbe(t, []string{"test-key-123"}, "")
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestNewAuth_NonBearerSchemeIsRejected(t *testing.T) {
	code := authProbe(t, []string{"test-key-123"}, "Basic test-key-123")
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestNewAuth_AnyConfiguredKeyIsAccepted(t *testing.T) {
	code := authProbe(t, []string{"key-1", "key-2", "key-3"}, "Bearer key-2")
	assert.Equal(t, http.StatusOK, code)
}

func TestNewAuth_NoKeysFailsClosed(t *testing.T) {
	code := authProbe(t, nil, "Bearer any-key")
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestNewAuth_BlankConfiguredKeyNeverMatches(t *testing.T) {
	code := authProbe(t, []string{""}, "Bearer ")
	assert.Equal(t, http.StatusUnauthorized, code)
}
