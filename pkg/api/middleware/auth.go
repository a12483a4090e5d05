package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// NewAuth creates a middleware that guards the index and compare endpoints
// with Bearer-token API keys. The token from the Authorization header is
// compared in constant time against every configured key; with no keys
// configured every request is rejected, so an empty config fails closed.
func NewAuth(apiKeys []string) func(http.Handler) http.Handler {
	keys := make([][]byte, 0, len(apiKeys))

	for _, k := range apiKeys {
		if k != "" {
			keys = append(keys, []byte(k))
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}

			token, found := strings.CutPrefix(header, "Bearer ")
			if !found {
				http.Error(w, "invalid authorization format", http.StatusUnauthorized)
				return
			}

			if !keyMatches([]byte(token), keys) {
				http.Error(w, "invalid API key", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func keyMatches(token []byte, keys [][]byte) bool {
	for _, key := range keys {
		if subtle.ConstantTimeCompare(token, key) == 1 {
			return true
		}
	}

	return false
}
