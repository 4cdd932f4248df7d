package middleware

import (
	"net/http"

	"postergen/internal/infra/credentials"
)

// APIKeyHeader carries a caller-owned Gemini key.
const APIKeyHeader = "X-Goog-Api-Key"

// APIKeyOverride places a caller-supplied key on the request context, where
// the credential chain prefers it over the server's own key. The key is
// never logged.
func APIKeyOverride(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if key := r.Header.Get(APIKeyHeader); key != "" {
			r = r.WithContext(credentials.WithOverride(r.Context(), credentials.ProviderGemini, key))
		}
		next.ServeHTTP(w, r)
	})
}
