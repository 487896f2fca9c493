package api

import (
	"crypto/subtle"
	"net/http"

	"github.com/rs/zerolog"
)

const headerIntegrationKey = "X-Integration-Key"

// requireIntegrationKey rejects requests whose X-Integration-Key does not match key.
// An empty key rejects everything.
func requireIntegrationKey(key string, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(headerIntegrationKey)
			if key == "" || got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				logger.Warn().
					Str("path", r.URL.Path).
					Bool("keyPresent", got != "").
					Msg("Rejected request without a valid integration key")
				writeError(w, http.StatusUnauthorized, "missing or invalid X-Integration-Key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
