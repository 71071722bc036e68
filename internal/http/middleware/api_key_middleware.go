package middleware

import (
	"crypto/subtle"
	"net/http"

	"travelwatch/internal/http/response"
	"travelwatch/internal/observability"
)

const APIKeyHeader = "X-API-Key"

// ServiceKey is the service-level gate: the frontend proves it holds the
// shared key before any user-level check runs. A keyless request is
// turned away first; a server with no key configured is a deployment
// fault, reported as such rather than as an authorization failure.
func ServiceKey(serverKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := r.Header.Get(APIKeyHeader)
			if presented == "" {
				observability.RecordServiceKeyValidation(r.Context(), "missing")
				response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing API key", nil)
				return
			}
			if serverKey == "" {
				observability.RecordServiceKeyValidation(r.Context(), "misconfigured")
				response.Error(w, r, http.StatusInternalServerError, "MISCONFIGURED", "server missing API key", nil)
				return
			}
			if subtle.ConstantTimeCompare([]byte(presented), []byte(serverKey)) != 1 {
				observability.RecordServiceKeyValidation(r.Context(), "mismatch")
				response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid API key", nil)
				return
			}
			observability.RecordServiceKeyValidation(r.Context(), "valid")
			next.ServeHTTP(w, r)
		})
	}
}
