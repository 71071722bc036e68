package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"travelwatch/internal/http/response"
)

// RequireRecordShape is the request-shape gate for aggregated records:
// the body must carry a non-empty country and timestamp plus both
// nested payload objects. All missing fields are reported together; the
// buffered body is replayed for the handler.
func RequireRecordShape(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			response.Error(w, r, http.StatusBadRequest, "BAD_INPUT", "unreadable request body", nil)
			return
		}
		_ = r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(body))

		var probe struct {
			Country   string          `json:"country"`
			Timestamp json.RawMessage `json:"timestamp"`
			Covid     json.RawMessage `json:"covid"`
			Travel    json.RawMessage `json:"travel"`
		}
		if err := json.Unmarshal(body, &probe); err != nil {
			response.Error(w, r, http.StatusBadRequest, "BAD_INPUT", "invalid JSON body", nil)
			return
		}

		var missing []string
		if probe.Country == "" {
			missing = append(missing, "country")
		}
		if isAbsent(probe.Timestamp) {
			missing = append(missing, "timestamp")
		}
		if isAbsent(probe.Covid) {
			missing = append(missing, "covid")
		}
		if isAbsent(probe.Travel) {
			missing = append(missing, "travel")
		}
		if len(missing) > 0 {
			response.Error(w, r, http.StatusBadRequest, "BAD_INPUT",
				"invalid aggregated structure (missing fields)", map[string]any{"missing": missing})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func isAbsent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte(`""`))
}
