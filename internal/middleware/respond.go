// Package middleware provides the HTTP middleware of the graph API: request
// ids, access logging, rate limiting and bearer authentication.
package middleware

import (
	"encoding/json"
	"net/http"
)

// writeError writes the API error body {"code": status, "message": msg}.
func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"code":    status,
		"message": msg,
	})
}
