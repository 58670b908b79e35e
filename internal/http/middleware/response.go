package middleware

import (
	"encoding/json"
	"net/http"
	"time"
)

// writeError emite o envelope padrão da API para falhas originadas nos
// middlewares, no mesmo formato dos handlers.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success":   false,
		"data":      nil,
		"message":   message,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
