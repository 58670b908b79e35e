package http

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/organizagabinete/gabinete/internal/audit"
)

// ListAuditLogs retorna a trilha de auditoria (somente admin).
func (h *Handler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	filter := audit.Filter{
		Action:   r.URL.Query().Get("action"),
		Resource: r.URL.Query().Get("resource"),
		Limit:    queryInt(r, "limit"),
		Offset:   queryInt(r, "offset"),
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("userId")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "userId inválido")
			return
		}
		filter.UserID = &id
	}

	entries, err := h.audit.List(r.Context(), filter)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "não foi possível listar auditoria")
		return
	}

	WriteJSON(w, http.StatusOK, entries, "ok")
}
