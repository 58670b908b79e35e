package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/organizagabinete/gabinete/internal/audit"
	httpmiddleware "github.com/organizagabinete/gabinete/internal/http/middleware"
	"github.com/organizagabinete/gabinete/internal/user"
	"github.com/organizagabinete/gabinete/internal/util"
	"github.com/organizagabinete/gabinete/internal/visit"
)

// CreateVisit agenda uma nova visita (admin ou secretário).
func (h *Handler) CreateVisit(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		VisitDate    string `json:"visitDate"`
		VisitTime    string `json:"visitTime"`
		UserID       string `json:"userId"`
		Status       string `json:"status"`
		Notes        string `json:"notes"`
		Purpose      string `json:"purpose"`
		VisitorName  string `json:"visitorName"`
		VisitorEmail string `json:"visitorEmail"`
		VisitorPhone string `json:"visitorPhone"`
		VisitorCPF   string `json:"visitorCpf"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "JSON inválido")
		return
	}

	userID, err := uuid.Parse(strings.TrimSpace(payload.UserID))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "userId inválido")
		return
	}

	created, err := h.visits.Create(r.Context(), visit.CreateParams{
		VisitDate:    payload.VisitDate,
		VisitTime:    payload.VisitTime,
		UserID:       userID,
		Status:       payload.Status,
		Notes:        payload.Notes,
		Purpose:      payload.Purpose,
		VisitorName:  payload.VisitorName,
		VisitorEmail: payload.VisitorEmail,
		VisitorPhone: payload.VisitorPhone,
		VisitorCPF:   payload.VisitorCPF,
	})
	if err != nil {
		h.handleVisitError(w, err)
		return
	}

	h.audit.Record(r.Context(), h.actorID(r), audit.ActionCreate, audit.ResourceVisit, created.ID, nil, created)

	WriteJSON(w, http.StatusCreated, created, "visita agendada")
}

// ListVisits lista visitas; visitantes enxergam apenas as próprias.
func (h *Handler) ListVisits(w http.ResponseWriter, r *http.Request) {
	filter := visit.Filter{
		Limit:  queryInt(r, "limit"),
		Offset: queryInt(r, "offset"),
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		filter.Status = strings.Split(raw, ",")
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("date")); raw != "" {
		date, err := visit.ParseVisitDate(raw)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		filter.Date = &date
	}

	var (
		visits []visit.Visit
		err    error
	)

	if httpmiddleware.GetRole(r.Context()) == user.RoleVisitante {
		visits, err = h.visits.ListForUser(r.Context(), h.actorID(r), filter)
	} else {
		visits, err = h.visits.List(r.Context(), filter)
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "não foi possível listar visitas")
		return
	}

	WriteJSON(w, http.StatusOK, visits, "ok")
}

// GetVisit busca uma visita; visitante só acessa a própria.
func (h *Handler) GetVisit(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "id inválido")
		return
	}

	v, err := h.visits.Get(r.Context(), id)
	if err != nil {
		h.handleVisitError(w, err)
		return
	}

	if httpmiddleware.GetRole(r.Context()) == user.RoleVisitante && v.UserID != h.actorID(r) {
		WriteError(w, http.StatusNotFound, visit.ErrNotFound.Error())
		return
	}

	WriteJSON(w, http.StatusOK, v, "ok")
}

// UpdateVisit aplica atualização parcial; o campo version, quando
// enviado, habilita detecção de conflito entre sessões.
func (h *Handler) UpdateVisit(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "id inválido")
		return
	}

	var payload struct {
		VisitDate    *string `json:"visitDate"`
		VisitTime    *string `json:"visitTime"`
		Status       *string `json:"status"`
		Notes        *string `json:"notes"`
		Purpose      *string `json:"purpose"`
		VisitorName  *string `json:"visitorName"`
		VisitorEmail *string `json:"visitorEmail"`
		VisitorPhone *string `json:"visitorPhone"`
		VisitorCPF   *string `json:"visitorCpf"`
		Version      *int64  `json:"version"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "JSON inválido")
		return
	}

	before, err := h.visits.Get(r.Context(), id)
	if err != nil {
		h.handleVisitError(w, err)
		return
	}

	updated, err := h.visits.Update(r.Context(), visit.UpdateParams{
		ID:              id,
		VisitDate:       payload.VisitDate,
		VisitTime:       payload.VisitTime,
		Status:          payload.Status,
		Notes:           payload.Notes,
		Purpose:         payload.Purpose,
		VisitorName:     payload.VisitorName,
		VisitorEmail:    payload.VisitorEmail,
		VisitorPhone:    payload.VisitorPhone,
		VisitorCPF:      payload.VisitorCPF,
		ExpectedVersion: payload.Version,
	})
	if err != nil {
		h.handleVisitError(w, err)
		return
	}

	h.audit.Record(r.Context(), h.actorID(r), audit.ActionUpdate, audit.ResourceVisit, updated.ID, before, updated)

	WriteJSON(w, http.StatusOK, updated, "visita atualizada")
}

// DeleteVisit remove uma visita.
func (h *Handler) DeleteVisit(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "id inválido")
		return
	}

	before, err := h.visits.Get(r.Context(), id)
	if err != nil {
		h.handleVisitError(w, err)
		return
	}

	if err := h.visits.Delete(r.Context(), id); err != nil {
		h.handleVisitError(w, err)
		return
	}

	h.audit.Record(r.Context(), h.actorID(r), audit.ActionDelete, audit.ResourceVisit, id, before, nil)

	WriteJSON(w, http.StatusOK, map[string]string{"id": id.String()}, "visita removida")
}

func (h *Handler) handleVisitError(w http.ResponseWriter, err error) {
	switch {
	case util.IsValidation(err), errors.Is(err, visit.ErrInvalidStatus):
		WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, visit.ErrVisitorNotFound), errors.Is(err, visit.ErrVisitorRole), errors.Is(err, visit.ErrNotFound):
		WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, visit.ErrVersionConflict):
		WriteError(w, http.StatusConflict, err.Error())
	default:
		WriteError(w, http.StatusInternalServerError, "erro interno ao processar visita")
	}
}
