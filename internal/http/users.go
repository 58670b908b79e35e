package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/organizagabinete/gabinete/internal/audit"
	httpmiddleware "github.com/organizagabinete/gabinete/internal/http/middleware"
	"github.com/organizagabinete/gabinete/internal/user"
	"github.com/organizagabinete/gabinete/internal/util"
)

// CreateUser cadastra um novo usuário (somente admin).
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "JSON inválido")
		return
	}

	created, err := h.users.Create(r.Context(), user.CreateParams{
		Name:     payload.Name,
		Email:    payload.Email,
		Password: payload.Password,
		Role:     payload.Role,
	})
	if err != nil {
		h.handleUserError(w, err)
		return
	}

	h.audit.Record(r.Context(), h.actorID(r), audit.ActionCreate, audit.ResourceUser, created.ID, nil, created)

	WriteJSON(w, http.StatusCreated, created, "usuário criado")
}

// ListUsers lista usuários com filtros de nome e email.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	filter := user.Filter{
		Name:   r.URL.Query().Get("name"),
		Email:  r.URL.Query().Get("email"),
		Limit:  queryInt(r, "limit"),
		Offset: queryInt(r, "offset"),
	}

	if rawRole := strings.TrimSpace(r.URL.Query().Get("role")); rawRole != "" {
		role, err := user.ParseRole(rawRole)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		filter.Role = &role
	}

	users, err := h.users.List(r.Context(), filter)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "não foi possível listar usuários")
		return
	}

	WriteJSON(w, http.StatusOK, users, "ok")
}

// GetUser busca um usuário pelo id.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "id inválido")
		return
	}

	u, err := h.users.Get(r.Context(), id)
	if err != nil {
		h.handleUserError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, u, "ok")
}

// UpdateUser aplica atualização parcial (perfil, papel, senha).
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "id inválido")
		return
	}

	var payload struct {
		Name     *string `json:"name"`
		Email    *string `json:"email"`
		Password *string `json:"password"`
		Role     *string `json:"role"`
		Active   *bool   `json:"active"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "JSON inválido")
		return
	}

	before, err := h.users.Get(r.Context(), id)
	if err != nil {
		h.handleUserError(w, err)
		return
	}

	updated, err := h.users.Update(r.Context(), user.UpdateParams{
		ID:       id,
		Name:     payload.Name,
		Email:    payload.Email,
		Password: payload.Password,
		Role:     payload.Role,
		Active:   payload.Active,
	})
	if err != nil {
		h.handleUserError(w, err)
		return
	}

	h.audit.Record(r.Context(), h.actorID(r), audit.ActionUpdate, audit.ResourceUser, updated.ID, before, updated)

	WriteJSON(w, http.StatusOK, updated, "usuário atualizado")
}

// DeleteUser remove um usuário.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "id inválido")
		return
	}

	before, err := h.users.Get(r.Context(), id)
	if err != nil {
		h.handleUserError(w, err)
		return
	}

	if err := h.users.Delete(r.Context(), id); err != nil {
		h.handleUserError(w, err)
		return
	}

	h.audit.Record(r.Context(), h.actorID(r), audit.ActionDelete, audit.ResourceUser, id, before, nil)

	WriteJSON(w, http.StatusOK, map[string]string{"id": id.String()}, "usuário removido")
}

func (h *Handler) handleUserError(w http.ResponseWriter, err error) {
	switch {
	case util.IsValidation(err), errors.Is(err, user.ErrInvalidRole):
		WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, user.ErrEmailTaken):
		WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, user.ErrNotFound):
		WriteError(w, http.StatusNotFound, err.Error())
	default:
		WriteError(w, http.StatusInternalServerError, "erro interno ao processar usuário")
	}
}

// actorID resolve o usuário autenticado; uuid.Nil quando ausente.
func (h *Handler) actorID(r *http.Request) uuid.UUID {
	id, err := uuid.Parse(httpmiddleware.GetSubject(r.Context()))
	if err != nil {
		return uuid.Nil
	}
	return id
}

func queryInt(r *http.Request, key string) int {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return 0
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return val
}
