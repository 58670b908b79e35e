package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	httpmiddleware "github.com/organizagabinete/gabinete/internal/http/middleware"
	"github.com/organizagabinete/gabinete/internal/service"
	"github.com/organizagabinete/gabinete/internal/user"
)

const refreshCookieName = "gabinete_refresh"

// Login autentica por email/senha e devolve o par de tokens.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "JSON inválido")
		return
	}

	if strings.TrimSpace(payload.Email) == "" || strings.TrimSpace(payload.Password) == "" {
		WriteError(w, http.StatusBadRequest, "email e senha são obrigatórios")
		return
	}

	result, err := h.authService.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		h.handleAuthError(w, err)
		return
	}

	h.writeLoginSuccess(w, result)
}

// Refresh rotaciona o par de tokens a partir do refresh atual.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	token, err := getRefreshFromRequest(r)
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "refresh ausente")
		return
	}

	result, err := h.authService.Refresh(r.Context(), token)
	if err != nil {
		if errors.Is(err, service.ErrRefreshInvalid) {
			WriteError(w, http.StatusUnauthorized, "refresh inválido")
			return
		}
		if errors.Is(err, service.ErrAccountDisabled) {
			WriteError(w, http.StatusForbidden, err.Error())
			return
		}
		WriteError(w, http.StatusInternalServerError, "erro ao renovar sessão")
		return
	}

	h.writeLoginSuccess(w, result)
}

// Logout revoga o refresh token atual; sempre responde 200.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if token, err := getRefreshFromRequest(r); err == nil {
		_ = h.authService.Logout(r.Context(), token)
	}

	h.clearRefreshCookie(w)
	WriteJSON(w, http.StatusOK, map[string]string{"status": "logged_out"}, "sessão encerrada")
}

// Me retorna o perfil do usuário autenticado.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	subject, err := uuid.Parse(httpmiddleware.GetSubject(r.Context()))
	if err != nil {
		WriteError(w, http.StatusUnauthorized, "subject inválido")
		return
	}

	profile, err := h.authService.GetMe(r.Context(), subject)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			WriteError(w, http.StatusUnauthorized, "usuário não encontrado")
			return
		}
		WriteError(w, http.StatusInternalServerError, "não foi possível carregar perfil")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"user": profile}, "ok")
}

func (h *Handler) handleAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		WriteError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrAccountDisabled):
		WriteError(w, http.StatusForbidden, err.Error())
	default:
		WriteError(w, http.StatusInternalServerError, "erro ao autenticar")
	}
}

func (h *Handler) writeLoginSuccess(w http.ResponseWriter, result *service.LoginResult) {
	h.setRefreshCookie(w, result.RefreshToken, result.RefreshExpiry)

	WriteJSON(w, http.StatusOK, map[string]any{
		"token":        result.AccessToken,
		"refreshToken": result.RefreshToken,
		"user":         result.User,
	}, "autenticado")
}

// getRefreshFromRequest aceita o refresh no corpo ou em cookie httpOnly.
func getRefreshFromRequest(r *http.Request) (string, error) {
	var payload struct {
		RefreshToken string `json:"refreshToken"`
	}
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&payload); err == nil {
			if token := strings.TrimSpace(payload.RefreshToken); token != "" {
				return token, nil
			}
		}
	}

	if c, err := r.Cookie(refreshCookieName); err == nil && c.Value != "" {
		return c.Value, nil
	}

	return "", errors.New("refresh ausente")
}

func (h *Handler) setRefreshCookie(w http.ResponseWriter, token string, expires time.Time) {
	secure := !h.devCookies
	sameSite := http.SameSiteNoneMode
	if h.devCookies {
		sameSite = http.SameSiteLaxMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
	})
}

func (h *Handler) clearRefreshCookie(w http.ResponseWriter) {
	secure := !h.devCookies
	sameSite := http.SameSiteNoneMode
	if h.devCookies {
		sameSite = http.SameSiteLaxMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
	})
}
