package client

import (
	"context"
	"net/http"
	"sync"

	"github.com/organizagabinete/gabinete/internal/user"
)

// Session mantém o estado de autenticação do cliente.
type Session struct {
	api *Client

	mu   sync.RWMutex
	user *user.User
}

// NewSession cria uma sessão sobre um cliente da API.
func NewSession(api *Client) *Session {
	return &Session{api: api}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token        string    `json:"token"`
	RefreshToken string    `json:"refreshToken"`
	User         user.User `json:"user"`
}

// Login autentica o usuário e armazena os tokens da sessão.
func (s *Session) Login(ctx context.Context, email, password string) (*user.User, error) {
	var result loginResponse
	err := s.api.once(ctx, http.MethodPost, "/api/auth/login", loginRequest{Email: email, Password: password}, &result)
	if err != nil {
		return nil, err
	}

	s.api.setTokens(result.Token, result.RefreshToken)

	s.mu.Lock()
	u := result.User
	s.user = &u
	s.mu.Unlock()

	return &u, nil
}

// Logout revoga o refresh token no servidor e limpa a sessão local.
// A sessão local é limpa mesmo se a chamada remota falhar.
func (s *Session) Logout(ctx context.Context) error {
	refresh := s.api.currentRefreshToken()

	var err error
	if refresh != "" {
		err = s.api.once(ctx, http.MethodPost, "/api/auth/logout", map[string]string{"refreshToken": refresh}, nil)
	}

	s.api.setTokens("", "")
	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()

	return err
}

// Me busca o usuário autenticado na API e atualiza a sessão.
// O endpoint devolve o perfil embrulhado em {"user": ...}.
func (s *Session) Me(ctx context.Context) (*user.User, error) {
	var result struct {
		User user.User `json:"user"`
	}
	if err := s.api.doJSON(ctx, http.MethodGet, "/api/auth/me", nil, &result); err != nil {
		return nil, err
	}

	u := result.User
	s.mu.Lock()
	s.user = &u
	s.mu.Unlock()

	return &u, nil
}

// User retorna o usuário da sessão, se autenticado.
func (s *Session) User() *user.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// HasRole indica se o usuário da sessão possui algum dos papéis dados.
func (s *Session) HasRole(roles ...user.Role) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return false
	}
	for _, role := range roles {
		if s.user.Role == role {
			return true
		}
	}
	return false
}

// IsAdmin indica se o usuário da sessão é administrador.
func (s *Session) IsAdmin() bool {
	return s.HasRole(user.RoleAdmin)
}

// refresh troca o refresh token atual por um novo par de tokens.
func (c *Client) refresh(ctx context.Context) error {
	refresh := c.currentRefreshToken()
	if refresh == "" {
		return &APIError{Status: http.StatusUnauthorized, Message: "sessão expirada"}
	}

	var result loginResponse
	err := c.once(ctx, http.MethodPost, "/api/auth/refresh", map[string]string{"refreshToken": refresh}, &result)
	if err != nil {
		c.setTokens("", "")
		return err
	}

	c.setTokens(result.Token, result.RefreshToken)
	return nil
}
