// Package client consome a API do gabinete: sessão autenticada com
// renovação automática e cache local de visitas com seletores síncronos.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

// APIError descreve uma falha retornada pela API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// IsStatus indica se o erro é um APIError com o status dado.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// envelope espelha o formato uniforme das respostas.
type envelope struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	Message   string          `json:"message"`
	Timestamp string          `json:"timestamp"`
}

// Client encapsula chamadas à API do gabinete.
type Client struct {
	httpClient *http.Client
	baseURL    string

	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

// New cria um cliente apontando para a URL base da API.
func New(baseURL string) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("client: base URL obrigatória")
	}

	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}, nil
}

// doJSON executa uma chamada e decodifica o data do envelope em out.
// Em 401 com sessão ativa tenta um refresh e repete a chamada uma vez.
func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	err := c.once(ctx, method, path, body, out)
	if err == nil {
		return nil
	}

	if !IsStatus(err, http.StatusUnauthorized) || c.currentRefreshToken() == "" {
		return err
	}

	if refreshErr := c.refresh(ctx); refreshErr != nil {
		return err
	}

	return c.once(ctx, method, path, body, out)
}

func (c *Client) once(ctx context.Context, method, path string, body any, out any) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.currentAccessToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("client: resposta inválida: %w", err)
	}

	if resp.StatusCode >= 400 || !env.Success {
		return &APIError{Status: resp.StatusCode, Message: env.Message}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("client: data inválido: %w", err)
		}
	}

	return nil
}

func (c *Client) currentAccessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken
}

func (c *Client) currentRefreshToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshToken
}

func (c *Client) setTokens(access, refresh string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = access
	c.refreshToken = refresh
}
