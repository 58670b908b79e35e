package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/organizagabinete/gabinete/internal/audit"
	"github.com/organizagabinete/gabinete/internal/auth"
	"github.com/organizagabinete/gabinete/internal/client"
	"github.com/organizagabinete/gabinete/internal/config"
	"github.com/organizagabinete/gabinete/internal/repo"
	"github.com/organizagabinete/gabinete/internal/service"
	"github.com/organizagabinete/gabinete/internal/user"
	"github.com/organizagabinete/gabinete/internal/visit"
)

type stubUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]user.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[uuid.UUID]user.User)}
}

func (s *stubUserRepo) Create(ctx context.Context, input user.CreateInput) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, input.Email) {
			return nil, user.ErrEmailTaken
		}
	}
	u := user.User{
		ID:           uuid.New(),
		Name:         input.Name,
		Email:        strings.ToLower(input.Email),
		PasswordHash: input.PasswordHash,
		Role:         input.Role,
		Active:       true,
		CreatedAt:    time.Now().UTC(),
	}
	s.users[u.ID] = u
	return &u, nil
}

func (s *stubUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return &u, nil
}

func (s *stubUserRepo) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			found := u
			return &found, nil
		}
	}
	return nil, user.ErrNotFound
}

func (s *stubUserRepo) List(ctx context.Context, filter user.Filter) ([]user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []user.User
	for _, u := range s.users {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		result = append(result, u)
	}
	return result, nil
}

func (s *stubUserRepo) Update(ctx context.Context, input user.UpdateInput) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[input.ID]
	if !ok {
		return nil, user.ErrNotFound
	}
	if input.Name != nil {
		u.Name = *input.Name
	}
	if input.Email != nil {
		u.Email = strings.ToLower(*input.Email)
	}
	if input.PasswordHash != nil {
		u.PasswordHash = *input.PasswordHash
	}
	if input.Role != nil {
		u.Role = *input.Role
	}
	if input.Active != nil {
		u.Active = *input.Active
	}
	s.users[u.ID] = u
	return &u, nil
}

func (s *stubUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return user.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

type stubVisitRepo struct {
	mu     sync.Mutex
	visits map[uuid.UUID]visit.Visit
}

func newStubVisitRepo() *stubVisitRepo {
	return &stubVisitRepo{visits: make(map[uuid.UUID]visit.Visit)}
}

func (s *stubVisitRepo) Create(ctx context.Context, input visit.CreateInput) (*visit.Visit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := visit.Visit{
		ID:           uuid.New(),
		VisitDate:    input.VisitDate,
		VisitTime:    input.VisitTime,
		UserID:       input.UserID,
		Status:       input.Status,
		Notes:        input.Notes,
		Purpose:      input.Purpose,
		TicketCode:   input.TicketCode,
		VisitorName:  input.VisitorName,
		VisitorEmail: input.VisitorEmail,
		VisitorPhone: input.VisitorPhone,
		VisitorCPF:   input.VisitorCPF,
		Version:      1,
		CreatedAt:    time.Now().UTC(),
	}
	s.visits[v.ID] = v
	return &v, nil
}

func (s *stubVisitRepo) GetByID(ctx context.Context, id uuid.UUID) (*visit.Visit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.visits[id]
	if !ok {
		return nil, visit.ErrNotFound
	}
	return &v, nil
}

func (s *stubVisitRepo) List(ctx context.Context, filter visit.Filter) ([]visit.Visit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []visit.Visit
	for _, v := range s.visits {
		if filter.UserID != nil && v.UserID != *filter.UserID {
			continue
		}
		if len(filter.Status) > 0 {
			match := false
			for _, status := range filter.Status {
				if v.Status == status {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		result = append(result, v)
	}
	return result, nil
}

func (s *stubVisitRepo) Update(ctx context.Context, input visit.UpdateInput) (*visit.Visit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.visits[input.ID]
	if !ok {
		return nil, visit.ErrNotFound
	}
	if input.ExpectedVersion != nil && *input.ExpectedVersion != v.Version {
		return nil, visit.ErrVersionConflict
	}
	if input.VisitDate != nil {
		v.VisitDate = *input.VisitDate
	}
	if input.VisitTime != nil {
		v.VisitTime = *input.VisitTime
	}
	if input.Status != nil {
		v.Status = *input.Status
	}
	if input.Notes != nil {
		v.Notes = *input.Notes
	}
	if input.Purpose != nil {
		v.Purpose = *input.Purpose
	}
	v.Version++
	s.visits[v.ID] = v
	return &v, nil
}

func (s *stubVisitRepo) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.visits[id]; !ok {
		return visit.ErrNotFound
	}
	delete(s.visits, id)
	return nil
}

type stubAuditRepo struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (s *stubAuditRepo) Insert(ctx context.Context, entry audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.ID = uuid.New()
	entry.CreatedAt = time.Now().UTC()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *stubAuditRepo) List(ctx context.Context, filter audit.Filter) ([]audit.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]audit.Entry(nil), s.entries...), nil
}

func (s *stubAuditRepo) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

type stubSessionRepo struct {
	mu     sync.Mutex
	tokens map[string]repo.RefreshToken
}

func newStubSessionRepo() *stubSessionRepo {
	return &stubSessionRepo{tokens: make(map[string]repo.RefreshToken)}
}

func (s *stubSessionRepo) InsertRefreshToken(ctx context.Context, arg repo.InsertRefreshTokenParams) (repo.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := repo.RefreshToken{
		ID:        arg.ID,
		Subject:   arg.Subject,
		TokenHash: arg.TokenHash,
		ExpiresAt: arg.ExpiresAt,
		CreatedAt: arg.CreatedAt,
	}
	s.tokens[arg.TokenHash] = t
	return t, nil
}

func (s *stubSessionRepo) GetRefreshTokenByHash(ctx context.Context, tokenHash string) (repo.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[tokenHash]
	if !ok {
		return repo.RefreshToken{}, repo.ErrNotFound
	}
	return t, nil
}

func (s *stubSessionRepo) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[tokenHash]
	if !ok {
		return repo.ErrNotFound
	}
	t.Revoked = true
	s.tokens[tokenHash] = t
	return nil
}

func (s *stubSessionRepo) InvalidateOtherRefreshTokens(ctx context.Context, subject uuid.UUID, keepHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for hash, t := range s.tokens {
		if t.Subject == subject && hash != keepHash {
			t.Revoked = true
			s.tokens[hash] = t
		}
	}
	return nil
}

type stubRedis struct {
	mu    sync.Mutex
	store map[string]string
}

func (s *stubRedis) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil {
		s.store = make(map[string]string)
	}
	if str, ok := value.(string); ok {
		s.store[key] = str
	}
	cmd := redis.NewStatusCmd(ctx)
	cmd.SetVal("OK")
	return cmd
}

func (s *stubRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	s.mu.Lock()
	defer s.mu.Unlock()
	cmd := redis.NewStringCmd(ctx)
	val, ok := s.store[key]
	if !ok {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal(val)
	return cmd
}

func (s *stubRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	for _, key := range keys {
		if _, ok := s.store[key]; ok {
			delete(s.store, key)
			removed++
		}
	}
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(removed)
	return cmd
}

type testEnv struct {
	handler    http.Handler
	userRepo   *stubUserRepo
	visitRepo  *stubVisitRepo
	auditRepo  *stubAuditRepo
	jwt        *auth.JWTManager
	admin      user.User
	secretario user.User
	visitante  user.User
	password   string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	password := "SenhaForte123"
	hash, err := auth.Hash(password)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	userRepo := newStubUserRepo()
	seed := func(name, email string, role user.Role) user.User {
		u := user.User{
			ID:           uuid.New(),
			Name:         name,
			Email:        email,
			PasswordHash: hash,
			Role:         role,
			Active:       true,
			CreatedAt:    time.Now().UTC(),
		}
		userRepo.users[u.ID] = u
		return u
	}

	admin := seed("Admin", "admin@gabinete.gov.br", user.RoleAdmin)
	secretario := seed("Secretário", "secretario@gabinete.gov.br", user.RoleSecretario)
	visitante := seed("Visitante", "visitante@example.com", user.RoleVisitante)

	visitRepo := newStubVisitRepo()
	auditRepo := &stubAuditRepo{}

	jwtMgr := auth.NewJWTManager(strings.Repeat("s", 32), time.Minute)
	authSvc := service.NewAuthService(userRepo, newStubSessionRepo(), &stubRedis{}, jwtMgr, time.Hour)

	cfg := &config.Config{
		Port:             8080,
		JWTSecret:        strings.Repeat("s", 32),
		JWTAccessTTL:     time.Minute,
		JWTRefreshTTL:    time.Hour,
		AllowOrigins:     []string{"http://localhost:3000"},
		RateLimitPublic:  config.RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000},
		RateLimitAuth:    config.RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000},
		LoginMaxAttempts: 100,
		LoginWindow:      time.Minute,
	}

	recorder := audit.NewRecorder(auditRepo, zerolog.Nop())
	h := NewHandler(cfg, nil, redis.NewClient(&redis.Options{Addr: "localhost:0"}),
		authSvc, user.NewService(userRepo), visit.NewService(visitRepo, userRepo), recorder)

	return &testEnv{
		handler:    h.Routes(),
		userRepo:   userRepo,
		visitRepo:  visitRepo,
		auditRepo:  auditRepo,
		jwt:        jwtMgr,
		admin:      admin,
		secretario: secretario,
		visitante:  visitante,
		password:   password,
	}
}

func (e *testEnv) token(t *testing.T, u user.User) string {
	t.Helper()
	token, _, err := e.jwt.GenerateAccessToken(u.ID.String(), u.Email, u.Role.String())
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		buf = bytes.NewBuffer(raw)
	} else {
		buf = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder, data any) Envelope {
	t.Helper()
	var env Envelope
	raw := struct {
		Success   bool            `json:"success"`
		Data      json.RawMessage `json:"data"`
		Message   string          `json:"message"`
		Timestamp string          `json:"timestamp"`
	}{}
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("envelope inválido: %v (%s)", err, rec.Body.String())
	}
	env.Success = raw.Success
	env.Message = raw.Message
	env.Timestamp = raw.Timestamp
	if data != nil && len(raw.Data) > 0 && string(raw.Data) != "null" {
		if err := json.Unmarshal(raw.Data, data); err != nil {
			t.Fatalf("data inválido: %v", err)
		}
	}
	return env
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
}

func TestUsersEndpointAuthorization(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		token  string
		status int
	}{
		{"sem token", "", http.StatusUnauthorized},
		{"visitante", env.token(t, env.visitante), http.StatusForbidden},
		{"secretario", env.token(t, env.secretario), http.StatusForbidden},
		{"admin", env.token(t, env.admin), http.StatusOK},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, "/api/users", tc.token, nil)
			if rec.Code != tc.status {
				t.Fatalf("expected %d got %d (%s)", tc.status, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestCreateUserRecordsAudit(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/users", env.token(t, env.admin), map[string]any{
		"name":     "Novo Usuário",
		"email":    "novo@example.com",
		"password": "SenhaForte123",
		"role":     "visitante",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d (%s)", rec.Code, rec.Body.String())
	}

	var created user.User
	env2 := decodeEnvelope(t, rec, &created)
	if !env2.Success {
		t.Fatalf("expected success envelope")
	}
	if created.Email != "novo@example.com" || created.Role != user.RoleVisitante {
		t.Fatalf("unexpected user: %+v", created)
	}

	if env.auditRepo.len() != 1 {
		t.Fatalf("expected 1 audit entry, got %d", env.auditRepo.len())
	}
	entry := env.auditRepo.entries[0]
	if entry.Action != audit.ActionCreate || entry.Resource != audit.ResourceUser {
		t.Fatalf("unexpected audit entry: %+v", entry)
	}
	if entry.UserID != env.admin.ID {
		t.Fatalf("expected audit actor %s, got %s", env.admin.ID, entry.UserID)
	}
}

func TestCreateUserRejectsWeakPassword(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/users", env.token(t, env.admin), map[string]any{
		"name":     "Fraco",
		"email":    "fraco@example.com",
		"password": "senha123",
		"role":     "visitante",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d (%s)", rec.Code, rec.Body.String())
	}
	if env.auditRepo.len() != 0 {
		t.Fatalf("expected no audit entries on failure")
	}
}

func TestUpdateUserWeakPasswordKeepsHash(t *testing.T) {
	env := newTestEnv(t)

	before := env.userRepo.users[env.visitante.ID].PasswordHash

	rec := env.do(t, http.MethodPut, "/api/users/"+env.visitante.ID.String(), env.token(t, env.admin), map[string]any{
		"password": "curta",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d (%s)", rec.Code, rec.Body.String())
	}

	after := env.userRepo.users[env.visitante.ID].PasswordHash
	if before != after {
		t.Fatalf("password hash must not change on validation failure")
	}
}

func TestCreateVisitGeneratesTicket(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/visits", env.token(t, env.secretario), map[string]any{
		"visitDate": "2026-09-15",
		"visitTime": "14:30",
		"userId":    env.visitante.ID.String(),
		"purpose":   "Reunião com o gabinete",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d (%s)", rec.Code, rec.Body.String())
	}

	var created visit.Visit
	decodeEnvelope(t, rec, &created)

	ticketPattern := regexp.MustCompile(`^VISIT-\d+-\d{1,3}$`)
	if !ticketPattern.MatchString(created.TicketCode) {
		t.Fatalf("unexpected ticket code %q", created.TicketCode)
	}
	if created.Status != visit.StatusPending {
		t.Fatalf("expected default status pending, got %q", created.Status)
	}
	if created.VisitorName != env.visitante.Name || created.VisitorEmail != env.visitante.Email {
		t.Fatalf("expected visitor snapshot from user record, got %+v", created)
	}
	if created.Version != 1 {
		t.Fatalf("expected version 1, got %d", created.Version)
	}
}

func TestCreateVisitRejectsNonVisitante(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/visits", env.token(t, env.admin), map[string]any{
		"visitDate": "2026-09-15",
		"visitTime": "10:00",
		"userId":    env.secretario.ID.String(),
		"purpose":   "Teste",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestVisitanteCannotCreateVisit(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/visits", env.token(t, env.visitante), map[string]any{
		"visitDate": "2026-09-15",
		"visitTime": "10:00",
		"userId":    env.visitante.ID.String(),
		"purpose":   "Teste",
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestVisitanteSeesOnlyOwnVisits(t *testing.T) {
	env := newTestEnv(t)

	other := user.User{ID: uuid.New(), Name: "Outro", Email: "outro@example.com", Role: user.RoleVisitante, Active: true}
	env.userRepo.users[other.ID] = other

	seedVisit := func(owner uuid.UUID) visit.Visit {
		v, err := env.visitRepo.Create(context.Background(), visit.CreateInput{
			VisitDate:  time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
			VisitTime:  "09:00",
			UserID:     owner,
			Status:     visit.StatusPending,
			Purpose:    "Atendimento",
			TicketCode: visit.NewTicketCode(),
		})
		if err != nil {
			t.Fatalf("seed visit: %v", err)
		}
		return *v
	}

	own := seedVisit(env.visitante.ID)
	foreign := seedVisit(other.ID)

	rec := env.do(t, http.MethodGet, "/api/visits", env.token(t, env.visitante), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	var listed []visit.Visit
	decodeEnvelope(t, rec, &listed)
	if len(listed) != 1 || listed[0].ID != own.ID {
		t.Fatalf("expected only own visit, got %+v", listed)
	}

	// Leitura repetida sem escrita no meio devolve o mesmo conjunto.
	rec = env.do(t, http.MethodGet, "/api/visits", env.token(t, env.visitante), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var again []visit.Visit
	decodeEnvelope(t, rec, &again)
	if len(again) != len(listed) {
		t.Fatalf("repeated GET changed result size: %d vs %d", len(listed), len(again))
	}
	ids := make(map[uuid.UUID]struct{}, len(listed))
	for _, v := range listed {
		ids[v.ID] = struct{}{}
	}
	for _, v := range again {
		if _, ok := ids[v.ID]; !ok {
			t.Fatalf("repeated GET returned different visit %s", v.ID)
		}
	}

	// Acesso direto à visita alheia devolve 404, não 403.
	rec = env.do(t, http.MethodGet, "/api/visits/"+foreign.ID.String(), env.token(t, env.visitante), nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}

func TestUpdateVisitVersionConflict(t *testing.T) {
	env := newTestEnv(t)

	v, err := env.visitRepo.Create(context.Background(), visit.CreateInput{
		VisitDate:  time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
		VisitTime:  "09:00",
		UserID:     env.visitante.ID,
		Status:     visit.StatusPending,
		Purpose:    "Atendimento",
		TicketCode: visit.NewTicketCode(),
	})
	if err != nil {
		t.Fatalf("seed visit: %v", err)
	}

	token := env.token(t, env.secretario)

	// Primeira atualização incrementa a versão para 2.
	rec := env.do(t, http.MethodPut, "/api/visits/"+v.ID.String(), token, map[string]any{
		"status":  "approved",
		"version": 1,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", rec.Code, rec.Body.String())
	}

	var updated visit.Visit
	decodeEnvelope(t, rec, &updated)
	if updated.Version != 2 || updated.Status != visit.StatusApproved {
		t.Fatalf("unexpected visit after update: %+v", updated)
	}

	// Segunda sessão ainda com versão 1 recebe conflito.
	rec = env.do(t, http.MethodPut, "/api/visits/"+v.ID.String(), token, map[string]any{
		"status":  "cancelled",
		"version": 1,
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d (%s)", rec.Code, rec.Body.String())
	}

	// Sem o campo version vale last-write-wins.
	rec = env.do(t, http.MethodPut, "/api/visits/"+v.ID.String(), token, map[string]any{
		"status": "completed",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestDeleteVisitNotFoundSkipsAudit(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodDelete, "/api/visits/"+uuid.NewString(), env.token(t, env.admin), nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
	if env.auditRepo.len() != 0 {
		t.Fatalf("delete of missing visit must not produce audit entries")
	}
}

func TestLoginFlow(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    env.admin.Email,
		"password": env.password,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", rec.Code, rec.Body.String())
	}

	var result struct {
		Token        string    `json:"token"`
		RefreshToken string    `json:"refreshToken"`
		User         user.User `json:"user"`
	}
	decodeEnvelope(t, rec, &result)
	if result.Token == "" || result.RefreshToken == "" {
		t.Fatalf("expected token pair in response")
	}
	if result.User.ID != env.admin.ID {
		t.Fatalf("expected logged user %s, got %s", env.admin.ID, result.User.ID)
	}

	// O access token emitido dá acesso a rotas privadas.
	me := env.do(t, http.MethodGet, "/api/auth/me", result.Token, nil)
	if me.Code != http.StatusOK {
		t.Fatalf("expected 200 on /api/auth/me got %d", me.Code)
	}

	// Senha errada devolve 401 genérico.
	rec = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    env.admin.Email,
		"password": "SenhaErrada123",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	env := newTestEnv(t)

	login := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    env.visitante.Email,
		"password": env.password,
	})
	if login.Code != http.StatusOK {
		t.Fatalf("login failed: %d (%s)", login.Code, login.Body.String())
	}

	var loginResult struct {
		RefreshToken string `json:"refreshToken"`
	}
	decodeEnvelope(t, login, &loginResult)

	refresh := env.do(t, http.MethodPost, "/api/auth/refresh", "", map[string]string{
		"refreshToken": loginResult.RefreshToken,
	})
	if refresh.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", refresh.Code, refresh.Body.String())
	}

	var refreshResult struct {
		RefreshToken string `json:"refreshToken"`
	}
	decodeEnvelope(t, refresh, &refreshResult)
	if refreshResult.RefreshToken == "" || refreshResult.RefreshToken == loginResult.RefreshToken {
		t.Fatalf("expected rotated refresh token")
	}

	// O token antigo foi revogado na rotação.
	again := env.do(t, http.MethodPost, "/api/auth/refresh", "", map[string]string{
		"refreshToken": loginResult.RefreshToken,
	})
	if again.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 reusing rotated token, got %d", again.Code)
	}
}

// Exercita o pacote client contra o roteador real, sem mocks de envelope.
func TestClientSessionAgainstRouter(t *testing.T) {
	env := newTestEnv(t)
	server := httptest.NewServer(env.handler)
	defer server.Close()

	api, err := client.New(server.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	session := client.NewSession(api)

	ctx := context.Background()
	logged, err := session.Login(ctx, env.admin.Email, env.password)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if logged.ID != env.admin.ID {
		t.Fatalf("expected logged user %s, got %s", env.admin.ID, logged.ID)
	}

	me, err := session.Me(ctx)
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if me.ID != env.admin.ID || me.Email != env.admin.Email || me.Role != user.RoleAdmin {
		t.Fatalf("unexpected profile: got ID=%s email=%q role=%q", me.ID, me.Email, me.Role)
	}
	if !session.IsAdmin() {
		t.Fatalf("session must report admin role after Me")
	}

	cache := client.NewVisitCache(api)
	added, err := cache.AddVisit(ctx, client.VisitParams{
		VisitDate: "2026-09-15",
		VisitTime: "14:30",
		UserID:    env.visitante.ID.String(),
		Purpose:   "Audiência",
	})
	if err != nil {
		t.Fatalf("add visit: %v", err)
	}
	if added.UserID != env.visitante.ID || added.Status != visit.StatusPending {
		t.Fatalf("unexpected visit: %+v", added)
	}

	listed, err := cache.FetchVisits(ctx, "", "")
	if err != nil {
		t.Fatalf("fetch visits: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != added.ID {
		t.Fatalf("expected created visit in listing, got %+v", listed)
	}

	if err := session.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if session.User() != nil {
		t.Fatalf("session must be cleared after logout")
	}
}
