package middleware

import (
	"net/http"
	"sync"
	"time"
)

// LoginLimiter aplica janela fixa por IP ao endpoint de login: passado o
// máximo de tentativas, toda requisição na janela recebe o mesmo erro,
// independente das credenciais. Estado apenas em memória do processo.
type LoginLimiter struct {
	max    int
	window time.Duration
	mu     sync.Mutex
	store  map[string]*windowEntry
	now    func() time.Time
}

type windowEntry struct {
	count   int
	started time.Time
}

// NewLoginLimiter cria o limitador com máximo de tentativas por janela.
func NewLoginLimiter(max int, window time.Duration) *LoginLimiter {
	return &LoginLimiter{
		max:    max,
		window: window,
		store:  make(map[string]*windowEntry),
		now:    time.Now,
	}
}

// Allow consome uma tentativa para a chave e informa se ela pode seguir.
func (l *LoginLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	entry, ok := l.store[key]
	if !ok || now.Sub(entry.started) >= l.window {
		l.store[key] = &windowEntry{count: 1, started: now}
		l.prune(now)
		return true
	}

	entry.count++
	return entry.count <= l.max
}

func (l *LoginLimiter) prune(now time.Time) {
	for k, entry := range l.store {
		if now.Sub(entry.started) >= l.window {
			delete(l.store, k)
		}
	}
}

// Middleware bloqueia por IP com a mensagem fixa do contrato.
func (l *LoginLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(RealIPFromRequest(r)) {
			writeError(w, http.StatusTooManyRequests, "Muitas tentativas de login. Tente novamente mais tarde.")
			return
		}
		next.ServeHTTP(w, r)
	})
}
