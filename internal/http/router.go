package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/organizagabinete/gabinete/internal/audit"
	"github.com/organizagabinete/gabinete/internal/config"
	httpmiddleware "github.com/organizagabinete/gabinete/internal/http/middleware"
	"github.com/organizagabinete/gabinete/internal/service"
	"github.com/organizagabinete/gabinete/internal/user"
	"github.com/organizagabinete/gabinete/internal/visit"
)

// Handler concentra as dependências dos endpoints.
type Handler struct {
	cfg         *config.Config
	pool        *pgxpool.Pool
	redis       *redis.Client
	authService *service.AuthService
	users       *user.Service
	visits      *visit.Service
	audit       *audit.Recorder

	publicLimiter *httpmiddleware.RateLimiter
	authLimiter   *httpmiddleware.RateLimiter
	loginLimiter  *httpmiddleware.LoginLimiter
	devCookies    bool
}

// NewHandler monta o handler com todos os serviços.
func NewHandler(cfg *config.Config, pool *pgxpool.Pool, redisClient *redis.Client,
	authService *service.AuthService, users *user.Service, visits *visit.Service, recorder *audit.Recorder) *Handler {
	devCookies := false
	for _, origin := range cfg.AllowOrigins {
		if containsLocalhost(origin) {
			devCookies = true
			break
		}
	}

	return &Handler{
		cfg:           cfg,
		pool:          pool,
		redis:         redisClient,
		authService:   authService,
		users:         users,
		visits:        visits,
		audit:         recorder,
		publicLimiter: httpmiddleware.NewRateLimiter(cfg.RateLimitPublic.RequestsPerSecond, cfg.RateLimitPublic.Burst),
		authLimiter:   httpmiddleware.NewRateLimiter(cfg.RateLimitAuth.RequestsPerSecond, cfg.RateLimitAuth.Burst),
		loginLimiter:  httpmiddleware.NewLoginLimiter(cfg.LoginMaxAttempts, cfg.LoginWindow),
		devCookies:    devCookies,
	}
}

// Routes devolve o roteador configurado.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(httpmiddleware.Logging)
	r.Use(httpmiddleware.Recover)
	r.Use(httpmiddleware.CORS(h.cfg.AllowOrigins))

	r.Group(func(public chi.Router) {
		public.Use(httpmiddleware.IPRateLimit(h.publicLimiter))

		public.Get("/health", h.Health)
		public.Get("/ready", h.Ready)

		public.Route("/api/auth", func(auth chi.Router) {
			auth.With(h.loginLimiter.Middleware).Post("/login", h.Login)
			auth.Post("/refresh", h.Refresh)
			auth.Post("/logout", h.Logout)
		})
	})

	r.Group(func(private chi.Router) {
		private.Use(httpmiddleware.Auth(h.authService.JWT()))
		private.Use(httpmiddleware.UserRateLimit(h.authLimiter))

		private.Get("/api/auth/me", h.Me)

		private.Route("/api/users", func(u chi.Router) {
			u.Use(httpmiddleware.RequireAdmin)
			u.Get("/", h.ListUsers)
			u.Post("/", h.CreateUser)
			u.Get("/{id}", h.GetUser)
			u.Put("/{id}", h.UpdateUser)
			u.Delete("/{id}", h.DeleteUser)
		})

		private.Route("/api/visits", func(v chi.Router) {
			v.Get("/", h.ListVisits)
			v.Get("/{id}", h.GetVisit)
			v.Group(func(staff chi.Router) {
				staff.Use(httpmiddleware.RequireStaff)
				staff.Post("/", h.CreateVisit)
				staff.Put("/{id}", h.UpdateVisit)
				staff.Delete("/{id}", h.DeleteVisit)
			})
		})

		private.With(httpmiddleware.RequireAdmin).Get("/api/audit-logs", h.ListAuditLogs)
	})

	return r
}

// Health responde status simples.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"}, "ok")
}

// Ready valida conexões com Postgres e Redis.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	dbErr := h.pool.Ping(ctx)
	redisErr := h.redis.Ping(ctx).Err()

	if dbErr != nil || redisErr != nil {
		WriteError(w, http.StatusServiceUnavailable, "dependências indisponíveis")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"ready": true}, "ok")
}

func containsLocalhost(origin string) bool {
	return strings.Contains(origin, "localhost") || strings.Contains(origin, "127.0.0.1")
}
