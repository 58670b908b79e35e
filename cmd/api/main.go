package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/organizagabinete/gabinete/internal/audit"
	"github.com/organizagabinete/gabinete/internal/auth"
	"github.com/organizagabinete/gabinete/internal/config"
	"github.com/organizagabinete/gabinete/internal/db"
	internalhttp "github.com/organizagabinete/gabinete/internal/http"
	"github.com/organizagabinete/gabinete/internal/repo"
	"github.com/organizagabinete/gabinete/internal/service"
	"github.com/organizagabinete/gabinete/internal/user"
	"github.com/organizagabinete/gabinete/internal/visit"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("api encerrada com erro")
	}
}

func run() error {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx := context.Background()

	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer pool.Close()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("redis parse: %w", err)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	userRepo := user.NewRepository(pool)
	userService := user.NewService(userRepo)

	visitRepo := visit.NewRepository(pool)
	visitService := visit.NewService(visitRepo, userRepo)

	auditRepo := audit.NewRepository(pool)
	recorder := audit.NewRecorder(auditRepo, log.With().Str("component", "audit").Logger())

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessTTL)
	authService := service.NewAuthService(userRepo, repo.New(pool), redisClient, jwtManager, cfg.JWTRefreshTTL)

	handler := internalhttp.NewHandler(cfg, pool, redisClient, authService, userService, visitService, recorder)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: handler.Routes(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Msgf("API ouvindo em :%d", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("encerrando...")
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
