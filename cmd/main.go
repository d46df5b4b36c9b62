package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/abhishekkumarcoder21/random-meet/config"
	"github.com/abhishekkumarcoder21/random-meet/internal/postgres"
	"github.com/abhishekkumarcoder21/random-meet/internal/security"
	"github.com/abhishekkumarcoder21/random-meet/internal/service"
	httpx "github.com/abhishekkumarcoder21/random-meet/internal/transport/http"
	"github.com/abhishekkumarcoder21/random-meet/internal/transport/ws"
	"github.com/abhishekkumarcoder21/random-meet/pkg/logger"
)

func main() {
	// --- config ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.Init(logger.Config{
		Env:       logger.Env(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	slog.Info("starting session-service",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version)

	// --- postgres ---
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.New(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer db.Close()

	// --- repos ---
	roomRepo := postgres.NewRoomRepository(db.Pool)
	partRepo := postgres.NewParticipantRepository(db.Pool)
	msgRepo := postgres.NewMessageRepository(db.Pool)
	userRepo := postgres.NewUserRepository(db.Pool)

	// --- services ---
	roomSvc := service.NewRoomService(roomRepo)
	memberSvc := service.NewMemberService(partRepo, userRepo)
	chatSvc := service.NewChatService(msgRepo, roomRepo, cfg.Rooms.HistoryLimit)

	// --- gateway + session manager ---
	verifier := security.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	hub := ws.NewHub()
	wsServer := ws.NewServer(hub, verifier, roomSvc, memberSvc, chatSvc)

	// --- HTTP ---
	handler := httpx.NewHandler(roomSvc, memberSvc, chatSvc, wsServer)
	router := httpx.NewRouter(handler, verifier, wsServer, cfg.HTTP.AllowedOrigins)
	httpSrv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- room availability loop ---
	if err := roomSvc.EnsureAvailable(ctx); err != nil {
		slog.Error("initial room top-up", "err", err)
	}
	go func() {
		ticker := time.NewTicker(cfg.EnsureInterval())
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := roomSvc.EnsureAvailable(ctx); err != nil {
					slog.Error("room top-up", "err", err)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	select {
	case <-ctx.Done():
		slog.Info("shutdown signal")
	case err := <-errCh:
		slog.Error("server error", "err", err)
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpSrv.Shutdown(ctxShutdown)
	slog.Info("stopped")
}
