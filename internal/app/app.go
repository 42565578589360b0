package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go-soft-delete/internal/config"
	"go-soft-delete/internal/handler"
	"go-soft-delete/internal/middleware"
	"go-soft-delete/internal/router"
	"go-soft-delete/internal/service"
	"go-soft-delete/internal/websocket"
)

type App struct {
	cfg    *config.Config
	core   *Core
	hub    *websocket.Hub
	server *http.Server
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	core, err := Bootstrap(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	authService, err := service.NewAuthService(cfg.UsersFile, cfg.JWTSecret, cfg.JWTAccessTTL)
	if err != nil {
		core.Close()
		return nil, fmt.Errorf("failed to initialize auth service: %w", err)
	}
	authMiddleware := middleware.NewAuthMiddleware(authService)

	hub := websocket.NewHub(core.Bus)

	var health handler.HealthChecker
	if core.DB != nil {
		health = core.DB
	}

	appRouter := router.New(cfg, authMiddleware, router.Handlers{
		Auth: handler.NewAuthHandler(authService),
		SoftDelete: handler.NewSoftDeleteHandler(core.Explorer, core.Restore, core.Purge, core.Checker,
			hub, middleware.OriginChecker(cfg.CORSOrigins)),
		Records: handler.NewRecordHandler(core.Records, core.Checker),
		Audit:   handler.NewAuditHandler(core.Audit, core.Checker),
		Health:  handler.NewHealthHandler(health),
	})

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return &App{cfg: cfg, core: core, hub: hub, server: server}, nil
}

// Run serves until SIGINT or SIGTERM, then shuts down gracefully.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer a.core.Close()

	go a.hub.Run(ctx)
	go a.core.Retention.Run(ctx, a.cfg.RetentionInterval)

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
