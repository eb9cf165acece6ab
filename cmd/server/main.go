// Package main is the entrypoint for the Reserve API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/pawsuite/reserve/internal/api"
	"github.com/pawsuite/reserve/internal/api/handler"
	mw "github.com/pawsuite/reserve/internal/api/middleware"
	"github.com/pawsuite/reserve/internal/cache"
	"github.com/pawsuite/reserve/internal/config"
	"github.com/pawsuite/reserve/internal/importer"
	"github.com/pawsuite/reserve/internal/notify"
	"github.com/pawsuite/reserve/internal/schedule"
	"github.com/pawsuite/reserve/internal/store"
	"github.com/pawsuite/reserve/internal/tenant"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Local development convenience; missing .env is fine.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "env", cfg.Server.Env, "port", cfg.Server.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	slog.Info("database connected")

	if err := store.RunMigrations(cfg.Database.URL, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied")

	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")

	pgStore := store.NewPostgresStore(pool)

	resolver := tenant.NewResolver(pgStore, redisCache, cfg.Schedule.TenantCacheTTL)
	notifier := notify.NewRedisNotifier(redisCache.Client())
	engine := schedule.NewEngine(pgStore, schedule.NewIndex(), notifier, cfg.Schedule)
	imp := importer.New(pgStore, engine)

	deps := api.Dependencies{
		Tenant:    mw.NewTenant(resolver),
		RateLimit: mw.NewRateLimit(redisCache, cfg.Schedule.RateLimitPerMin),

		Health: handler.NewHealthHandler(pgStore, redisCache),

		CreateReservation:  handler.NewCreateReservationHandler(engine),
		GetReservation:     handler.NewGetReservationHandler(pgStore),
		ListReservations:   handler.NewListReservationsHandler(pgStore),
		ModifyReservation:  handler.NewModifyReservationHandler(engine),
		CancelReservation:  handler.NewCancelReservationHandler(engine),
		CheckIn:            handler.NewCheckInHandler(engine),
		CheckOut:           handler.NewCheckOutHandler(engine),
		ReservationHistory: handler.NewReservationHistoryHandler(pgStore),

		ListResources:  handler.NewListResourcesHandler(pgStore),
		CreateResource: handler.NewCreateResourceHandler(pgStore),
		Availability:   handler.NewAvailabilityHandler(engine),
		Import:         handler.NewImportHandler(imp),

		TenantStatus: handler.NewTenantStatusHandler(resolver),
	}

	router := api.NewRouter(deps)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}
