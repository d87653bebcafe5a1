package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookcatalog/internal/auth"
	"bookcatalog/internal/book"
	"bookcatalog/internal/config"
	"bookcatalog/internal/metrics"
	"bookcatalog/internal/ops"
	"bookcatalog/internal/platform/cache"
	"bookcatalog/internal/platform/logging"
	"bookcatalog/internal/platform/postgres"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

var version = "dev"

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "bookcatalog terminated with error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	cfg, err := config.Load()
	if err != nil {
		return exitConfig, err
	}
	logging.Init(cfg.Env, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := postgres.Open(ctx, cfg.DBDSN)
	if err != nil {
		return exitRuntime, err
	}
	defer dbPool.Close()

	checks := map[string]ops.Pinger{"db": dbPool}

	var repo book.Repository = book.NewPostgresRepo(dbPool, cfg.DBQueryTimeout)
	if cfg.RedisAddr != "" {
		client := cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer client.Close()

		redisCache := cache.NewRedis(client, "bookcatalog:")
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisCache.Ping(pingCtx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, reads fall through to the database")
		}
		cancel()

		repo = book.NewCachedRepository(repo, redisCache, cfg.CacheTTL)
		checks["cache"] = redisCache
		log.Info().Str("addr", cfg.RedisAddr).Dur("ttl", cfg.CacheTTL).Msg("book cache enabled")
	}

	operators, err := auth.NewStore(
		auth.User{Username: cfg.OpsAdminUser, PasswordHash: cfg.OpsAdminPasswordHash, Roles: []string{auth.RoleAdmin, auth.RoleMonitor}},
		auth.User{Username: cfg.OpsMonitorUser, PasswordHash: cfg.OpsMonitorPasswordHash, Roles: []string{auth.RoleMonitor}},
	)
	if err != nil {
		return exitConfig, err
	}
	if operators.Len() == 0 {
		event := log.Warn()
		if cfg.IsDevelopment() {
			event = log.Info()
		}
		event.Msg("no operator credentials configured, protected /actuator endpoints are disabled")
	}

	recorder := metrics.NewRecorder(prometheus.NewRegistry())
	bookService := book.NewService(repo)
	if n, err := bookService.CountBooks(ctx); err == nil {
		recorder.SetTotalBooks(n)
	}

	handler := newHandler(ctx, cfg, bookService, recorder, operators, checks)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Str("env", cfg.Env).Msg("starting server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return exitRuntime, fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return exitRuntime, fmt.Errorf("graceful shutdown failed: %w", err)
	}
	log.Info().Msg("server stopped")
	return exitOK, nil
}
