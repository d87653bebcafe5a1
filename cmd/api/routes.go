package main

import (
	"context"
	"net/http"

	"bookcatalog/internal/book"
	"bookcatalog/internal/config"
	"bookcatalog/internal/httpx"
	"bookcatalog/internal/metrics"
	"bookcatalog/internal/ops"
)

// newHandler mounts every route and wraps the mux in the middleware chain.
// The metrics middleware sits directly on the mux so it can read r.Pattern.
func newHandler(
	ctx context.Context,
	cfg config.Config,
	bookService *book.Service,
	recorder *metrics.Recorder,
	operators httpx.Authenticator,
	checks map[string]ops.Pinger,
) http.Handler {
	router := http.NewServeMux()
	book.NewHTTPHandler(bookService, recorder).Register(router)
	ops.NewHandler(ops.Options{
		Info:    ops.Info{Name: "bookcatalog", Version: version, Environment: cfg.Env},
		Checks:  checks,
		Stats:   bookService,
		Metrics: recorder.Handler(),
		Auth:    operators,
		OnStats: func(s book.Stats) { recorder.SetTotalBooks(s.TotalBooks) },
	}).Register(router)

	rateLimiter := httpx.NewRateLimitMiddleware(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst)
	return httpx.Chain(httpx.FallbackMiddleware(router),
		httpx.RecoveryMiddleware,
		httpx.RequestIDMiddleware,
		httpx.AccessLogMiddleware,
		httpx.SecurityHeadersMiddleware(httpx.SecurityHeaders{
			ContentSecurityPolicy: cfg.ContentSecurityPolicy,
			ReferrerPolicy:        cfg.ReferrerPolicy,
			PermissionsPolicy:     cfg.PermissionsPolicy,
			EnableHSTS:            cfg.EnableHSTS,
			NoStorePrefixes:       []string{"/actuator/"},
		}),
		httpx.CORSMiddleware(corsPolicies(cfg)...),
		rateLimiter.Middleware,
		httpx.RequestSizeLimitMiddleware(int64(cfg.MaxBodyBytes)),
		httpx.MetricsMiddleware(recorder),
	)
}

func corsPolicies(cfg config.Config) []httpx.CORSPolicy {
	origins := cfg.AllowedOrigins()
	return []httpx.CORSPolicy{
		{
			PathPrefix:       "/api/",
			AllowedOrigins:   origins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", "Cache-Control"},
			ExposedHeaders:   []string{"X-Total-Count", "X-Page-Count"},
			AllowCredentials: true,
			MaxAge:           cfg.CORSMaxAge,
		},
		{
			PathPrefix:     "/actuator/",
			AllowedOrigins: origins,
			AllowedMethods: []string{"GET", "OPTIONS"},
			AllowedHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
			MaxAge:         cfg.CORSMaxAge,
		},
	}
}
