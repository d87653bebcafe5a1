// Package ops serves the operational endpoints under /actuator.
package ops

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"bookcatalog/internal/auth"
	"bookcatalog/internal/book"
	"bookcatalog/internal/httpx"

	"github.com/rs/zerolog/log"
)

const (
	basePath = "/actuator"
	Realm    = "bookcatalog-ops"

	readinessTimeout = 500 * time.Millisecond
)

// Pinger is a dependency checked by the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// StatsSource reports catalogue statistics.
type StatsSource interface {
	Stats(ctx context.Context, category string) (book.Stats, error)
}

// Info is returned by the info endpoint.
type Info struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Environment string `json:"environment"`
}

// Options wires the handler's collaborators. Metrics and Auth may be nil, which
// leaves the protected endpoints answering 401.
type Options struct {
	Info    Info
	Checks  map[string]Pinger
	Stats   StatsSource
	Metrics http.Handler
	Auth    httpx.Authenticator
	// OnStats receives each successful statistics read.
	OnStats func(book.Stats)
}

type Handler struct {
	opts Options
}

func NewHandler(opts Options) *Handler {
	return &Handler{opts: opts}
}

// Register mounts the operational routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET "+basePath+"/health", h.Health)
	mux.HandleFunc("GET "+basePath+"/readiness", h.Readiness)
	mux.HandleFunc("GET "+basePath+"/info", h.Info)

	monitor := h.protect(auth.RoleAdmin, auth.RoleMonitor)
	admin := h.protect(auth.RoleAdmin)
	mux.Handle("GET "+basePath+"/bookstats", monitor(http.HandlerFunc(h.BookStats)))

	metrics := h.opts.Metrics
	if metrics == nil {
		metrics = http.NotFoundHandler()
	}
	mux.Handle("GET "+basePath+"/prometheus", admin(metrics))
}

func (h *Handler) protect(roles ...string) func(http.Handler) http.Handler {
	if h.opts.Auth == nil {
		return func(http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("WWW-Authenticate", `Basic realm="`+Realm+`", charset="UTF-8"`)
				httpx.JSONError(w, r, http.StatusUnauthorized, "Full authentication is required to access this resource")
			})
		}
	}
	return httpx.BasicAuthMiddleware(h.opts.Auth, Realm, roles...)
}

// Health handles GET /actuator/health
// @Summary Liveness check
// @Tags ops
// @Produce json
// @Success 200 {object} map[string]string
// @Router /actuator/health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	httpx.JSONSuccess(w, http.StatusOK, map[string]string{"status": "UP"})
}

// Readiness handles GET /actuator/readiness
// @Summary Readiness check
// @Description Pings the database and, when enabled, the cache
// @Tags ops
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 503 {object} map[string]any
// @Router /actuator/readiness [get]
func (h *Handler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	status := "UP"
	components := make(map[string]string, len(h.opts.Checks))
	for name, check := range h.opts.Checks {
		if err := check.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("component", name).Msg("readiness check failed")
			components[name] = "DOWN"
			status = "DOWN"
			continue
		}
		components[name] = "UP"
	}

	code := http.StatusOK
	if status != "UP" {
		code = http.StatusServiceUnavailable
	}
	httpx.JSONSuccess(w, code, map[string]any{"status": status, "components": components})
}

// Info handles GET /actuator/info
// @Summary Application info
// @Tags ops
// @Produce json
// @Success 200 {object} map[string]ops.Info
// @Router /actuator/info [get]
func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	httpx.JSONSuccess(w, http.StatusOK, map[string]Info{"app": h.opts.Info})
}

// BookStats handles GET /actuator/bookstats
// @Summary Catalogue stock statistics
// @Tags ops
// @Produce json
// @Security BasicAuth
// @Param category query string false "Category to count"
// @Success 200 {object} map[string]any
// @Failure 401 {object} httpx.ErrorResponse
// @Failure 403 {object} httpx.ErrorResponse
// @Failure 503 {object} map[string]any
// @Router /actuator/bookstats [get]
func (h *Handler) BookStats(w http.ResponseWriter, r *http.Request) {
	category := strings.TrimSpace(r.URL.Query().Get("category"))

	operator := ""
	if p, ok := httpx.PrincipalFrom(r); ok {
		operator = p.Username
	}

	st, err := h.opts.Stats.Stats(r.Context(), category)
	if err != nil {
		log.Error().Err(err).Str("operator", operator).Msg("book statistics failed")
		httpx.JSONSuccess(w, http.StatusServiceUnavailable, map[string]any{
			"status": "error",
			"error":  err.Error(),
		})
		return
	}
	if h.opts.OnStats != nil {
		h.opts.OnStats(st)
	}
	log.Debug().Str("operator", operator).Str("category", category).Msg("book statistics read")

	body := map[string]any{
		"totalBooks":      st.TotalBooks,
		"booksInStock":    st.BooksInStock,
		"booksOutOfStock": st.BooksOutOfStock,
		"status":          "healthy",
	}
	if st.TotalBooks > 0 {
		total := float64(st.TotalBooks)
		body["inStockPercentage"] = fmt.Sprintf("%.2f%%", float64(st.BooksInStock)/total*100)
		body["outOfStockPercentage"] = fmt.Sprintf("%.2f%%", float64(st.BooksOutOfStock)/total*100)
	}
	if st.CategoryCount != nil {
		body["category"] = st.Category
		body["categoryCount"] = *st.CategoryCount
	}
	httpx.JSONSuccess(w, http.StatusOK, body)
}
