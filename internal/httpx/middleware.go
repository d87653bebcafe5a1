package httpx

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
)

// Middleware wraps a handler.
type Middleware func(http.Handler) http.Handler

// Chain applies middlewares so that the first one listed is the outermost.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// CORSPolicy is the cross-origin policy for every path under PathPrefix.
type CORSPolicy struct {
	PathPrefix       string
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

func (p CORSPolicy) allows(origin string) bool {
	return slices.Contains(p.AllowedOrigins, origin) || slices.Contains(p.AllowedOrigins, "*")
}

// CORSMiddleware applies the first policy whose prefix matches the request path.
// Preflights from allowed origins are answered with 204; others with 403.
func CORSMiddleware(policies ...CORSPolicy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			policy, found := matchPolicy(policies, r.URL.Path)
			if origin == "" || !found {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Add("Vary", "Origin")
			preflight := r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""

			if !policy.allows(origin) {
				if preflight {
					JSONError(w, r, http.StatusForbidden, "Invalid CORS request")
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			if policy.AllowCredentials {
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
			if len(policy.ExposedHeaders) > 0 {
				w.Header().Set("Access-Control-Expose-Headers", strings.Join(policy.ExposedHeaders, ", "))
			}

			if preflight {
				w.Header().Set("Access-Control-Allow-Methods", strings.Join(policy.AllowedMethods, ", "))
				w.Header().Set("Access-Control-Allow-Headers", strings.Join(policy.AllowedHeaders, ", "))
				if policy.MaxAge > 0 {
					w.Header().Set("Access-Control-Max-Age", strconv.Itoa(policy.MaxAge))
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func matchPolicy(policies []CORSPolicy, path string) (CORSPolicy, bool) {
	for _, p := range policies {
		if strings.HasPrefix(path, p.PathPrefix) {
			return p, true
		}
	}
	return CORSPolicy{}, false
}

// SecurityHeaders configures SecurityHeadersMiddleware.
type SecurityHeaders struct {
	ContentSecurityPolicy string
	ReferrerPolicy        string
	PermissionsPolicy     string
	EnableHSTS            bool
	// NoStorePrefixes lists path prefixes whose responses must never be cached.
	NoStorePrefixes []string
}

func SecurityHeadersMiddleware(cfg SecurityHeaders) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("X-XSS-Protection", "1; mode=block")
			h.Set("X-Permitted-Cross-Domain-Policies", "none")
			h.Set("Cross-Origin-Opener-Policy", "same-origin")
			h.Set("Cross-Origin-Resource-Policy", "same-origin")
			if cfg.ContentSecurityPolicy != "" {
				h.Set("Content-Security-Policy", cfg.ContentSecurityPolicy)
			}
			if cfg.ReferrerPolicy != "" {
				h.Set("Referrer-Policy", cfg.ReferrerPolicy)
			}
			if cfg.PermissionsPolicy != "" {
				h.Set("Permissions-Policy", cfg.PermissionsPolicy)
			}
			if cfg.EnableHSTS {
				h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			for _, prefix := range cfg.NoStorePrefixes {
				if strings.HasPrefix(r.URL.Path, prefix) {
					h.Set("Cache-Control", "no-cache, no-store, must-revalidate")
					h.Set("Pragma", "no-cache")
					h.Set("Expires", "0")
					break
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func RequestSizeLimitMiddleware(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				JSONError(w, r, http.StatusRequestEntityTooLarge, "Request body too large")
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// FallbackMiddleware renders the mux's own 404 and 405 replies as ErrorResponse bodies.
func FallbackMiddleware(mux *http.ServeMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, pattern := mux.Handler(r)
		if pattern != "" {
			mux.ServeHTTP(w, r)
			return
		}

		probe := &statusProbe{header: http.Header{}}
		h.ServeHTTP(probe, r)
		if allow := probe.header.Get("Allow"); allow != "" {
			w.Header().Set("Allow", allow)
		}
		switch probe.status {
		case http.StatusMethodNotAllowed:
			JSONError(w, r, http.StatusMethodNotAllowed, "Request method '"+r.Method+"' is not supported")
		case 0, http.StatusNotFound:
			JSONError(w, r, http.StatusNotFound, "No handler found for "+r.Method+" "+r.URL.Path)
		default:
			// Redirects and other mux replies pass through.
			for k, v := range probe.header {
				w.Header()[k] = v
			}
			w.WriteHeader(probe.status)
		}
	})
}

// statusProbe records what the mux would have replied without writing it.
type statusProbe struct {
	header http.Header
	status int
}

func (p *statusProbe) Header() http.Header { return p.header }

func (p *statusProbe) Write(b []byte) (int, error) {
	if p.status == 0 {
		p.status = http.StatusOK
	}
	return len(b), nil
}

func (p *statusProbe) WriteHeader(code int) {
	if p.status == 0 {
		p.status = code
	}
}
