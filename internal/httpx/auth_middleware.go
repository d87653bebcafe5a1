package httpx

import (
	"context"
	"net/http"
	"slices"
)

// Authenticator verifies basic-auth credentials and returns the caller's roles.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (roles []string, ok bool)
}

// BasicAuthMiddleware admits callers holding at least one of roles.
// Missing or wrong credentials get 401 with a Basic challenge; a valid caller
// without a matching role gets 403.
func BasicAuthMiddleware(auth Authenticator, realm string, roles ...string) func(http.Handler) http.Handler {
	challenge := `Basic realm="` + realm + `", charset="UTF-8"`

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username, password, ok := r.BasicAuth()
			if !ok {
				w.Header().Set("WWW-Authenticate", challenge)
				JSONError(w, r, http.StatusUnauthorized, "Full authentication is required to access this resource")
				return
			}

			granted, ok := auth.Authenticate(r.Context(), username, password)
			if !ok {
				w.Header().Set("WWW-Authenticate", challenge)
				JSONError(w, r, http.StatusUnauthorized, "Bad credentials")
				return
			}

			if len(roles) > 0 && !slices.ContainsFunc(granted, func(role string) bool {
				return slices.Contains(roles, role)
			}) {
				JSONError(w, r, http.StatusForbidden, "Access Denied")
				return
			}

			ctx := ContextWithPrincipal(r.Context(), Principal{Username: username, Roles: granted})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
