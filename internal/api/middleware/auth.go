package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"

	"langpredict/pkg/logger"
)

// AdminTokenHeader carries the token guarding profile reloads
const AdminTokenHeader = "X-Admin-Token"

type adminKey struct{}

// AdminAuth returns middleware that requires the X-Admin-Token header to equal
// token. An empty token disables the check.
func AdminAuth(token string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			got := r.Header.Get(AdminTokenHeader)
			if got == "" {
				writeError(w, http.StatusUnauthorized, "admin token required")
				return
			}
			if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				logger.FromContext(r.Context(), logger.Global()).Warn().
					Str("path", r.URL.Path).
					Str("remote_addr", r.RemoteAddr).
					Msg("rejected admin request")
				writeError(w, http.StatusForbidden, "invalid admin token")
				return
			}

			ctx := context.WithValue(r.Context(), adminKey{}, true)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IsAdmin returns whether the request carried a valid admin token
func IsAdmin(ctx context.Context) bool {
	admin, _ := ctx.Value(adminKey{}).(bool)
	return admin
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}
