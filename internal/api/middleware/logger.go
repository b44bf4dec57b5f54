package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"langpredict/pkg/logger"
)

// Logger returns a middleware that logs each request and stores a logger
// tagged with the request ID in the request context. Requests to quietPaths
// are logged at debug level unless they fail.
func Logger(log *logger.Logger, quietPaths ...string) func(next http.Handler) http.Handler {
	quiet := make(map[string]bool, len(quietPaths))
	for _, p := range quietPaths {
		quiet[p] = true
	}

	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			reqLog := log
			if id := middleware.GetReqID(r.Context()); id != "" {
				reqLog = log.WithRequestID(id)
			}
			r = r.WithContext(logger.NewContext(r.Context(), reqLog))
			accessLog := reqLog.WithComponent("http")

			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				accessLog.WithLevel(requestLevel(status, quiet[r.URL.Path])).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Str("remote_addr", r.RemoteAddr).
					Int("status", status).
					Int("bytes", ww.BytesWritten()).
					Dur("duration", time.Since(start)).
					Msg("request completed")
			}()

			next.ServeHTTP(ww, r)
		}
		return http.HandlerFunc(fn)
	}
}

func requestLevel(status int, quiet bool) zerolog.Level {
	switch {
	case status >= 500:
		return zerolog.ErrorLevel
	case status >= 400 && status != http.StatusTooManyRequests:
		return zerolog.WarnLevel
	case quiet:
		return zerolog.DebugLevel
	default:
		return zerolog.InfoLevel
	}
}
