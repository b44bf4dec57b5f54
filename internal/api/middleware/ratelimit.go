package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"langpredict/internal/config"
	"langpredict/pkg/logger"
)

// Limiter counts requests per client in fixed windows
type Limiter interface {
	CheckRateLimit(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, time.Time, error)
}

// RateLimiter returns middleware that enforces the per-minute and per-hour
// request limits. Limiter failures let the request through.
func RateLimiter(l Limiter, cfg config.RateLimitConfig, log *logger.Logger) func(next http.Handler) http.Handler {
	log = log.WithComponent("ratelimit")

	windows := []struct {
		name   string
		limit  int
		window time.Duration
	}{
		{"m", cfg.RequestsPerMinute, time.Minute},
		{"h", cfg.RequestsPerHour, time.Hour},
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			clientID := getClientID(r)

			for _, win := range windows {
				if win.limit <= 0 {
					continue
				}
				allowed, remaining, resetTime, err := l.CheckRateLimit(
					r.Context(),
					clientID+":"+win.name,
					int64(win.limit),
					win.window,
				)
				if err != nil {
					log.Warn().Err(err).Msg("rate limit check failed")
					break
				}

				if win.window == time.Minute {
					w.Header().Set("X-RateLimit-Limit", strconv.Itoa(win.limit))
					w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
					w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))
				}

				if !allowed {
					w.Header().Set("Retry-After", strconv.FormatInt(int64(time.Until(resetTime).Seconds()), 10))
					writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// getClientID returns a unique identifier for the client. RealIP runs first,
// so RemoteAddr already reflects forwarding headers.
func getClientID(r *http.Request) string {
	return fmt.Sprintf("ip:%s", r.RemoteAddr)
}
