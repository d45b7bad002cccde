package router

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"

	"github.com/shandysiswandi/goverify/internal/pkg/ratelimit"
)

func middlewareRateLimit(limiter ratelimit.Limiter) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil {
				next.ServeHTTP(w, r)
				return
			}

			key := r.RemoteAddr
			if host, _, err := net.SplitHostPort(key); err == nil {
				key = host
			}

			decision, err := limiter.Allow(r.Context(), key)
			if err != nil {
				// The limiter backend being down should not take the API down.
				slog.WarnContext(r.Context(), "rate limiter unavailable, allowing request", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			if !decision.Allowed {
				retryAfter := int(math.Ceil(decision.RetryAfter.Seconds()))
				if retryAfter < 1 {
					retryAfter = 1
				}

				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				writeJSON(w, errorResponse{
					Message: "Too many requests, please retry later",
					Error:   map[string]string{"retry_after_seconds": strconv.Itoa(retryAfter)},
				}, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
