package handler

import (
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RateLimitMiddleware rejects requests with 429 once the shared token bucket
// is empty. A nil limiter disables the check.
func RateLimitMiddleware(limiter *rate.Limiter, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				logger.Warn("rate limit exceeded",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, http.StatusTooManyRequests, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// NewUploadLimiter builds the limiter guarding upload routes. A non-positive
// rate disables limiting.
func NewUploadLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}
