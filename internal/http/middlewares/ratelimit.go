package middlewares

import (
	"net/http"
	"strconv"

	"github.com/dropDatabas3/authpool/internal/http/errors"
	"github.com/dropDatabas3/authpool/internal/http/helpers"
	"github.com/dropDatabas3/authpool/internal/metrics"
	"github.com/dropDatabas3/authpool/internal/observability/logger"
	"github.com/dropDatabas3/authpool/internal/rate"
)

// WithRateLimit limita por IP+path sobre el limiter dado. Un error del
// backend del limiter deja pasar el request (fail-open) y se loguea.
func WithRateLimit(limiter rate.Limiter, scope string) Middleware {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := helpers.ClientIP(r) + "|" + r.URL.Path
			res, err := limiter.Allow(r.Context(), key)
			if err != nil {
				logger.From(r.Context()).Warn("rate limiter unavailable",
					logger.Component("rate"),
					logger.Err(err),
				)
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
			if !res.Allowed {
				metrics.RateLimited.WithLabelValues(scope).Inc()
				retry := int(res.RetryAfter.Seconds())
				if retry < 1 {
					retry = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				errors.WriteError(w, r, errors.ErrRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
