package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/ecomarket/ecocoins-backend/api/responses"
	pkgerrors "github.com/ecomarket/ecocoins-backend/pkg/errors"
	"github.com/ecomarket/ecocoins-backend/pkg/logger"
	pkgredis "github.com/ecomarket/ecocoins-backend/pkg/redis"
)

// UserRateLimitPolicy bounds how often one authenticated user may hit a route.
type UserRateLimitPolicy struct {
	Scope  string
	Window time.Duration
	Limit  int64
}

// UserRateLimit counts requests per user in a fixed redis window. Callers
// without a user id pass through; Auth runs first on every limited route.
// Redis failures fail open so a cache outage does not block checkout.
func UserRateLimit(policy UserRateLimitPolicy, limiter pkgredis.RateLimiter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := UserIDFromContext(r.Context())
			if limiter == nil || policy.Limit <= 0 || policy.Window <= 0 || userID == "" {
				next.ServeHTTP(w, r)
				return
			}

			allowed, count, err := limiter.FixedWindowAllow(r.Context(), policy.Scope+":"+userID, policy.Limit, policy.Window)
			if err != nil {
				logError(r.Context(), logg, "rate limit check failed", err)
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(policy.Window.Seconds())))
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many requests").
					WithDetails(map[string]any{"count": count, "limit": policy.Limit}))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
