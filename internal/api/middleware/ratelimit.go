package middleware

import (
	"net"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-BeautyBooking/internal/api/handlers"
)

const msgTooManyRequests = "слишком много запросов, повторите позже"

// RateLimit ограничивает частоту запросов на пользователя.
// При недоступности хранилища счётчиков запрос пропускается.
func RateLimit(limiter Limiter, observer RateLimitObserver, logger Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := limitKey(r)

			allowed, err := limiter.Allow(r.Context(), key)
			if err != nil {
				logger.Warn("RateLimit: limiter unavailable, letting request through: key=%s, error=%v", key, err)
				next.ServeHTTP(w, r)
				return
			}

			if !allowed {
				route := routeTemplate(r)
				observer.ObserveRateLimited(route)
				logger.Warn("RateLimit: request rejected: key=%s, route=%s", key, route)
				handlers.RespondError(w, http.StatusTooManyRequests, msgTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func limitKey(r *http.Request) string {
	if userID, ok := GetUserID(r.Context()); ok {
		return "user:" + strconv.FormatInt(userID, 10)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
