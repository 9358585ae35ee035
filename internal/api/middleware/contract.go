package middleware

import (
	"context"
	"time"
)

// HTTPObserver собирает метрики HTTP запросов (*metrics.Metrics)
type HTTPObserver interface {
	ObserveHTTP(method, route, status string, elapsed time.Duration)
}

// RateLimitObserver учитывает отклонённые запросы
type RateLimitObserver interface {
	ObserveRateLimited(route string)
}

// Limiter решает, пропускать ли запрос (pkg/ratelimit)
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
