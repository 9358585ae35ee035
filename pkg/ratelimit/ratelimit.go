package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// ErrUnavailable хранилище счётчиков недоступно
var ErrUnavailable = errors.New("ratelimit: backend unavailable")

// Limiter решает, можно ли пропустить ещё один запрос с данным ключом
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RedisLimiter лимитер с фиксированным окном, счётчики которого лежат в Redis.
// Используется, когда запущено несколько экземпляров сервиса.
type RedisLimiter struct {
	rdb    redis.Scripter
	limit  int
	window time.Duration
	prefix string
}

var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

// NewRedisLimiter создает лимитер поверх Redis
func NewRedisLimiter(rdb redis.Scripter, limit int, window time.Duration, prefix string) *RedisLimiter {
	if limit <= 0 {
		limit = 60
	}
	if window <= 0 {
		window = time.Minute
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "rl"
	}
	return &RedisLimiter{rdb: rdb, limit: limit, window: window, prefix: prefix}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	res, err := fixedWindowScript.Run(ctx, l.rdb, []string{l.prefix + ":" + key}, l.window.Milliseconds()).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var count int64
	switch v := res.(type) {
	case int64:
		count = v
	case string:
		count, err = strconv.ParseInt(v, 10, 64)
		if err != nil {
			return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	default:
		return false, fmt.Errorf("%w: unexpected script result %T", ErrUnavailable, res)
	}

	return count <= int64(l.limit), nil
}

// LocalLimiter token bucket на ключ внутри процесса
type LocalLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	visitors map[string]*rate.Limiter
}

// NewLocalLimiter создает лимитер: limit запросов за window, всплеск до limit
func NewLocalLimiter(limit int, window time.Duration) *LocalLimiter {
	if limit <= 0 {
		limit = 60
	}
	if window <= 0 {
		window = time.Minute
	}
	return &LocalLimiter{
		limit:    rate.Every(window / time.Duration(limit)),
		burst:    limit,
		visitors: make(map[string]*rate.Limiter),
	}
}

func (l *LocalLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	lim, ok := l.visitors[key]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.visitors[key] = lim
	}
	l.mu.Unlock()

	return lim.Allow(), nil
}
