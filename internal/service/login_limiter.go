package service

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Ventana fija: el primer intento crea la clave con TTL, los siguientes la incrementan.
const redisLoginAttemptScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return current
`

// LoginLimiter acota los intentos de login fallidos por usuario y origen.
type LoginLimiter interface {
	Allow(ctx context.Context, username, clientIP string) bool
	Reset(ctx context.Context, username, clientIP string)
}

type redisLoginScripter interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type redisLoginLimiter struct {
	client redisLoginScripter
	logger *zap.Logger
	window time.Duration
	max    int
	prefix string
}

func NewRedisLoginLimiter(client *redis.Client, window time.Duration, max int, logger *zap.Logger) LoginLimiter {
	if client == nil {
		return nil
	}
	return newRedisLoginLimiter(client, window, max, logger)
}

func newRedisLoginLimiter(client redisLoginScripter, window time.Duration, max int, logger *zap.Logger) *redisLoginLimiter {
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &redisLoginLimiter{
		client: client,
		logger: logger,
		window: window,
		max:    max,
		prefix: "mockfleet:login:",
	}
}

func (l *redisLoginLimiter) key(username, clientIP string) string {
	return l.prefix + strings.ToLower(strings.TrimSpace(username)) + "|" + strings.TrimSpace(clientIP)
}

// Allow cuenta un intento. Si Redis falla, deja pasar.
func (l *redisLoginLimiter) Allow(ctx context.Context, username, clientIP string) bool {
	if l == nil || l.client == nil {
		return true
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	seconds := int(l.window.Seconds())
	if seconds <= 0 {
		seconds = 60
	}
	count, err := l.client.Eval(ctx, redisLoginAttemptScript, []string{l.key(username, clientIP)}, seconds).Int()
	if err != nil {
		l.logger.Warn("login limiter unavailable", zap.Error(err))
		return true
	}
	return count <= l.max
}

// Reset limpia el contador tras un login exitoso.
func (l *redisLoginLimiter) Reset(ctx context.Context, username, clientIP string) {
	if l == nil || l.client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	if err := l.client.Del(ctx, l.key(username, clientIP)).Err(); err != nil {
		l.logger.Warn("login limiter reset failed", zap.Error(err))
	}
}
