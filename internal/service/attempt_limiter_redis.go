package service

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// El contador vive lo que dura la ventana desde el primer intento; un codigo valido lo borra.
const redisAttemptScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return current
`

type redisAttemptClient interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type redisAttemptLimiter struct {
	client redisAttemptClient
	window time.Duration
	max    int
	prefix string
}

// NewRedisAttemptLimiter comparte el cupo de intentos entre replicas del API.
func NewRedisAttemptLimiter(client redisAttemptClient, window time.Duration, max int) AttemptLimiter {
	if client == nil {
		return nil
	}
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 1
	}
	return &redisAttemptLimiter{
		client: client,
		window: window,
		max:    max,
		prefix: "2fa:attempts:",
	}
}

func (l *redisAttemptLimiter) key(key string) string {
	normalized := strings.ToLower(strings.TrimSpace(key))
	if normalized == "" {
		return ""
	}
	return l.prefix + normalized
}

// Attempt falla abierto si redis no responde: el codigo TOTP sigue siendo obligatorio.
func (l *redisAttemptLimiter) Attempt(key string) bool {
	if l == nil || l.client == nil {
		return true
	}
	redisKey := l.key(key)
	if redisKey == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	seconds := int(l.window.Seconds())
	if seconds <= 0 {
		seconds = 60
	}
	count, err := l.client.Eval(ctx, redisAttemptScript, []string{redisKey}, seconds).Int()
	if err != nil {
		return true
	}
	return count <= l.max
}

func (l *redisAttemptLimiter) Reset(key string) {
	if l == nil || l.client == nil {
		return
	}
	redisKey := l.key(key)
	if redisKey == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	// Si falla, el contador expira solo con la ventana.
	_ = l.client.Del(ctx, redisKey).Err()
}
