package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// otpReserveScript guarda cada solicitud en un sorted set con su marca en ms y descarta
// las que salieron de la ventana. Devuelve {1, 0} si la admite o {0, ms de espera}.
const otpReserveScript = `
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
redis.call("ZREMRANGEBYSCORE", KEYS[1], "-inf", now - window)
if redis.call("ZCARD", KEYS[1]) >= tonumber(ARGV[3]) then
  local oldest = redis.call("ZRANGE", KEYS[1], 0, 0, "WITHSCORES")
  return {0, tonumber(oldest[2]) + window - now}
end
redis.call("ZADD", KEYS[1], now, ARGV[4])
redis.call("PEXPIRE", KEYS[1], window)
return {1, 0}
`

const otpKeyPrefix = "mycoaching:otp:"

type redisEvaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// RedisOTPRateLimiter lleva la cuenta de solicitudes de OTP en redis para compartirla entre réplicas.
type RedisOTPRateLimiter struct {
	client  redisEvaler
	window  time.Duration
	max     int
	timeout time.Duration
	now     func() time.Time
}

// NewRedisOTPRateLimiter admite max solicitudes por email dentro de cualquier ventana móvil.
func NewRedisOTPRateLimiter(client *redis.Client, window time.Duration, max int) *RedisOTPRateLimiter {
	if client == nil {
		return nil
	}
	return newRedisOTPRateLimiter(client, window, max)
}

func newRedisOTPRateLimiter(client redisEvaler, window time.Duration, max int) *RedisOTPRateLimiter {
	if window < time.Millisecond {
		window = time.Minute
	}
	if max <= 0 {
		max = 1
	}
	return &RedisOTPRateLimiter{
		client:  client,
		window:  window,
		max:     max,
		timeout: 500 * time.Millisecond,
		now:     time.Now,
	}
}

// Reserve consume un cupo para el email. Sin cupo devuelve ErrRateLimited con la espera restante.
func (l *RedisOTPRateLimiter) Reserve(ctx context.Context, email string) error {
	key := normalizeEmail(email)
	if key == "" {
		return fmt.Errorf("%w: empty email", ErrRateLimited)
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	now := l.now().UnixMilli()
	member := strconv.FormatInt(now, 10) + "-" + uuid.NewString()
	res, err := l.client.Eval(ctx, otpReserveScript, []string{otpKeyPrefix + key},
		now, l.window.Milliseconds(), l.max, member).Int64Slice()
	if err != nil {
		return fmt.Errorf("otp limiter eval: %w", err)
	}
	if len(res) != 2 {
		return fmt.Errorf("otp limiter eval: unexpected reply %v", res)
	}
	if res[0] == 1 {
		return nil
	}
	wait := time.Duration(res[1]) * time.Millisecond
	return fmt.Errorf("%w: retry in %s", ErrRateLimited, wait.Round(time.Second))
}

// Allow solo rechaza por falta de cupo; si redis falla, deja pasar.
func (l *RedisOTPRateLimiter) Allow(email string) bool {
	if l == nil || l.client == nil {
		return true
	}
	err := l.Reserve(context.Background(), email)
	if err == nil {
		return true
	}
	return !errors.Is(err, ErrRateLimited)
}
