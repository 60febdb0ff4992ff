package httpapi

import (
	"context"
	"fmt"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Auth endpoints allow 10 requests per minute per client IP.
const (
	authBurst     = 10
	authPerSecond = 10.0 / 60.0
)

// Limiter decides whether one more request for key may pass.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

var tokenBucketScript = redis.NewScript(`
	local key = KEYS[1]
	local capacity = tonumber(ARGV[1])
	local rate = tonumber(ARGV[2])
	local now = tonumber(ARGV[3])
	local requested = tonumber(ARGV[4])

	local info = redis.call("HMGET", key, "tokens", "last_refill")
	local tokens = tonumber(info[1])
	local last_refill = tonumber(info[2])

	if tokens == nil then
		tokens = capacity
		last_refill = now
	end

	local delta = math.max(0, now - last_refill)
	local filled_tokens = math.min(capacity, tokens + (delta / 1000 * rate))

	local allowed = 0
	if filled_tokens >= requested then
		filled_tokens = filled_tokens - requested
		allowed = 1
	end
	redis.call("HMSET", key, "tokens", filled_tokens, "last_refill", now)
	redis.call("EXPIRE", key, math.ceil(capacity / rate) * 2)

	return allowed
`)

// RedisLimiter is a token bucket shared by every instance behind the same redis.
type RedisLimiter struct {
	client   *redis.Client
	capacity int
	rate     float64
	now      func() time.Time
}

func NewRedisLimiter(client *redis.Client) *RedisLimiter {
	return &RedisLimiter{client: client, capacity: authBurst, rate: authPerSecond, now: time.Now}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	keys := []string{fmt.Sprintf("rate_limit:%s", key)}
	args := []interface{}{l.capacity, l.rate, l.now().UnixMilli(), 1}

	result, err := tokenBucketScript.Run(ctx, l.client, keys, args...).Result()
	if err != nil {
		return false, err
	}
	return result.(int64) == 1, nil
}

type localBucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// LocalLimiter keeps per-key token buckets in process memory. It is used when
// no redis is configured, so limits are per instance.
type LocalLimiter struct {
	mu      sync.Mutex
	buckets map[string]*localBucket
	limit   rate.Limit
	burst   int
	idle    time.Duration
	log     *logrus.Logger
}

func NewLocalLimiter(log *logrus.Logger) *LocalLimiter {
	return &LocalLimiter{
		buckets: make(map[string]*localBucket),
		limit:   rate.Limit(authPerSecond),
		burst:   authBurst,
		idle:    10 * time.Minute,
		log:     log,
	}
}

func (l *LocalLimiter) Allow(_ context.Context, key string) (bool, error) {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		if len(l.buckets) >= 10000 {
			l.sweep(now)
		}
		b = &localBucket{lim: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.seen = now
	return b.lim.AllowN(now, 1), nil
}

// sweep drops buckets idle long enough to have refilled completely.
func (l *LocalLimiter) sweep(now time.Time) {
	before := len(l.buckets)
	for k, b := range l.buckets {
		if now.Sub(b.seen) > l.idle {
			delete(l.buckets, k)
		}
	}
	l.log.Debugf("[LocalLimiter] swept %d idle buckets", before-len(l.buckets))
}
