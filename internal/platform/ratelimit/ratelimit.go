package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/yungbote/leancanvas-backend/internal/platform/logger"
)

// Decision is the outcome of one attempt against a limit.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

type Config struct {
	Attempts int
	Window   time.Duration
}

func (c Config) normalized() Config {
	if c.Attempts <= 0 {
		c.Attempts = 5
	}
	if c.Window <= 0 {
		c.Window = 15 * time.Minute
	}
	return c
}

// memoryLimiter keeps one token bucket per key: Attempts burst, refilled over Window.
type memoryLimiter struct {
	cfg Config
	now func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func NewMemoryLimiter(cfg Config) Limiter {
	return newMemoryLimiter(cfg, time.Now)
}

func newMemoryLimiter(cfg Config, now func() time.Time) *memoryLimiter {
	return &memoryLimiter{cfg: cfg.normalized(), now: now, buckets: map[string]*bucket{}}
}

func (m *memoryLimiter) Allow(_ context.Context, key string) (Decision, error) {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()

	m.evict(now)
	b, ok := m.buckets[key]
	if !ok {
		every := m.cfg.Window / time.Duration(m.cfg.Attempts)
		b = &bucket{lim: rate.NewLimiter(rate.Every(every), m.cfg.Attempts)}
		m.buckets[key] = b
	}
	b.lastSeen = now

	if b.lim.AllowN(now, 1) {
		return Decision{Allowed: true, Remaining: int(b.lim.TokensAt(now))}, nil
	}
	r := b.lim.ReserveN(now, 1)
	delay := r.DelayFrom(now)
	r.CancelAt(now)
	return Decision{Allowed: false, RetryAfter: delay}, nil
}

// evict drops buckets idle for longer than a window; they would be full again anyway.
func (m *memoryLimiter) evict(now time.Time) {
	if len(m.buckets) < 1024 {
		return
	}
	for k, b := range m.buckets {
		if now.Sub(b.lastSeen) > m.cfg.Window {
			delete(m.buckets, k)
		}
	}
}

type redisLimiter struct {
	log    *logger.Logger
	rdb    goredis.UniversalClient
	cfg    Config
	prefix string
}

// NewRedisLimiter counts attempts per key in a fixed window shared by every
// instance. Redis failures fail open.
func NewRedisLimiter(log *logger.Logger, rdb goredis.UniversalClient, prefix string, cfg Config) Limiter {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &redisLimiter{
		log:    log.With("service", "RedisRateLimiter"),
		rdb:    rdb,
		cfg:    cfg.normalized(),
		prefix: prefix,
	}
}

func (r *redisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	k := fmt.Sprintf("%s:%s", r.prefix, key)
	var incr *goredis.IntCmd
	var ttl *goredis.DurationCmd
	_, err := r.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		incr = p.Incr(ctx, k)
		p.ExpireNX(ctx, k, r.cfg.Window)
		ttl = p.PTTL(ctx, k)
		return nil
	})
	if err != nil {
		r.log.Warn("rate limit check failed, allowing request", "error", err)
		return Decision{Allowed: true, Remaining: r.cfg.Attempts}, err
	}

	count := int(incr.Val())
	if count <= r.cfg.Attempts {
		return Decision{Allowed: true, Remaining: r.cfg.Attempts - count}, nil
	}
	retry := ttl.Val()
	if retry <= 0 {
		retry = r.cfg.Window
	}
	return Decision{Allowed: false, RetryAfter: retry}, nil
}
