package limiter

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
)

type bucket struct {
	tokens     int64
	lastRefill time.Time
}

// buckets holds one token bucket per key
type buckets struct {
	cfg Config
	mu  sync.Mutex
	m   map[string]*bucket
	now func() time.Time
}

func (b *buckets) take(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	bk, ok := b.m[key]
	if !ok {
		bk = &bucket{tokens: b.cfg.Burst, lastRefill: now}
		b.m[key] = bk
	}

	if elapsed := now.Sub(bk.lastRefill); elapsed >= b.cfg.RefillPeriod {
		periods := int64(elapsed / b.cfg.RefillPeriod)
		bk.tokens = min(bk.tokens+periods*b.cfg.RefillRate, b.cfg.Burst)
		bk.lastRefill = bk.lastRefill.Add(time.Duration(periods) * b.cfg.RefillPeriod)
	}

	if bk.tokens <= 0 {
		return false
	}
	bk.tokens--
	return true
}

// New throttles requests per key with a token bucket
func New(config ...Config) fiber.Handler {
	cfg := configDefault(config...)
	b := &buckets{cfg: cfg, m: make(map[string]*bucket), now: time.Now}

	return func(c *fiber.Ctx) error {
		if cfg.Next != nil && cfg.Next(c) {
			return c.Next()
		}
		if !b.take(cfg.KeyGenerator(c)) {
			return cfg.LimitReached(c)
		}
		return c.Next()
	}
}
