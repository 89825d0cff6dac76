// Package ratelimit implements per-class token-bucket throttling backed by
// an in-memory LRU cache with access-based expiry.
package ratelimit

import (
	"log/slog"
	"time"

	"localbite/config"
	"localbite/internal/domain/service"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/fx"
)

// tokenBucket tracks the remaining tokens for one (class, identity) pair.
// Refill is computed lazily from the elapsed whole periods since lastRefill.
type tokenBucket struct {
	tokens     int64
	lastRefill time.Time
}

// Params defines the dependencies for the limiter.
type Params struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

// Limiter implements service.RateLimiter. All bucket access goes through a
// single mutex-free path: the expirable LRU is safe for concurrent use, but
// get-or-create plus consume must be atomic, so the limiter serializes on
// its own lock.
type Limiter struct {
	mu      chan struct{} // buffered size 1, used as a lock that tests can reason about
	cache   *expirable.LRU[string, *tokenBucket]
	classes map[service.RateLimitClass]config.RateLimitClassConfig
	enabled bool
	logger  *slog.Logger
	now     func() time.Time
}

// New creates the rate limiter from configuration.
func New(params Params) service.RateLimiter {
	rl := params.Config.RateLimit

	limiter := &Limiter{
		mu:      make(chan struct{}, 1),
		cache:   expirable.NewLRU[string, *tokenBucket](rl.CacheSize, nil, rl.CacheExpiry),
		enabled: rl.Enabled,
		logger:  params.Logger,
		now:     time.Now,
		classes: map[service.RateLimitClass]config.RateLimitClassConfig{
			service.RateLimitGlobal:            rl.Global,
			service.RateLimitLogin:             rl.Login,
			service.RateLimitRegister:          rl.Register,
			service.RateLimitEmailVerification: rl.EmailVerification,
			service.RateLimitPasswordReset:     rl.PasswordReset,
			service.RateLimitAdmin:             rl.Admin,
		},
	}

	return limiter
}

func (l *Limiter) lock()   { l.mu <- struct{}{} }
func (l *Limiter) unlock() { <-l.mu }

// classConfig resolves the bucket configuration for a class. Unknown classes
// fall back to the global limits rather than going unthrottled.
func (l *Limiter) classConfig(class service.RateLimitClass) config.RateLimitClassConfig {
	if cfg, ok := l.classes[class]; ok {
		return cfg
	}

	return l.classes[service.RateLimitGlobal]
}

// Allow consumes one token for (class, identity). A limiter that is disabled
// or cannot track the bucket always allows; throttling is protective, never
// a point of failure.
func (l *Limiter) Allow(class service.RateLimitClass, identity string) bool {
	if !l.enabled {
		return true
	}

	cfg := l.classConfig(class)

	l.lock()
	defer l.unlock()

	bucket := l.bucketLocked(class, identity, cfg)
	if bucket.tokens <= 0 {
		return false
	}

	bucket.tokens--

	return true
}

// Remaining returns the token count currently left in the bucket without
// consuming anything.
func (l *Limiter) Remaining(class service.RateLimitClass, identity string) int64 {
	cfg := l.classConfig(class)

	if !l.enabled {
		return cfg.Capacity
	}

	l.lock()
	defer l.unlock()

	return l.bucketLocked(class, identity, cfg).tokens
}

// RetryAfter returns how long a denied caller should wait before retrying.
func (l *Limiter) RetryAfter(class service.RateLimitClass, identity string) time.Duration {
	cfg := l.classConfig(class)

	if !l.enabled {
		return 0
	}

	l.lock()
	defer l.unlock()

	if l.bucketLocked(class, identity, cfg).tokens > 0 {
		return 0
	}

	return cfg.RefillPeriod
}

// bucketLocked returns the refreshed bucket for (class, identity), creating
// a full one on first sight or after cache eviction. Callers must hold the lock.
func (l *Limiter) bucketLocked(class service.RateLimitClass, identity string, cfg config.RateLimitClassConfig) *tokenBucket {
	key := class.String() + ":" + identity

	bucket, ok := l.cache.Get(key)
	if !ok {
		bucket = &tokenBucket{tokens: cfg.Capacity, lastRefill: l.now()}
		l.cache.Add(key, bucket)

		return bucket
	}

	l.refill(bucket, cfg)

	return bucket
}

// refill adds refillTokens for each whole period elapsed since the last
// refill, capped at capacity. Partial periods carry over via lastRefill.
func (l *Limiter) refill(bucket *tokenBucket, cfg config.RateLimitClassConfig) {
	if cfg.RefillPeriod <= 0 {
		return
	}

	elapsed := l.now().Sub(bucket.lastRefill)
	periods := int64(elapsed / cfg.RefillPeriod)
	if periods <= 0 {
		return
	}

	bucket.tokens += periods * cfg.RefillTokens
	if bucket.tokens > cfg.Capacity {
		bucket.tokens = cfg.Capacity
	}
	bucket.lastRefill = bucket.lastRefill.Add(time.Duration(periods) * cfg.RefillPeriod)
}
