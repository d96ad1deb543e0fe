package api

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/wonny/qstudy/pkg/redis"
)

// sweepInterval bounds how often Allow scans for idle buckets
const sweepInterval = time.Minute

// LocalLimiter is an in-process token bucket per subject.
// Used when Redis is disabled; limits are not shared between instances.
type LocalLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
	now       func() time.Time
}

type bucket struct {
	lim      *rate.Limiter
	window   time.Duration
	lastSeen time.Time
}

// NewLocalLimiter creates an empty local limiter
func NewLocalLimiter() *LocalLimiter {
	return &LocalLimiter{
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

// Allow implements Limiter
func (l *LocalLimiter) Allow(ctx context.Context, cfg redis.RateLimitConfig, subject string) (bool, int, error) {
	key := cfg.Key + ":" + subject

	l.mu.Lock()
	now := l.now()
	l.sweep(now)
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{lim: newBucket(cfg), window: cfg.Window}
		l.buckets[key] = b
	}
	b.lastSeen = now
	l.mu.Unlock()

	if !b.lim.AllowN(now, 1) {
		return false, 0, nil
	}
	return true, int(b.lim.TokensAt(now)), nil
}

// sweep drops buckets idle for a full window. Such a bucket has refilled
// completely, so a fresh one behaves the same. Caller holds l.mu.
func (l *LocalLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < sweepInterval {
		return
	}
	l.lastSweep = now
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) >= b.window {
			delete(l.buckets, key)
		}
	}
}

// Len returns the number of tracked buckets
func (l *LocalLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// newBucket allows cfg.Limit requests per cfg.Window, refilled evenly
func newBucket(cfg redis.RateLimitConfig) *rate.Limiter {
	if cfg.Limit <= 0 || cfg.Window <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Every(cfg.Window/time.Duration(cfg.Limit)), cfg.Limit)
}
