package infrastructure

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// MessageRateLimiter paces outbound sends per tenant with one token
// bucket each. Idle buckets are dropped by Sweep.
type MessageRateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*tenantBucket
	limit   rate.Limit
	burst   int
}

type tenantBucket struct {
	limiter  *rate.Limiter
	lastUsed time.Time
}

// NewMessageRateLimiter allows perSecond sends per tenant with the given
// burst capacity.
func NewMessageRateLimiter(perSecond float64, burst int) *MessageRateLimiter {
	return &MessageRateLimiter{
		buckets: make(map[string]*tenantBucket),
		limit:   rate.Limit(perSecond),
		burst:   burst,
	}
}

func (rl *MessageRateLimiter) bucket(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[key]
	if !ok {
		b = &tenantBucket{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.buckets[key] = b
	}
	b.lastUsed = time.Now()
	return b.limiter
}

// Wait blocks until key may send one message or ctx is done.
func (rl *MessageRateLimiter) Wait(ctx context.Context, key string) error {
	return rl.bucket(key).Wait(ctx)
}

// Allow reports whether key may send right now, consuming a token if so.
func (rl *MessageRateLimiter) Allow(key string) bool {
	return rl.bucket(key).Allow()
}

// Sweep removes buckets idle for longer than idle and returns how many
// were removed.
func (rl *MessageRateLimiter) Sweep(idle time.Duration) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	removed := 0
	cutoff := time.Now().Add(-idle)
	for key, b := range rl.buckets {
		if b.lastUsed.Before(cutoff) {
			delete(rl.buckets, key)
			removed++
		}
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done.
func (rl *MessageRateLimiter) RunSweeper(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.Sweep(idle)
		}
	}
}

func (rl *MessageRateLimiter) Stats() map[string]interface{} {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	return map[string]interface{}{
		"active_tenants": len(rl.buckets),
		"rate":           float64(rl.limit),
		"burst":          rl.burst,
	}
}
