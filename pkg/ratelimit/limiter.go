package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"tgbulkdl/pkg/config"
)

// Limiter throttles outgoing gateway requests
type Limiter interface {
	// Allow reports whether a request may proceed right now
	Allow() bool
	// Wait blocks until a request may proceed or ctx is done
	Wait(ctx context.Context) error
	// Pause holds every caller back for d, used when the gateway reports a flood wait
	Pause(d time.Duration)
}

// TokenBucket is a Limiter backed by golang.org/x/time/rate
type TokenBucket struct {
	limiter *rate.Limiter

	mu          sync.Mutex
	pausedUntil time.Time
	now         func() time.Time
}

// NewTokenBucket allows requestsPerMinute on average with the given burst
func NewTokenBucket(requestsPerMinute, burst int) *TokenBucket {
	if burst < 1 {
		burst = 1
	}
	limit := rate.Inf
	if requestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(requestsPerMinute))
	}
	return &TokenBucket{
		limiter: rate.NewLimiter(limit, burst),
		now:     time.Now,
	}
}

// FromConfig builds a limiter from the rate_limit section of the app config
func FromConfig(cfg config.RateLimitConfig) *TokenBucket {
	return NewTokenBucket(cfg.RequestsPerMinute, cfg.BurstSize)
}

// Allow consumes a token if one is available and no pause is active
func (tb *TokenBucket) Allow() bool {
	if tb.pauseRemaining() > 0 {
		return false
	}
	return tb.limiter.Allow()
}

// Wait blocks for any active pause and then for a token
func (tb *TokenBucket) Wait(ctx context.Context) error {
	if d := tb.pauseRemaining(); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return tb.limiter.Wait(ctx)
}

// Pause extends the pause window to at least now+d
func (tb *TokenBucket) Pause(d time.Duration) {
	if d <= 0 {
		return
	}
	tb.mu.Lock()
	defer tb.mu.Unlock()
	until := tb.now().Add(d)
	if until.After(tb.pausedUntil) {
		tb.pausedUntil = until
	}
}

func (tb *TokenBucket) pauseRemaining() time.Duration {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.pausedUntil.Sub(tb.now())
}

// Unlimited is a Limiter that never blocks
type Unlimited struct{}

func (Unlimited) Allow() bool                    { return true }
func (Unlimited) Wait(ctx context.Context) error { return ctx.Err() }
func (Unlimited) Pause(time.Duration)            {}
