package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tgbulkdl/pkg/config"
)

func TestTokenBucketBurst(t *testing.T) {
	tb := NewTokenBucket(1, 3)

	for i := 0; i < 3; i++ {
		assert.True(t, tb.Allow(), "request %d should be allowed within burst", i+1)
	}
	assert.False(t, tb.Allow(), "request beyond burst should be denied")
}

func TestTokenBucketWaitHonoursContext(t *testing.T) {
	tb := NewTokenBucket(1, 1)
	require.True(t, tb.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.Error(t, tb.Wait(ctx))
}

func TestPauseBlocksAllow(t *testing.T) {
	tb := NewTokenBucket(6000, 10)
	current := time.Now()
	tb.now = func() time.Time { return current }

	tb.Pause(time.Minute)
	assert.False(t, tb.Allow())

	// A shorter pause never shrinks the window
	tb.Pause(time.Second)
	current = current.Add(30 * time.Second)
	assert.False(t, tb.Allow())

	current = current.Add(31 * time.Second)
	assert.True(t, tb.Allow())
}

func TestPausedWaitReturnsOnCancel(t *testing.T) {
	tb := NewTokenBucket(6000, 10)
	tb.Pause(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, tb.Wait(ctx), context.Canceled)
}

func TestFromConfigAndUnlimited(t *testing.T) {
	tb := FromConfig(config.RateLimitConfig{RequestsPerMinute: 60, BurstSize: 2})
	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())

	var u Limiter = Unlimited{}
	assert.True(t, u.Allow())
	assert.NoError(t, u.Wait(context.Background()))
}
