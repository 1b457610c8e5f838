package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tgbulkdl/pkg/config"
	errs "tgbulkdl/pkg/errors"
	"tgbulkdl/pkg/logger"
)

func transient() error {
	return &errs.Error{Type: errs.ErrorTypeServerError, Message: "bad gateway", Code: 502}
}

func TestExponentialBackoff(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:    100 * time.Millisecond,
		MaxDelay:     1 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.0,
	}

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 0},
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, 1 * time.Second},
		{6, 1 * time.Second},
	}

	for _, test := range tests {
		if delay := backoff.NextDelay(test.attempt); delay != test.expected {
			t.Errorf("Attempt %d: expected %v, got %v", test.attempt, test.expected, delay)
		}
	}
}

func TestExponentialBackoffJitterStaysInBounds(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:    100 * time.Millisecond,
		MaxDelay:     1 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.3,
	}

	for i := 0; i < 50; i++ {
		delay := backoff.NextDelay(2)
		assert.GreaterOrEqual(t, delay, 140*time.Millisecond)
		assert.LessOrEqual(t, delay, 260*time.Millisecond)
	}
}

func TestRetryWithSuccess(t *testing.T) {
	attempts := 0
	cfg := &Config{
		MaxAttempts: 5,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
	}

	err := Do(context.Background(), cfg, func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return transient()
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryWithMaxAttemptsExceeded(t *testing.T) {
	attempts := 0
	tl := logger.NewTestLogger()
	cfg := &Config{
		MaxAttempts: 3,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
		Logger:      tl,
	}

	err := Do(context.Background(), cfg, func(ctx context.Context) error {
		attempts++
		return transient()
	})

	require.Error(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, errs.ErrorTypeServerError, errs.TypeOf(err))
	assert.True(t, tl.HasMessage("max retry attempts exceeded"))
	assert.Len(t, tl.GetMessagesByLevel("WARN"), 3)
}

func TestRetryWithNonRetryableError(t *testing.T) {
	attempts := 0
	authError := &errs.Error{Type: errs.ErrorTypeAuth, Message: "authentication required", Code: 401}

	err := Do(context.Background(), DefaultConfig(), func(ctx context.Context) error {
		attempts++
		return authError
	})

	assert.Same(t, authError, err)
	assert.Equal(t, 1, attempts)
}

func TestUnclassifiedErrorsAreNotRetried(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), DefaultConfig(), func(ctx context.Context) error {
		attempts++
		return errors.New("disk full")
	})

	assert.EqualError(t, err, "disk full")
	assert.Equal(t, 1, attempts)
}

func TestRetryWithContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0

	cfg := &Config{
		MaxAttempts: 5,
		Backoff:     &ConstantBackoff{Delay: time.Second},
	}

	err := Do(ctx, cfg, func(ctx context.Context) error {
		attempts++
		cancel()
		return transient()
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestFloodWaitOverridesBackoff(t *testing.T) {
	var delays []time.Duration
	cfg := &Config{
		MaxAttempts: 2,
		Backoff:     &ConstantBackoff{Delay: time.Hour},
		MaxDelay:    5 * time.Millisecond,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			delays = append(delays, delay)
		},
	}

	attempts := 0
	err := Do(context.Background(), cfg, func(ctx context.Context) error {
		attempts++
		if attempts == 1 {
			return &errs.Error{Type: errs.ErrorTypeRateLimit, Code: 420, RetryAfter: time.Minute}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []time.Duration{5 * time.Millisecond}, delays)
}

func TestFromConfig(t *testing.T) {
	cfg := FromConfig(config.RetryConfig{
		MaxAttempts: 4,
		BaseDelay:   time.Second,
		MaxDelay:    10 * time.Second,
	}, nil)

	assert.Equal(t, 4, cfg.MaxAttempts)
	assert.Equal(t, 10*time.Second, cfg.MaxDelay)
	assert.NotNil(t, cfg.Logger)
}

func TestDoWithResult(t *testing.T) {
	attempts := 0
	cfg := &Config{
		MaxAttempts: 3,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
	}

	result, err := DoWithResult(context.Background(), cfg, func(ctx context.Context) (string, error) {
		attempts++
		if attempts < 2 {
			return "", transient()
		}
		return "success", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "success", result)
	assert.Equal(t, 2, attempts)
}
