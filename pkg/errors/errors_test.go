package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeForStatus(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorType
		retry  bool
	}{
		{0, ErrorTypeNetwork, true},
		{429, ErrorTypeRateLimit, true},
		{401, ErrorTypeAuth, false},
		{403, ErrorTypeAuth, false},
		{404, ErrorTypeNotFound, false},
		{500, ErrorTypeServerError, true},
		{503, ErrorTypeServerError, true},
		{400, ErrorTypeUnknown, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, TypeForStatus(tt.status))
			assert.Equal(t, tt.retry, IsRetryableStatusCode(tt.status))
		})
	}
}

func TestTypeOfWrapped(t *testing.T) {
	base := New(ErrorTypeForumMissing, 400, "peer %d has no forum", 42)
	wrapped := fmt.Errorf("topic lookup: %w", base)

	assert.Equal(t, ErrorTypeForumMissing, TypeOf(wrapped))
	assert.True(t, Is(wrapped, ErrorTypeForumMissing))
	assert.False(t, Is(wrapped, ErrorTypeNotFound))
	assert.Equal(t, ErrorTypeUnknown, TypeOf(fmt.Errorf("plain")))
	assert.Equal(t, "forum_missing error (code 400): peer 42 has no forum", base.Error())
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrorTypeRateLimit))
	assert.False(t, IsRetryable(ErrorTypePasswordNeeded))
	assert.False(t, IsRetryable(ErrorTypeForumMissing))
	assert.False(t, IsRetryable(ErrorTypeUnknown))
}
