package notify

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryDelayGrowsExponentially(t *testing.T) {
	rs := DefaultRetryStrategy()

	assert.Equal(t, time.Second, rs.Delay(1))
	assert.Equal(t, 2*time.Second, rs.Delay(2))
	assert.Equal(t, 4*time.Second, rs.Delay(3))
	assert.Equal(t, time.Duration(0), rs.Delay(0))
}

func TestRetryDelayCapped(t *testing.T) {
	rs := RetryStrategy{
		MaxAttempts:  10,
		InitialDelay: time.Second,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
	}

	assert.Equal(t, 4*time.Second, rs.Delay(3))
	assert.Equal(t, 5*time.Second, rs.Delay(4))
	assert.Equal(t, 5*time.Second, rs.Delay(8))
}

func TestShouldRetryDecisions(t *testing.T) {
	rs := DefaultRetryStrategy()

	// Network errors retry
	assert.True(t, rs.ShouldRetry(1, 0, errors.New("connection refused")))

	// Server errors and rate limiting retry
	assert.True(t, rs.ShouldRetry(1, 500, nil))
	assert.True(t, rs.ShouldRetry(2, 503, errors.New("status")))
	assert.True(t, rs.ShouldRetry(1, 429, nil))

	// Other client errors do not
	assert.False(t, rs.ShouldRetry(1, 400, nil))
	assert.False(t, rs.ShouldRetry(1, 404, nil))

	// Attempt budget exhausted
	assert.False(t, rs.ShouldRetry(3, 500, nil))
}
