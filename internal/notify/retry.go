package notify

import (
	"math"
	"time"
)

// RetryStrategy is the exponential-backoff policy for webhook delivery
type RetryStrategy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultRetryStrategy returns the delivery policy used by the notifier
func DefaultRetryStrategy() RetryStrategy {
	return RetryStrategy{
		MaxAttempts:  3,
		InitialDelay: time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}

// Delay computes the backoff before the next attempt:
// min(initial * multiplier^(attempt-1), max)
func (rs RetryStrategy) Delay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	delay := float64(rs.InitialDelay) * math.Pow(rs.Multiplier, float64(attempt-1))
	if delay > float64(rs.MaxDelay) {
		delay = float64(rs.MaxDelay)
	}

	return time.Duration(delay)
}

// ShouldRetry decides whether another attempt is worthwhile. Network errors
// and server-side failures retry; client errors (except rate limiting) do
// not.
func (rs RetryStrategy) ShouldRetry(attempt int, statusCode int, err error) bool {
	if attempt >= rs.MaxAttempts {
		return false
	}

	if err != nil && statusCode == 0 {
		return true
	}

	switch {
	case statusCode == 429:
		return true
	case statusCode >= 500 && statusCode < 600:
		return true
	case statusCode >= 400 && statusCode < 500:
		return false
	case statusCode >= 300:
		return true
	}

	return false
}
