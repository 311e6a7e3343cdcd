package fetch

import (
	"context"
	"crypto/rand"
	"errors"
	"math"
	"math/big"
	"net"
	"time"
)

// RetryPolicy implements jittered exponential backoff for transient
// network failures. Robots blocks and 4xx refusals are never retried; that
// classification happens in the client, this type only answers "again?" and
// "after how long?".
type RetryPolicy struct {
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
}

// NewRetryPolicy builds a policy capped at maxAttempts total attempts.
func NewRetryPolicy(maxAttempts int) *RetryPolicy {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &RetryPolicy{
		maxAttempts: maxAttempts,
		baseDelay:   250 * time.Millisecond,
		maxDelay:    5 * time.Second,
	}
}

// ShouldRetry decides whether the error is retryable at the given attempt
// (zero-based).
func (p *RetryPolicy) ShouldRetry(err error, attempt int) bool {
	if err == nil {
		return false
	}
	if attempt >= p.maxAttempts-1 {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return true
}

// Backoff returns the wait duration before the next attempt.
func (p *RetryPolicy) Backoff(attempt int) time.Duration {
	delay := float64(p.baseDelay) * math.Pow(2, float64(attempt))
	if delay > float64(p.maxDelay) {
		delay = float64(p.maxDelay)
	}
	half := time.Duration(delay / 2)
	return half + randomJitter(half)
}

func randomJitter(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(limit)))
	if err != nil {
		return limit / 2
	}
	return time.Duration(n.Int64())
}
