// Package ratelimit paces fetches per registrable domain so that no two
// requests to the same site run closer together than the configured
// interval, regardless of how many company pipelines target it.
package ratelimit

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"

	"github.com/pcrawley/contact-harvester/internal/metrics"
)

// Limiter manages one token bucket per registrable domain. A burst of one
// with a refill of one token per interval serializes grants per domain;
// unrelated domains proceed independently.
type Limiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	interval time.Duration
}

// New creates a Limiter. A non-positive interval disables pacing.
func New(interval time.Duration) *Limiter {
	return &Limiter{
		limiters: make(map[string]*rate.Limiter),
		interval: interval,
	}
}

// Acquire blocks until the domain's bucket grants a token, honoring ctx.
func (l *Limiter) Acquire(ctx context.Context, host string) error {
	if l == nil || l.interval <= 0 {
		return nil
	}
	key := RegistrableDomain(host)

	l.mu.Lock()
	limiter, ok := l.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(l.interval), 1)
		l.limiters[key] = limiter
	}
	l.mu.Unlock()

	start := time.Now()
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait for %s: %w", key, err)
	}
	metrics.ObserveRateLimitDelay(time.Since(start))
	return nil
}

// RegistrableDomain reduces a hostname to its pay-level domain so subdomains
// share one budget (www.example.com and shop.example.com -> example.com).
// Hosts without a public suffix (localhost, IPs) are used as-is.
func RegistrableDomain(host string) string {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if etld, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		return etld
	}
	return host
}
