// Package metrics registers the Prometheus collectors shared across the
// pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FetchesTotal counts page fetches by terminal outcome (ok, blocked, error).
	FetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "contact_harvester_fetches_total",
		Help: "Page fetches by outcome.",
	}, []string{"outcome"})

	// HeadlessPromotions counts escalations to the browser-backed fetcher.
	HeadlessPromotions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "contact_harvester_headless_promotions_total",
		Help: "Fetches escalated to headless rendering.",
	})

	// RateLimitDelay observes time spent waiting on the per-domain limiter.
	RateLimitDelay = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "contact_harvester_rate_limit_delay_seconds",
		Help:    "Delay introduced by the per-domain rate limiter.",
		Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
	})

	// CompaniesProcessed counts finished company pipelines by extraction status.
	CompaniesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "contact_harvester_companies_processed_total",
		Help: "Company pipelines completed, by extraction status.",
	}, []string{"status"})

	// ValuesFound counts canonical values merged into records by kind.
	ValuesFound = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "contact_harvester_values_found_total",
		Help: "Canonical contact values merged into records, by kind.",
	}, []string{"kind"})

	// FallbackAttempts counts fallback source invocations by source and result.
	FallbackAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "contact_harvester_fallback_attempts_total",
		Help: "Fallback source attempts, by source and result.",
	}, []string{"source", "result"})
)

// ObserveRateLimitDelay records a limiter wait if it was long enough to
// matter.
func ObserveRateLimitDelay(d time.Duration) {
	if d > time.Millisecond {
		RateLimitDelay.Observe(d.Seconds())
	}
}
