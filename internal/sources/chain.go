// Package sources implements the fallback chain of external directory
// adapters consulted when the primary crawl under-delivers.
package sources

import (
	"context"

	"go.uber.org/zap"

	"github.com/pcrawley/contact-harvester/internal/contact"
	"github.com/pcrawley/contact-harvester/internal/metrics"
	"github.com/pcrawley/contact-harvester/internal/record"
)

// Gate is the configurable "insufficient data" predicate deciding whether
// the chain runs at all.
type Gate struct {
	// TriggerOnAnyMissing runs the chain when either a phone or an email is
	// missing. The default (false) requires both to be absent.
	TriggerOnAnyMissing bool
}

// Insufficient reports whether the post-crawl record justifies querying
// external sources.
func (g Gate) Insufficient(rec *contact.ContactRecord) bool {
	phoneMissing := len(rec.Phones) == 0
	emailMissing := len(rec.Emails) == 0
	if g.TriggerOnAnyMissing {
		return phoneMissing || emailMissing
	}
	return phoneMissing && emailMissing
}

// Chain holds the ordered source adapters. Higher-reliability sources come
// first and the chain stops at the first adapter that contributes a new
// phone or email, so data is never attributed to a low-reliability source
// when a better one sufficed.
type Chain struct {
	sources []contact.Source
	norm    record.Normalizer
	logger  *zap.Logger
}

// NewChain builds a Chain over the given adapters, in priority order.
func NewChain(norm record.Normalizer, logger *zap.Logger, srcs ...contact.Source) *Chain {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chain{sources: srcs, norm: norm, logger: logger}
}

// Run walks the chain, merging each adapter's candidates under its own
// source tag. Adapter errors are logged and the chain continues; the next
// source may still deliver. Cancellation is checked between adapters, never
// mid-attempt.
func (c *Chain) Run(ctx context.Context, target contact.ResolvedTarget, rec *contact.ContactRecord) {
	for _, src := range c.sources {
		if ctx.Err() != nil {
			return
		}
		candidates, err := src.Attempt(ctx, target)
		if err != nil {
			metrics.FallbackAttempts.WithLabelValues(src.Name(), "error").Inc()
			c.logger.Warn("fallback source failed",
				zap.String("source", src.Name()),
				zap.String("company", target.Input.OriginalText),
				zap.Error(err))
			continue
		}
		delta := c.norm.Merge(rec, candidates, src.Name())
		if delta.ContributedContact() {
			metrics.FallbackAttempts.WithLabelValues(src.Name(), "hit").Inc()
			rec.AppendNote("Found on " + src.Name() + ".")
			return
		}
		metrics.FallbackAttempts.WithLabelValues(src.Name(), "miss").Inc()
	}
}
