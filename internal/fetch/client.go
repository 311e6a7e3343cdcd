// Package fetch implements page retrieval: robots enforcement, per-domain
// pacing, retry with backoff, and optional headless escalation.
package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/pcrawley/contact-harvester/internal/contact"
	"github.com/pcrawley/contact-harvester/internal/metrics"
	"github.com/pcrawley/contact-harvester/internal/ratelimit"
)

// Renderer is the headless escalation hook. *HeadlessFetcher satisfies it;
// tests substitute fakes.
type Renderer interface {
	Render(ctx context.Context, rawURL string) ([]byte, error)
}

// Config controls Client behavior.
type Config struct {
	UserAgent  string
	Timeout    time.Duration
	MaxRetries int
}

// Client composes the fetch pipeline stages behind the contact.Fetcher
// interface. It is shared by the crawler and every fallback source, so all
// outbound traffic goes through one robots cache and one rate limiter.
type Client struct {
	cfg      Config
	static   *StaticFetcher
	renderer Renderer
	detector *Detector
	robots   RobotsPolicy
	limiter  *ratelimit.Limiter
	retry    *RetryPolicy
	clock    contact.Clock
	logger   *zap.Logger
}

// NewClient builds a Client. renderer and detector may be nil to disable
// headless escalation.
func NewClient(
	cfg Config,
	static *StaticFetcher,
	renderer Renderer,
	detector *Detector,
	robots RobotsPolicy,
	limiter *ratelimit.Limiter,
	clock contact.Clock,
	logger *zap.Logger,
) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = contact.SystemClock{}
	}
	return &Client{
		cfg:      cfg,
		static:   static,
		renderer: renderer,
		detector: detector,
		robots:   robots,
		limiter:  limiter,
		retry:    NewRetryPolicy(cfg.MaxRetries),
		clock:    clock,
		logger:   logger,
	}
}

// Fetch retrieves one page. Robots-disallowed URLs yield a blocked result
// without a network call and are never retried. Transient failures are
// retried with backoff; exhaustion yields an error-status result rather
// than a Go error so a single bad page never aborts a crawl.
func (c *Client) Fetch(ctx context.Context, rawURL string) (contact.PageFetchResult, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return contact.PageFetchResult{}, fmt.Errorf("parse url %q: %w", rawURL, err)
	}

	if !c.robots.Allowed(ctx, rawURL) {
		c.logger.Debug("blocked by robots.txt", zap.String("url", rawURL))
		metrics.FetchesTotal.WithLabelValues(string(contact.FetchBlocked)).Inc()
		return contact.PageFetchResult{
			URL:       rawURL,
			Status:    contact.FetchBlocked,
			FetchedAt: c.clock.Now(),
		}, nil
	}

	if err := c.limiter.Acquire(ctx, parsed.Host); err != nil {
		return contact.PageFetchResult{}, err
	}

	result, err := c.fetchWithRetries(ctx, rawURL)
	if err != nil {
		return contact.PageFetchResult{}, err
	}
	if result.Status == contact.FetchOK && c.shouldRender(result.Body) {
		result = c.escalate(ctx, result)
	}
	metrics.FetchesTotal.WithLabelValues(string(result.Status)).Inc()
	return result, nil
}

func (c *Client) fetchWithRetries(ctx context.Context, rawURL string) (contact.PageFetchResult, error) {
	var lastErr error
	for attempt := 0; ; attempt++ {
		finalURL, status, body, err := c.static.Get(ctx, rawURL)
		if err == nil {
			result, retryable := c.classify(rawURL, finalURL, status, body)
			if !retryable {
				return result, nil
			}
			lastErr = fmt.Errorf("http %d for %s", status, rawURL)
		} else {
			lastErr = err
		}
		if ctx.Err() != nil {
			return contact.PageFetchResult{}, fmt.Errorf("fetch %s: %w", rawURL, ctx.Err())
		}
		if !c.retry.ShouldRetry(lastErr, attempt) {
			c.logger.Debug("fetch gave up", zap.String("url", rawURL), zap.Error(lastErr))
			return contact.PageFetchResult{
				URL:       rawURL,
				Status:    contact.FetchError,
				FetchedAt: c.clock.Now(),
			}, nil
		}
		delay := c.retry.Backoff(attempt)
		c.logger.Debug("fetch retry",
			zap.String("url", rawURL), zap.Int("attempt", attempt+1),
			zap.Duration("backoff", delay), zap.Error(lastErr))
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return contact.PageFetchResult{}, fmt.Errorf("fetch backoff: %w", ctx.Err())
		case <-timer.C:
		}
	}
}

// classify turns an HTTP status into a terminal result or a retry signal.
// 403 and 429 mean the site is refusing us; retrying would only make that
// worse, so they are terminal errors. 5xx is worth another attempt.
func (c *Client) classify(requestURL, finalURL string, status int, body []byte) (contact.PageFetchResult, bool) {
	pageURL := finalURL
	if pageURL == "" {
		pageURL = requestURL
	}
	switch {
	case status >= 200 && status < 300:
		return contact.PageFetchResult{
			URL:        pageURL,
			Status:     contact.FetchOK,
			StatusCode: status,
			Body:       body,
			FetchedAt:  c.clock.Now(),
		}, false
	case status == http.StatusForbidden || status == http.StatusTooManyRequests:
		return contact.PageFetchResult{
			URL:        pageURL,
			Status:     contact.FetchError,
			StatusCode: status,
			FetchedAt:  c.clock.Now(),
		}, false
	case status >= 500:
		return contact.PageFetchResult{}, true
	default:
		return contact.PageFetchResult{
			URL:        pageURL,
			Status:     contact.FetchError,
			StatusCode: status,
			FetchedAt:  c.clock.Now(),
		}, false
	}
}

func (c *Client) shouldRender(body []byte) bool {
	return c.renderer != nil && c.detector != nil && c.detector.NeedsJS(body)
}

// escalate re-fetches through the headless browser, once per URL. On
// failure the static result stands.
func (c *Client) escalate(ctx context.Context, static contact.PageFetchResult) contact.PageFetchResult {
	body, err := c.renderer.Render(ctx, static.URL)
	if err != nil {
		c.logger.Warn("headless escalation failed", zap.String("url", static.URL), zap.Error(err))
		return static
	}
	metrics.HeadlessPromotions.Inc()
	rendered := static
	rendered.Body = body
	rendered.UsedHeadless = true
	return rendered
}
