package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
	"go.uber.org/zap"
)

// RobotsPolicy decides whether a URL may be fetched.
type RobotsPolicy interface {
	Allowed(ctx context.Context, rawURL string) bool
}

// RobotsEnforcer enforces robots.txt directives with a cached ruleset per
// host. Rulesets are fetched once and shared across all pipelines; the
// cache is the only mutable state and sync.Map scopes access per host entry.
type RobotsEnforcer struct {
	client    *http.Client
	cache     sync.Map
	userAgent string
	logger    *zap.Logger
}

// NewRobotsPolicy builds a policy respecting the config toggle.
func NewRobotsPolicy(respect bool, userAgent string, logger *zap.Logger) RobotsPolicy {
	if !respect {
		return allowAllPolicy{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RobotsEnforcer{
		client:    &http.Client{Timeout: 10 * time.Second},
		userAgent: userAgent,
		logger:    logger,
	}
}

// Allowed implements RobotsPolicy. Fetch or parse failures fail open: when
// a site's robots.txt cannot be read the URL is allowed, matching crawler
// convention.
func (r *RobotsEnforcer) Allowed(ctx context.Context, rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	data, err := r.load(ctx, parsed)
	if err != nil {
		r.logger.Warn("robots fetch failed; allowing access",
			zap.String("host", parsed.Host), zap.Error(err))
		return true
	}
	group := data.FindGroup(r.userAgent)
	if group == nil {
		return true
	}
	return group.Test(parsed.Path)
}

func (r *RobotsEnforcer) load(ctx context.Context, parsed *url.URL) (*robotstxt.RobotsData, error) {
	hostKey := strings.ToLower(parsed.Host)
	if data, ok := r.cache.Load(hostKey); ok {
		cached, castOK := data.(*robotstxt.RobotsData)
		if !castOK {
			return nil, fmt.Errorf("robots cache type mismatch: %T", data)
		}
		return cached, nil
	}

	robotsURL := *parsed
	robotsURL.Path = path.Join("/", "robots.txt")
	robotsURL.RawQuery = ""
	robotsURL.Fragment = ""
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("new robots request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			r.logger.Debug("close robots response body", zap.Error(cerr))
		}
	}()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read robots body: %w", err)
	}
	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return nil, fmt.Errorf("parse robots: %w", err)
	}
	r.cache.Store(hostKey, data)
	return data, nil
}

type allowAllPolicy struct{}

func (allowAllPolicy) Allowed(context.Context, string) bool { return true }
