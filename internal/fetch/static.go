package fetch

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
)

// StaticFetcher performs plain HTTP retrievals through a Colly collector.
// Robots handling and retries live in the Client; the collector itself runs
// with robots disabled so policy decisions stay in one place.
type StaticFetcher struct {
	userAgent     string
	timeout       time.Duration
	transport     http.RoundTripper
	baseCollector *colly.Collector
}

// NewStaticFetcher builds a StaticFetcher with a pooled transport.
func NewStaticFetcher(userAgent string, timeout time.Duration) *StaticFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := colly.NewCollector(colly.Async(false))
	c.IgnoreRobotsTxt = true
	transport := newHTTPTransport()
	c.WithTransport(transport)
	return &StaticFetcher{
		userAgent:     userAgent,
		timeout:       timeout,
		transport:     transport,
		baseCollector: c,
	}
}

// Get executes a single HTTP GET and returns the final URL, status code,
// and body. Non-2xx statuses are returned without error so the caller can
// classify them.
func (f *StaticFetcher) Get(ctx context.Context, rawURL string) (string, int, []byte, error) {
	var (
		finalURL   string
		statusCode int
		body       []byte
		fetchErr   error
	)

	collector := f.baseCollector.Clone()
	collector.IgnoreRobotsTxt = true
	if f.userAgent != "" {
		collector.UserAgent = f.userAgent
	}
	collector.SetRequestTimeout(f.timeout)
	collector.WithTransport(f.transport)

	collector.OnResponse(func(r *colly.Response) {
		finalURL = r.Request.URL.String()
		statusCode = r.StatusCode
		body = append([]byte(nil), r.Body...)
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			// HTTP-level refusal: surface the status, not an error.
			finalURL = r.Request.URL.String()
			statusCode = r.StatusCode
			body = append([]byte(nil), r.Body...)
			return
		}
		fetchErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(rawURL)
	}()

	select {
	case <-ctx.Done():
		return "", 0, nil, fmt.Errorf("fetch canceled: %w", ctx.Err())
	case err := <-done:
		if fetchErr != nil {
			return "", 0, nil, fmt.Errorf("fetch %s: %w", rawURL, fetchErr)
		}
		if statusCode == 0 && err != nil {
			return "", 0, nil, fmt.Errorf("visit %s: %w", rawURL, err)
		}
		return finalURL, statusCode, body, nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
