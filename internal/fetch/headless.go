package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
)

// HeadlessFetcher renders pages in headless Chrome for sites whose static
// HTML is a JavaScript shell. A slot channel bounds concurrent browser tabs.
type HeadlessFetcher struct {
	userAgent   string
	navTimeout  time.Duration
	slots       chan struct{}
	allocator   context.Context
	allocCancel context.CancelFunc
}

// NewHeadlessFetcher creates a chromedp-backed fetcher.
func NewHeadlessFetcher(userAgent string, maxParallel int, navTimeout time.Duration) (*HeadlessFetcher, error) {
	if maxParallel <= 0 {
		return nil, fmt.Errorf("max parallel must be > 0")
	}
	if navTimeout <= 0 {
		navTimeout = 25 * time.Second
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &HeadlessFetcher{
		userAgent:   userAgent,
		navTimeout:  navTimeout,
		slots:       make(chan struct{}, maxParallel),
		allocator:   allocCtx,
		allocCancel: allocCancel,
	}, nil
}

// Close cancels the browser allocator.
func (f *HeadlessFetcher) Close() {
	f.allocCancel()
}

// Render navigates to the URL and returns the fully rendered DOM.
func (f *HeadlessFetcher) Render(ctx context.Context, rawURL string) ([]byte, error) {
	select {
	case f.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("headless slot wait canceled: %w", ctx.Err())
	}
	defer func() { <-f.slots }()

	taskCtx, taskCancel := chromedp.NewContext(f.allocator)
	defer taskCancel()
	taskCtx, cancel := context.WithTimeout(taskCtx, f.navTimeout)
	defer cancel()

	var html string
	actions := []chromedp.Action{
		chromedp.ActionFunc(func(ctx context.Context) error {
			if f.userAgent == "" {
				return nil
			}
			if err := emulation.SetUserAgentOverride(f.userAgent).Do(ctx); err != nil {
				return fmt.Errorf("set user-agent: %w", err)
			}
			return nil
		}),
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(500 * time.Millisecond),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	}
	if err := chromedp.Run(taskCtx, actions...); err != nil {
		return nil, fmt.Errorf("chromedp run: %w", err)
	}
	return []byte(html), nil
}
