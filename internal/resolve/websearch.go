package resolve

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/pcrawley/contact-harvester/internal/contact"
)

// Hosts that never count as an official company site in search results.
var aggregatorHosts = map[string]struct{}{
	"duckduckgo.com": {},
	"wikipedia.org":  {},
	"facebook.com":   {},
	"linkedin.com":   {},
	"twitter.com":    {},
	"x.com":          {},
	"instagram.com":  {},
	"youtube.com":    {},
	"yelp.com":       {},
}

// WebSearcher finds official company sites via DuckDuckGo's HTML endpoint.
// Search engines mediate access through their own terms rather than
// robots.txt paths, so searches go through the shared Fetcher for pacing
// but are exempt from the crawl's robots gate by construction (the fetcher
// already handles that per URL).
type WebSearcher struct {
	fetcher contact.Fetcher
	logger  *zap.Logger
}

// NewWebSearcher builds a WebSearcher over the shared fetch client.
func NewWebSearcher(fetcher contact.Fetcher, logger *zap.Logger) *WebSearcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebSearcher{fetcher: fetcher, logger: logger}
}

// FindOfficialSite returns the first organic result that looks like a
// company's own site, or "" when nothing plausible surfaced.
func (s *WebSearcher) FindOfficialSite(ctx context.Context, companyName string) (string, error) {
	searchURL := "https://html.duckduckgo.com/html/?q=" + url.QueryEscape(companyName+" official website")
	page, err := s.fetcher.Fetch(ctx, searchURL)
	if err != nil {
		return "", fmt.Errorf("search fetch: %w", err)
	}
	if page.Status != contact.FetchOK {
		return "", fmt.Errorf("search returned status %s", page.Status)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return "", fmt.Errorf("parse search results: %w", err)
	}

	var site string
	doc.Find("a.result__a").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		candidate := decodeRedirect(href)
		if plausibleCompanySite(candidate) {
			site = candidate
			return false
		}
		return true
	})
	if site == "" {
		s.logger.Debug("no plausible site in search results", zap.String("company", companyName))
	}
	return site, nil
}

// decodeRedirect unwraps DuckDuckGo's /l/?uddg=<escaped-url> result links.
func decodeRedirect(href string) string {
	if idx := strings.Index(href, "uddg="); idx >= 0 {
		encoded := href[idx+len("uddg="):]
		if amp := strings.IndexByte(encoded, '&'); amp >= 0 {
			encoded = encoded[:amp]
		}
		if decoded, err := url.QueryUnescape(encoded); err == nil {
			return decoded
		}
	}
	return href
}

func plausibleCompanySite(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return false
	}
	host := strings.ToLower(strings.TrimPrefix(u.Hostname(), "www."))
	for agg := range aggregatorHosts {
		if host == agg || strings.HasSuffix(host, "."+agg) {
			return false
		}
	}
	return true
}
