// Package crawlsite drives the bounded per-company site crawl: fetch the
// root and contact-relevant pages of one domain, extract candidates from
// each, and merge them into the running record.
package crawlsite

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/pcrawley/contact-harvester/internal/contact"
	"github.com/pcrawley/contact-harvester/internal/extract"
	"github.com/pcrawley/contact-harvester/internal/ratelimit"
	"github.com/pcrawley/contact-harvester/internal/record"
)

// Paths seeded ahead of link discovery; the pages most likely to carry
// contact data.
var priorityPaths = []string{
	"/contact", "/contact-us", "/about", "/about-us", "/team", "/people",
}

// Config bounds a crawl.
type Config struct {
	MaxPages int
	MaxDepth int
	// StopWhenSufficient ends the crawl early once the record holds at
	// least one phone and one email. Off by default: crawling to budget
	// exhaustion maximizes recall within the bounded cost.
	StopWhenSufficient bool
}

// Crawler runs the per-company crawl state machine.
type Crawler struct {
	fetcher contact.Fetcher
	norm    record.Normalizer
	cfg     Config
	logger  *zap.Logger
}

// New builds a Crawler.
func New(fetcher contact.Fetcher, norm record.Normalizer, cfg Config, logger *zap.Logger) *Crawler {
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 10
	}
	if cfg.MaxDepth < 0 {
		cfg.MaxDepth = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Crawler{fetcher: fetcher, norm: norm, cfg: cfg, logger: logger}
}

// frontier is a two-bucket queue: contact-relevant tasks drain before the
// rest, biasing the page budget toward information-dense pages.
type frontier struct {
	high []contact.CrawlTask
	low  []contact.CrawlTask
}

func (f *frontier) push(task contact.CrawlTask, relevant bool) {
	if relevant {
		f.high = append(f.high, task)
		return
	}
	f.low = append(f.low, task)
}

func (f *frontier) pop() (contact.CrawlTask, bool) {
	if len(f.high) > 0 {
		task := f.high[0]
		f.high = f.high[1:]
		return task, true
	}
	if len(f.low) > 0 {
		task := f.low[0]
		f.low = f.low[1:]
		return task, true
	}
	return contact.CrawlTask{}, false
}

// Crawl fetches up to MaxPages same-domain pages starting at the target's
// website root and merges extracted candidates into rec under the website
// source tag. A failed page is skipped; only a failed root aborts, with
// ErrDomainUnreachable, or ErrRobotsDisallowed when robots.txt forbids it.
func (c *Crawler) Crawl(ctx context.Context, target contact.ResolvedTarget, rec *contact.ContactRecord) error {
	rootURL := target.WebsiteURL
	if rootURL == "" {
		if target.CandidateDomain == "" {
			return contact.ErrDomainUnreachable
		}
		rootURL = "https://" + target.CandidateDomain
	}
	base, err := url.Parse(rootURL)
	if err != nil || base.Host == "" {
		return fmt.Errorf("bad root url %q: %w", rootURL, err)
	}
	domain := ratelimit.RegistrableDomain(base.Hostname())

	visited := make(map[string]struct{})
	var q frontier

	rootPage, err := c.fetchRoot(ctx, rootURL, visited)
	if err != nil {
		return err
	}
	fetched := 1
	c.consumePage(rec, rootPage, &q, domain, visited, 0)

	for _, p := range priorityPaths {
		ref := *base
		ref.Path = p
		c.enqueue(&q, contact.CrawlTask{Domain: domain, URL: ref.String(), Depth: 1}, true, visited, domain)
	}

	for fetched < c.cfg.MaxPages {
		if ctx.Err() != nil {
			return fmt.Errorf("crawl canceled: %w", ctx.Err())
		}
		if c.cfg.StopWhenSufficient && len(rec.Phones) > 0 && len(rec.Emails) > 0 {
			break
		}
		task, more := q.pop()
		if !more {
			break
		}
		page, err := c.fetcher.Fetch(ctx, task.URL)
		if err != nil {
			return fmt.Errorf("crawl fetch: %w", err)
		}
		fetched++
		switch page.Status {
		case contact.FetchOK:
			c.consumePage(rec, page, &q, domain, visited, task.Depth)
		case contact.FetchBlocked:
			c.logger.Debug("page blocked by robots", zap.String("url", task.URL))
		default:
			c.logger.Debug("page fetch failed, skipping", zap.String("url", task.URL))
			rec.AppendNote(fmt.Sprintf("Failed to fetch %s.", task.URL))
		}
	}
	return nil
}

func (c *Crawler) fetchRoot(ctx context.Context, rootURL string, visited map[string]struct{}) (contact.PageFetchResult, error) {
	if norm, err := NormalizeURL(rootURL); err == nil {
		visited[norm] = struct{}{}
	}
	page, err := c.fetcher.Fetch(ctx, rootURL)
	if err != nil {
		return contact.PageFetchResult{}, contact.ErrDomainUnreachable
	}
	switch page.Status {
	case contact.FetchOK:
		return page, nil
	case contact.FetchBlocked:
		return contact.PageFetchResult{}, contact.ErrRobotsDisallowed
	default:
		return contact.PageFetchResult{}, contact.ErrDomainUnreachable
	}
}

// consumePage extracts candidates, merges them, and enqueues same-domain
// links discovered on the page.
func (c *Crawler) consumePage(
	rec *contact.ContactRecord,
	page contact.PageFetchResult,
	q *frontier,
	domain string,
	visited map[string]struct{},
	depth int,
) {
	candidates := extract.Page(page)
	delta := c.norm.Merge(rec, candidates, contact.SourceWebsite)
	c.logger.Debug("page processed",
		zap.String("url", page.URL),
		zap.Int("phones_added", delta.Phones),
		zap.Int("emails_added", delta.Emails))

	if depth >= c.cfg.MaxDepth {
		return
	}
	for _, link := range extract.SameSiteLinks(page.Body, page.URL) {
		c.enqueue(q, contact.CrawlTask{Domain: domain, URL: link.URL, Depth: depth + 1}, link.ContactRelevant, visited, domain)
	}
}

// enqueue admits a task if it is within depth bounds, on the crawl's
// registrable domain, and not yet visited. The visited set is keyed by
// normalized URL so link cycles cannot inflate the budget.
func (c *Crawler) enqueue(q *frontier, task contact.CrawlTask, relevant bool, visited map[string]struct{}, domain string) {
	if task.Depth > c.cfg.MaxDepth {
		return
	}
	parsed, err := url.Parse(task.URL)
	if err != nil || parsed.Host == "" {
		return
	}
	if ratelimit.RegistrableDomain(parsed.Hostname()) != domain {
		return
	}
	if !strings.HasPrefix(parsed.Scheme, "http") {
		return
	}
	norm, err := NormalizeURL(task.URL)
	if err != nil {
		return
	}
	if _, seen := visited[norm]; seen {
		return
	}
	visited[norm] = struct{}{}
	q.push(task, relevant)
}
