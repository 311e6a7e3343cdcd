// Package resolve classifies raw company inputs and derives a crawlable
// website for each one.
package resolve

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pcrawley/contact-harvester/internal/contact"
)

var (
	urlSchemePattern = regexp.MustCompile(`(?i)^https?://`)
	wwwPattern       = regexp.MustCompile(`(?i)^www\.`)
	tldPattern       = regexp.MustCompile(`(?i)\.(com|org|net|io|co|biz|info|edu|gov)(/|:|$)`)
	nonSlugChars     = regexp.MustCompile(`[^a-z0-9\s-]`)
	corpSuffix       = regexp.MustCompile(`\s+(inc|llc|ltd|corp|corporation|company|co)\.?$`)
)

// Searcher finds candidate websites for a bare company name. *WebSearcher
// implements it over DuckDuckGo's HTML endpoint.
type Searcher interface {
	FindOfficialSite(ctx context.Context, companyName string) (string, error)
}

// Resolver turns a CompanyInput into a ResolvedTarget. For URLs the domain
// is taken directly. For names it guesses slug+.com, verifies the guess
// with one probe request, and falls back to web search. Resolution failure
// is not an error; it yields a target with an empty CandidateDomain which
// fast-tracks the pipeline to the fallback chain.
type Resolver struct {
	probe    *http.Client
	searcher Searcher
	logger   *zap.Logger
}

// New builds a Resolver. searcher may be nil to disable the search fallback.
func New(searcher Searcher, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		probe: &http.Client{
			Timeout: 10 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		searcher: searcher,
		logger:   logger,
	}
}

// ClassifyInput detects whether the text is a URL or a bare company name
// and returns the normalized form.
func ClassifyInput(text string) (contact.InputType, string) {
	text = strings.TrimSpace(text)
	if urlSchemePattern.MatchString(text) {
		return contact.InputTypeURL, text
	}
	if wwwPattern.MatchString(text) || tldPattern.MatchString(text) {
		return contact.InputTypeURL, "https://" + strings.TrimPrefix(text, "www.")
	}
	return contact.InputTypeName, text
}

// Resolve produces the crawl target for one input.
func (r *Resolver) Resolve(ctx context.Context, input contact.CompanyInput) contact.ResolvedTarget {
	inputType, normalized := ClassifyInput(input.OriginalText)
	input.InputType = inputType

	if inputType == contact.InputTypeURL {
		return r.resolveURL(input, normalized)
	}
	return r.resolveName(ctx, input, normalized)
}

func (r *Resolver) resolveURL(input contact.CompanyInput, normalized string) contact.ResolvedTarget {
	target := contact.ResolvedTarget{Input: input, Confidence: contact.ConfidenceHigh}
	parsed, err := url.Parse(normalized)
	if err != nil || parsed.Host == "" {
		target.Confidence = contact.ConfidenceLow
		return target
	}
	domain := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
	target.CandidateDomain = domain
	target.WebsiteURL = normalized
	// Company name guessed from the leftmost domain label.
	if label, _, found := strings.Cut(domain, "."); found && label != "" {
		target.CompanyName = strings.ToUpper(label[:1]) + label[1:]
	}
	return target
}

func (r *Resolver) resolveName(ctx context.Context, input contact.CompanyInput, name string) contact.ResolvedTarget {
	target := contact.ResolvedTarget{
		Input:       input,
		CompanyName: name,
		Confidence:  contact.ConfidenceLow,
	}

	if guess := SlugDomain(name); guess != "" {
		guessURL := "https://" + guess
		if r.verify(ctx, guessURL) {
			target.CandidateDomain = guess
			target.WebsiteURL = guessURL
			return target
		}
	}

	if r.searcher != nil {
		site, err := r.searcher.FindOfficialSite(ctx, name)
		if err != nil {
			r.logger.Debug("web search failed", zap.String("company", name), zap.Error(err))
		} else if site != "" {
			if parsed, err := url.Parse(site); err == nil && parsed.Host != "" {
				target.CandidateDomain = strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
				target.WebsiteURL = site
				return target
			}
		}
	}

	// No plausible domain; the pipeline falls through to external sources.
	return target
}

// SlugDomain derives the cheap candidate domain for a company name:
// "Acme Widgets Inc" -> "acmewidgets.com".
func SlugDomain(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = nonSlugChars.ReplaceAllString(slug, "")
	slug = corpSuffix.ReplaceAllString(slug, "")
	slug = strings.Join(strings.Fields(slug), "")
	if slug == "" {
		return ""
	}
	return slug + ".com"
}

// verify issues the single confirmation fetch for a guessed domain.
func (r *Resolver) verify(ctx context.Context, rawURL string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return false
	}
	resp, err := r.probe.Do(req)
	if err != nil {
		return false
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			r.logger.Debug("close probe body", zap.Error(cerr))
		}
	}()
	return resp.StatusCode < 400
}

// Describe renders the resolution verdict for notes.
func Describe(target contact.ResolvedTarget) string {
	if target.CandidateDomain == "" {
		return fmt.Sprintf("no website resolved for %q", target.Input.OriginalText)
	}
	return fmt.Sprintf("resolved %q to %s (%s confidence)",
		target.Input.OriginalText, target.CandidateDomain, target.Confidence)
}
