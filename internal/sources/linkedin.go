package sources

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pcrawley/contact-harvester/internal/contact"
)

var (
	linkedinSlugChars  = regexp.MustCompile(`[^a-z0-9\s-]`)
	linkedinSlugSuffix = regexp.MustCompile(`-(inc|llc|ltd|corporation|corp)$`)
)

// LinkedInSource tries the public company page at /company/<slug>. The
// professional network aggressively blocks anonymous scrapers, so this
// adapter mostly contributes the profile link itself plus a website hint;
// it rarely satisfies the chain's stop predicate on its own.
type LinkedInSource struct {
	fetcher contact.Fetcher
	baseURL string
}

// NewLinkedInSource builds the adapter. baseURL overrides the live
// endpoint in tests.
func NewLinkedInSource(fetcher contact.Fetcher, baseURL string) *LinkedInSource {
	if baseURL == "" {
		baseURL = "https://www.linkedin.com/company/"
	}
	return &LinkedInSource{fetcher: fetcher, baseURL: baseURL}
}

// Name implements contact.Source.
func (s *LinkedInSource) Name() string { return contact.SourceLinkedIn }

// Attempt fetches the constructed company page and pulls the external
// website link out of it.
func (s *LinkedInSource) Attempt(ctx context.Context, target contact.ResolvedTarget) ([]contact.RawCandidate, error) {
	slug := CompanySlug(companyName(target))
	if slug == "" {
		return nil, nil
	}
	pageURL := s.baseURL + slug
	page, err := s.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("linkedin fetch: %w", err)
	}
	// The site answers scrapers with status 999; the fetcher surfaces that
	// as an error result. Either way there is nothing to parse.
	if page.Status != contact.FetchOK {
		return nil, nil
	}

	out := []contact.RawCandidate{{
		Kind:          contact.KindSocial,
		RawValue:      pageURL,
		Platform:      "linkedin",
		SourcePageURL: pageURL,
	}}
	if site := externalWebsite(page.Body); site != "" {
		out = append(out, contact.RawCandidate{
			Kind:          contact.KindWebsite,
			RawValue:      site,
			SourcePageURL: pageURL,
		})
	}
	return out, nil
}

// CompanySlug normalizes a company name into the path segment the
// professional network uses: "Acme Widgets Inc" -> "acme-widgets".
func CompanySlug(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = linkedinSlugChars.ReplaceAllString(slug, "")
	slug = strings.Join(strings.Fields(slug), "-")
	slug = linkedinSlugSuffix.ReplaceAllString(slug, "")
	return slug
}

// externalWebsite returns the first off-network link on the page, tracking
// params removed.
func externalWebsite(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	var found string
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		if !strings.HasPrefix(href, "http") || strings.Contains(strings.ToLower(href), "linkedin.com") {
			return true
		}
		if idx := strings.Index(href, "?trk="); idx >= 0 {
			href = href[:idx]
		}
		found = href
		return false
	})
	return found
}
