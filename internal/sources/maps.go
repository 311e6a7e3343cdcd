package sources

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pcrawley/contact-harvester/internal/contact"
)

// Loose phone shape used when scanning directory result pages; real
// validation happens in the normalizer.
var directoryPhonePattern = regexp.MustCompile(`[+(]?[1-9][0-9 .\-()]{8,}[0-9]`)

// MapsSource queries the public maps search page for a business listing.
// Anti-scraping measures make this a best-effort adapter: a blocked or
// restructured page simply yields nothing.
type MapsSource struct {
	fetcher contact.Fetcher
	baseURL string
}

// NewMapsSource builds the adapter. baseURL overrides the live endpoint in
// tests; empty selects the default.
func NewMapsSource(fetcher contact.Fetcher, baseURL string) *MapsSource {
	if baseURL == "" {
		baseURL = "https://www.google.com/maps/search/"
	}
	return &MapsSource{fetcher: fetcher, baseURL: baseURL}
}

// Name implements contact.Source.
func (s *MapsSource) Name() string { return contact.SourceMaps }

// Attempt searches for the company and extracts the first phone-looking
// match plus the first external link as a website hint.
func (s *MapsSource) Attempt(ctx context.Context, target contact.ResolvedTarget) ([]contact.RawCandidate, error) {
	name := companyName(target)
	if name == "" {
		return nil, nil
	}
	searchURL := s.baseURL + url.PathEscape(name)
	page, err := s.fetcher.Fetch(ctx, searchURL)
	if err != nil {
		return nil, fmt.Errorf("maps fetch: %w", err)
	}
	if page.Status != contact.FetchOK {
		return nil, nil
	}

	var out []contact.RawCandidate
	if phone := directoryPhonePattern.FindString(string(page.Body)); phone != "" {
		out = append(out, contact.RawCandidate{
			Kind:          contact.KindPhone,
			RawValue:      phone,
			SourcePageURL: searchURL,
		})
	}
	if site := firstExternalLink(page.Body, "google.com", "maps"); site != "" {
		out = append(out, contact.RawCandidate{
			Kind:          contact.KindWebsite,
			RawValue:      site,
			SourcePageURL: searchURL,
		})
	}
	return out, nil
}

// companyName picks the best available name for directory queries.
func companyName(target contact.ResolvedTarget) string {
	if target.CompanyName != "" {
		return target.CompanyName
	}
	return strings.TrimSpace(target.Input.OriginalText)
}

// firstExternalLink returns the first absolute link whose host contains
// none of the excluded substrings.
func firstExternalLink(body []byte, excluded ...string) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	var found string
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		if !strings.HasPrefix(href, "http") {
			return true
		}
		lower := strings.ToLower(href)
		for _, ex := range excluded {
			if strings.Contains(lower, ex) {
				return true
			}
		}
		found = href
		return false
	})
	return found
}
