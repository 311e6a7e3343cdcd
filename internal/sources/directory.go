package sources

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pcrawley/contact-harvester/internal/contact"
)

// YellowPagesSource scrapes the first listing of a yellow pages search.
// Directory markup churns constantly; selector misses degrade to an empty
// result rather than an error.
type YellowPagesSource struct {
	fetcher contact.Fetcher
	baseURL string
}

// NewYellowPagesSource builds the adapter. baseURL overrides the live
// endpoint in tests.
func NewYellowPagesSource(fetcher contact.Fetcher, baseURL string) *YellowPagesSource {
	if baseURL == "" {
		baseURL = "https://www.yellowpages.com/search"
	}
	return &YellowPagesSource{fetcher: fetcher, baseURL: baseURL}
}

// Name implements contact.Source.
func (s *YellowPagesSource) Name() string { return contact.SourceYellowPages }

// Attempt extracts phone and website from the first search result listing.
func (s *YellowPagesSource) Attempt(ctx context.Context, target contact.ResolvedTarget) ([]contact.RawCandidate, error) {
	name := companyName(target)
	if name == "" {
		return nil, nil
	}
	searchURL := s.baseURL + "?search_terms=" + url.QueryEscape(name) + "&geo_location_terms=USA"
	page, err := s.fetcher.Fetch(ctx, searchURL)
	if err != nil {
		return nil, fmt.Errorf("yellowpages fetch: %w", err)
	}
	if page.Status != contact.FetchOK {
		return nil, nil
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return nil, nil
	}

	listing := doc.Find("div.result").First()
	if listing.Length() == 0 {
		return nil, nil
	}
	var out []contact.RawCandidate
	if phone := strings.TrimSpace(listing.Find("div.phones").First().Text()); phone != "" {
		out = append(out, contact.RawCandidate{
			Kind:          contact.KindPhone,
			RawValue:      phone,
			SourcePageURL: searchURL,
		})
	}
	if site, ok := listing.Find("a.track-visit-website").First().Attr("href"); ok && site != "" {
		out = append(out, contact.RawCandidate{
			Kind:          contact.KindWebsite,
			RawValue:      site,
			SourcePageURL: searchURL,
		})
	}
	return out, nil
}

// YelpSource scans a review-site search page for a phone number and a
// business website redirect.
type YelpSource struct {
	fetcher contact.Fetcher
	baseURL string
}

// NewYelpSource builds the adapter. baseURL overrides the live endpoint in
// tests.
func NewYelpSource(fetcher contact.Fetcher, baseURL string) *YelpSource {
	if baseURL == "" {
		baseURL = "https://www.yelp.com/search"
	}
	return &YelpSource{fetcher: fetcher, baseURL: baseURL}
}

// Name implements contact.Source.
func (s *YelpSource) Name() string { return contact.SourceYelp }

// Attempt is best-effort: the site's structure changes frequently, so it
// falls back to a loose phone regex over the raw body.
func (s *YelpSource) Attempt(ctx context.Context, target contact.ResolvedTarget) ([]contact.RawCandidate, error) {
	name := companyName(target)
	if name == "" {
		return nil, nil
	}
	searchURL := s.baseURL + "?find_desc=" + url.QueryEscape(name)
	page, err := s.fetcher.Fetch(ctx, searchURL)
	if err != nil {
		return nil, fmt.Errorf("yelp fetch: %w", err)
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
	if doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body)); err == nil {
		doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			href, _ := sel.Attr("href")
			if strings.Contains(href, "/biz_redir?") {
				site := href
				if u, err := url.Parse(href); err == nil {
					if target := u.Query().Get("url"); target != "" {
						site = target
					}
				}
				out = append(out, contact.RawCandidate{
					Kind:          contact.KindWebsite,
					RawValue:      site,
					SourcePageURL: searchURL,
				})
				return false
			}
			return true
		})
	}
	return out, nil
}
