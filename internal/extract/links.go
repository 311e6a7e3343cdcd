package extract

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// contactKeywords flag links that tend to lead to information-dense pages.
var contactKeywords = []string{
	"contact", "about", "team", "staff", "people",
	"connect", "reach", "get-in-touch", "support",
	"help", "office", "location", "address",
}

// Link is one same-site anchor discovered on a page.
type Link struct {
	URL string
	// ContactRelevant marks links whose URL or text suggests a contact,
	// about, or team page; the crawler fetches these first.
	ContactRelevant bool
}

// IsContactRelevant reports whether a URL or its anchor text suggests a
// contact page.
func IsContactRelevant(rawURL, text string) bool {
	haystack := strings.ToLower(rawURL + " " + text)
	for _, kw := range contactKeywords {
		if strings.Contains(haystack, kw) {
			return true
		}
	}
	return false
}

// SameSiteLinks returns the absolute same-host links found in body,
// contact-relevance annotated. Duplicate URLs are collapsed, keeping the
// relevant flag if any occurrence was relevant.
func SameSiteLinks(body []byte, baseURL string) []Link {
	base, err := url.Parse(baseURL)
	if err != nil || base.Host == "" {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	index := make(map[string]int)
	var out []Link
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := hrefValue(s)
		if href == "" || strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:") ||
			strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "#") {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref)
		if abs.Hostname() != base.Hostname() {
			return
		}
		abs.Fragment = ""
		target := abs.String()
		relevant := IsContactRelevant(target, s.Text())
		if i, dup := index[target]; dup {
			if relevant {
				out[i].ContactRelevant = true
			}
			return
		}
		index[target] = len(out)
		out = append(out, Link{URL: target, ContactRelevant: relevant})
	})
	return out
}
