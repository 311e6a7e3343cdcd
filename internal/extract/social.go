package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pcrawley/contact-harvester/internal/contact"
)

// socialPlatforms maps profile-host suffixes to platform tags.
var socialPlatforms = []struct {
	platform string
	hosts    []string
}{
	{"linkedin", []string{"linkedin.com"}},
	{"facebook", []string{"facebook.com", "fb.com"}},
	{"twitter", []string{"twitter.com", "x.com"}},
	{"instagram", []string{"instagram.com"}},
}

func socialsFromDoc(doc *goquery.Document, pageURL string) []contact.RawCandidate {
	base, _ := url.Parse(pageURL)
	seen := make(map[string]struct{})
	var out []contact.RawCandidate

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href := hrefValue(s)
		if href == "" {
			return
		}
		abs := href
		if base != nil {
			if ref, err := url.Parse(href); err == nil {
				abs = base.ResolveReference(ref).String()
			}
		}
		platform := PlatformForURL(abs)
		if platform == "" {
			return
		}
		if _, dup := seen[platform]; dup {
			return
		}
		seen[platform] = struct{}{}
		out = append(out, contact.RawCandidate{
			Kind:          contact.KindSocial,
			RawValue:      abs,
			Platform:      platform,
			SourcePageURL: pageURL,
		})
	})
	return out
}

// PlatformForURL returns the social platform tag for a URL, or "" when the
// host is not a known profile site.
func PlatformForURL(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.ToLower(strings.TrimPrefix(u.Hostname(), "www."))
	for _, entry := range socialPlatforms {
		for _, h := range entry.hosts {
			if host == h || strings.HasSuffix(host, "."+h) {
				return entry.platform
			}
		}
	}
	return ""
}
