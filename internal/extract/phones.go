package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pcrawley/contact-harvester/internal/contact"
)

// Loose phone patterns. The normalizer rejects anything that fails to parse
// as a plausible international number, so these err on the side of recall.
var phonePatterns = []*regexp.Regexp{
	// International: +1-234-567-8900, +44 20 7946 0958
	regexp.MustCompile(`\+\d{1,3}[\s.\-(]?\d{1,4}[\s.\-)]?\d{1,4}[\s.\-]?\d{1,9}`),
	// North American: (555) 123-4567, 555.123.4567
	regexp.MustCompile(`\(?\d{3}\)?[\s.\-]?\d{3}[\s.\-]?\d{4}`),
}

func phonesFromDoc(doc *goquery.Document, pageURL string) []contact.RawCandidate {
	seen := make(map[string]struct{})
	var out []contact.RawCandidate

	add := func(raw string) {
		raw = strings.TrimSpace(raw)
		key := digitsOnly(raw)
		if len(key) < 10 {
			return
		}
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		out = append(out, contact.RawCandidate{
			Kind:          contact.KindPhone,
			RawValue:      raw,
			SourcePageURL: pageURL,
		})
	}

	doc.Find(`a[href^="tel:"]`).Each(func(_ int, s *goquery.Selection) {
		add(strings.TrimPrefix(hrefValue(s), "tel:"))
	})

	text := visibleText(doc)
	for _, pattern := range phonePatterns {
		for _, match := range pattern.FindAllString(text, -1) {
			add(match)
		}
	}
	return out
}

// digitsOnly strips everything but digits and a leading plus, the per-page
// dedup key for phone candidates.
func digitsOnly(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else if r == '+' && i == 0 {
			b.WriteRune(r)
		}
	}
	return b.String()
}
