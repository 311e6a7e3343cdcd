package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pcrawley/contact-harvester/internal/contact"
)

var emailPattern = regexp.MustCompile(`(?i)\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`)

// deobfuscations reverses the common tricks sites use to hide addresses
// from harvesters: "info [at] example [dot] com", "info (at) example (dot)
// com", spaced-out "info @ example . com", and entity-encoded @.
var deobfuscations = []struct {
	pattern *regexp.Regexp
	replace string
}{
	{regexp.MustCompile(`(?i)(\w+)\s*\[at\]\s*([\w\-]+)\s*\[dot\]\s*(\w+)`), `$1@$2.$3`},
	{regexp.MustCompile(`(?i)(\w+)\s*\(at\)\s*([\w\-]+)\s*\(dot\)\s*(\w+)`), `$1@$2.$3`},
	{regexp.MustCompile(`(?i)(\w+)\s+at\s+([\w\-]+)\s+dot\s+(\w+)`), `$1@$2.$3`},
	{regexp.MustCompile(`(\w+)\s*@\s*([\w\-]+)\s*\.\s*(\w+)`), `$1@$2.$3`},
}

// Deobfuscate rewrites obfuscated addresses into plain form so the email
// pattern can match them. HTML entities are already decoded by the parser,
// so &#64; arrives here as a literal @.
func Deobfuscate(text string) string {
	for _, d := range deobfuscations {
		text = d.pattern.ReplaceAllString(text, d.replace)
	}
	return text
}

func emailsFromDoc(doc *goquery.Document, pageURL string) []contact.RawCandidate {
	seen := make(map[string]struct{})
	var out []contact.RawCandidate

	add := func(raw string) {
		raw = strings.TrimSpace(raw)
		key := strings.ToLower(raw)
		if raw == "" || !strings.Contains(raw, "@") {
			return
		}
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		out = append(out, contact.RawCandidate{
			Kind:          contact.KindEmail,
			RawValue:      raw,
			SourcePageURL: pageURL,
		})
	}

	doc.Find(`a[href^="mailto:"]`).Each(func(_ int, s *goquery.Selection) {
		addr := strings.TrimPrefix(hrefValue(s), "mailto:")
		// Strip ?subject=... and friends.
		if idx := strings.IndexByte(addr, '?'); idx >= 0 {
			addr = addr[:idx]
		}
		add(addr)
	})

	for _, match := range emailPattern.FindAllString(Deobfuscate(visibleText(doc)), -1) {
		add(match)
	}
	return out
}
