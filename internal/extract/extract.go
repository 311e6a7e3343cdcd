// Package extract pulls raw contact candidates out of fetched pages:
// phone-like digit runs, email tokens (after de-obfuscation), and social
// profile links. Everything here is deliberately loose; strict validation
// and canonicalization happen in the record normalizer.
package extract

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pcrawley/contact-harvester/internal/contact"
)

// Page parses a fetched page once and runs every extractor over it.
// Unparsable or empty content yields no candidates, never an error.
func Page(page contact.PageFetchResult) []contact.RawCandidate {
	if page.Status != contact.FetchOK || len(page.Body) == 0 {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return nil
	}
	var out []contact.RawCandidate
	out = append(out, phonesFromDoc(doc, page.URL)...)
	out = append(out, emailsFromDoc(doc, page.URL)...)
	out = append(out, socialsFromDoc(doc, page.URL)...)
	return out
}

// visibleText returns the document's text with script/style noise removed.
func visibleText(doc *goquery.Document) string {
	sel := doc.Selection.Clone()
	sel.Find("script, style, noscript").Remove()
	return sel.Text()
}

func hrefValue(s *goquery.Selection) string {
	href, _ := s.Attr("href")
	return strings.TrimSpace(href)
}
