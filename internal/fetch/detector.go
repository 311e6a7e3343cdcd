package fetch

import (
	"bytes"

	"github.com/PuerkitoBio/goquery"
)

var jsShellMarkers = [][]byte{
	[]byte("enable javascript"),
	[]byte("javascript is required"),
	[]byte("<noscript"),
	[]byte("__next_data__"),
	[]byte("window.__nuxt__"),
}

// Detector decides whether a static response body looks JS-rendered-empty
// and warrants a headless escalation.
type Detector struct {
	minHTMLBytes int
}

// NewDetector constructs a Detector. Bodies below minBytes, or small bodies
// carrying SPA shell markers, or pages whose parsed body element has almost
// no text are treated as needing rendering.
func NewDetector(minBytes int) *Detector {
	return &Detector{minHTMLBytes: minBytes}
}

// NeedsJS inspects the body for signals that static HTML is a shell.
func (d *Detector) NeedsJS(body []byte) bool {
	if d == nil {
		return false
	}
	if d.minHTMLBytes > 0 && len(body) < d.minHTMLBytes {
		return true
	}
	lower := bytes.ToLower(body)
	for _, marker := range jsShellMarkers {
		if bytes.Contains(lower, marker) {
			return d.visibleTextSparse(body)
		}
	}
	return false
}

// visibleTextSparse parses the document and checks whether the body carries
// any meaningful text. Marker hits on content-rich pages (a noscript analytics
// pixel, say) should not trigger a browser fetch.
func (d *Detector) visibleTextSparse(body []byte) bool {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return true
	}
	sel := doc.Find("body")
	sel.Find("script, style, noscript").Remove()
	text := bytes.TrimSpace([]byte(sel.Text()))
	return len(text) < 200
}
