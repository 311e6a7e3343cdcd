package fetch

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNeedsJSTinyBody(t *testing.T) {
	t.Parallel()

	d := NewDetector(512)
	assert.True(t, d.NeedsJS([]byte("<html></html>")))
}

func TestNeedsJSSpaShell(t *testing.T) {
	t.Parallel()

	d := NewDetector(10)
	shell := []byte(`<html><body><noscript>Please enable JavaScript</noscript><div id="root"></div></body></html>`)
	assert.True(t, d.NeedsJS(shell))
}

func TestNeedsJSContentRichPageWithNoscriptPixel(t *testing.T) {
	t.Parallel()

	d := NewDetector(10)
	content := strings.Repeat("Plenty of real words about the company and its offices. ", 20)
	page := []byte(`<html><body><noscript><img src="/pixel.gif"></noscript><p>` + content + `</p></body></html>`)
	assert.False(t, d.NeedsJS(page))
}

func TestNeedsJSPlainStaticPage(t *testing.T) {
	t.Parallel()

	d := NewDetector(10)
	page := []byte(`<html><body><p>Contact us at our office.</p></body></html>`)
	assert.False(t, d.NeedsJS(page))
}

func TestNeedsJSNilDetector(t *testing.T) {
	t.Parallel()

	var d *Detector
	assert.False(t, d.NeedsJS([]byte("x")))
}
