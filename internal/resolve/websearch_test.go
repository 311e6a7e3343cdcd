package resolve

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pcrawley/contact-harvester/internal/contact"
)

type pageFetcher struct {
	page contact.PageFetchResult
	urls []string
}

func (f *pageFetcher) Fetch(_ context.Context, rawURL string) (contact.PageFetchResult, error) {
	f.urls = append(f.urls, rawURL)
	return f.page, nil
}

func TestFindOfficialSiteDecodesRedirects(t *testing.T) {
	t.Parallel()

	results := `<html><body>
		<a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fen.wikipedia.org%2Fwiki%2FAcme">Acme - Wikipedia</a>
		<a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fwww.acme.com%2F&amp;rut=abc">Acme | Official Site</a>
	</body></html>`
	fetcher := &pageFetcher{page: contact.PageFetchResult{
		Status: contact.FetchOK,
		Body:   []byte(results),
	}}

	s := NewWebSearcher(fetcher, nil)
	site, err := s.FindOfficialSite(context.Background(), "Acme Widgets")
	require.NoError(t, err)
	// Wikipedia is an aggregator; the second result is the company site.
	assert.Equal(t, "https://www.acme.com/", site)
	require.Len(t, fetcher.urls, 1)
	assert.Contains(t, fetcher.urls[0], "Acme+Widgets+official+website")
}

func TestFindOfficialSiteSkipsAggregators(t *testing.T) {
	t.Parallel()

	results := `<html><body>
		<a class="result__a" href="https://www.linkedin.com/company/acme">LinkedIn</a>
		<a class="result__a" href="https://www.yelp.com/biz/acme">Yelp</a>
	</body></html>`
	fetcher := &pageFetcher{page: contact.PageFetchResult{
		Status: contact.FetchOK,
		Body:   []byte(results),
	}}

	s := NewWebSearcher(fetcher, nil)
	site, err := s.FindOfficialSite(context.Background(), "Acme")
	require.NoError(t, err)
	assert.Empty(t, site)
}

func TestFindOfficialSiteSearchBlocked(t *testing.T) {
	t.Parallel()

	fetcher := &pageFetcher{page: contact.PageFetchResult{Status: contact.FetchError}}
	s := NewWebSearcher(fetcher, nil)
	_, err := s.FindOfficialSite(context.Background(), "Acme")
	require.Error(t, err)
}
