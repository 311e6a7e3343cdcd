package sources

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pcrawley/contact-harvester/internal/contact"
)

// pageFetcher returns one canned page regardless of URL and remembers the
// last URL requested.
type pageFetcher struct {
	body    string
	status  contact.FetchStatus
	err     error
	lastURL string
}

func (f *pageFetcher) Fetch(_ context.Context, rawURL string) (contact.PageFetchResult, error) {
	f.lastURL = rawURL
	if f.err != nil {
		return contact.PageFetchResult{}, f.err
	}
	status := f.status
	if status == "" {
		status = contact.FetchOK
	}
	return contact.PageFetchResult{URL: rawURL, Status: status, StatusCode: 200, Body: []byte(f.body)}, nil
}

func namedTarget(name string) contact.ResolvedTarget {
	return contact.ResolvedTarget{
		Input:       contact.CompanyInput{OriginalText: name},
		CompanyName: name,
	}
}

func TestYellowPagesParsesFirstListing(t *testing.T) {
	t.Parallel()

	fetcher := &pageFetcher{body: `<html><body>
		<div class="result">
			<div class="phones phone primary">(212) 555-0100</div>
			<a class="track-visit-website" href="https://acme.com">Website</a>
		</div>
		<div class="result">
			<div class="phones phone primary">(415) 555-0123</div>
		</div>
	</body></html>`}
	src := NewYellowPagesSource(fetcher, "")

	candidates, err := src.Attempt(context.Background(), namedTarget("Acme Widgets"))
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, contact.KindPhone, candidates[0].Kind)
	assert.Equal(t, "(212) 555-0100", candidates[0].RawValue)
	assert.Equal(t, contact.KindWebsite, candidates[1].Kind)
	assert.Equal(t, "https://acme.com", candidates[1].RawValue)
	assert.Contains(t, fetcher.lastURL, "search_terms=Acme+Widgets")
	assert.Contains(t, fetcher.lastURL, "geo_location_terms=USA")
}

func TestYellowPagesNoResults(t *testing.T) {
	t.Parallel()

	src := NewYellowPagesSource(&pageFetcher{body: "<html><body>No results</body></html>"}, "")
	candidates, err := src.Attempt(context.Background(), namedTarget("Acme"))
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestYellowPagesBlockedPage(t *testing.T) {
	t.Parallel()

	src := NewYellowPagesSource(&pageFetcher{status: contact.FetchError}, "")
	candidates, err := src.Attempt(context.Background(), namedTarget("Acme"))
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestYellowPagesFetchError(t *testing.T) {
	t.Parallel()

	src := NewYellowPagesSource(&pageFetcher{err: errors.New("dial timeout")}, "")
	_, err := src.Attempt(context.Background(), namedTarget("Acme"))
	require.Error(t, err)
}

func TestYellowPagesEmptyName(t *testing.T) {
	t.Parallel()

	fetcher := &pageFetcher{}
	src := NewYellowPagesSource(fetcher, "")
	candidates, err := src.Attempt(context.Background(), contact.ResolvedTarget{})
	require.NoError(t, err)
	assert.Empty(t, candidates)
	assert.Empty(t, fetcher.lastURL, "no query should go out without a name")
}

func TestYelpParsesPhoneAndRedirect(t *testing.T) {
	t.Parallel()

	fetcher := &pageFetcher{body: `<html><body>
		<p>Call us at (212) 555-0100 today</p>
		<a href="/biz_redir?url=https%3A%2F%2Facme.com&amp;cachebuster=1">acme.com</a>
	</body></html>`}
	src := NewYelpSource(fetcher, "")

	candidates, err := src.Attempt(context.Background(), namedTarget("Acme Widgets"))
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, contact.KindPhone, candidates[0].Kind)
	assert.Equal(t, "(212) 555-0100", candidates[0].RawValue)
	assert.Equal(t, contact.KindWebsite, candidates[1].Kind)
	assert.Equal(t, "https://acme.com", candidates[1].RawValue)
	assert.Contains(t, fetcher.lastURL, "find_desc=Acme+Widgets")
}

func TestYelpKeepsRawRedirectWithoutURLParam(t *testing.T) {
	t.Parallel()

	fetcher := &pageFetcher{body: `<html><body>
		<a href="/biz_redir?id=42">listing</a>
	</body></html>`}
	src := NewYelpSource(fetcher, "")

	candidates, err := src.Attempt(context.Background(), namedTarget("Acme"))
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, contact.KindWebsite, candidates[0].Kind)
	assert.Equal(t, "/biz_redir?id=42", candidates[0].RawValue)
}

func TestYelpBlockedPage(t *testing.T) {
	t.Parallel()

	src := NewYelpSource(&pageFetcher{status: contact.FetchBlocked}, "")
	candidates, err := src.Attempt(context.Background(), namedTarget("Acme"))
	require.NoError(t, err)
	assert.Empty(t, candidates)
}
