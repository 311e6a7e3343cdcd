package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pcrawley/contact-harvester/internal/contact"
	"github.com/pcrawley/contact-harvester/internal/ratelimit"
)

type denyAllPolicy struct{}

func (denyAllPolicy) Allowed(context.Context, string) bool { return false }

type fakeRenderer struct {
	body  []byte
	err   error
	calls atomic.Int64
}

func (f *fakeRenderer) Render(context.Context, string) ([]byte, error) {
	f.calls.Add(1)
	return f.body, f.err
}

func newTestClient(t *testing.T, renderer Renderer, detector *Detector, robots RobotsPolicy) *Client {
	t.Helper()
	if robots == nil {
		robots = NewRobotsPolicy(false, "harvester-test", nil)
	}
	return NewClient(
		Config{UserAgent: "harvester-test", Timeout: 5 * time.Second, MaxRetries: 2},
		NewStaticFetcher("harvester-test", 5*time.Second),
		renderer, detector, robots, ratelimit.New(0),
		contact.SystemClock{}, nil,
	)
}

func TestFetchOK(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html><body>Contact us</body></html>"))
	}))
	defer srv.Close()

	c := newTestClient(t, nil, nil, nil)
	result, err := c.Fetch(context.Background(), srv.URL+"/contact")
	require.NoError(t, err)
	assert.Equal(t, contact.FetchOK, result.Status)
	assert.Equal(t, 200, result.StatusCode)
	assert.Contains(t, string(result.Body), "Contact us")
	assert.False(t, result.UsedHeadless)
	assert.False(t, result.FetchedAt.IsZero())
}

func TestFetchBlockedByRobots(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	c := newTestClient(t, nil, nil, denyAllPolicy{})
	result, err := c.Fetch(context.Background(), srv.URL+"/page")
	require.NoError(t, err)
	assert.Equal(t, contact.FetchBlocked, result.Status)
	// Blocked URLs never reach the network.
	assert.EqualValues(t, 0, hits.Load())
}

func TestFetchNotFoundIsTerminal(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := newTestClient(t, nil, nil, nil)
	result, err := c.Fetch(context.Background(), srv.URL+"/missing")
	require.NoError(t, err)
	assert.Equal(t, contact.FetchError, result.Status)
	assert.Equal(t, 404, result.StatusCode)
	assert.EqualValues(t, 1, hits.Load())
}

func TestFetchRateLimitedIsTerminal(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newTestClient(t, nil, nil, nil)
	result, err := c.Fetch(context.Background(), srv.URL+"/page")
	require.NoError(t, err)
	assert.Equal(t, contact.FetchError, result.Status)
	assert.EqualValues(t, 1, hits.Load())
}

func TestFetchRetriesServerErrors(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("recovered"))
	}))
	defer srv.Close()

	c := newTestClient(t, nil, nil, nil)
	result, err := c.Fetch(context.Background(), srv.URL+"/flaky")
	require.NoError(t, err)
	assert.Equal(t, contact.FetchOK, result.Status)
	assert.EqualValues(t, 2, hits.Load())
}

func TestFetchExhaustedRetriesYieldErrorStatus(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(t, nil, nil, nil)
	result, err := c.Fetch(context.Background(), srv.URL+"/down")
	require.NoError(t, err)
	assert.Equal(t, contact.FetchError, result.Status)
	assert.EqualValues(t, 2, hits.Load())
}

func TestFetchEscalatesToHeadless(t *testing.T) {
	t.Parallel()

	shell := `<html><body><noscript>enable javascript</noscript><div id="root"></div></body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(shell))
	}))
	defer srv.Close()

	rendered := "<html><body>" + strings.Repeat("Real content. ", 50) + "</body></html>"
	renderer := &fakeRenderer{body: []byte(rendered)}
	c := newTestClient(t, renderer, NewDetector(10), nil)

	result, err := c.Fetch(context.Background(), srv.URL+"/app")
	require.NoError(t, err)
	assert.Equal(t, contact.FetchOK, result.Status)
	assert.True(t, result.UsedHeadless)
	assert.Contains(t, string(result.Body), "Real content")
	assert.EqualValues(t, 1, renderer.calls.Load())
}

func TestFetchKeepsStaticResultWhenRenderFails(t *testing.T) {
	t.Parallel()

	shell := `<html><body><noscript>enable javascript</noscript></body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(shell))
	}))
	defer srv.Close()

	renderer := &fakeRenderer{err: errors.New("browser crashed")}
	c := newTestClient(t, renderer, NewDetector(10), nil)

	result, err := c.Fetch(context.Background(), srv.URL+"/app")
	require.NoError(t, err)
	assert.Equal(t, contact.FetchOK, result.Status)
	assert.False(t, result.UsedHeadless)
	assert.Contains(t, string(result.Body), "noscript")
}

func TestFetchBadURL(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, nil, nil, nil)
	_, err := c.Fetch(context.Background(), "not a url")
	require.Error(t, err)
}
