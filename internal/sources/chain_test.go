package sources

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pcrawley/contact-harvester/internal/contact"
	"github.com/pcrawley/contact-harvester/internal/record"
)

type stubSource struct {
	name       string
	candidates []contact.RawCandidate
	err        error
	calls      int
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Attempt(context.Context, contact.ResolvedTarget) ([]contact.RawCandidate, error) {
	s.calls++
	return s.candidates, s.err
}

func phoneCandidate(raw string) contact.RawCandidate {
	return contact.RawCandidate{Kind: contact.KindPhone, RawValue: raw}
}

func TestGateInsufficient(t *testing.T) {
	t.Parallel()

	withPhone := contact.NewRecord(contact.CompanyInput{})
	withPhone.Phones = []string{"+12125550100"}
	withBoth := contact.NewRecord(contact.CompanyInput{})
	withBoth.Phones = []string{"+12125550100"}
	withBoth.Emails = []string{"a@b.com"}
	empty := contact.NewRecord(contact.CompanyInput{})

	strict := Gate{}
	assert.True(t, strict.Insufficient(empty))
	assert.False(t, strict.Insufficient(withPhone))
	assert.False(t, strict.Insufficient(withBoth))

	eager := Gate{TriggerOnAnyMissing: true}
	assert.True(t, eager.Insufficient(empty))
	assert.True(t, eager.Insufficient(withPhone))
	assert.False(t, eager.Insufficient(withBoth))
}

func TestChainStopsAtFirstContribution(t *testing.T) {
	t.Parallel()

	first := &stubSource{name: contact.SourceMaps, candidates: []contact.RawCandidate{phoneCandidate("(212) 555-0100")}}
	second := &stubSource{name: contact.SourceYelp, candidates: []contact.RawCandidate{phoneCandidate("(415) 555-0123")}}
	chain := NewChain(record.Normalizer{DefaultRegion: "US"}, nil, first, second)

	rec := contact.NewRecord(contact.CompanyInput{OriginalText: "Acme"})
	chain.Run(context.Background(), contact.ResolvedTarget{}, rec)

	assert.Equal(t, []string{"+12125550100"}, rec.Phones)
	assert.Equal(t, []string{contact.SourceMaps}, rec.DataSources)
	assert.Equal(t, 1, first.calls)
	assert.Zero(t, second.calls, "chain must stop once a source contributes")
	assert.Contains(t, rec.Notes, "Found on "+contact.SourceMaps+".")
}

func TestChainContinuesPastErrors(t *testing.T) {
	t.Parallel()

	broken := &stubSource{name: contact.SourceMaps, err: errors.New("blocked")}
	working := &stubSource{name: contact.SourceYellowPages, candidates: []contact.RawCandidate{phoneCandidate("(212) 555-0100")}}
	chain := NewChain(record.Normalizer{DefaultRegion: "US"}, nil, broken, working)

	rec := contact.NewRecord(contact.CompanyInput{OriginalText: "Acme"})
	chain.Run(context.Background(), contact.ResolvedTarget{}, rec)

	assert.Equal(t, 1, broken.calls)
	assert.Equal(t, 1, working.calls)
	assert.Equal(t, []string{"+12125550100"}, rec.Phones)
	assert.Equal(t, []string{contact.SourceYellowPages}, rec.DataSources)
}

func TestChainContinuesPastMisses(t *testing.T) {
	t.Parallel()

	// A website hint alone does not satisfy the stop predicate.
	hintOnly := &stubSource{name: contact.SourceLinkedIn, candidates: []contact.RawCandidate{{
		Kind: contact.KindWebsite, RawValue: "https://acme.com",
	}}}
	working := &stubSource{name: contact.SourceYelp, candidates: []contact.RawCandidate{phoneCandidate("(212) 555-0100")}}
	chain := NewChain(record.Normalizer{DefaultRegion: "US"}, nil, hintOnly, working)

	rec := contact.NewRecord(contact.CompanyInput{OriginalText: "Acme"})
	chain.Run(context.Background(), contact.ResolvedTarget{}, rec)

	assert.Equal(t, 1, hintOnly.calls)
	assert.Equal(t, 1, working.calls)
	assert.Equal(t, []string{contact.SourceYelp}, rec.DataSources)
}

func TestChainStopsOnCanceledContext(t *testing.T) {
	t.Parallel()

	src := &stubSource{name: contact.SourceMaps, candidates: []contact.RawCandidate{phoneCandidate("(212) 555-0100")}}
	chain := NewChain(record.Normalizer{DefaultRegion: "US"}, nil, src)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec := contact.NewRecord(contact.CompanyInput{OriginalText: "Acme"})
	chain.Run(ctx, contact.ResolvedTarget{}, rec)

	assert.Zero(t, src.calls)
	assert.Empty(t, rec.Phones)
}

func TestChainExhaustedLeavesRecordUntouched(t *testing.T) {
	t.Parallel()

	a := &stubSource{name: contact.SourceMaps}
	b := &stubSource{name: contact.SourceYelp}
	chain := NewChain(record.Normalizer{DefaultRegion: "US"}, nil, a, b)

	rec := contact.NewRecord(contact.CompanyInput{OriginalText: "Acme"})
	chain.Run(context.Background(), contact.ResolvedTarget{}, rec)

	require.Equal(t, 1, a.calls)
	require.Equal(t, 1, b.calls)
	assert.Empty(t, rec.Phones)
	assert.Empty(t, rec.Emails)
	assert.Empty(t, rec.DataSources)
}
