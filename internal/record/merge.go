// Package record canonicalizes raw candidates into ContactRecords and
// derives the per-record confidence score and extraction status.
package record

import (
	"regexp"
	"sort"
	"strings"

	"github.com/nyaruka/phonenumbers"

	"github.com/pcrawley/contact-harvester/internal/contact"
	"github.com/pcrawley/contact-harvester/internal/metrics"
)

var emailShape = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)

// Delta reports what one merge call actually added.
type Delta struct {
	Phones  int
	Emails  int
	Socials int
}

// ContributedContact reports whether the merge added a phone or an email,
// the condition that stops the fallback chain.
func (d Delta) ContributedContact() bool {
	return d.Phones > 0 || d.Emails > 0
}

// Normalizer canonicalizes and merges candidates into records.
type Normalizer struct {
	// DefaultRegion is the region guess for phone numbers written without a
	// country code.
	DefaultRegion string
}

// Merge folds candidates into the record under sourceTag. Phones are
// canonicalized to E.164 and invalid numbers dropped; emails lower-cased
// and structurally validated; social links first-platform-wins. Provenance
// is appended, never overwritten, and duplicate entries are skipped, so
// merging the same candidates twice is a no-op.
func (n Normalizer) Merge(rec *contact.ContactRecord, candidates []contact.RawCandidate, sourceTag string) Delta {
	var delta Delta
	for _, cand := range candidates {
		switch cand.Kind {
		case contact.KindPhone:
			canonical, ok := n.canonicalPhone(cand.RawValue)
			if !ok {
				continue
			}
			if insertSorted(&rec.Phones, canonical) {
				delta.Phones++
				metrics.ValuesFound.WithLabelValues(string(contact.KindPhone)).Inc()
			}
			appendProvenance(rec, canonical, sourceTag, cand.SourcePageURL)
		case contact.KindEmail:
			canonical, ok := canonicalEmail(cand.RawValue)
			if !ok {
				continue
			}
			if insertSorted(&rec.Emails, canonical) {
				delta.Emails++
				metrics.ValuesFound.WithLabelValues(string(contact.KindEmail)).Inc()
			}
			appendProvenance(rec, canonical, sourceTag, cand.SourcePageURL)
		case contact.KindSocial:
			if cand.Platform == "" || cand.RawValue == "" {
				continue
			}
			if _, taken := rec.SocialLinks[cand.Platform]; taken {
				// First source wins; later, lower-priority sources never
				// overwrite an existing platform link.
				continue
			}
			rec.SocialLinks[cand.Platform] = cand.RawValue
			delta.Socials++
			metrics.ValuesFound.WithLabelValues(string(contact.KindSocial)).Inc()
			appendProvenance(rec, cand.RawValue, sourceTag, cand.SourcePageURL)
		case contact.KindWebsite:
			// Backfill only; a website hint from a directory never
			// overrides a site that resolution or the crawl established.
			if rec.ResolvedWebsiteURL == "" && cand.RawValue != "" {
				rec.ResolvedWebsiteURL = cand.RawValue
				appendProvenance(rec, cand.RawValue, sourceTag, cand.SourcePageURL)
			}
		}
	}
	if delta.Phones+delta.Emails+delta.Socials > 0 && !rec.HasSource(sourceTag) {
		rec.DataSources = append(rec.DataSources, sourceTag)
	}
	return delta
}

func (n Normalizer) canonicalPhone(raw string) (string, bool) {
	cleaned := stripPhone(raw)
	if len(cleaned) < 10 {
		return "", false
	}
	region := n.DefaultRegion
	if region == "" {
		region = "US"
	}
	parsed, err := phonenumbers.Parse(cleaned, region)
	if err != nil {
		return "", false
	}
	if !phonenumbers.IsValidNumber(parsed) {
		return "", false
	}
	return phonenumbers.Format(parsed, phonenumbers.E164), true
}

func canonicalEmail(raw string) (string, bool) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if !emailShape.MatchString(email) {
		return "", false
	}
	return email, true
}

func stripPhone(s string) string {
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

// insertSorted adds value to the sorted set and reports whether it was new.
func insertSorted(set *[]string, value string) bool {
	i := sort.SearchStrings(*set, value)
	if i < len(*set) && (*set)[i] == value {
		return false
	}
	*set = append(*set, "")
	copy((*set)[i+1:], (*set)[i:])
	(*set)[i] = value
	return true
}

func appendProvenance(rec *contact.ContactRecord, value, source, pageURL string) {
	entry := contact.ProvenanceEntry{Source: source, PageURL: pageURL}
	for _, existing := range rec.Provenance[value] {
		if existing == entry {
			return
		}
	}
	rec.Provenance[value] = append(rec.Provenance[value], entry)
}
