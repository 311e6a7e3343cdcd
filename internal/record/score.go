package record

import "github.com/pcrawley/contact-harvester/internal/contact"

// Source base weights, highest-reliability source present wins. Website
// data outranks every directory.
const (
	baseWebsite   = 80
	baseMaps      = 60
	baseLinkedIn  = 50
	baseDirectory = 40

	bonusPhone       = 10
	bonusEmail       = 10
	bonusSocial      = 5
	bonusExtraSource = 2
)

// Score derives the 0-100 confidence score from which sources contributed
// and how complete the record is. Monotonic: merging new values or sources
// never lowers it.
func Score(rec *contact.ContactRecord) int {
	if len(rec.Phones) == 0 && len(rec.Emails) == 0 && len(rec.SocialLinks) == 0 {
		return 0
	}

	score := baseFor(rec)
	if len(rec.Phones) > 0 {
		score += bonusPhone
	}
	if len(rec.Emails) > 0 {
		score += bonusEmail
	}
	if len(rec.SocialLinks) > 0 {
		score += bonusSocial
	}
	if extra := len(rec.DataSources) - 1; extra > 0 {
		score += extra * bonusExtraSource
	}
	if score > 100 {
		score = 100
	}
	return score
}

func baseFor(rec *contact.ContactRecord) int {
	switch {
	case rec.HasSource(contact.SourceWebsite):
		return baseWebsite
	case rec.HasSource(contact.SourceMaps):
		return baseMaps
	case rec.HasSource(contact.SourceLinkedIn):
		return baseLinkedIn
	case rec.HasSource(contact.SourceYellowPages), rec.HasSource(contact.SourceYelp):
		return baseDirectory
	default:
		return 0
	}
}

// ComputeStatus classifies the finished record. resolutionFailed marks
// inputs for which no plausible domain was ever derived; it only shows
// through when the fallback chain also came up empty.
func ComputeStatus(rec *contact.ContactRecord, resolutionFailed bool) contact.ExtractionStatus {
	hasContact := len(rec.Phones) > 0 || len(rec.Emails) > 0
	if !hasContact && len(rec.SocialLinks) == 0 {
		if resolutionFailed {
			return contact.StatusResolutionFailed
		}
		return contact.StatusNotFound
	}
	if !hasContact {
		// Social links only.
		return contact.StatusPartial
	}
	switch {
	case rec.HasSource(contact.SourceWebsite):
		return contact.StatusFoundOnWebsite
	case rec.HasSource(contact.SourceMaps):
		return contact.StatusFoundOnMaps
	case rec.HasSource(contact.SourceLinkedIn):
		return contact.StatusFoundOnLinkedIn
	case rec.HasSource(contact.SourceYellowPages), rec.HasSource(contact.SourceYelp):
		return contact.StatusFoundOnDirectory
	default:
		return contact.StatusPartial
	}
}

// Finalize stamps the computed status and score onto the record.
func Finalize(rec *contact.ContactRecord, resolutionFailed bool) {
	rec.Status = ComputeStatus(rec, resolutionFailed)
	rec.ConfidenceScore = Score(rec)
}
