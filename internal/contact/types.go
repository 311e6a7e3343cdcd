// Package contact defines the core types shared across the extraction pipeline.
package contact

import (
	"errors"
	"time"
)

// InputType classifies the raw company identifier supplied by the caller.
type InputType string

// Supported input classifications.
const (
	InputTypeURL  InputType = "url"
	InputTypeName InputType = "name"
)

// ResolutionConfidence grades how much trust the resolver places in a
// candidate domain.
type ResolutionConfidence string

// Resolution confidence levels.
const (
	ConfidenceLow  ResolutionConfidence = "low"
	ConfidenceHigh ResolutionConfidence = "high"
)

// CompanyInput is the immutable unit of work submitted per company.
type CompanyInput struct {
	OriginalText string    `json:"original_text"`
	InputType    InputType `json:"input_type"`
}

// ResolvedTarget is the resolver's verdict for one CompanyInput. An empty
// CandidateDomain signals resolution failure; the pipeline then skips the
// crawl and goes straight to the fallback chain.
type ResolvedTarget struct {
	Input           CompanyInput
	CandidateDomain string
	CompanyName     string
	WebsiteURL      string
	Confidence      ResolutionConfidence
}

// FetchStatus is the terminal classification of a single page retrieval.
type FetchStatus string

// Fetch outcomes.
const (
	FetchOK      FetchStatus = "ok"
	FetchBlocked FetchStatus = "blocked"
	FetchError   FetchStatus = "error"
)

// PageFetchResult captures one page retrieval. Never mutated after creation.
type PageFetchResult struct {
	URL          string
	Status       FetchStatus
	StatusCode   int
	Body         []byte
	UsedHeadless bool
	FetchedAt    time.Time
}

// CandidateKind distinguishes the value classes an extractor can produce.
type CandidateKind string

// Candidate kinds. Website candidates are hints from directory adapters
// used to backfill the resolved site; they never count as contact data.
const (
	KindPhone   CandidateKind = "phone"
	KindEmail   CandidateKind = "email"
	KindSocial  CandidateKind = "social"
	KindWebsite CandidateKind = "website"
)

// RawCandidate is an unvalidated value pulled from a page or directory
// listing. It is ephemeral; the normalizer either canonicalizes it into a
// ContactRecord or drops it.
type RawCandidate struct {
	Kind          CandidateKind
	RawValue      string
	Platform      string
	SourcePageURL string
}

// CrawlTask is one frontier entry of a per-company crawl.
type CrawlTask struct {
	Domain string
	URL    string
	Depth  int
}

// ExtractionStatus summarizes where (if anywhere) contact data came from.
type ExtractionStatus string

// Extraction statuses. The status is always computed from the finished
// record, never assigned ad hoc by pipeline stages.
const (
	StatusFoundOnWebsite   ExtractionStatus = "found_on_website"
	StatusFoundOnMaps      ExtractionStatus = "found_on_maps"
	StatusFoundOnLinkedIn  ExtractionStatus = "found_on_linkedin"
	StatusFoundOnDirectory ExtractionStatus = "found_on_directory"
	StatusPartial          ExtractionStatus = "partial"
	StatusNotFound         ExtractionStatus = "not_found"
	StatusResolutionFailed ExtractionStatus = "resolution_failed"
	StatusFailed           ExtractionStatus = "failed"
)

// Source tags recorded in ContactRecord.DataSources. Directory adapters use
// their own identity (yellowpages, yelp) so provenance stays precise.
const (
	SourceWebsite     = "website"
	SourceMaps        = "maps"
	SourceLinkedIn    = "linkedin"
	SourceYellowPages = "yellowpages"
	SourceYelp        = "yelp"
)

// Job lifecycle statuses stored on JobSummary.
const (
	JobPending   = "pending"
	JobRunning   = "running"
	JobCompleted = "completed"
	JobCanceled  = "canceled"
	JobFailed    = "failed"
)

// ProvenanceEntry records one sighting of a value.
type ProvenanceEntry struct {
	Source  string `json:"source"`
	PageURL string `json:"page_url,omitempty"`
}

// ContactRecord is the unit of output per company. It is exclusively owned
// by the pipeline instance that builds it; once emitted to the record store
// it is treated as read-only.
type ContactRecord struct {
	Input               CompanyInput                 `json:"input"`
	ResolvedCompanyName string                       `json:"resolved_company_name,omitempty"`
	ResolvedWebsiteURL  string                       `json:"resolved_website_url,omitempty"`
	Phones              []string                     `json:"phones"`
	Emails              []string                     `json:"emails"`
	SocialLinks         map[string]string            `json:"social_links"`
	DataSources         []string                     `json:"data_sources"`
	Status              ExtractionStatus             `json:"extraction_status"`
	ConfidenceScore     int                          `json:"confidence_score"`
	Notes               string                       `json:"notes,omitempty"`
	Provenance          map[string][]ProvenanceEntry `json:"provenance,omitempty"`
	CompletedAt         time.Time                    `json:"completed_at"`
}

// NewRecord initializes an empty ContactRecord for the given input.
func NewRecord(input CompanyInput) *ContactRecord {
	return &ContactRecord{
		Input:       input,
		Phones:      []string{},
		Emails:      []string{},
		SocialLinks: map[string]string{},
		DataSources: []string{},
		Status:      StatusNotFound,
		Provenance:  map[string][]ProvenanceEntry{},
	}
}

// HasSource reports whether tag already contributed to the record.
func (r *ContactRecord) HasSource(tag string) bool {
	for _, s := range r.DataSources {
		if s == tag {
			return true
		}
	}
	return false
}

// AppendNote adds a sentence to the record's free-form notes field.
func (r *ContactRecord) AppendNote(note string) {
	if note == "" {
		return
	}
	if r.Notes != "" {
		r.Notes += " "
	}
	r.Notes += note
}

// ErrDomainUnreachable is returned by the crawler when the root page cannot
// be fetched after the fetcher's own retries. The fallback chain still runs.
var ErrDomainUnreachable = errors.New("domain unreachable")

// ErrRobotsDisallowed is returned by the crawler when robots.txt disallows
// the root page. Like ErrDomainUnreachable the crawl yields nothing and the
// fallback chain still runs, but the note should not claim the site is down.
var ErrRobotsDisallowed = errors.New("root disallowed by robots.txt")
