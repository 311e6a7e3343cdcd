package contact

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrJobNotFound signals that the requested job does not exist.
var ErrJobNotFound = errors.New("job not found")

// Fetcher retrieves a single page. The result's Status carries the outcome;
// the error return is reserved for context cancellation and programmer
// mistakes (bad URL), never for ordinary network failure.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (PageFetchResult, error)
}

// Source is one member of the fallback chain. Attempt queries an external
// directory for the target and returns whatever raw candidates it found.
// Implementations degrade gracefully: a blocked or restructured page yields
// an empty slice, not an error.
type Source interface {
	Name() string
	Attempt(ctx context.Context, target ResolvedTarget) ([]RawCandidate, error)
}

// JobSummary aggregates the counters persisted per job.
type JobSummary struct {
	JobID              uuid.UUID  `json:"job_id"`
	Status             string     `json:"status"`
	TotalCompanies     int        `json:"total_companies"`
	ProcessedCompanies int        `json:"processed_companies"`
	TotalPhonesFound   int        `json:"total_phones_found"`
	TotalEmailsFound   int        `json:"total_emails_found"`
	Submitted          time.Time  `json:"submitted_at"`
	Started            *time.Time `json:"started_at,omitempty"`
	Finished           *time.Time `json:"finished_at,omitempty"`
	ErrorText          string     `json:"error_text,omitempty"`
}

// RecordStore persists finished records and job summaries. The core only
// appends and updates; it never reads records back.
type RecordStore interface {
	SaveJob(ctx context.Context, job JobSummary) error
	UpdateJob(ctx context.Context, job JobSummary) error
	SaveRecord(ctx context.Context, jobID uuid.UUID, record *ContactRecord) error
	GetJob(ctx context.Context, jobID uuid.UUID) (JobSummary, error)
	ListRecords(ctx context.Context, jobID uuid.UUID) ([]*ContactRecord, error)
}

// Notifier announces finished jobs to downstream consumers.
type Notifier interface {
	Publish(ctx context.Context, job JobSummary) error
}

// Clock returns the current time (swappable for tests).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces job IDs.
type IDGenerator interface {
	NewID() uuid.UUID
}
