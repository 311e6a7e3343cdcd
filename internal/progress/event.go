// Package progress defines the event stream emitted while jobs run and the
// hub that fans events out to sinks.
package progress

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Stage denotes the type of milestone represented by an Event.
type Stage string

// Supported progress stages.
const (
	StageJobStart    Stage = "JOB_START"
	StageCompanyDone Stage = "COMPANY_DONE"
	StageJobDone     Stage = "JOB_DONE"
	StageJobError    Stage = "JOB_ERROR"
)

// Event captures a single milestone of a running extraction job. Counter
// fields carry cumulative totals for the job so consumers can treat each
// event as a snapshot rather than a delta.
type Event struct {
	// JobID uniquely identifies the job run.
	JobID uuid.UUID
	// TS is the UTC timestamp recorded by the emitter.
	TS time.Time
	// Stage denotes which lifecycle milestone occurred.
	Stage Stage
	// Company names the company a COMPANY_DONE event refers to.
	Company string
	// Status carries the per-company extraction status for COMPANY_DONE.
	Status string
	// Processed is the running count of companies finished so far.
	Processed int
	// Total is the number of companies submitted with the job.
	Total int
	// Phones is the running count of distinct phone numbers found.
	Phones int
	// Emails is the running count of distinct email addresses found.
	Emails int
	// Dur captures wall time for company completions and job completions.
	Dur time.Duration
	// Note lets emitters attach low-volume context such as error text.
	Note string
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.JobID == uuid.Nil {
		return errors.New("job id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Stage {
	case StageJobStart, StageJobDone, StageJobError:
	case StageCompanyDone:
		if e.Company == "" {
			return errors.New("company done requires company")
		}
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	return nil
}
