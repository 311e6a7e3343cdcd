package sinks

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pcrawley/contact-harvester/internal/contact"
	"github.com/pcrawley/contact-harvester/internal/progress"
)

// StoreSink persists running counters to the job store so status queries see
// live progress. Events carry cumulative totals, so it collapses each batch
// to the latest snapshot per job before writing.
type StoreSink struct {
	store  contact.RecordStore
	logger *zap.Logger
}

// NewStoreSink constructs a StoreSink over the provided record store.
func NewStoreSink(store contact.RecordStore, logger *zap.Logger) *StoreSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StoreSink{store: store, logger: logger}
}

// Consume writes the latest counters per job. Terminal job status is owned by
// the orchestrator, so finished jobs are left untouched.
func (s *StoreSink) Consume(ctx context.Context, batch []progress.Event) error {
	if s == nil || s.store == nil {
		return nil
	}
	latest := make(map[uuid.UUID]progress.Event)
	for _, evt := range batch {
		if evt.Stage != progress.StageCompanyDone {
			continue
		}
		latest[evt.JobID] = evt
	}
	for jobID, evt := range latest {
		job, err := s.store.GetJob(ctx, jobID)
		if err != nil {
			s.logger.Debug("progress snapshot for unknown job", zap.String("job_id", jobID.String()), zap.Error(err))
			continue
		}
		if job.Finished != nil {
			continue
		}
		if evt.Processed < job.ProcessedCompanies {
			continue
		}
		job.ProcessedCompanies = evt.Processed
		job.TotalPhonesFound = evt.Phones
		job.TotalEmailsFound = evt.Emails
		if err := s.store.UpdateJob(ctx, job); err != nil {
			return fmt.Errorf("update job counters: %w", err)
		}
	}
	return nil
}

// Close implements the Sink interface; it performs no action.
func (s *StoreSink) Close(context.Context) error {
	return nil
}
