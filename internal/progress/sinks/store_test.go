package sinks

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pcrawley/contact-harvester/internal/contact"
	"github.com/pcrawley/contact-harvester/internal/progress"
	memstore "github.com/pcrawley/contact-harvester/internal/storage/memory"
)

func seedJob(t *testing.T, store *memstore.RecordStore, total int) uuid.UUID {
	t.Helper()
	jobID := uuid.New()
	require.NoError(t, store.SaveJob(context.Background(), contact.JobSummary{
		JobID:          jobID,
		Status:         contact.JobRunning,
		TotalCompanies: total,
		Submitted:      time.Now(),
	}))
	return jobID
}

func companyDone(jobID uuid.UUID, processed, phones, emails int) progress.Event {
	return progress.Event{
		JobID:     jobID,
		TS:        time.Now(),
		Stage:     progress.StageCompanyDone,
		Company:   "Acme",
		Processed: processed,
		Phones:    phones,
		Emails:    emails,
	}
}

func TestStoreSinkWritesLatestSnapshot(t *testing.T) {
	t.Parallel()

	store := memstore.NewRecordStore()
	jobID := seedJob(t, store, 5)
	sink := NewStoreSink(store, nil)

	batch := []progress.Event{
		companyDone(jobID, 1, 1, 0),
		companyDone(jobID, 2, 2, 1),
		companyDone(jobID, 3, 2, 2),
	}
	require.NoError(t, sink.Consume(context.Background(), batch))

	job, err := store.GetJob(context.Background(), jobID)
	require.NoError(t, err)
	assert.Equal(t, 3, job.ProcessedCompanies)
	assert.Equal(t, 2, job.TotalPhonesFound)
	assert.Equal(t, 2, job.TotalEmailsFound)
	assert.Equal(t, contact.JobRunning, job.Status)
}

func TestStoreSinkIgnoresUnknownJob(t *testing.T) {
	t.Parallel()

	sink := NewStoreSink(memstore.NewRecordStore(), nil)
	err := sink.Consume(context.Background(), []progress.Event{companyDone(uuid.New(), 1, 0, 0)})
	require.NoError(t, err)
}

func TestStoreSinkSkipsFinishedJob(t *testing.T) {
	t.Parallel()

	store := memstore.NewRecordStore()
	jobID := seedJob(t, store, 2)
	finished := time.Now()
	job, err := store.GetJob(context.Background(), jobID)
	require.NoError(t, err)
	job.Status = contact.JobCompleted
	job.ProcessedCompanies = 2
	job.Finished = &finished
	require.NoError(t, store.UpdateJob(context.Background(), job))

	sink := NewStoreSink(store, nil)
	// A late snapshot must not rewrite a finalized summary.
	require.NoError(t, sink.Consume(context.Background(), []progress.Event{companyDone(jobID, 1, 9, 9)}))

	got, err := store.GetJob(context.Background(), jobID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.ProcessedCompanies)
	assert.Zero(t, got.TotalPhonesFound)
}

func TestStoreSinkNeverRegressesCounters(t *testing.T) {
	t.Parallel()

	store := memstore.NewRecordStore()
	jobID := seedJob(t, store, 5)
	sink := NewStoreSink(store, nil)

	require.NoError(t, sink.Consume(context.Background(), []progress.Event{companyDone(jobID, 3, 3, 3)}))
	require.NoError(t, sink.Consume(context.Background(), []progress.Event{companyDone(jobID, 2, 1, 1)}))

	job, err := store.GetJob(context.Background(), jobID)
	require.NoError(t, err)
	assert.Equal(t, 3, job.ProcessedCompanies)
	assert.Equal(t, 3, job.TotalPhonesFound)
}

func TestStoreSinkIgnoresNonCompanyEvents(t *testing.T) {
	t.Parallel()

	store := memstore.NewRecordStore()
	jobID := seedJob(t, store, 5)
	sink := NewStoreSink(store, nil)

	evt := progress.Event{JobID: jobID, TS: time.Now(), Stage: progress.StageJobStart, Processed: 4}
	require.NoError(t, sink.Consume(context.Background(), []progress.Event{evt}))

	job, err := store.GetJob(context.Background(), jobID)
	require.NoError(t, err)
	assert.Zero(t, job.ProcessedCompanies)
}
