package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pcrawley/contact-harvester/internal/contact"
)

func TestJobRoundTrip(t *testing.T) {
	t.Parallel()

	store := NewRecordStore()
	job := contact.JobSummary{
		JobID:          uuid.New(),
		Status:         contact.JobPending,
		TotalCompanies: 2,
		Submitted:      time.Now(),
	}
	require.NoError(t, store.SaveJob(context.Background(), job))

	got, err := store.GetJob(context.Background(), job.JobID)
	require.NoError(t, err)
	assert.Equal(t, job, got)

	job.Status = contact.JobRunning
	require.NoError(t, store.UpdateJob(context.Background(), job))
	got, err = store.GetJob(context.Background(), job.JobID)
	require.NoError(t, err)
	assert.Equal(t, contact.JobRunning, got.Status)
}

func TestGetJobUnknown(t *testing.T) {
	t.Parallel()

	store := NewRecordStore()
	_, err := store.GetJob(context.Background(), uuid.New())
	require.ErrorIs(t, err, contact.ErrJobNotFound)
}

func TestUpdateJobUnknown(t *testing.T) {
	t.Parallel()

	store := NewRecordStore()
	err := store.UpdateJob(context.Background(), contact.JobSummary{JobID: uuid.New()})
	require.ErrorIs(t, err, contact.ErrJobNotFound)
}

func TestRecordsKeepInsertionOrder(t *testing.T) {
	t.Parallel()

	store := NewRecordStore()
	job := contact.JobSummary{JobID: uuid.New(), Status: contact.JobRunning}
	require.NoError(t, store.SaveJob(context.Background(), job))

	first := contact.NewRecord(contact.CompanyInput{OriginalText: "acme.com"})
	second := contact.NewRecord(contact.CompanyInput{OriginalText: "globex.com"})
	require.NoError(t, store.SaveRecord(context.Background(), job.JobID, first))
	require.NoError(t, store.SaveRecord(context.Background(), job.JobID, second))

	records, err := store.ListRecords(context.Background(), job.JobID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "acme.com", records[0].Input.OriginalText)
	assert.Equal(t, "globex.com", records[1].Input.OriginalText)
}

func TestListRecordsUnknownJob(t *testing.T) {
	t.Parallel()

	store := NewRecordStore()
	_, err := store.ListRecords(context.Background(), uuid.New())
	require.ErrorIs(t, err, contact.ErrJobNotFound)
}

func TestListRecordsReturnsCopy(t *testing.T) {
	t.Parallel()

	store := NewRecordStore()
	job := contact.JobSummary{JobID: uuid.New()}
	require.NoError(t, store.SaveJob(context.Background(), job))
	require.NoError(t, store.SaveRecord(context.Background(), job.JobID,
		contact.NewRecord(contact.CompanyInput{OriginalText: "acme.com"})))

	records, err := store.ListRecords(context.Background(), job.JobID)
	require.NoError(t, err)
	records[0] = nil

	again, err := store.ListRecords(context.Background(), job.JobID)
	require.NoError(t, err)
	require.NotNil(t, again[0])
}
