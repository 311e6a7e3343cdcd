package postgres

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pcrawley/contact-harvester/internal/contact"
)

func newMockStore(t *testing.T) (*RecordStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	store, err := NewRecordStoreWithPool(mock, "contact_records")
	require.NoError(t, err)
	return store, mock
}

func sampleJob() contact.JobSummary {
	return contact.JobSummary{
		JobID:          uuid.New(),
		Status:         contact.JobPending,
		TotalCompanies: 3,
		Submitted:      time.Now().UTC().Truncate(time.Second),
	}
}

func TestNewRecordStoreWithPoolValidatesTable(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewRecordStoreWithPool(mock, "records; drop table jobs")
	require.Error(t, err)

	store, err := NewRecordStoreWithPool(mock, "")
	require.NoError(t, err)
	assert.Equal(t, "contact_records", store.table)
}

func TestSaveJob(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	job := sampleJob()
	mock.ExpectExec("INSERT INTO extraction_jobs").
		WithArgs(job.JobID, job.Status, job.TotalCompanies, job.ProcessedCompanies,
			job.TotalPhonesFound, job.TotalEmailsFound, job.Submitted,
			job.Started, job.Finished, job.ErrorText).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.SaveJob(context.Background(), job))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateJob(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	job := sampleJob()
	job.Status = contact.JobRunning
	job.ProcessedCompanies = 1
	mock.ExpectExec("UPDATE extraction_jobs SET").
		WithArgs(job.JobID, job.Status, job.ProcessedCompanies, job.TotalPhonesFound,
			job.TotalEmailsFound, job.Started, job.Finished, job.ErrorText).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, store.UpdateJob(context.Background(), job))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateJobUnknownID(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	job := sampleJob()
	mock.ExpectExec("UPDATE extraction_jobs SET").
		WithArgs(job.JobID, job.Status, job.ProcessedCompanies, job.TotalPhonesFound,
			job.TotalEmailsFound, job.Started, job.Finished, job.ErrorText).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := store.UpdateJob(context.Background(), job)
	require.ErrorIs(t, err, contact.ErrJobNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveRecord(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	jobID := uuid.New()
	rec := contact.NewRecord(contact.CompanyInput{OriginalText: "acme.com"})
	rec.Status = contact.StatusFoundOnWebsite
	rec.ConfidenceScore = 90
	rec.CompletedAt = time.Now().UTC().Truncate(time.Second)
	payload, err := json.Marshal(rec)
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO contact_records").
		WithArgs(jobID, "acme.com", string(rec.Status), 90, payload, rec.CompletedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.SaveRecord(context.Background(), jobID, rec))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveRecordNil(t *testing.T) {
	t.Parallel()

	store, _ := newMockStore(t)
	require.Error(t, store.SaveRecord(context.Background(), uuid.New(), nil))
}

func TestGetJob(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	job := sampleJob()
	rows := pgxmock.NewRows([]string{
		"job_id", "status", "total_companies", "processed_companies",
		"total_phones_found", "total_emails_found",
		"submitted_at", "started_at", "finished_at", "error_text",
	}).AddRow(job.JobID, job.Status, job.TotalCompanies, job.ProcessedCompanies,
		job.TotalPhonesFound, job.TotalEmailsFound, job.Submitted,
		job.Started, job.Finished, job.ErrorText)
	mock.ExpectQuery("FROM extraction_jobs").
		WithArgs(job.JobID).
		WillReturnRows(rows)

	got, err := store.GetJob(context.Background(), job.JobID)
	require.NoError(t, err)
	assert.Equal(t, job, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetJobNotFound(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	jobID := uuid.New()
	mock.ExpectQuery("FROM extraction_jobs").
		WithArgs(jobID).
		WillReturnRows(pgxmock.NewRows([]string{"job_id"}))

	_, err := store.GetJob(context.Background(), jobID)
	require.ErrorIs(t, err, contact.ErrJobNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListRecords(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	jobID := uuid.New()

	first := contact.NewRecord(contact.CompanyInput{OriginalText: "acme.com"})
	first.Phones = []string{"+12125550100"}
	second := contact.NewRecord(contact.CompanyInput{OriginalText: "globex.com"})
	p1, err := json.Marshal(first)
	require.NoError(t, err)
	p2, err := json.Marshal(second)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT payload FROM contact_records").
		WithArgs(jobID).
		WillReturnRows(pgxmock.NewRows([]string{"payload"}).AddRow(p1).AddRow(p2))

	records, err := store.ListRecords(context.Background(), jobID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "acme.com", records[0].Input.OriginalText)
	assert.Equal(t, []string{"+12125550100"}, records[0].Phones)
	assert.Equal(t, "globex.com", records[1].Input.OriginalText)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListRecordsBadPayload(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	jobID := uuid.New()
	mock.ExpectQuery("SELECT payload FROM contact_records").
		WithArgs(jobID).
		WillReturnRows(pgxmock.NewRows([]string{"payload"}).AddRow([]byte("{broken")))

	_, err := store.ListRecords(context.Background(), jobID)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
