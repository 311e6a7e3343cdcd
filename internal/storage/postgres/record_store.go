// Package postgres provides Postgres-backed persistence implementations.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pcrawley/contact-harvester/internal/contact"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// RecordStoreConfig controls the Postgres connection pool used for job and
// record rows.
type RecordStoreConfig struct {
	DSN             string
	RecordsTable    string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pgxPool interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	QueryRow(context.Context, string, ...any) pgx.Row
	Query(context.Context, string, ...any) (pgx.Rows, error)
	Close()
}

// RecordStore persists job summaries in extraction_jobs and finished records
// as JSONB rows in the configured records table.
type RecordStore struct {
	pool  pgxPool
	table string
}

// NewRecordStore creates a Postgres-backed RecordStore using the provided
// config.
func NewRecordStore(ctx context.Context, cfg RecordStoreConfig) (*RecordStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	table := cfg.RecordsTable
	if table == "" {
		table = "contact_records"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &RecordStore{pool: pool, table: table}, nil
}

// NewRecordStoreWithPool constructs a store from an existing pool (primarily
// for testing).
func NewRecordStoreWithPool(pool pgxPool, table string) (*RecordStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "contact_records"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &RecordStore{pool: pool, table: table}, nil
}

// Close releases the underlying pool resources.
func (s *RecordStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// SaveJob inserts a new job summary row.
func (s *RecordStore) SaveJob(ctx context.Context, job contact.JobSummary) error {
	query := `
INSERT INTO extraction_jobs (
	job_id,
	status,
	total_companies,
	processed_companies,
	total_phones_found,
	total_emails_found,
	submitted_at,
	started_at,
	finished_at,
	error_text
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`
	if _, err := s.pool.Exec(ctx, query,
		job.JobID,
		job.Status,
		job.TotalCompanies,
		job.ProcessedCompanies,
		job.TotalPhonesFound,
		job.TotalEmailsFound,
		job.Submitted,
		job.Started,
		job.Finished,
		job.ErrorText,
	); err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// UpdateJob rewrites the mutable columns of a job summary.
func (s *RecordStore) UpdateJob(ctx context.Context, job contact.JobSummary) error {
	query := `
UPDATE extraction_jobs SET
	status = $2,
	processed_companies = $3,
	total_phones_found = $4,
	total_emails_found = $5,
	started_at = $6,
	finished_at = $7,
	error_text = $8
WHERE job_id = $1`
	tag, err := s.pool.Exec(ctx, query,
		job.JobID,
		job.Status,
		job.ProcessedCompanies,
		job.TotalPhonesFound,
		job.TotalEmailsFound,
		job.Started,
		job.Finished,
		job.ErrorText,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return contact.ErrJobNotFound
	}
	return nil
}

// SaveRecord appends one finished record as a JSONB payload row.
func (s *RecordStore) SaveRecord(ctx context.Context, jobID uuid.UUID, record *contact.ContactRecord) error {
	if record == nil {
		return fmt.Errorf("record is required")
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	job_id,
	input_text,
	status,
	confidence_score,
	payload,
	created_at
) VALUES ($1,$2,$3,$4,$5,$6)`, s.table)
	if _, err := s.pool.Exec(ctx, query,
		jobID,
		record.Input.OriginalText,
		string(record.Status),
		record.ConfidenceScore,
		payload,
		record.CompletedAt,
	); err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

// GetJob loads one job summary or returns contact.ErrJobNotFound.
func (s *RecordStore) GetJob(ctx context.Context, jobID uuid.UUID) (contact.JobSummary, error) {
	query := `
SELECT job_id, status, total_companies, processed_companies,
	total_phones_found, total_emails_found,
	submitted_at, started_at, finished_at, error_text
FROM extraction_jobs
WHERE job_id = $1`
	var job contact.JobSummary
	err := s.pool.QueryRow(ctx, query, jobID).Scan(
		&job.JobID,
		&job.Status,
		&job.TotalCompanies,
		&job.ProcessedCompanies,
		&job.TotalPhonesFound,
		&job.TotalEmailsFound,
		&job.Submitted,
		&job.Started,
		&job.Finished,
		&job.ErrorText,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return contact.JobSummary{}, contact.ErrJobNotFound
		}
		return contact.JobSummary{}, fmt.Errorf("select job: %w", err)
	}
	return job, nil
}

// ListRecords returns the records saved for a job, oldest first.
func (s *RecordStore) ListRecords(ctx context.Context, jobID uuid.UUID) ([]*contact.ContactRecord, error) {
	query := fmt.Sprintf(`SELECT payload FROM %s WHERE job_id = $1 ORDER BY id`, s.table)
	rows, err := s.pool.Query(ctx, query, jobID)
	if err != nil {
		return nil, fmt.Errorf("select records: %w", err)
	}
	defer rows.Close()

	var out []*contact.ContactRecord
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		var rec contact.ContactRecord
		if err := json.Unmarshal(payload, &rec); err != nil {
			return nil, fmt.Errorf("unmarshal record: %w", err)
		}
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return out, nil
}
