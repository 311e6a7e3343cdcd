// Package memory provides an in-process RecordStore for development and
// tests.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/pcrawley/contact-harvester/internal/contact"
)

// RecordStore keeps jobs and records in maps guarded by a mutex.
type RecordStore struct {
	mu      sync.RWMutex
	jobs    map[uuid.UUID]contact.JobSummary
	records map[uuid.UUID][]*contact.ContactRecord
}

// NewRecordStore builds an empty store.
func NewRecordStore() *RecordStore {
	return &RecordStore{
		jobs:    make(map[uuid.UUID]contact.JobSummary),
		records: make(map[uuid.UUID][]*contact.ContactRecord),
	}
}

// SaveJob registers a new job summary.
func (s *RecordStore) SaveJob(_ context.Context, job contact.JobSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.JobID] = job
	return nil
}

// UpdateJob overwrites an existing job summary.
func (s *RecordStore) UpdateJob(_ context.Context, job contact.JobSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.JobID]; !ok {
		return contact.ErrJobNotFound
	}
	s.jobs[job.JobID] = job
	return nil
}

// SaveRecord appends a finished record to the job's result set.
func (s *RecordStore) SaveRecord(_ context.Context, jobID uuid.UUID, record *contact.ContactRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[jobID] = append(s.records[jobID], record)
	return nil
}

// GetJob loads a job summary or returns contact.ErrJobNotFound.
func (s *RecordStore) GetJob(_ context.Context, jobID uuid.UUID) (contact.JobSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return contact.JobSummary{}, contact.ErrJobNotFound
	}
	return job, nil
}

// ListRecords returns the records saved for a job, in insertion order.
func (s *RecordStore) ListRecords(_ context.Context, jobID uuid.UUID) ([]*contact.ContactRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.jobs[jobID]; !ok {
		return nil, contact.ErrJobNotFound
	}
	return append([]*contact.ContactRecord(nil), s.records[jobID]...), nil
}
