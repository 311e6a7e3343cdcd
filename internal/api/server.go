// Package api exposes the HTTP interface for the extraction service.
// Notable routes:
//   - GET /healthz and /readyz for probes.
//   - GET /metrics for Prometheus scraping.
//   - POST /v1/jobs for job submission.
//   - GET /v1/jobs/{job_id}/status and /results, POST /v1/jobs/{job_id}/cancel.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pcrawley/contact-harvester/internal/contact"
)

const storeTimeout = 3 * time.Second

// JobRunner is the slice of the orchestrator the handlers need.
type JobRunner interface {
	Submit(ctx context.Context, inputs []contact.CompanyInput) (uuid.UUID, error)
	Cancel(jobID uuid.UUID) bool
}

// Server wires HTTP handlers to the orchestrator and record store.
type Server struct {
	router chi.Router
	runner JobRunner
	store  contact.RecordStore
	logger *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(runner JobRunner, store contact.RecordStore, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		runner: runner,
		store:  store,
		logger: logger,
	}
	r := chi.NewRouter()
	r.Use(requestLogging(logger))
	r.Use(recoverPanics(logger))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Route("/jobs", func(r chi.Router) {
			r.Post("/", s.submitJob)
			r.Route("/{job_id}", func(r chi.Router) {
				r.Get("/status", s.getJobStatus)
				r.Get("/results", s.getJobResults)
				r.Post("/cancel", s.cancelJob)
			})
		})
	})

	s.router = r
	return s
}

// Handler returns the Router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	if s.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
		defer cancel()
		// Any response from the store means it is reachable; an unknown
		// job is expected here.
		if _, err := s.store.GetJob(ctx, uuid.Nil); err != nil && !errors.Is(err, contact.ErrJobNotFound) {
			writeError(w, http.StatusServiceUnavailable, "record store unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type submitJobRequest struct {
	Companies []string `json:"companies"`
}

func (s *Server) submitJob(w http.ResponseWriter, r *http.Request) {
	var req submitJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	inputs := make([]contact.CompanyInput, 0, len(req.Companies))
	for _, text := range req.Companies {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		inputs = append(inputs, contact.CompanyInput{OriginalText: text})
	}
	if len(inputs) == 0 {
		writeError(w, http.StatusBadRequest, "at least one company required")
		return
	}
	jobID, err := s.runner.Submit(r.Context(), inputs)
	if err != nil {
		s.logger.Error("job submit failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to submit job")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":          jobID.String(),
		"total_companies": len(inputs),
	})
}

func (s *Server) getJobStatus(w http.ResponseWriter, r *http.Request) {
	jobID, err := parseJobID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, contact.ErrJobNotFound) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		s.logger.Error("get job failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load job")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"job": job})
}

func (s *Server) getJobResults(w http.ResponseWriter, r *http.Request) {
	jobID, err := parseJobID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, contact.ErrJobNotFound) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		s.logger.Error("get job failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load job")
		return
	}
	records, err := s.store.ListRecords(ctx, jobID)
	if err != nil {
		s.logger.Error("list records failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load records")
		return
	}
	if records == nil {
		records = []*contact.ContactRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"job":     job,
		"records": records,
	})
}

func (s *Server) cancelJob(w http.ResponseWriter, r *http.Request) {
	jobID, err := parseJobID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !s.runner.Cancel(jobID) {
		writeError(w, http.StatusNotFound, "job not running")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"job_id": jobID.String(),
		"status": contact.JobCanceled,
	})
}

func parseJobID(r *http.Request) (uuid.UUID, error) {
	jobIDStr := chi.URLParam(r, "job_id")
	if jobIDStr == "" {
		return uuid.UUID{}, errors.New("job_id is required")
	}
	jobID, err := uuid.Parse(jobIDStr)
	if err != nil {
		return uuid.UUID{}, errors.New("invalid job_id")
	}
	return jobID, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
