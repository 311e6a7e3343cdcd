package sinks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pcrawley/contact-harvester/internal/progress"
)

// PrometheusSink exports job progress via Prometheus. It owns the collectors
// for jobs started/completed/running and per-company completion counters.
type PrometheusSink struct {
	jobsStarted   prometheus.Counter
	jobsCompleted *prometheus.CounterVec
	jobsRunning   prometheus.Gauge
	jobRuntime    *prometheus.HistogramVec
	companiesDone *prometheus.CounterVec
	companyTime   prometheus.Histogram

	mu       sync.Mutex
	startsAt map[string]time.Time
}

// NewPrometheusSink registers the collectors against the provided registry.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PrometheusSink{
		jobsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "harvester_jobs_started_total",
			Help: "Total jobs that have started.",
		}),
		jobsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "harvester_jobs_completed_total",
			Help: "Total jobs completed partitioned by result.",
		}, []string{"result"}),
		jobsRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "harvester_jobs_running",
			Help: "Current number of running jobs.",
		}),
		jobRuntime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "harvester_job_runtime_seconds",
			Help:    "Wall time per completed job.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		}, []string{"result"}),
		companiesDone: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "harvester_companies_completed_total",
			Help: "Company completions partitioned by extraction status.",
		}, []string{"status"}),
		companyTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "harvester_company_duration_seconds",
			Help:    "Wall time per company pipeline run.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}),
		startsAt: make(map[string]time.Time),
	}
	for _, collector := range []prometheus.Collector{
		s.jobsStarted,
		s.jobsCompleted,
		s.jobsRunning,
		s.jobRuntime,
		s.companiesDone,
		s.companyTime,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register progress collector: %w", err)
		}
	}
	return s, nil
}

// Consume updates the collectors using the provided batch. Safe for
// concurrent use.
func (s *PrometheusSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		s.consumeEvent(evt)
	}
	return nil
}

func (s *PrometheusSink) consumeEvent(evt progress.Event) {
	switch evt.Stage {
	case progress.StageJobStart:
		s.jobsStarted.Inc()
		s.jobsRunning.Inc()
		s.trackStart(evt.JobID.String(), evt.TS)
	case progress.StageJobDone:
		s.completeJob(evt, "success")
	case progress.StageJobError:
		s.completeJob(evt, "error")
	case progress.StageCompanyDone:
		s.companiesDone.WithLabelValues(evt.Status).Inc()
		if evt.Dur > 0 {
			s.companyTime.Observe(evt.Dur.Seconds())
		}
	}
}

func (s *PrometheusSink) completeJob(evt progress.Event, result string) {
	s.jobsRunning.Dec()
	s.jobsCompleted.WithLabelValues(result).Inc()
	dur := evt.Dur
	if dur <= 0 {
		if start, ok := s.takeStart(evt.JobID.String()); ok {
			dur = evt.TS.Sub(start)
		}
	}
	if dur > 0 {
		s.jobRuntime.WithLabelValues(result).Observe(dur.Seconds())
	}
}

func (s *PrometheusSink) trackStart(id string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startsAt[id] = at
}

func (s *PrometheusSink) takeStart(id string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	at, ok := s.startsAt[id]
	if ok {
		delete(s.startsAt, id)
	}
	return at, ok
}

// Close implements the Sink interface; it performs no action.
func (s *PrometheusSink) Close(context.Context) error {
	return nil
}
