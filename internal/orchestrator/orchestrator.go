// Package orchestrator runs extraction jobs: a bounded worker pool executes
// the per-company pipeline and aggregates results into a job summary.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pcrawley/contact-harvester/internal/contact"
	"github.com/pcrawley/contact-harvester/internal/crawlsite"
	"github.com/pcrawley/contact-harvester/internal/metrics"
	"github.com/pcrawley/contact-harvester/internal/progress"
	"github.com/pcrawley/contact-harvester/internal/record"
	"github.com/pcrawley/contact-harvester/internal/resolve"
	"github.com/pcrawley/contact-harvester/internal/sources"
)

// Config controls job execution.
type Config struct {
	// Concurrency bounds the number of companies processed in parallel.
	Concurrency int
}

// Orchestrator accepts batches of company inputs and drives each one through
// resolve, crawl, fallback, and persistence.
type Orchestrator struct {
	resolver *resolve.Resolver
	crawler  *crawlsite.Crawler
	chain    *sources.Chain
	gate     sources.Gate
	store    contact.RecordStore
	emitter  progress.Emitter
	notifier contact.Notifier
	clock    contact.Clock
	ids      contact.IDGenerator
	cfg      Config
	logger   *zap.Logger

	mu      sync.Mutex
	cancels map[uuid.UUID]context.CancelFunc
	running sync.WaitGroup
}

// New constructs an Orchestrator. emitter and notifier may be nil.
func New(
	resolver *resolve.Resolver,
	crawler *crawlsite.Crawler,
	chain *sources.Chain,
	gate sources.Gate,
	store contact.RecordStore,
	emitter progress.Emitter,
	notifier contact.Notifier,
	clock contact.Clock,
	ids contact.IDGenerator,
	cfg Config,
	logger *zap.Logger,
) *Orchestrator {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if clock == nil {
		clock = contact.SystemClock{}
	}
	if ids == nil {
		ids = contact.UUIDGenerator{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		resolver: resolver,
		crawler:  crawler,
		chain:    chain,
		gate:     gate,
		store:    store,
		emitter:  emitter,
		notifier: notifier,
		clock:    clock,
		ids:      ids,
		cfg:      cfg,
		logger:   logger,
		cancels:  make(map[uuid.UUID]context.CancelFunc),
	}
}

// Submit registers a new job and starts it in the background. The returned
// ID can be used to poll status and fetch results while the job runs.
func (o *Orchestrator) Submit(ctx context.Context, inputs []contact.CompanyInput) (uuid.UUID, error) {
	if len(inputs) == 0 {
		return uuid.Nil, errors.New("no companies submitted")
	}
	jobID := o.ids.NewID()
	job := contact.JobSummary{
		JobID:          jobID,
		Status:         contact.JobPending,
		TotalCompanies: len(inputs),
		Submitted:      o.clock.Now(),
	}
	if err := o.store.SaveJob(ctx, job); err != nil {
		return uuid.Nil, fmt.Errorf("save job: %w", err)
	}

	// The job outlives the submit request, so it runs on its own context.
	jobCtx, cancel := context.WithCancel(context.Background())
	o.mu.Lock()
	o.cancels[jobID] = cancel
	o.mu.Unlock()

	o.running.Add(1)
	go func() {
		defer o.running.Done()
		defer o.clearCancel(jobID)
		o.runJob(jobCtx, job, inputs)
	}()
	return jobID, nil
}

// Cancel requests cooperative cancellation of a running job. It reports
// whether the job was known and still cancelable.
func (o *Orchestrator) Cancel(jobID uuid.UUID) bool {
	o.mu.Lock()
	cancel, ok := o.cancels[jobID]
	o.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

// Shutdown waits for in-flight jobs to finish or the context to expire.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		o.running.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("orchestrator shutdown wait: %w", ctx.Err())
	}
}

func (o *Orchestrator) clearCancel(jobID uuid.UUID) {
	o.mu.Lock()
	if cancel, ok := o.cancels[jobID]; ok {
		cancel()
		delete(o.cancels, jobID)
	}
	o.mu.Unlock()
}

func (o *Orchestrator) runJob(ctx context.Context, job contact.JobSummary, inputs []contact.CompanyInput) {
	started := o.clock.Now()
	job.Status = contact.JobRunning
	job.Started = &started
	if err := o.store.UpdateJob(context.WithoutCancel(ctx), job); err != nil {
		o.logger.Error("mark job running failed", zap.String("job_id", job.JobID.String()), zap.Error(err))
	}
	o.emit(progress.Event{JobID: job.JobID, TS: started, Stage: progress.StageJobStart, Total: job.TotalCompanies})

	var processed, phones, emails atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.Concurrency)
	for _, input := range inputs {
		input := input
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			companyStart := o.clock.Now()
			rec := o.processCompany(gctx, input)
			// Persistence must survive job cancellation; whatever was
			// gathered before the cancel is still a result.
			saveCtx := context.WithoutCancel(gctx)
			if err := o.store.SaveRecord(saveCtx, job.JobID, rec); err != nil {
				o.logger.Error("save record failed",
					zap.String("job_id", job.JobID.String()),
					zap.String("company", input.OriginalText),
					zap.Error(err))
			}
			metrics.CompaniesProcessed.WithLabelValues(string(rec.Status)).Inc()
			done := processed.Add(1)
			p := phones.Add(int64(len(rec.Phones)))
			e := emails.Add(int64(len(rec.Emails)))
			o.emit(progress.Event{
				JobID:     job.JobID,
				TS:        o.clock.Now(),
				Stage:     progress.StageCompanyDone,
				Company:   input.OriginalText,
				Status:    string(rec.Status),
				Processed: int(done),
				Total:     job.TotalCompanies,
				Phones:    int(p),
				Emails:    int(e),
				Dur:       o.clock.Now().Sub(companyStart),
			})
			return nil
		})
	}
	_ = g.Wait()

	finished := o.clock.Now()
	job.ProcessedCompanies = int(processed.Load())
	job.TotalPhonesFound = int(phones.Load())
	job.TotalEmailsFound = int(emails.Load())
	job.Finished = &finished
	stage := progress.StageJobDone
	switch {
	case ctx.Err() != nil:
		job.Status = contact.JobCanceled
		job.ErrorText = "job canceled"
		stage = progress.StageJobError
	default:
		job.Status = contact.JobCompleted
	}
	if err := o.store.UpdateJob(context.WithoutCancel(ctx), job); err != nil {
		o.logger.Error("finalize job failed", zap.String("job_id", job.JobID.String()), zap.Error(err))
	}
	o.emit(progress.Event{
		JobID:     job.JobID,
		TS:        finished,
		Stage:     stage,
		Processed: job.ProcessedCompanies,
		Total:     job.TotalCompanies,
		Phones:    job.TotalPhonesFound,
		Emails:    job.TotalEmailsFound,
		Dur:       finished.Sub(started),
		Note:      job.ErrorText,
	})
	if o.notifier != nil {
		notifyCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := o.notifier.Publish(notifyCtx, job); err != nil {
			o.logger.Warn("job notification failed", zap.String("job_id", job.JobID.String()), zap.Error(err))
		}
	}
	o.logger.Info("job finished",
		zap.String("job_id", job.JobID.String()),
		zap.String("status", job.Status),
		zap.Int("processed", job.ProcessedCompanies),
		zap.Int("phones", job.TotalPhonesFound),
		zap.Int("emails", job.TotalEmailsFound))
}

// processCompany runs the full pipeline for one input. It always returns a
// finalized record; failures surface as statuses and notes, not errors.
func (o *Orchestrator) processCompany(ctx context.Context, input contact.CompanyInput) *contact.ContactRecord {
	rec := contact.NewRecord(input)

	target := o.resolver.Resolve(ctx, input)
	rec.Input = target.Input
	rec.ResolvedCompanyName = target.CompanyName
	rec.ResolvedWebsiteURL = target.WebsiteURL
	resolutionFailed := target.CandidateDomain == ""

	if !resolutionFailed {
		if err := o.crawler.Crawl(ctx, target, rec); err != nil {
			if errors.Is(err, contact.ErrRobotsDisallowed) {
				rec.AppendNote("Website crawl disallowed by robots.txt.")
			} else if errors.Is(err, contact.ErrDomainUnreachable) {
				rec.AppendNote("Website unreachable.")
			} else {
				o.logger.Warn("crawl aborted",
					zap.String("company", input.OriginalText),
					zap.Error(err))
			}
		}
	} else {
		rec.AppendNote(resolve.Describe(target))
	}

	if ctx.Err() == nil && o.gate.Insufficient(rec) {
		o.chain.Run(ctx, target, rec)
	}

	record.Finalize(rec, resolutionFailed)
	rec.CompletedAt = o.clock.Now()
	return rec
}

func (o *Orchestrator) emit(evt progress.Event) {
	if o.emitter == nil {
		return
	}
	o.emitter.Emit(evt)
}
