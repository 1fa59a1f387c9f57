// Package scheduler runs the periodic ledger reconciliation.
package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	appledger "github.com/genlab/backend/internal/application/ledger"
	"github.com/genlab/backend/internal/infrastructure/config"
	"github.com/genlab/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// JobStatus represents the status of a reconciliation run
type JobStatus string

const (
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// JobRun records one reconciliation pass
type JobRun struct {
	ID          uuid.UUID                  `json:"id"`
	Trigger     string                     `json:"trigger"` // "cron" or "manual"
	Status      JobStatus                  `json:"status"`
	Error       string                     `json:"error,omitempty"`
	Summary     appledger.ReconcileSummary `json:"summary"`
	StartedAt   time.Time                  `json:"started_at"`
	CompletedAt *time.Time                 `json:"completed_at,omitempty"`
}

// ReportKey is the object key a run is archived under
func (j *JobRun) ReportKey() string {
	return fmt.Sprintf("%s/%s.json", j.StartedAt.UTC().Format("2006/01/02"), j.ID)
}

func newJobRun(trigger string) *JobRun {
	return &JobRun{
		ID:        uuid.New(),
		Trigger:   trigger,
		Status:    JobStatusRunning,
		StartedAt: time.Now(),
	}
}

func (j *JobRun) complete(summary appledger.ReconcileSummary) {
	now := time.Now()
	j.Status = JobStatusSuccess
	j.Summary = summary
	j.CompletedAt = &now
}

func (j *JobRun) fail(summary appledger.ReconcileSummary, err error) {
	now := time.Now()
	j.Status = JobStatusFailed
	j.Summary = summary
	j.Error = err.Error()
	j.CompletedAt = &now
}

// Reconciler re-derives every Input's consumed quantity
type Reconciler interface {
	ReconcileAll(ctx context.Context) (appledger.ReconcileSummary, error)
}

// ReportArchive stores finished run reports, typically in object storage
type ReportArchive interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// ReconcileScheduler triggers ledger reconciliation on a cron schedule
type ReconcileScheduler struct {
	cron       *cron.Cron
	reconciler Reconciler
	schedule   string
	timeout    time.Duration
	archive    ReportArchive
	logger     *zap.Logger

	mu      sync.Mutex
	running bool
	started bool
	lastRun *JobRun
}

// NewReconcileScheduler creates a scheduler from the ledger configuration.
// The cron expression uses the standard five fields.
func NewReconcileScheduler(cfg config.LedgerConfig, reconciler Reconciler, logger *zap.Logger) *ReconcileScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("scheduler")

	return &ReconcileScheduler{
		cron:       cron.New(cron.WithLogger(cronLogger{logger.Sugar()})),
		reconciler: reconciler,
		schedule:   cfg.ReconcileSchedule,
		timeout:    cfg.ReconcileTimeout,
		logger:     logger,
	}
}

// SetArchive makes every finished run upload its report to archive
func (s *ReconcileScheduler) SetArchive(archive ReportArchive) {
	s.archive = archive
}

// Start registers the reconciliation job and starts the cron loop
func (s *ReconcileScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, s.runScheduled); err != nil {
		return fmt.Errorf("%w: schedule %q: %v", ErrInvalidConfig, s.schedule, err)
	}
	s.cron.Start()
	s.started = true

	s.logger.Info("ledger reconciliation scheduled",
		zap.String("schedule", s.schedule),
		zap.Duration("timeout", s.timeout),
	)
	return nil
}

// Stop stops the cron loop and waits for a running pass to finish or ctx to expire
func (s *ReconcileScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	s.mu.Unlock()

	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("ledger reconciliation scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("ledger reconciliation scheduler stop timed out")
		return ctx.Err()
	}
}

// RunNow runs a reconciliation pass synchronously
func (s *ReconcileScheduler) RunNow(ctx context.Context) (*JobRun, error) {
	return s.run(ctx, "manual")
}

// LastRun returns a copy of the most recent run, or nil
func (s *ReconcileScheduler) LastRun() *JobRun {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastRun == nil {
		return nil
	}
	run := *s.lastRun
	return &run
}

func (s *ReconcileScheduler) runScheduled() {
	if _, err := s.run(context.Background(), "cron"); err != nil && err != ErrJobAlreadyRunning {
		s.logger.Error("scheduled reconciliation failed", zap.Error(err))
	}
}

func (s *ReconcileScheduler) run(ctx context.Context, trigger string) (*JobRun, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Warn("skipping reconciliation, previous run still in progress", zap.String("trigger", trigger))
		return nil, ErrJobAlreadyRunning
	}
	s.running = true
	job := newJobRun(trigger)
	s.mu.Unlock()

	defer func() {
		s.archiveRun(ctx, job)
		s.mu.Lock()
		s.running = false
		s.lastRun = job
		s.mu.Unlock()
	}()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	ctx, span := telemetry.StartSpan(ctx, "ledger.reconcile",
		attribute.String("job.id", job.ID.String()),
		attribute.String("job.trigger", trigger),
	)
	defer span.End()

	s.logger.Info("reconciliation started", zap.String("job_id", job.ID.String()), zap.String("trigger", trigger))

	summary, err := s.reconciler.ReconcileAll(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		job.fail(summary, err)
		return job, err
	}
	span.SetAttributes(
		attribute.Int("ledger.checked", summary.Checked),
		attribute.Int("ledger.repaired", summary.Repaired),
	)
	job.complete(summary)

	s.logger.Info("reconciliation completed",
		zap.String("job_id", job.ID.String()),
		zap.Duration("took", job.CompletedAt.Sub(job.StartedAt)),
		zap.Int("checked", summary.Checked),
		zap.Int("repaired", summary.Repaired),
	)
	return job, nil
}

// archiveRun uploads the run report. A failed upload is logged only; the
// reconciliation itself already happened.
func (s *ReconcileScheduler) archiveRun(ctx context.Context, job *JobRun) {
	if s.archive == nil {
		return
	}
	data, err := json.Marshal(job)
	if err != nil {
		s.logger.Error("failed to encode reconciliation report", zap.Error(err))
		return
	}
	uploadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	key, err := s.archive.Upload(uploadCtx, job.ReportKey(), data, "application/json")
	if err != nil {
		s.logger.Warn("failed to archive reconciliation report", zap.String("job_id", job.ID.String()), zap.Error(err))
		return
	}
	s.logger.Info("reconciliation report archived", zap.String("job_id", job.ID.String()), zap.String("key", key))
}

// cronLogger adapts zap to cron.Logger
type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}
