package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	appledger "github.com/genlab/backend/internal/application/ledger"
	"github.com/genlab/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeReconciler struct {
	calls   int32
	summary appledger.ReconcileSummary
	err     error
	block   chan struct{}
	entered chan struct{}
	sawDL   atomic.Bool
}

func (f *fakeReconciler) ReconcileAll(ctx context.Context) (appledger.ReconcileSummary, error) {
	atomic.AddInt32(&f.calls, 1)
	if _, ok := ctx.Deadline(); ok {
		f.sawDL.Store(true)
	}
	if f.entered != nil {
		close(f.entered)
	}
	if f.block != nil {
		<-f.block
	}
	return f.summary, f.err
}

func ledgerCfg(schedule string) config.LedgerConfig {
	return config.LedgerConfig{
		ReconcileEnabled:  true,
		ReconcileSchedule: schedule,
		ReconcileTimeout:  time.Minute,
	}
}

func TestReconcileScheduler_RunNow(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	rec := &fakeReconciler{summary: appledger.ReconcileSummary{Checked: 4, Repaired: 1}}
	s := NewReconcileScheduler(ledgerCfg("0 3 * * *"), rec, zap.New(core))

	job, err := s.RunNow(context.Background())
	require.NoError(t, err)

	assert.Equal(t, JobStatusSuccess, job.Status)
	assert.Equal(t, "manual", job.Trigger)
	assert.Equal(t, 4, job.Summary.Checked)
	assert.NotNil(t, job.CompletedAt)
	assert.True(t, rec.sawDL.Load(), "run carries the configured timeout")
	assert.Equal(t, 1, logs.FilterMessage("reconciliation completed").Len())

	last := s.LastRun()
	require.NotNil(t, last)
	assert.Equal(t, job.ID, last.ID)
}

func TestReconcileScheduler_RunFailure(t *testing.T) {
	rec := &fakeReconciler{err: errors.New("db down")}
	s := NewReconcileScheduler(ledgerCfg("0 3 * * *"), rec, nil)

	job, err := s.RunNow(context.Background())
	require.Error(t, err)
	assert.Equal(t, JobStatusFailed, job.Status)
	assert.Equal(t, "db down", job.Error)
	assert.Equal(t, JobStatusFailed, s.LastRun().Status)
}

func TestReconcileScheduler_NoOverlap(t *testing.T) {
	rec := &fakeReconciler{block: make(chan struct{}), entered: make(chan struct{})}
	s := NewReconcileScheduler(ledgerCfg("0 3 * * *"), rec, nil)

	done := make(chan error, 1)
	go func() {
		_, err := s.RunNow(context.Background())
		done <- err
	}()
	<-rec.entered

	_, err := s.RunNow(context.Background())
	assert.ErrorIs(t, err, ErrJobAlreadyRunning)

	close(rec.block)
	require.NoError(t, <-done)
	assert.Equal(t, int32(1), atomic.LoadInt32(&rec.calls))
}

func TestReconcileScheduler_InvalidSchedule(t *testing.T) {
	s := NewReconcileScheduler(ledgerCfg("every night"), &fakeReconciler{}, nil)
	err := s.Start()
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestReconcileScheduler_StartStop(t *testing.T) {
	s := NewReconcileScheduler(ledgerCfg("@every 1h"), &fakeReconciler{}, nil)

	require.NoError(t, s.Start())
	require.NoError(t, s.Start(), "start is idempotent")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	require.NoError(t, s.Stop(ctx))
	assert.Nil(t, s.LastRun())
}

type memoryArchive struct {
	mu      sync.Mutex
	objects map[string][]byte
	err     error
}

func (m *memoryArchive) Upload(_ context.Context, key string, data []byte, _ string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.objects == nil {
		m.objects = make(map[string][]byte)
	}
	m.objects[key] = data
	return "reports/" + key, nil
}

func TestReconcileScheduler_ArchivesReport(t *testing.T) {
	archive := &memoryArchive{}
	s := NewReconcileScheduler(ledgerCfg("0 3 * * *"), &fakeReconciler{
		summary: appledger.ReconcileSummary{Checked: 7, Repaired: 2, Overdrawn: 1},
	}, nil)
	s.SetArchive(archive)

	job, err := s.RunNow(context.Background())
	require.NoError(t, err)

	data, ok := archive.objects[job.ReportKey()]
	require.True(t, ok, "report stored under its key")

	var stored JobRun
	require.NoError(t, json.Unmarshal(data, &stored))
	assert.Equal(t, job.ID, stored.ID)
	assert.Equal(t, JobStatusSuccess, stored.Status)
	assert.Equal(t, 2, stored.Summary.Repaired)
	assert.Equal(t, 1, stored.Summary.Overdrawn)
}

func TestReconcileScheduler_ArchivesFailedRun(t *testing.T) {
	archive := &memoryArchive{}
	s := NewReconcileScheduler(ledgerCfg("0 3 * * *"), &fakeReconciler{err: errors.New("db down")}, nil)
	s.SetArchive(archive)

	job, err := s.RunNow(context.Background())
	require.Error(t, err)

	var stored JobRun
	require.NoError(t, json.Unmarshal(archive.objects[job.ReportKey()], &stored))
	assert.Equal(t, JobStatusFailed, stored.Status)
	assert.Equal(t, "db down", stored.Error)
}

func TestReconcileScheduler_ArchiveFailureDoesNotFailRun(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	s := NewReconcileScheduler(ledgerCfg("0 3 * * *"), &fakeReconciler{}, zap.New(core))
	s.SetArchive(&memoryArchive{err: errors.New("bucket gone")})

	job, err := s.RunNow(context.Background())

	require.NoError(t, err)
	assert.Equal(t, JobStatusSuccess, job.Status)
	assert.Equal(t, 1, logs.FilterMessage("failed to archive reconciliation report").Len())
}

func TestJobRun_ReportKey(t *testing.T) {
	job := newJobRun("cron")
	job.StartedAt = time.Date(2026, 10, 19, 3, 0, 0, 0, time.UTC)

	assert.Equal(t, "2026/10/19/"+job.ID.String()+".json", job.ReportKey())
}
