package telemetry

import (
	"context"
	"errors"

	"github.com/genlab/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Providers bundles every telemetry component started for the process
type Providers struct {
	Tracer   *TracerProvider
	Meter    *MeterProvider
	Logs     *LoggerProvider
	Profiler *Profiler
	Ledger   *LedgerMetrics
}

// Setup starts tracing, metrics, the log bridge and profiling as configured.
// Disabled components are no-ops, so the result is always usable.
func Setup(ctx context.Context, cfg config.TelemetryConfig, env string, logger *zap.Logger) (*Providers, error) {
	p := &Providers{}
	var err error

	if p.Tracer, err = NewTracerProvider(ctx, cfg, env, logger); err != nil {
		return nil, err
	}
	if p.Meter, err = NewMeterProvider(ctx, cfg, env, logger); err != nil {
		_ = p.Shutdown(ctx)
		return nil, err
	}
	if p.Logs, err = NewLoggerProvider(ctx, cfg, env, logger); err != nil {
		_ = p.Shutdown(ctx)
		return nil, err
	}
	if p.Profiler, err = NewProfiler(cfg, env, logger); err != nil {
		_ = p.Shutdown(ctx)
		return nil, err
	}
	if p.Profiler.IsEnabled() {
		p.Tracer.EnableSpanProfiles()
	}
	if p.Ledger, err = NewLedgerMetrics(p.Meter.Meter(ledgerMeterName)); err != nil {
		_ = p.Shutdown(ctx)
		return nil, err
	}

	return p, nil
}

// Shutdown stops every started component, flushing pending data
func (p *Providers) Shutdown(ctx context.Context) error {
	var errs []error
	if p.Profiler != nil {
		errs = append(errs, p.Profiler.Stop())
	}
	if p.Logs != nil {
		errs = append(errs, p.Logs.Shutdown(ctx))
	}
	if p.Meter != nil {
		errs = append(errs, p.Meter.Shutdown(ctx))
	}
	if p.Tracer != nil {
		errs = append(errs, p.Tracer.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
