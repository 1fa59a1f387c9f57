package telemetry

import (
	"context"
	"fmt"

	appledger "github.com/genlab/backend/internal/application/ledger"
	"github.com/genlab/backend/internal/domain/shared/valueobject"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const ledgerMeterName = "github.com/genlab/backend/ledger"

// LedgerMetrics records ledger business measurements with OpenTelemetry
type LedgerMetrics struct {
	withdrawals        metric.Int64Counter
	withdrawnQuantity  metric.Float64Counter
	rejections         metric.Int64Counter
	retries            metric.Int64Counter
	compensations      metric.Int64Counter
	compensatedOutputs metric.Int64Counter
	restoredQuantity   metric.Float64Counter
	drift              metric.Int64Counter
}

// NewLedgerMetrics registers the ledger instruments on meter
func NewLedgerMetrics(meter metric.Meter) (*LedgerMetrics, error) {
	m := &LedgerMetrics{}
	var err error

	if m.withdrawals, err = meter.Int64Counter("ledger.withdrawals",
		metric.WithDescription("Committed output records"),
		metric.WithUnit("{output}"),
	); err != nil {
		return nil, fmt.Errorf("create withdrawals counter: %w", err)
	}
	if m.withdrawnQuantity, err = meter.Float64Counter("ledger.withdrawn.quantity",
		metric.WithDescription("Sample quantity withdrawn from inputs"),
	); err != nil {
		return nil, fmt.Errorf("create withdrawn quantity counter: %w", err)
	}
	if m.rejections, err = meter.Int64Counter("ledger.rejections",
		metric.WithDescription("Ledger mutations rejected with a domain error"),
	); err != nil {
		return nil, fmt.Errorf("create rejections counter: %w", err)
	}
	if m.retries, err = meter.Int64Counter("ledger.retries",
		metric.WithDescription("Units of work replayed after an optimistic lock failure"),
	); err != nil {
		return nil, fmt.Errorf("create retries counter: %w", err)
	}
	if m.compensations, err = meter.Int64Counter("ledger.compensations",
		metric.WithDescription("Production batches deleted with quantity restored"),
	); err != nil {
		return nil, fmt.Errorf("create compensations counter: %w", err)
	}
	if m.compensatedOutputs, err = meter.Int64Counter("ledger.compensations.outputs",
		metric.WithDescription("Outputs removed by batch compensation"),
		metric.WithUnit("{output}"),
	); err != nil {
		return nil, fmt.Errorf("create compensated outputs counter: %w", err)
	}
	if m.restoredQuantity, err = meter.Float64Counter("ledger.compensations.restored",
		metric.WithDescription("Sample quantity restored to inputs by batch compensation"),
	); err != nil {
		return nil, fmt.Errorf("create restored quantity counter: %w", err)
	}
	if m.drift, err = meter.Int64Counter("ledger.drift",
		metric.WithDescription("Inputs whose stored consumption disagreed with their outputs"),
	); err != nil {
		return nil, fmt.Errorf("create drift counter: %w", err)
	}

	return m, nil
}

func (m *LedgerMetrics) RecordWithdrawal(ctx context.Context, quantity valueobject.Quantity) {
	m.withdrawals.Add(ctx, 1)
	m.withdrawnQuantity.Add(ctx, quantity.Amount().InexactFloat64())
}

func (m *LedgerMetrics) RecordRejection(ctx context.Context, operation, code string) {
	m.rejections.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("code", code),
	))
}

func (m *LedgerMetrics) RecordRetry(ctx context.Context, operation string) {
	m.retries.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation)))
}

func (m *LedgerMetrics) RecordCompensation(ctx context.Context, outputs int, amount valueobject.Quantity) {
	m.compensations.Add(ctx, 1)
	m.compensatedOutputs.Add(ctx, int64(outputs))
	m.restoredQuantity.Add(ctx, amount.Amount().InexactFloat64())
}

func (m *LedgerMetrics) RecordDrift(ctx context.Context, repaired bool) {
	m.drift.Add(ctx, 1, metric.WithAttributes(attribute.Bool("repaired", repaired)))
}

var _ appledger.Metrics = (*LedgerMetrics)(nil)
