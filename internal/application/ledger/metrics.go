package ledger

import (
	"context"

	"github.com/genlab/backend/internal/domain/shared/valueobject"
)

// Metrics receives ledger business measurements. The telemetry package
// provides the OpenTelemetry implementation.
type Metrics interface {
	RecordWithdrawal(ctx context.Context, quantity valueobject.Quantity)
	RecordRejection(ctx context.Context, operation, code string)
	RecordRetry(ctx context.Context, operation string)
	RecordCompensation(ctx context.Context, outputs int, amount valueobject.Quantity)
	RecordDrift(ctx context.Context, repaired bool)
}

type noopMetrics struct{}

func (noopMetrics) RecordWithdrawal(context.Context, valueobject.Quantity)        {}
func (noopMetrics) RecordRejection(context.Context, string, string)               {}
func (noopMetrics) RecordRetry(context.Context, string)                           {}
func (noopMetrics) RecordCompensation(context.Context, int, valueobject.Quantity) {}
func (noopMetrics) RecordDrift(context.Context, bool)                             {}
