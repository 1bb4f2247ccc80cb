package ledger

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the instruments for ledger operations.
type Metrics struct {
	transactionsTotal metric.Int64Counter
	storeDuration     metric.Float64Histogram
}

func newMetrics(meter metric.Meter) (*Metrics, error) {
	transactionsTotal, err := meter.Int64Counter(
		"finbot_transactions_total",
		metric.WithDescription("Total number of transactions submitted to the ledger"),
	)
	if err != nil {
		return nil, err
	}

	storeDuration, err := meter.Float64Histogram(
		"finbot_store_duration_seconds",
		metric.WithDescription("Duration of ledger store operations"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		transactionsTotal: transactionsTotal,
		storeDuration:     storeDuration,
	}, nil
}

func (m *manager) recordTransaction(ctx context.Context, kind Kind, status string) {
	if m.metrics == nil {
		return
	}
	m.metrics.transactionsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", string(kind)),
		attribute.String("status", status),
	))
}

func (m *manager) recordStoreOp(ctx context.Context, op string, start time.Time, err error) {
	if m.metrics == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.metrics.storeDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("driver", m.store.Driver()),
		attribute.String("status", status),
	))
}
