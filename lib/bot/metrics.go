package bot

import (
	"context"
	"time"

	"github.com/onkernel/finbot/lib/session"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the instruments for update handling.
type Metrics struct {
	updatesTotal   metric.Int64Counter
	updateDuration metric.Float64Histogram
}

func newMetrics(meter metric.Meter, sessions session.Store) (*Metrics, error) {
	updatesTotal, err := meter.Int64Counter(
		"finbot_updates_total",
		metric.WithDescription("Total number of handled Telegram updates"),
	)
	if err != nil {
		return nil, err
	}

	updateDuration, err := meter.Float64Histogram(
		"finbot_update_duration_seconds",
		metric.WithDescription("Time to handle a Telegram update"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	sessionsActive, err := meter.Int64ObservableGauge(
		"finbot_sessions_active",
		metric.WithDescription("Number of conversations in the middle of a dialog"),
	)
	if err != nil {
		return nil, err
	}

	_, err = meter.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			o.ObserveInt64(sessionsActive, int64(sessions.Len()))
			return nil
		},
		sessionsActive,
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		updatesTotal:   updatesTotal,
		updateDuration: updateDuration,
	}, nil
}

func (b *Bot) recordUpdate(ctx context.Context, route, status string, start time.Time) {
	if b.metrics == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("route", route),
		attribute.String("status", status),
	)
	b.metrics.updatesTotal.Add(ctx, 1, attrs)
	b.metrics.updateDuration.Record(ctx, time.Since(start).Seconds(), attrs)
}
