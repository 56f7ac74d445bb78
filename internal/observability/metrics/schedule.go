package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	scheduleMeterName = "itinerary.schedule"
)

type ScheduleMetrics struct {
	mutations           metric.Int64Counter
	itemsRecomputed     metric.Int64Counter
	persistenceFailures metric.Int64Counter
	midnightSpills      metric.Int64Counter
	saveDuration        metric.Float64Histogram
	autosaveDuration    metric.Float64Histogram
}

func NewScheduleMetrics() (*ScheduleMetrics, error) {
	meter := otel.Meter(scheduleMeterName)

	mutations, err := meter.Int64Counter(
		"itinerary_mutations_total",
		metric.WithDescription("Total number of itinerary mutations"),
		metric.WithUnit("{mutation}"),
	)
	if err != nil {
		return nil, err
	}

	itemsRecomputed, err := meter.Int64Counter(
		"itinerary_items_recomputed_total",
		metric.WithDescription("Total number of items changed by chain recomputation"),
		metric.WithUnit("{item}"),
	)
	if err != nil {
		return nil, err
	}

	persistenceFailures, err := meter.Int64Counter(
		"itinerary_persistence_failures_total",
		metric.WithDescription("Total number of failed item writes"),
		metric.WithUnit("{item}"),
	)
	if err != nil {
		return nil, err
	}

	midnightSpills, err := meter.Int64Counter(
		"itinerary_midnight_spills_total",
		metric.WithDescription("Mutations that left a day running past midnight"),
		metric.WithUnit("{day}"),
	)
	if err != nil {
		return nil, err
	}

	saveDuration, err := meter.Float64Histogram(
		"itinerary_save_duration_seconds",
		metric.WithDescription("Duration of a background save"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(
			0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1,
		),
	)
	if err != nil {
		return nil, err
	}

	autosaveDuration, err := meter.Float64Histogram(
		"itinerary_autosave_duration_seconds",
		metric.WithDescription("Duration of a full autosave run"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(
			0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30,
		),
	)
	if err != nil {
		return nil, err
	}

	return &ScheduleMetrics{
		mutations:           mutations,
		itemsRecomputed:     itemsRecomputed,
		persistenceFailures: persistenceFailures,
		midnightSpills:      midnightSpills,
		saveDuration:        saveDuration,
		autosaveDuration:    autosaveDuration,
	}, nil
}

func (m *ScheduleMetrics) RecordMutation(ctx context.Context, operation string, applied bool) {
	m.mutations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.Bool("applied", applied),
	))
}

func (m *ScheduleMetrics) RecordItemsRecomputed(ctx context.Context, operation string, count int) {
	if count <= 0 {
		return
	}
	m.itemsRecomputed.Add(ctx, int64(count), metric.WithAttributes(
		attribute.String("operation", operation),
	))
}

func (m *ScheduleMetrics) RecordPersistenceFailure(ctx context.Context, op string) {
	m.persistenceFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", op),
	))
}

func (m *ScheduleMetrics) RecordMidnightSpill(ctx context.Context) {
	m.midnightSpills.Add(ctx, 1)
}

func (m *ScheduleMetrics) RecordSaveDuration(ctx context.Context, outcome string, duration time.Duration) {
	m.saveDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}

func (m *ScheduleMetrics) RecordAutosaveDuration(ctx context.Context, itemCount int, duration time.Duration) {
	m.autosaveDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.Int("item_count", itemCount),
	))
}
