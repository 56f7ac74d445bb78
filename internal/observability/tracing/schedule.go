package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const scheduleTracerName = "github.com/KasumiMercury/primind-itinerary/internal/service/itinerary"

func ScheduleTracer() trace.Tracer {
	return otel.Tracer(scheduleTracerName)
}

func StartMutationSpan(ctx context.Context, operation, itemID, dayDate string) (context.Context, trace.Span) {
	return ScheduleTracer().Start(ctx, "itinerary."+operation,
		trace.WithAttributes(
			attribute.String("item.id", itemID),
			attribute.String("item.day_date", dayDate),
		),
	)
}

func StartSaveSpan(ctx context.Context, itemCount, deleteCount int) (context.Context, trace.Span) {
	return ScheduleTracer().Start(ctx, "itinerary.save",
		trace.WithAttributes(
			attribute.Int("save.upsert_count", itemCount),
			attribute.Int("save.delete_count", deleteCount),
		),
	)
}

func StartAutosaveSpan(ctx context.Context) (context.Context, trace.Span) {
	return ScheduleTracer().Start(ctx, "itinerary.autosave")
}

func StartRedisOperationSpan(ctx context.Context, operation, key string) (context.Context, trace.Span) {
	return ScheduleTracer().Start(ctx, "itinerary.redis."+operation,
		trace.WithAttributes(
			attribute.String("db.system", "redis"),
			attribute.String("db.operation", operation),
			attribute.String("db.key", key),
		),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

func RecordMutationResult(span trace.Span, applied bool, upserted, deleted int, err error) {
	span.SetAttributes(
		attribute.Bool("mutation.applied", applied),
		attribute.Int("mutation.upserted_count", upserted),
		attribute.Int("mutation.deleted_count", deleted),
	)
	RecordResult(span, err)
}

func RecordResult(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
}
