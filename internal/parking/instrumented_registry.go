package parking

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type InstrumentedRegistry struct {
	*Registry
	telemetry *TelemetryProvider

	// Metrics
	operations        metric.Int64Counter
	occupancy         metric.Int64UpDownCounter
	operationDuration metric.Float64Histogram
	totalSlots        metric.Int64UpDownCounter
}

func NewInstrumentedRegistry(registry *Registry, telemetry *TelemetryProvider) (*InstrumentedRegistry, error) {
	meter := telemetry.Meter()

	operations, err := meter.Int64Counter("slot_operations_total",
		metric.WithDescription("Total number of slot registry operations"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	occupancy, err := meter.Int64UpDownCounter("slot_registry_occupancy",
		metric.WithDescription("Current number of occupied slots"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	operationDuration, err := meter.Float64Histogram("slot_operation_duration_seconds",
		metric.WithDescription("Duration of slot registry operations"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	totalSlots, err := meter.Int64UpDownCounter("slot_registry_total_slots",
		metric.WithDescription("Total number of slots"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	ir := &InstrumentedRegistry{
		Registry:          registry,
		telemetry:         telemetry,
		operations:        operations,
		occupancy:         occupancy,
		operationDuration: operationDuration,
		totalSlots:        totalSlots,
	}

	ctx := context.Background()
	for _, c := range registry.Counts() {
		classAttr := metric.WithAttributes(attribute.String("class", c.Class))
		totalSlots.Add(ctx, int64(c.Total), classAttr)
		if c.Occupied > 0 {
			occupancy.Add(ctx, int64(c.Occupied), classAttr)
		}
	}

	return ir, nil
}

func (ir *InstrumentedRegistry) IsAvailable(ctx context.Context, class string) bool {
	ctx, span := ir.telemetry.Tracer().Start(ctx, "slot_registry.is_available",
		trace.WithAttributes(attribute.String("slot.class", class)))
	defer span.End()

	start := time.Now()
	available := ir.Registry.IsAvailable(class)

	span.SetAttributes(attribute.Bool("slot.available", available))
	ir.record(ctx, "is_available", class, "success", start)

	return available
}

func (ir *InstrumentedRegistry) Allocate(ctx context.Context, class string) (int, error) {
	ctx, span := ir.telemetry.Tracer().Start(ctx, "slot_registry.allocate",
		trace.WithAttributes(attribute.String("slot.class", class)))
	defer span.End()

	start := time.Now()

	span.AddEvent("finding_free_slot")
	slotNumber, err := ir.Registry.Allocate(class)

	status := "success"
	if err != nil {
		status = statusOf(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.Int("slot.number", slotNumber))
		span.AddEvent("slot_allocated", trace.WithAttributes(
			attribute.Int("slot_number", slotNumber),
		))
		ir.occupancy.Add(ctx, 1, metric.WithAttributes(attribute.String("class", class)))
	}

	ir.record(ctx, "allocate", class, status, start)

	return slotNumber, err
}

func (ir *InstrumentedRegistry) Release(ctx context.Context, slotNumber int) error {
	ctx, span := ir.telemetry.Tracer().Start(ctx, "slot_registry.release",
		trace.WithAttributes(attribute.Int("slot.number", slotNumber)))
	defer span.End()

	start := time.Now()

	// Class is looked up before releasing so failed releases are labelled too.
	class, known := ir.Registry.ClassOf(slotNumber)
	if !known {
		class = "unknown"
	}
	span.SetAttributes(attribute.String("slot.class", class))

	span.AddEvent("releasing_slot")
	err := ir.Registry.Release(slotNumber)

	status := "success"
	if err != nil {
		status = statusOf(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.AddEvent("slot_released")
		ir.occupancy.Add(ctx, -1, metric.WithAttributes(attribute.String("class", class)))
	}

	ir.record(ctx, "release", class, status, start)

	return err
}

func (ir *InstrumentedRegistry) SuggestBest(ctx context.Context, class string) (int, error) {
	ctx, span := ir.telemetry.Tracer().Start(ctx, "slot_registry.suggest_best",
		trace.WithAttributes(attribute.String("slot.class", class)))
	defer span.End()

	start := time.Now()
	slotNumber, err := ir.Registry.SuggestBest(class)

	status := "success"
	if err != nil {
		status = statusOf(err)
		span.AddEvent("no_slot_available")
	} else {
		span.SetAttributes(attribute.Int("slot.suggested", slotNumber))
	}

	ir.record(ctx, "suggest_best", class, status, start)

	return slotNumber, err
}

// Occupy is used while replaying the booking journal.
func (ir *InstrumentedRegistry) Occupy(ctx context.Context, slotNumber int) (string, error) {
	class, err := ir.Registry.Occupy(slotNumber)
	if err != nil {
		return "", err
	}
	ir.occupancy.Add(ctx, 1, metric.WithAttributes(attribute.String("class", class)))
	return class, nil
}

func (ir *InstrumentedRegistry) record(ctx context.Context, operation, class, status string, start time.Time) {
	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("class", class),
		attribute.String("status", status),
	)
	ir.operations.Add(ctx, 1, attrs)
	ir.operationDuration.Record(ctx, time.Since(start).Seconds(), attrs)
}

func statusOf(err error) string {
	switch {
	case errors.Is(err, ErrNoSlotAvailable):
		return "no_slot_available"
	case errors.Is(err, ErrSlotNotAllocated):
		return "not_allocated"
	default:
		return "failed"
	}
}
