package parking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

func newTestInstrumentedRegistry(t *testing.T, layout string) (*InstrumentedRegistry, *testTelemetry) {
	t.Helper()
	tel := newTestTelemetry(t)
	ir, err := NewInstrumentedRegistry(newTestRegistry(t, layout), tel.TelemetryProvider)
	require.NoError(t, err)
	return ir, tel
}

func TestInstrumentedRegistryIntegration(t *testing.T) {
	ir, tel := newTestInstrumentedRegistry(t, "small=1-2,large=3-3")
	ctx := context.Background()

	assert.True(t, ir.IsAvailable(ctx, "small"))

	slot, err := ir.Allocate(ctx, "small")
	require.NoError(t, err)
	assert.Equal(t, 1, slot)

	best, err := ir.SuggestBest(ctx, "small")
	require.NoError(t, err)
	assert.Equal(t, 2, best)

	require.NoError(t, ir.Release(ctx, 1))
	assert.ErrorIs(t, ir.Release(ctx, 1), ErrSlotNotAllocated)

	assert.Equal(t, []string{
		"slot_registry.is_available",
		"slot_registry.allocate",
		"slot_registry.suggest_best",
		"slot_registry.release",
		"slot_registry.release",
	}, tel.spanNames())

	ended := tel.spans.Ended()
	assert.Equal(t, codes.Unset, ended[3].Status().Code)
	assert.Equal(t, codes.Error, ended[4].Status().Code)
}

func TestInstrumentedRegistryMetrics(t *testing.T) {
	ir, tel := newTestInstrumentedRegistry(t, "small=1-2,large=3-3")
	ctx := context.Background()

	assert.Equal(t, int64(2), tel.sum(t, "slot_registry_total_slots", attribute.String("class", "small")))
	assert.Equal(t, int64(1), tel.sum(t, "slot_registry_total_slots", attribute.String("class", "large")))

	_, err := ir.Allocate(ctx, "large")
	require.NoError(t, err)
	_, err = ir.Allocate(ctx, "large")
	require.ErrorIs(t, err, ErrNoSlotAvailable)
	_, err = ir.Allocate(ctx, "small")
	require.NoError(t, err)

	assert.Equal(t, int64(2), tel.sum(t, "slot_registry_occupancy"))
	assert.Equal(t, int64(1), tel.sum(t, "slot_operations_total",
		attribute.String("operation", "allocate"),
		attribute.String("status", "no_slot_available"),
	))
	assert.Equal(t, int64(2), tel.sum(t, "slot_operations_total",
		attribute.String("operation", "allocate"),
		attribute.String("status", "success"),
	))

	require.NoError(t, ir.Release(ctx, 3))
	assert.Equal(t, int64(1), tel.sum(t, "slot_registry_occupancy"))
	assert.Equal(t, int64(0), tel.sum(t, "slot_registry_occupancy", attribute.String("class", "large")))

	require.Error(t, ir.Release(ctx, 77))
	assert.Equal(t, int64(1), tel.sum(t, "slot_operations_total",
		attribute.String("operation", "release"),
		attribute.String("class", "unknown"),
		attribute.String("status", "not_allocated"),
	))
}

func TestInstrumentedRegistryOccupy(t *testing.T) {
	ir, tel := newTestInstrumentedRegistry(t, "small=1-2")
	ctx := context.Background()

	class, err := ir.Occupy(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "small", class)
	assert.Equal(t, int64(1), tel.sum(t, "slot_registry_occupancy", attribute.String("class", "small")))

	_, err = ir.Occupy(ctx, 2)
	assert.ErrorIs(t, err, ErrSlotOccupied)
	assert.Equal(t, int64(1), tel.sum(t, "slot_registry_occupancy"))
}

func TestInstrumentedRegistryCountsPreOccupiedSlots(t *testing.T) {
	tel := newTestTelemetry(t)
	r := newTestRegistry(t, "small=1-4")
	_, err := r.Occupy(3)
	require.NoError(t, err)

	_, err = NewInstrumentedRegistry(r, tel.TelemetryProvider)
	require.NoError(t, err)

	assert.Equal(t, int64(1), tel.sum(t, "slot_registry_occupancy", attribute.String("class", "small")))
}
