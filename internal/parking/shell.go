package parking

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"parking-slots/internal/pricing"
)

// Shell reads one command per line and prints the result, operating on a
// single InstrumentedRegistry.
type Shell struct {
	registry   *InstrumentedRegistry
	calculator *pricing.Calculator
	scanner    *bufio.Scanner
	out        io.Writer
	telemetry  *TelemetryProvider
}

func NewShell(telemetry *TelemetryProvider, calculator *pricing.Calculator, in io.Reader, out io.Writer) *Shell {
	return &Shell{
		calculator: calculator,
		scanner:    bufio.NewScanner(in),
		out:        out,
		telemetry:  telemetry,
	}
}

// WithRegistry makes the shell operate on an existing registry, e.g. the one
// served over HTTP.
func (s *Shell) WithRegistry(registry *InstrumentedRegistry) *Shell {
	s.registry = registry
	return s
}

func (s *Shell) Run(ctx context.Context) {
	tracer := s.telemetry.Tracer()
	ctx, span := tracer.Start(ctx, "shell.run")
	defer span.End()

	span.AddEvent("shell_started")

	for s.scanner.Scan() {
		if ctx.Err() != nil {
			break
		}

		input := strings.TrimSpace(s.scanner.Text())
		if input == "" {
			continue
		}

		cmdCtx, cmdSpan := tracer.Start(ctx, "shell.process_command",
			trace.WithAttributes(attribute.String("command.input", input)))
		s.processCommand(cmdCtx, input)
		cmdSpan.End()
	}

	span.AddEvent("shell_ended")
}

func (s *Shell) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

func (s *Shell) println(msg string) {
	fmt.Fprintln(s.out, msg)
}

func (s *Shell) processCommand(ctx context.Context, input string) {
	parts := strings.Fields(input)
	command := parts[0]

	span := trace.SpanFromContext(ctx)
	span.SetAttributes(attribute.String("command.name", command))

	switch command {
	case "create_registry":
		s.handleCreateRegistry(ctx, parts)
		return
	case "price":
		s.handlePrice(ctx, parts)
		return
	case "available", "allocate", "release", "suggest", "status":
	default:
		span.AddEvent("unknown_command")
		s.printf("Unknown command: %s\n", command)
		return
	}

	if s.registry == nil {
		span.AddEvent("registry_not_created")
		s.println("Registry not created")
		return
	}

	switch command {
	case "available":
		s.handleAvailable(ctx, parts)
	case "allocate":
		s.handleAllocate(ctx, parts)
	case "release":
		s.handleRelease(ctx, parts)
	case "suggest":
		s.handleSuggest(ctx, parts)
	case "status":
		s.handleStatus(ctx)
	}
}

func (s *Shell) handleCreateRegistry(ctx context.Context, parts []string) {
	span := trace.SpanFromContext(ctx)

	layout := DefaultLayout()
	switch len(parts) {
	case 1:
	case 2:
		parsed, err := ParseLayout(parts[1])
		if err != nil {
			span.RecordError(err)
			s.printf("Error: %s\n", err)
			return
		}
		layout = parsed
	default:
		s.println("Usage: create_registry [class=first-last,...]")
		return
	}

	registry, err := NewRegistry(layout)
	if err != nil {
		span.RecordError(err)
		s.printf("Error: %s\n", err)
		return
	}

	instrumented, err := NewInstrumentedRegistry(registry, s.telemetry)
	if err != nil {
		span.RecordError(err)
		s.printf("Error creating registry: %s\n", err)
		return
	}

	s.registry = instrumented
	span.AddEvent("registry_created", trace.WithAttributes(
		attribute.String("registry.layout", layout.String()),
	))
	s.printf("Created a registry with %d slots in %d classes\n", layout.Capacity(), len(layout))
}

func (s *Shell) handleAvailable(ctx context.Context, parts []string) {
	if len(parts) != 2 {
		s.println("Usage: available <class>")
		return
	}

	if s.registry.IsAvailable(ctx, parts[1]) {
		s.println("yes")
	} else {
		s.println("no")
	}
}

func (s *Shell) handleAllocate(ctx context.Context, parts []string) {
	if len(parts) != 2 {
		s.println("Usage: allocate <class>")
		return
	}

	slotNumber, err := s.registry.Allocate(ctx, parts[1])
	if err != nil {
		s.printf("Sorry, no slot available for %s\n", parts[1])
		return
	}

	s.printf("Allocated slot number: %d\n", slotNumber)
}

func (s *Shell) handleRelease(ctx context.Context, parts []string) {
	if len(parts) != 2 {
		s.println("Usage: release <slot_number>")
		return
	}

	slotNumber, err := strconv.Atoi(parts[1])
	if err != nil {
		trace.SpanFromContext(ctx).RecordError(fmt.Errorf("invalid slot number: %s", parts[1]))
		s.println("Invalid slot number")
		return
	}

	if err := s.registry.Release(ctx, slotNumber); err != nil {
		s.printf("Error: %s\n", err)
		return
	}

	s.printf("Slot number %d is free\n", slotNumber)
}

func (s *Shell) handleSuggest(ctx context.Context, parts []string) {
	if len(parts) != 2 {
		s.println("Usage: suggest <class>")
		return
	}

	slotNumber, err := s.registry.SuggestBest(ctx, parts[1])
	if err != nil {
		s.println("No slots available")
		return
	}

	s.printf("Suggested slot: %s-%d\n", strings.ToUpper(parts[1]), slotNumber)
}

func (s *Shell) handleStatus(ctx context.Context) {
	var occupied []Slot
	for _, slot := range s.registry.Status() {
		if slot.IsOccupied() {
			occupied = append(occupied, slot)
		}
	}

	trace.SpanFromContext(ctx).SetAttributes(attribute.Int("occupied_slots_count", len(occupied)))

	if len(occupied) == 0 {
		s.println("Registry is empty")
		return
	}

	s.println("Slot No.\tClass")
	for _, slot := range occupied {
		s.printf("%d\t\t%s\n", slot.Number, slot.Class)
	}
}

func (s *Shell) handlePrice(ctx context.Context, parts []string) {
	if len(parts) != 2 {
		s.println("Usage: price <hours>")
		return
	}

	hours, err := strconv.Atoi(parts[1])
	if err != nil {
		s.println("Invalid hours")
		return
	}

	quote, err := s.calculator.Quote(hours)
	if err != nil {
		trace.SpanFromContext(ctx).RecordError(err)
		s.printf("Error: %s\n", err)
		return
	}

	s.printf("Price for %d hours: %.2f\n", quote.Hours, quote.Price)
}
