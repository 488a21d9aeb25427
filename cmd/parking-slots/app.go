package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"parking-slots/internal/config"
	"parking-slots/internal/logging"
	"parking-slots/internal/parking"
	"parking-slots/internal/pricing"
	"parking-slots/internal/server"
	"parking-slots/internal/store"
)

// app holds the components shared by every run mode.
type app struct {
	cfg        *config.Config
	logger     *slog.Logger
	telemetry  *parking.TelemetryProvider
	registry   *parking.InstrumentedRegistry
	calculator *pricing.Calculator
	pool       *pgxpool.Pool
	journal    *store.Journal
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	telemetry, err := parking.NewTelemetryProvider(ctx, cfg.OTelServiceName, cfg.OTelEndpoint)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	a := &app{
		cfg:        cfg,
		logger:     logging.New(cfg.OTelServiceName, cfg.Environment, os.Stderr),
		telemetry:  telemetry,
		calculator: pricing.NewCalculator(cfg.BaseRate),
	}

	layout, err := cfg.ParsedLayout()
	if err != nil {
		a.close()
		return nil, err
	}
	registry, err := parking.NewRegistry(layout)
	if err != nil {
		a.close()
		return nil, err
	}

	if cfg.DatabaseURL != "" {
		a.openJournal(ctx)
	}

	a.registry, err = parking.NewInstrumentedRegistry(registry, telemetry)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("init registry: %w", err)
	}

	if a.journal != nil {
		a.replay(ctx, a.journal, a.registry)
	}

	a.logger.Info("registry ready",
		slog.String("layout", layout.String()),
		slog.Int("capacity", layout.Capacity()),
		slog.Int("occupied", len(registry.Occupied())),
	)
	return a, nil
}

// openJournal connects to PostgreSQL; without it the service keeps running
// in memory only.
func (a *app) openJournal(ctx context.Context) {
	pool, err := store.NewPool(ctx, a.cfg.DatabaseURL)
	if err != nil {
		a.logger.Warn("database not available, running without booking journal", slog.Any("error", err))
		return
	}
	if err := store.EnsureSchema(ctx, pool); err != nil {
		a.logger.Warn("booking schema setup failed, running without booking journal", slog.Any("error", err))
		pool.Close()
		return
	}
	a.pool = pool
	a.journal = store.NewJournal(pool)
}

// bookingSource lists the bookings still holding a slot.
type bookingSource interface {
	Open(ctx context.Context) ([]store.Booking, error)
}

// replay marks slots with open bookings as occupied.
func (a *app) replay(ctx context.Context, source bookingSource, registry *parking.InstrumentedRegistry) {
	bookings, err := source.Open(ctx)
	if err != nil {
		a.logger.Warn("could not load open bookings", slog.Any("error", err))
		return
	}
	for _, b := range bookings {
		class, err := registry.Occupy(ctx, b.SlotID)
		if err != nil {
			a.logger.Warn("skipping booking", slog.String("booking_id", b.ID), slog.Any("error", err))
			continue
		}
		if class != b.Class {
			a.logger.Warn("booking class differs from layout",
				slog.Int("slot_number", b.SlotID),
				slog.String("booked_class", b.Class),
				slog.String("layout_class", class),
			)
		}
	}
}

func (a *app) server() *server.Server {
	handler := server.NewHandler(a.registry, a.calculator, a.logger, a.cfg.OTelServiceName)
	if a.journal != nil {
		handler.WithJournal(a.journal)
	}
	return server.NewServer(a.cfg.Port, handler, a.logger)
}

func (a *app) shell(in io.Reader, out io.Writer) *parking.Shell {
	return parking.NewShell(a.telemetry, a.calculator, in, out)
}

func (a *app) close() {
	if a.pool != nil {
		a.pool.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.telemetry.Shutdown(ctx); err != nil {
		a.logger.Error("telemetry shutdown failed", slog.Any("error", err))
	}
}
