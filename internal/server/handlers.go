package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"parking-slots/internal/parking"
	"parking-slots/internal/pricing"
)

// Journal durably records allocations. Failures are logged and never undo
// the in-memory change. Each registry change and its journal write happen
// under one lock so the journal sees changes in registry order.
type Journal interface {
	Record(ctx context.Context, slotID int, class, registration string) error
	Close(ctx context.Context, slotID int) error
}

type Handler struct {
	registry    *parking.InstrumentedRegistry
	calculator  *pricing.Calculator
	journal     Journal
	journalMu   sync.Mutex
	logger      *slog.Logger
	serviceName string
}

func NewHandler(registry *parking.InstrumentedRegistry, calculator *pricing.Calculator, logger *slog.Logger, serviceName string) *Handler {
	return &Handler{
		registry:    registry,
		calculator:  calculator,
		logger:      logger,
		serviceName: serviceName,
	}
}

func (h *Handler) WithJournal(journal Journal) *Handler {
	h.journal = journal
	return h
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Service: h.serviceName,
	})
}

func (h *Handler) Availability(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	class := chi.URLParam(r, "class")

	WriteSuccess(ctx, w, "Availability retrieved", AvailabilityResponse{
		Class:     class,
		Available: h.registry.IsAvailable(ctx, class),
	})
}

func (h *Handler) Suggest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	class := chi.URLParam(r, "class")

	slotNumber, err := h.registry.SuggestBest(ctx, class)
	if err != nil {
		WriteError(ctx, w, statusFor(err), err.Error())
		return
	}

	WriteSuccess(ctx, w, "Suggested slot", SuggestionResponse{
		Class:      class,
		SlotNumber: slotNumber,
	})
}

func (h *Handler) Allocate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req AllocateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Class == "" {
		WriteError(ctx, w, http.StatusBadRequest, "Class is required")
		return
	}
	if req.Hours < 0 {
		WriteError(ctx, w, http.StatusBadRequest, "Hours must not be negative")
		return
	}

	unlock := h.lockJournal()
	slotNumber, err := h.registry.Allocate(ctx, req.Class)
	if err != nil {
		unlock()
		WriteError(ctx, w, statusFor(err), err.Error())
		return
	}
	if h.journal != nil {
		if err := h.journal.Record(ctx, slotNumber, req.Class, req.Registration); err != nil {
			h.logger.WarnContext(ctx, "booking journal write failed",
				slog.Int("slot_number", slotNumber),
				slog.Any("error", err),
			)
		}
	}
	unlock()

	h.logger.InfoContext(ctx, "slot allocated",
		slog.Int("slot_number", slotNumber),
		slog.String("class", req.Class),
	)

	resp := AllocateResponse{
		SlotNumber:   slotNumber,
		Class:        req.Class,
		Registration: req.Registration,
	}
	if req.Hours > 0 && h.calculator != nil {
		quote, err := h.calculator.Quote(req.Hours)
		if err != nil {
			h.logger.WarnContext(ctx, "price quote failed", slog.Int("hours", req.Hours), slog.Any("error", err))
		} else {
			h.logger.InfoContext(ctx, "price quoted",
				slog.Int("slot_number", slotNumber),
				slog.Int("hours", quote.Hours),
				slog.Float64("base_rate", quote.BaseRate),
				slog.Float64("time_multiplier", quote.TimeMultiplier),
				slog.Float64("demand", quote.Demand),
				slog.Float64("price", quote.Price),
			)
			resp.Quote = &quote
		}
	}

	WriteSuccess(ctx, w, "Slot allocated successfully", resp)
}

func (h *Handler) Release(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ReleaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.SlotNumber <= 0 {
		WriteError(ctx, w, http.StatusBadRequest, "Slot number must be greater than 0")
		return
	}

	unlock := h.lockJournal()
	if err := h.registry.Release(ctx, req.SlotNumber); err != nil {
		unlock()
		WriteError(ctx, w, statusFor(err), err.Error())
		return
	}
	if h.journal != nil {
		if err := h.journal.Close(ctx, req.SlotNumber); err != nil {
			h.logger.WarnContext(ctx, "booking journal close failed",
				slog.Int("slot_number", req.SlotNumber),
				slog.Any("error", err),
			)
		}
	}
	unlock()

	h.logger.InfoContext(ctx, "slot released", slog.Int("slot_number", req.SlotNumber))

	WriteSuccess(ctx, w, "Slot released successfully", map[string]any{
		"slot_number": req.SlotNumber,
	})
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// One snapshot keeps the per-class counts consistent with the slot list.
	slots := h.registry.Status()

	counts := make(map[string]*parking.ClassCount)
	resp := StatusResponse{
		Capacity: len(slots),
		Slots:    []parking.Slot{},
	}
	for _, class := range h.registry.Classes() {
		resp.Classes = append(resp.Classes, parking.ClassCount{Class: class})
	}
	for i := range resp.Classes {
		counts[resp.Classes[i].Class] = &resp.Classes[i]
	}

	for _, slot := range slots {
		c := counts[slot.Class]
		c.Total++
		if slot.IsOccupied() {
			c.Occupied++
			resp.Slots = append(resp.Slots, slot)
		} else {
			c.Free++
		}
	}
	resp.Occupied = len(resp.Slots)
	resp.Available = resp.Capacity - resp.Occupied

	WriteSuccess(ctx, w, "Status retrieved successfully", resp)
}

// lockJournal serializes registry changes with their journal writes when a
// journal is attached.
func (h *Handler) lockJournal() func() {
	if h.journal == nil {
		return func() {}
	}
	h.journalMu.Lock()
	return h.journalMu.Unlock
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, parking.ErrNoSlotAvailable):
		return http.StatusConflict
	case errors.Is(err, parking.ErrSlotNotAllocated):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
