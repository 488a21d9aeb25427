package server

import (
	"context"
	"encoding/json"
	"net/http"

	"go.opentelemetry.io/otel/trace"

	"parking-slots/internal/parking"
	"parking-slots/internal/pricing"
)

type Meta struct {
	TraceID   string `json:"trace_id,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Meta    *Meta  `json:"meta,omitempty"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

type AllocateRequest struct {
	Class        string `json:"class"`
	Registration string `json:"registration,omitempty"`
	Hours        int    `json:"hours,omitempty"`
}

type AllocateResponse struct {
	SlotNumber   int            `json:"slot_number"`
	Class        string         `json:"class"`
	Registration string         `json:"registration,omitempty"`
	Quote        *pricing.Quote `json:"quote,omitempty"`
}

type ReleaseRequest struct {
	SlotNumber int `json:"slot_number"`
}

type AvailabilityResponse struct {
	Class     string `json:"class"`
	Available bool   `json:"available"`
}

type SuggestionResponse struct {
	Class      string `json:"class"`
	SlotNumber int    `json:"slot_number"`
}

type StatusResponse struct {
	Capacity  int                  `json:"capacity"`
	Occupied  int                  `json:"occupied"`
	Available int                  `json:"available"`
	Classes   []parking.ClassCount `json:"classes"`
	Slots     []parking.Slot       `json:"occupied_slots"`
}

func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func extractMeta(ctx context.Context) *Meta {
	meta := &Meta{}

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().HasTraceID() {
		meta.TraceID = span.SpanContext().TraceID().String()
	}

	if reqID, ok := ctx.Value(RequestIDKey).(string); ok {
		meta.RequestID = reqID
	}

	return meta
}

func WriteSuccess(ctx context.Context, w http.ResponseWriter, message string, data any) {
	WriteJSON(w, http.StatusOK, Response{
		Success: true,
		Message: message,
		Data:    data,
		Meta:    extractMeta(ctx),
	})
}

func WriteError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Response{
		Success: false,
		Error:   message,
		Meta:    extractMeta(ctx),
	})
}
