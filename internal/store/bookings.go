package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const schema = `
CREATE TABLE IF NOT EXISTS bookings (
	id           UUID PRIMARY KEY,
	slot_id      INTEGER NOT NULL,
	class        TEXT NOT NULL,
	registration TEXT NOT NULL DEFAULT '',
	started_at   TIMESTAMPTZ NOT NULL,
	released_at  TIMESTAMPTZ
);
CREATE UNIQUE INDEX IF NOT EXISTS bookings_open_slot
	ON bookings (slot_id) WHERE released_at IS NULL;
`

type Booking struct {
	ID           string     `json:"id"`
	SlotID       int        `json:"slot_id"`
	Class        string     `json:"class"`
	Registration string     `json:"registration,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	ReleasedAt   *time.Time `json:"released_at,omitempty"`
}

type InsertBookingParams struct {
	SlotID       int
	Class        string
	Registration string
	StartedAt    time.Time
}

func EnsureSchema(ctx context.Context, q Querier) error {
	_, err := q.Exec(ctx, schema)
	return err
}

func InsertBooking(ctx context.Context, q Querier, p InsertBookingParams) (string, error) {
	var id string
	err := q.QueryRow(ctx, `
		INSERT INTO bookings (id, slot_id, class, registration, started_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		uuid.NewString(), p.SlotID, p.Class, p.Registration, p.StartedAt,
	).Scan(&id)
	return id, err
}

// CloseBooking marks the open booking of slotID as released. It fails when
// the slot has no open booking.
func CloseBooking(ctx context.Context, q Querier, slotID int, at time.Time) error {
	tag, err := q.Exec(ctx, `
		UPDATE bookings SET released_at = $2
		WHERE slot_id = $1 AND released_at IS NULL`,
		slotID, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("close booking for slot %d: no open booking", slotID)
	}
	return nil
}

func ListOpenBookings(ctx context.Context, q Querier) ([]Booking, error) {
	rows, err := q.Query(ctx, `
		SELECT id, slot_id, class, registration, started_at
		FROM bookings
		WHERE released_at IS NULL
		ORDER BY slot_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []Booking
	for rows.Next() {
		var b Booking
		if err := rows.Scan(&b.ID, &b.SlotID, &b.Class, &b.Registration, &b.StartedAt); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// Journal records allocations and releases for one Querier.
type Journal struct {
	q   Querier
	now func() time.Time
}

func NewJournal(q Querier) *Journal {
	return &Journal{q: q, now: time.Now}
}

func (j *Journal) Record(ctx context.Context, slotID int, class, registration string) error {
	_, err := InsertBooking(ctx, j.q, InsertBookingParams{
		SlotID:       slotID,
		Class:        class,
		Registration: registration,
		StartedAt:    j.now().UTC(),
	})
	return err
}

func (j *Journal) Close(ctx context.Context, slotID int) error {
	return CloseBooking(ctx, j.q, slotID, j.now().UTC())
}

func (j *Journal) Open(ctx context.Context) ([]Booking, error) {
	return ListOpenBookings(ctx, j.q)
}
