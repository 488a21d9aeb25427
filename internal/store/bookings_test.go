package store

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	sql  string
	args []any
}

// fakeQuerier records statements and serves canned results.
type fakeQuerier struct {
	calls    []call
	rowValue []any
	rows     [][]any
	tag      string
	err      error
}

func (f *fakeQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.calls = append(f.calls, call{sql, args})
	return fakeRow{values: f.rowValue, err: f.err}
}

func (f *fakeQuerier) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.calls = append(f.calls, call{sql, args})
	if f.err != nil {
		return nil, f.err
	}
	return &fakeRows{rows: f.rows, pos: -1}, nil
}

func (f *fakeQuerier) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.calls = append(f.calls, call{sql, args})
	return pgconn.NewCommandTag(f.tag), f.err
}

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(r.values, dest)
}

type fakeRows struct {
	rows [][]any
	pos  int
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Values() ([]any, error)                       { return r.rows[r.pos], nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	r.pos++
	return r.pos < len(r.rows)
}

func (r *fakeRows) Scan(dest ...any) error {
	return assign(r.rows[r.pos], dest)
}

func assign(values []any, dest []any) error {
	if len(values) != len(dest) {
		return fmt.Errorf("scan: %d values into %d targets", len(values), len(dest))
	}
	for i, v := range values {
		reflect.ValueOf(dest[i]).Elem().Set(reflect.ValueOf(v))
	}
	return nil
}

func TestEnsureSchema(t *testing.T) {
	q := &fakeQuerier{tag: "CREATE TABLE"}
	require.NoError(t, EnsureSchema(context.Background(), q))
	require.Len(t, q.calls, 1)
	assert.Contains(t, q.calls[0].sql, "CREATE TABLE IF NOT EXISTS bookings")
}

func TestInsertBooking(t *testing.T) {
	q := &fakeQuerier{rowValue: []any{"b-1"}}
	started := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	id, err := InsertBooking(context.Background(), q, InsertBookingParams{
		SlotID:       51,
		Class:        "medium",
		Registration: "KA01HH1234",
		StartedAt:    started,
	})
	require.NoError(t, err)
	assert.Equal(t, "b-1", id)

	require.Len(t, q.calls, 1)
	args := q.calls[0].args
	require.Len(t, args, 5)
	assert.NotEmpty(t, args[0])
	assert.Equal(t, []any{51, "medium", "KA01HH1234", started}, args[1:])
}

func TestCloseBooking(t *testing.T) {
	at := time.Date(2024, 5, 1, 11, 0, 0, 0, time.UTC)

	q := &fakeQuerier{tag: "UPDATE 1"}
	require.NoError(t, CloseBooking(context.Background(), q, 51, at))
	assert.Equal(t, []any{51, at}, q.calls[0].args)

	q = &fakeQuerier{tag: "UPDATE 0"}
	assert.Error(t, CloseBooking(context.Background(), q, 51, at))

	q = &fakeQuerier{err: errors.New("connection reset")}
	assert.EqualError(t, CloseBooking(context.Background(), q, 51, at), "connection reset")
}

func TestListOpenBookings(t *testing.T) {
	started := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	q := &fakeQuerier{rows: [][]any{
		{"b-1", 3, "small", "", started},
		{"b-2", 52, "medium", "KA01", started},
	}}

	bookings, err := ListOpenBookings(context.Background(), q)
	require.NoError(t, err)

	assert.Equal(t, []Booking{
		{ID: "b-1", SlotID: 3, Class: "small", StartedAt: started},
		{ID: "b-2", SlotID: 52, Class: "medium", Registration: "KA01", StartedAt: started},
	}, bookings)
}

func TestListOpenBookingsQueryError(t *testing.T) {
	q := &fakeQuerier{err: errors.New("boom")}
	_, err := ListOpenBookings(context.Background(), q)
	assert.EqualError(t, err, "boom")
}

func TestJournal(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	q := &fakeQuerier{rowValue: []any{"b-1"}, tag: "UPDATE 1"}
	j := NewJournal(q)
	j.now = func() time.Time { return now }

	ctx := context.Background()
	require.NoError(t, j.Record(ctx, 4, "small", "KA01"))
	require.NoError(t, j.Close(ctx, 4))

	require.Len(t, q.calls, 2)
	assert.Equal(t, now, q.calls[0].args[4])
	assert.Equal(t, []any{4, now}, q.calls[1].args)

	bookings, err := j.Open(ctx)
	require.NoError(t, err)
	assert.Empty(t, bookings)
}
