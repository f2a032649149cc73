package db

import (
	"context"
	"testing"
	"time"

	"github.com/mbenaiss/lexchat/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) DB {
	t.Helper()
	d, err := NewDB(context.Background(), t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

func TestStoreBookingUpserts(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	b := models.Booking{
		ID:             "b1",
		CounterpartyID: "l1",
		AppointmentID:  "a1",
		Price:          500,
		Outcome:        models.BookingBooked,
		CreatedAt:      created,
		UpdatedAt:      created,
	}
	require.NoError(t, d.StoreBooking(ctx, b))

	b.SessionID = "c1"
	b.Outcome = models.BookingSettled
	b.UpdatedAt = created.Add(time.Second)
	require.NoError(t, d.StoreBooking(ctx, b))

	got, err := d.GetBooking(ctx, "b1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "c1", got.SessionID)
	assert.Equal(t, models.BookingSettled, got.Outcome)
	assert.Equal(t, float64(500), got.Price)
	assert.True(t, got.CreatedAt.Equal(created))

	all, err := d.ListBookings(ctx, "", 10)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestGetBookingMissing(t *testing.T) {
	d := newTestDB(t)

	got, err := d.GetBooking(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStoreBookingRequiresID(t *testing.T) {
	d := newTestDB(t)
	assert.Error(t, d.StoreBooking(context.Background(), models.Booking{CounterpartyID: "l1"}))
}

func TestListBookingsNewestFirst(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	for i, cp := range []string{"l1", "l2", "l1"} {
		require.NoError(t, d.StoreBooking(ctx, models.Booking{
			ID:             string(rune('a' + i)),
			CounterpartyID: cp,
			Outcome:        models.BookingRejected,
			Error:          "insufficient wallet balance",
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
			UpdatedAt:      base.Add(time.Duration(i) * time.Minute),
		}))
	}

	got, err := d.ListBookings(ctx, "l1", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].ID)
	assert.Equal(t, "a", got[1].ID)
	assert.Equal(t, "insufficient wallet balance", got[0].Error)

	limited, err := d.ListBookings(ctx, "", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "c", limited[0].ID)
}
