package booking

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staywise/internal/domain/properties"
	"staywise/internal/domain/shared/daterange"
	"staywise/internal/domain/shared/money"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func apartment(t *testing.T) *properties.Property {
	t.Helper()
	p, err := properties.New(properties.CreateParams{
		ID:       "p-ny",
		Title:    "Modern Downtown Apartment",
		Price:    money.Cents(10000),
		Capacity: 4,
		Type:     properties.TypeApartment,
		OwnerID:  "admin",
	})
	require.NoError(t, err)
	return p
}

func TestEvaluatePricesWholeNights(t *testing.T) {
	p := apartment(t)
	q, err := Evaluate(p, daterange.DateRange{CheckIn: date("2024-12-01"), CheckOut: date("2024-12-04")}, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, q.Nights)
	assert.Equal(t, int64(30000), q.Total.Amount)
	assert.Equal(t, 300.0, q.Total.Major())
}

func TestEvaluateRoundsPartialDayUp(t *testing.T) {
	p := apartment(t)
	q, err := Evaluate(p, daterange.DateRange{CheckIn: date("2024-12-01"), CheckOut: date("2024-12-01").Add(5 * time.Hour)}, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, q.Nights)
	assert.Equal(t, int64(10000), q.Total.Amount)
}

func TestEvaluateRejections(t *testing.T) {
	p := apartment(t)
	valid := daterange.DateRange{CheckIn: date("2024-12-01"), CheckOut: date("2024-12-04")}
	inverted := daterange.DateRange{CheckIn: date("2024-12-04"), CheckOut: date("2024-12-01")}

	_, err := Evaluate(p, valid, 5)
	var capErr *CapacityError
	require.True(t, errors.As(err, &capErr))
	assert.Equal(t, 4, capErr.Capacity)
	assert.Contains(t, capErr.Error(), "4")

	_, err = Evaluate(p, inverted, 2)
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = Evaluate(p, daterange.DateRange{CheckIn: date("2024-12-01"), CheckOut: date("2024-12-01")}, 2)
	assert.ErrorIs(t, err, ErrInvalidRange)

	// capacity wins when both checks fail
	_, err = Evaluate(p, inverted, 9)
	assert.True(t, errors.As(err, &capErr))

	_, err = Evaluate(p, valid, 0)
	assert.ErrorIs(t, err, ErrInvalidGuests)

	_, err = Evaluate(nil, valid, 1)
	assert.ErrorIs(t, err, properties.ErrNotFound)
}

func TestNewBookingIsPendingAndRecordsEvent(t *testing.T) {
	p := apartment(t)
	q, err := Evaluate(p, daterange.DateRange{CheckIn: date("2024-12-01"), CheckOut: date("2024-12-04")}, 2)
	require.NoError(t, err)

	b, err := NewBooking(CreateParams{ID: "b-1", RequesterID: "u-1", Quote: q, CreatedAt: date("2024-11-01")})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, b.Status)
	assert.Equal(t, p.ID, b.PropertyID)
	assert.Equal(t, int64(30000), b.TotalPrice.Amount)

	evts := b.PendingEvents()
	require.Len(t, evts, 1)
	requested, ok := evts[0].(BookingRequested)
	require.True(t, ok)
	assert.Equal(t, "booking.requested", requested.EventName())
	assert.Equal(t, 3, requested.Nights)

	_, err = NewBooking(CreateParams{ID: "b-2", Quote: q})
	assert.ErrorIs(t, err, ErrRequesterRequired)
}

func TestSetStatusIsDirectWrite(t *testing.T) {
	b := &Booking{ID: "b-1", Status: StatusCancelled}
	require.NoError(t, b.SetStatus(StatusPending, date("2024-11-02")))
	assert.Equal(t, StatusPending, b.Status)
	require.NoError(t, b.SetStatus(StatusCompleted, date("2024-11-03")))
	assert.Len(t, b.PendingEvents(), 2)

	require.NoError(t, b.SetStatus(StatusCompleted, date("2024-11-04")))
	assert.Len(t, b.PendingEvents(), 2)

	assert.ErrorIs(t, b.SetStatus("archived", date("2024-11-04")), ErrInvalidStatus)
}

func TestBlocks(t *testing.T) {
	existing := &Booking{
		Status: StatusConfirmed,
		Range:  daterange.DateRange{CheckIn: date("2024-12-15"), CheckOut: date("2024-12-20")},
	}
	overlapping := daterange.DateRange{CheckIn: date("2024-12-18"), CheckOut: date("2024-12-22")}
	abutting := daterange.DateRange{CheckIn: date("2024-12-20"), CheckOut: date("2024-12-22")}

	assert.True(t, existing.Blocks(overlapping))
	assert.False(t, existing.Blocks(abutting))

	existing.Status = StatusCancelled
	assert.False(t, existing.Blocks(overlapping))
	existing.Status = StatusCompleted
	assert.False(t, existing.Blocks(overlapping))
}
