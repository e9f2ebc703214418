package daterange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestNew(t *testing.T) {
	_, err := New(day("2024-12-04"), day("2024-12-01"))
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = New(day("2024-12-01"), day("2024-12-01"))
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = New(time.Time{}, day("2024-12-01"))
	assert.ErrorIs(t, err, ErrInvalidRange)

	dr, err := New(day("2024-12-01"), day("2024-12-04"))
	require.NoError(t, err)
	assert.Equal(t, time.UTC, dr.CheckIn.Location())
}

func TestNights(t *testing.T) {
	tests := []struct {
		name     string
		checkIn  time.Time
		checkOut time.Time
		want     int
	}{
		{"three whole days", day("2024-12-01"), day("2024-12-04"), 3},
		{"one hour rounds up", day("2024-12-01"), day("2024-12-01").Add(time.Hour), 1},
		{"partial second day", day("2024-12-01"), day("2024-12-02").Add(6 * time.Hour), 2},
		{"inverted", day("2024-12-04"), day("2024-12-01"), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dr := DateRange{CheckIn: tt.checkIn, CheckOut: tt.checkOut}
			assert.Equal(t, tt.want, dr.Nights())
		})
	}
}

func TestOverlapsIsHalfOpen(t *testing.T) {
	existing := DateRange{CheckIn: day("2024-12-15"), CheckOut: day("2024-12-20")}

	assert.True(t, existing.Overlaps(DateRange{CheckIn: day("2024-12-18"), CheckOut: day("2024-12-22")}))
	assert.True(t, existing.Overlaps(DateRange{CheckIn: day("2024-12-10"), CheckOut: day("2024-12-25")}))
	assert.True(t, existing.Overlaps(DateRange{CheckIn: day("2024-12-16"), CheckOut: day("2024-12-17")}))
	assert.False(t, existing.Overlaps(DateRange{CheckIn: day("2024-12-20"), CheckOut: day("2024-12-22")}))
	assert.False(t, existing.Overlaps(DateRange{CheckIn: day("2024-12-10"), CheckOut: day("2024-12-15")}))
}

func TestParseTime(t *testing.T) {
	got, err := ParseTime("2024-12-01")
	require.NoError(t, err)
	assert.Equal(t, day("2024-12-01"), got)

	got, err = ParseTime("2024-12-01T15:00:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 12, 1, 13, 0, 0, 0, time.UTC), got)

	_, err = ParseTime("next tuesday")
	assert.ErrorIs(t, err, ErrInvalidTime)

	_, err = ParseTime("  ")
	assert.ErrorIs(t, err, ErrInvalidTime)
}
