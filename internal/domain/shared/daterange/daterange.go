package daterange

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidRange = errors.New("daterange: check-out must be after check-in")
	ErrInvalidTime  = errors.New("daterange: not an ISO-8601 timestamp")
)

// Day is the billing unit for a stay.
const Day = 24 * time.Hour

var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// DateRange represents a half-open interval [CheckIn, CheckOut).
type DateRange struct {
	CheckIn  time.Time
	CheckOut time.Time
}

func New(checkIn, checkOut time.Time) (DateRange, error) {
	dr := DateRange{CheckIn: checkIn.UTC(), CheckOut: checkOut.UTC()}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

func (dr DateRange) Validate() error {
	if dr.CheckOut.IsZero() || dr.CheckIn.IsZero() {
		return ErrInvalidRange
	}
	if !dr.CheckOut.After(dr.CheckIn) {
		return ErrInvalidRange
	}
	return nil
}

// Nights counts started days between check-in and check-out, so a stay shorter
// than a day still bills one night. Invalid ranges have zero nights.
func (dr DateRange) Nights() int {
	d := dr.CheckOut.Sub(dr.CheckIn)
	if d <= 0 {
		return 0
	}
	nights := int(d / Day)
	if d%Day != 0 {
		nights++
	}
	return nights
}

func (dr DateRange) Overlaps(other DateRange) bool {
	return dr.CheckIn.Before(other.CheckOut) && other.CheckIn.Before(dr.CheckOut)
}

func (dr DateRange) String() string {
	return fmt.Sprintf("[%s, %s)", dr.CheckIn.Format(time.RFC3339), dr.CheckOut.Format(time.RFC3339))
}

// ParseTime accepts full RFC 3339 timestamps as well as bare dates, which are
// read as UTC midnight.
func ParseTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, ErrInvalidTime
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTime, raw)
}
