package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"staywise/internal/domain/properties"
	"staywise/internal/domain/shared/daterange"
	"staywise/internal/domain/shared/events"
	"staywise/internal/domain/shared/money"
	"staywise/internal/domain/user"
)

var (
	ErrNotFound          = errors.New("booking: not found")
	ErrIDRequired        = errors.New("booking: id is required")
	ErrRequesterRequired = errors.New("booking: requester is required")
	ErrInvalidGuests     = errors.New("booking: guests count must be positive")
	ErrInvalidStatus     = errors.New("booking: invalid status")
	ErrDateConflict      = errors.New("booking: property is not available for selected dates")
	ErrConcurrentBooking = errors.New("booking: concurrent booking on the same property, retry")
	ErrInvalidRange      = daterange.ErrInvalidRange
)

type ID string

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// BlockingStatuses hold the property: only these take part in conflict checks.
var BlockingStatuses = []Status{StatusPending, StatusConfirmed}

func ParseStatus(raw string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(raw))) {
	case StatusPending:
		return StatusPending, nil
	case StatusConfirmed:
		return StatusConfirmed, nil
	case StatusCancelled:
		return StatusCancelled, nil
	case StatusCompleted:
		return StatusCompleted, nil
	default:
		return "", ErrInvalidStatus
	}
}

func (s Status) Blocking() bool {
	return s == StatusPending || s == StatusConfirmed
}

type Booking struct {
	ID          ID
	PropertyID  properties.ID
	RequesterID user.ID
	Range       daterange.DateRange
	Guests      int
	TotalPrice  money.Money
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*Booking, error)
	Save(ctx context.Context, booking *Booking) error
	// FindConflict returns a pending or confirmed booking on the property whose
	// range overlaps dr, or nil when the dates are free.
	FindConflict(ctx context.Context, propertyID properties.ID, dr daterange.DateRange) (*Booking, error)
	// ListByRequester returns the requester's bookings, newest first.
	ListByRequester(ctx context.Context, requesterID user.ID) ([]*Booking, error)
	// List returns every booking, newest first.
	List(ctx context.Context) ([]*Booking, error)
}

type CreateParams struct {
	ID          ID
	RequesterID user.ID
	Quote       Quote
	CreatedAt   time.Time
}

// NewBooking creates a pending booking from an admissible quote.
func NewBooking(params CreateParams) (*Booking, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, ErrIDRequired
	}
	if strings.TrimSpace(string(params.RequesterID)) == "" {
		return nil, ErrRequesterRequired
	}
	if params.Quote.Guests < 1 {
		return nil, ErrInvalidGuests
	}
	if err := params.Quote.Range.Validate(); err != nil {
		return nil, err
	}
	now := params.CreatedAt
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	b := &Booking{
		ID:          params.ID,
		PropertyID:  params.Quote.PropertyID,
		RequesterID: params.RequesterID,
		Range:       params.Quote.Range,
		Guests:      params.Quote.Guests,
		TotalPrice:  params.Quote.Total,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	b.Record(BookingRequested{
		BookingID:   b.ID,
		PropertyID:  b.PropertyID,
		RequesterID: b.RequesterID,
		CheckIn:     b.Range.CheckIn,
		CheckOut:    b.Range.CheckOut,
		Guests:      b.Guests,
		Nights:      params.Quote.Nights,
		TotalCents:  b.TotalPrice.Amount,
		Currency:    b.TotalPrice.Currency,
		At:          now,
	})
	return b, nil
}

// SetStatus writes the status directly; any status may follow any other.
func (b *Booking) SetStatus(status Status, now time.Time) error {
	parsed, err := ParseStatus(string(status))
	if err != nil {
		return err
	}
	if parsed == b.Status {
		return nil
	}
	if now.IsZero() {
		now = time.Now()
	}
	previous := b.Status
	b.Status = parsed
	b.UpdatedAt = now.UTC()
	b.Record(BookingStatusChanged{BookingID: b.ID, PropertyID: b.PropertyID, From: previous, To: parsed, At: b.UpdatedAt})
	return nil
}

// Blocks reports whether b keeps dr from being booked.
func (b *Booking) Blocks(dr daterange.DateRange) bool {
	return b.Status.Blocking() && b.Range.Overlaps(dr)
}

// Clone copies the booking without its pending events.
func (b *Booking) Clone() *Booking {
	if b == nil {
		return nil
	}
	cp := *b
	cp.EventRecorder = events.EventRecorder{}
	return &cp
}
