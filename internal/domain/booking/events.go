package booking

import (
	"time"

	"staywise/internal/domain/properties"
	"staywise/internal/domain/user"
)

type BookingRequested struct {
	BookingID   ID            `json:"bookingId"`
	PropertyID  properties.ID `json:"propertyId"`
	RequesterID user.ID       `json:"requesterId"`
	CheckIn     time.Time     `json:"checkIn"`
	CheckOut    time.Time     `json:"checkOut"`
	Guests      int           `json:"guests"`
	Nights      int           `json:"nights"`
	TotalCents  int64         `json:"totalCents"`
	Currency    string        `json:"currency"`
	At          time.Time     `json:"at"`
}

func (e BookingRequested) EventName() string     { return "booking.requested" }
func (e BookingRequested) AggregateID() string   { return string(e.BookingID) }
func (e BookingRequested) OccurredAt() time.Time { return e.At }

type BookingStatusChanged struct {
	BookingID  ID            `json:"bookingId"`
	PropertyID properties.ID `json:"propertyId"`
	From       Status        `json:"from"`
	To         Status        `json:"to"`
	At         time.Time     `json:"at"`
}

func (e BookingStatusChanged) EventName() string     { return "booking.status_changed" }
func (e BookingStatusChanged) AggregateID() string   { return string(e.BookingID) }
func (e BookingStatusChanged) OccurredAt() time.Time { return e.At }
