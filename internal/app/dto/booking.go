package dto

import (
	"time"

	domainbooking "staywise/internal/domain/booking"
	domainproperties "staywise/internal/domain/properties"
	domainuser "staywise/internal/domain/user"
)

type BookingView struct {
	ID         string        `json:"id"`
	PropertyID string        `json:"propertyId"`
	Property   *PropertyView `json:"property,omitempty"`
	UserID     string        `json:"userId"`
	User       *UserSummary  `json:"user,omitempty"`
	CheckIn    time.Time     `json:"checkIn"`
	CheckOut   time.Time     `json:"checkOut"`
	Guests     int           `json:"guests"`
	Nights     int           `json:"nights"`
	TotalPrice float64       `json:"totalPrice"`
	Status     string        `json:"status"`
	CreatedAt  time.Time     `json:"createdAt"`
	UpdatedAt  time.Time     `json:"updatedAt"`
}

type BookingList struct {
	Bookings []BookingView `json:"bookings"`
}

// MapBooking renders b with whichever relations the caller resolved; nil
// relations are left out of the payload.
func MapBooking(b *domainbooking.Booking, property *domainproperties.Property, requester *domainuser.User) BookingView {
	if b == nil {
		return BookingView{}
	}
	view := BookingView{
		ID:         string(b.ID),
		PropertyID: string(b.PropertyID),
		UserID:     string(b.RequesterID),
		CheckIn:    b.Range.CheckIn,
		CheckOut:   b.Range.CheckOut,
		Guests:     b.Guests,
		Nights:     b.Range.Nights(),
		TotalPrice: b.TotalPrice.Major(),
		Status:     string(b.Status),
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}
	if property != nil {
		pv := MapProperty(property)
		view.Property = &pv
	}
	view.User = MapUserSummary(requester)
	return view
}
