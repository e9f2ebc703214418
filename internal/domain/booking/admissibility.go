package booking

import (
	"fmt"

	"staywise/internal/domain/properties"
	"staywise/internal/domain/shared/daterange"
	"staywise/internal/domain/shared/money"
)

// CapacityError rejects a request for more guests than the property sleeps.
type CapacityError struct {
	Capacity int
	Guests   int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("booking: property capacity is %d guests", e.Capacity)
}

// Quote is a priced stay that passed the capacity and date checks. It has not
// been checked for conflicts yet.
type Quote struct {
	PropertyID properties.ID
	Range      daterange.DateRange
	Guests     int
	Nights     int
	Nightly    money.Money
	Total      money.Money
}

// Evaluate checks a stay against the property snapshot and prices it.
// Capacity is checked before the date range so a request failing both reports
// the capacity.
func Evaluate(property *properties.Property, dr daterange.DateRange, guests int) (Quote, error) {
	if property == nil {
		return Quote{}, properties.ErrNotFound
	}
	if guests < 1 {
		return Quote{}, ErrInvalidGuests
	}
	if guests > property.Capacity {
		return Quote{}, &CapacityError{Capacity: property.Capacity, Guests: guests}
	}
	if err := dr.Validate(); err != nil {
		return Quote{}, err
	}
	nights := dr.Nights()
	return Quote{
		PropertyID: property.ID,
		Range:      dr,
		Guests:     guests,
		Nights:     nights,
		Nightly:    property.Price,
		Total:      property.Price.Multiply(int64(nights)),
	}, nil
}
