package booking

import (
	"context"
	"errors"
	"strings"

	"staywise/internal/app/dto"
	handlersupport "staywise/internal/app/handlers/support"
	"staywise/internal/app/queries"
	"staywise/internal/app/uow"
	domainbooking "staywise/internal/domain/booking"
	domainuser "staywise/internal/domain/user"
)

const (
	listMyBookingsKey  = "booking.list_mine"
	listAllBookingsKey = "booking.list_all"
)

var ErrRequesterRequired = errors.New("booking: requester id is required")

type ListMyBookingsQuery struct {
	RequesterID string
}

func (q ListMyBookingsQuery) Key() string { return listMyBookingsKey }

type ListAllBookingsQuery struct{}

func (q ListAllBookingsQuery) Key() string { return listAllBookingsKey }

func (q ListAllBookingsQuery) RequiredRole() domainuser.Role { return domainuser.RoleAdmin }

// ListMyBookingsHandler returns the caller's bookings with the property expanded.
type ListMyBookingsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListMyBookingsHandler) Handle(ctx context.Context, q ListMyBookingsQuery) (*dto.BookingList, error) {
	requesterID := strings.TrimSpace(q.RequesterID)
	if requesterID == "" {
		return nil, ErrRequesterRequired
	}
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	bookings, err := unit.Bookings().ListByRequester(execCtx, domainuser.ID(requesterID))
	if err != nil {
		return nil, err
	}
	return expand(execCtx, unit, bookings, false)
}

// ListAllBookingsHandler returns every booking with property and requester.
type ListAllBookingsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListAllBookingsHandler) Handle(ctx context.Context, _ ListAllBookingsQuery) (*dto.BookingList, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	bookings, err := unit.Bookings().List(execCtx)
	if err != nil {
		return nil, err
	}
	return expand(execCtx, unit, bookings, true)
}

func expand(ctx context.Context, unit uow.UnitOfWork, bookings []*domainbooking.Booking, withRequester bool) (*dto.BookingList, error) {
	rel := handlersupport.NewRelations(unit)
	out := &dto.BookingList{Bookings: make([]dto.BookingView, 0, len(bookings))}
	for _, b := range bookings {
		property, err := rel.Property(ctx, b.PropertyID)
		if err != nil {
			return nil, err
		}
		var requester *domainuser.User
		if withRequester {
			if requester, err = rel.User(ctx, b.RequesterID); err != nil {
				return nil, err
			}
		}
		out.Bookings = append(out.Bookings, dto.MapBooking(b, property, requester))
	}
	return out, nil
}

var (
	_ queries.Handler[ListMyBookingsQuery, *dto.BookingList]  = (*ListMyBookingsHandler)(nil)
	_ queries.Handler[ListAllBookingsQuery, *dto.BookingList] = (*ListAllBookingsHandler)(nil)
)
