package booking

import (
	"context"
	"time"

	"staywise/internal/app/commands"
	"staywise/internal/app/dto"
	handlersupport "staywise/internal/app/handlers/support"
	"staywise/internal/app/outbox"
	"staywise/internal/app/uow"
	domainbooking "staywise/internal/domain/booking"
	domainuser "staywise/internal/domain/user"
)

const updateStatusKey = "booking.update_status"

type UpdateStatusCommand struct {
	BookingID string `validate:"required"`
	Status    string `validate:"required,oneof=pending confirmed cancelled completed"`
}

func (c UpdateStatusCommand) Key() string { return updateStatusKey }

func (c UpdateStatusCommand) RequiredRole() domainuser.Role { return domainuser.RoleAdmin }

type UpdateStatusHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Now        func() time.Time
}

func (h *UpdateStatusHandler) Handle(ctx context.Context, cmd UpdateStatusCommand) (*dto.BookingView, error) {
	status, err := domainbooking.ParseStatus(cmd.Status)
	if err != nil {
		return nil, err
	}
	unit, ctx, err := handlersupport.BeginWriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer unit.Abort(ctx)

	booking, err := unit.Bookings().ByID(ctx, domainbooking.ID(cmd.BookingID))
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if h.Now != nil {
		now = h.Now()
	}
	if err := booking.SetStatus(status, now); err != nil {
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, booking); err != nil {
		return nil, err
	}
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, booking.DrainEvents()); err != nil {
		return nil, err
	}

	rel := handlersupport.NewRelations(unit)
	property, err := rel.Property(ctx, booking.PropertyID)
	if err != nil {
		return nil, err
	}
	requester, err := rel.User(ctx, booking.RequesterID)
	if err != nil {
		return nil, err
	}
	if err := unit.Finish(ctx); err != nil {
		return nil, err
	}
	view := dto.MapBooking(booking, property, requester)
	return &view, nil
}

var _ commands.Handler[UpdateStatusCommand, *dto.BookingView] = (*UpdateStatusHandler)(nil)
