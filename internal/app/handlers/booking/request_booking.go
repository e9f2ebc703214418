package booking

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"staywise/internal/app/commands"
	"staywise/internal/app/dto"
	handlersupport "staywise/internal/app/handlers/support"
	"staywise/internal/app/middleware"
	"staywise/internal/app/outbox"
	"staywise/internal/app/uow"
	domainbooking "staywise/internal/domain/booking"
	domainproperties "staywise/internal/domain/properties"
	"staywise/internal/domain/shared/daterange"
	domainuser "staywise/internal/domain/user"
)

const requestBookingKey = "booking.request"

// RequestBookingCommand asks for a stay on behalf of the authenticated requester.
type RequestBookingCommand struct {
	CommandID       string
	PropertyID      string `validate:"required"`
	RequesterID     string `validate:"required"`
	CheckIn         time.Time
	CheckOut        time.Time
	Guests          int `validate:"min=1"`
	IdempotencyKeyV string
}

func (c RequestBookingCommand) Key() string { return requestBookingKey }

// IdempotencyKey scopes the client key to the requester, so a key replays
// only the caller's own booking.
func (c RequestBookingCommand) IdempotencyKey() string {
	if c.IdempotencyKeyV == "" || c.RequesterID == "" {
		return ""
	}
	return c.RequesterID + ":" + c.IdempotencyKeyV
}

func (c RequestBookingCommand) ResultPrototype() any { return &dto.BookingView{} }

// RequestBookingHandler decides whether a stay is admissible, prices it and
// stores it as pending. The property lock taken before the conflict read keeps
// two overlapping requests from both passing the check.
type RequestBookingHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *RequestBookingHandler) Handle(ctx context.Context, cmd RequestBookingCommand) (*dto.BookingView, error) {
	unit, ctx, err := handlersupport.BeginWriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer unit.Abort(ctx)

	property, err := unit.Properties().ByID(ctx, domainproperties.ID(cmd.PropertyID))
	if err != nil {
		return nil, err
	}

	stay := daterange.DateRange{CheckIn: cmd.CheckIn.UTC(), CheckOut: cmd.CheckOut.UTC()}
	quote, err := domainbooking.Evaluate(property, stay, cmd.Guests)
	if err != nil {
		return nil, err
	}

	if err := unit.LockProperty(ctx, property.ID); err != nil {
		return nil, err
	}
	conflict, err := unit.Bookings().FindConflict(ctx, property.ID, quote.Range)
	if err != nil {
		return nil, err
	}
	if conflict != nil {
		return nil, fmt.Errorf("%w: overlaps booking %s", domainbooking.ErrDateConflict, conflict.ID)
	}

	requester, err := unit.Users().ByID(ctx, domainuser.ID(cmd.RequesterID))
	if err != nil {
		return nil, err
	}

	id := cmd.CommandID
	if id == "" {
		id = uuid.NewString()
	}
	booking, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:          domainbooking.ID(id),
		RequesterID: requester.ID,
		Quote:       quote,
		CreatedAt:   h.now(),
	})
	if err != nil {
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, booking); err != nil {
		return nil, err
	}
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, booking.DrainEvents()); err != nil {
		return nil, err
	}
	if err := unit.Finish(ctx); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.InfoContext(ctx, "booking requested",
			"booking_id", booking.ID,
			"property_id", booking.PropertyID,
			"nights", quote.Nights,
			"total_cents", booking.TotalPrice.Amount,
		)
	}
	view := dto.MapBooking(booking, property, requester)
	return &view, nil
}

func (h *RequestBookingHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}

var _ commands.Handler[RequestBookingCommand, *dto.BookingView] = (*RequestBookingHandler)(nil)
var _ middleware.IdempotentCommand = (*RequestBookingCommand)(nil)
