package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"staywise/internal/app/commands"
	"staywise/internal/app/dto"
	bookingapp "staywise/internal/app/handlers/booking"
	"staywise/internal/app/queries"
	"staywise/internal/domain/shared/daterange"
)

type BookingHTTP interface {
	Create(c *gin.Context)
	ListMine(c *gin.Context)
	ListAll(c *gin.Context)
	UpdateStatus(c *gin.Context)
}

type BookingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

// createBookingRequest carries no requester: the booking is always made for
// the authenticated caller.
type createBookingRequest struct {
	PropertyID string `json:"propertyId" binding:"required"`
	CheckIn    string `json:"checkIn" binding:"required,iso8601"`
	CheckOut   string `json:"checkOut" binding:"required,iso8601"`
	Guests     int    `json:"guests" binding:"required,min=1"`
}

type updateBookingRequest struct {
	Status string `json:"status" binding:"required,oneof=pending confirmed cancelled completed"`
}

func (h BookingHandler) Create(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		respondMessage(c, http.StatusUnauthorized, "Access token required")
		return
	}
	var req createBookingRequest
	if !bindJSON(c, &req) {
		return
	}
	checkIn, err := daterange.ParseTime(req.CheckIn)
	if err != nil {
		respondValidation(c, []fieldError{{Field: "checkIn", Message: "must be an ISO-8601 date"}})
		return
	}
	checkOut, err := daterange.ParseTime(req.CheckOut)
	if err != nil {
		respondValidation(c, []fieldError{{Field: "checkOut", Message: "must be an ISO-8601 date"}})
		return
	}
	cmd := bookingapp.RequestBookingCommand{
		CommandID:       uuid.NewString(),
		PropertyID:      req.PropertyID,
		RequesterID:     string(identity.UserID),
		CheckIn:         checkIn,
		CheckOut:        checkOut,
		Guests:          req.Guests,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[bookingapp.RequestBookingCommand, *dto.BookingView](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err, "Error creating booking")
		return
	}
	respondData(c, http.StatusCreated, "Booking created successfully", gin.H{"booking": result})
}

func (h BookingHandler) ListMine(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		respondMessage(c, http.StatusUnauthorized, "Access token required")
		return
	}
	query := bookingapp.ListMyBookingsQuery{RequesterID: string(identity.UserID)}
	result, err := queries.Ask[bookingapp.ListMyBookingsQuery, *dto.BookingList](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err, "Error fetching bookings")
		return
	}
	respondData(c, http.StatusOK, "", result)
}

func (h BookingHandler) ListAll(c *gin.Context) {
	result, err := queries.Ask[bookingapp.ListAllBookingsQuery, *dto.BookingList](c.Request.Context(), h.Queries, bookingapp.ListAllBookingsQuery{})
	if err != nil {
		respondError(c, h.Logger, err, "Error fetching all bookings")
		return
	}
	respondData(c, http.StatusOK, "", result)
}

func (h BookingHandler) UpdateStatus(c *gin.Context) {
	var req updateBookingRequest
	if !bindJSON(c, &req) {
		return
	}
	cmd := bookingapp.UpdateStatusCommand{BookingID: c.Param("id"), Status: req.Status}
	result, err := commands.Dispatch[bookingapp.UpdateStatusCommand, *dto.BookingView](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err, "Error updating booking")
		return
	}
	respondData(c, http.StatusOK, "Booking updated successfully", gin.H{"booking": result})
}

var _ BookingHTTP = BookingHandler{}
