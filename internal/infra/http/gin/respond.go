package ginserver

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"staywise/internal/app/commands"
	propertyapp "staywise/internal/app/handlers/properties"
	"staywise/internal/app/middleware"
	"staywise/internal/app/queries"
	authsvc "staywise/internal/app/services/auth"
	domainauth "staywise/internal/domain/auth"
	domainbooking "staywise/internal/domain/booking"
	domainproperties "staywise/internal/domain/properties"
	"staywise/internal/domain/shared/daterange"
	domainuser "staywise/internal/domain/user"
	"staywise/internal/infra/obs"
)

// envelope is the body of every API response.
type envelope struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Data    any          `json:"data,omitempty"`
	Errors  []fieldError `json:"errors,omitempty"`
}

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func respondData(c *gin.Context, status int, message string, data any) {
	c.JSON(status, envelope{Success: true, Message: message, Data: data})
}

func respondMessage(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, envelope{Success: false, Message: message})
}

func respondValidation(c *gin.Context, errs []fieldError) {
	c.AbortWithStatusJSON(http.StatusBadRequest, envelope{Success: false, Message: "Validation failed", Errors: errs})
}

// classify maps an application error to a status and client message. ok is
// false for errors the client should not see.
func classify(err error) (status int, message string, ok bool) {
	var capacity *domainbooking.CapacityError
	switch {
	case errors.Is(err, domainproperties.ErrNotFound):
		return http.StatusNotFound, "Property not found", true
	case errors.Is(err, domainbooking.ErrNotFound):
		return http.StatusNotFound, "Booking not found", true
	case errors.Is(err, domainuser.ErrNotFound):
		return http.StatusNotFound, "User not found", true
	case errors.As(err, &capacity):
		return http.StatusBadRequest, fmt.Sprintf("Property capacity is %d guests", capacity.Capacity), true
	case errors.Is(err, daterange.ErrInvalidRange):
		return http.StatusBadRequest, "Check-out date must be after check-in date", true
	case errors.Is(err, domainbooking.ErrDateConflict):
		return http.StatusBadRequest, "Property is not available for selected dates", true
	case errors.Is(err, domainbooking.ErrConcurrentBooking):
		return http.StatusConflict, "Property is being booked by another request, please retry", true
	case errors.Is(err, domainuser.ErrEmailAlreadyUsed):
		return http.StatusBadRequest, "User already exists with this email", true
	case errors.Is(err, domainauth.ErrInvalidCredentials):
		return http.StatusBadRequest, "Invalid credentials", true
	case errors.Is(err, authsvc.ErrUserInactive):
		return http.StatusForbidden, "Account is disabled", true
	case errors.Is(err, domainauth.ErrUnauthenticated):
		return http.StatusUnauthorized, "Access token required", true
	case errors.Is(err, domainauth.ErrTokenInvalid), errors.Is(err, domainauth.ErrTokenExpired):
		return http.StatusForbidden, "Invalid or expired token", true
	case errors.Is(err, domainauth.ErrForbidden):
		return http.StatusForbidden, "Admin access required", true
	case errors.Is(err, domainuser.ErrInvalidRole):
		return http.StatusBadRequest, "Invalid role", true
	case errors.Is(err, domainbooking.ErrInvalidStatus):
		return http.StatusBadRequest, "Invalid booking status", true
	case errors.Is(err, propertyapp.ErrUnsupportedImage):
		return http.StatusBadRequest, "Only image uploads are accepted", true
	case errors.Is(err, propertyapp.ErrImageStorageUnavailable):
		return http.StatusServiceUnavailable, "Image storage is not configured", true
	case errors.Is(err, middleware.ErrIdempotencyKeyReused):
		return http.StatusConflict, "Idempotency key was already used for another request", true
	case errors.Is(err, middleware.ErrValidationFailed),
		errors.Is(err, domainbooking.ErrInvalidGuests),
		errors.Is(err, daterange.ErrInvalidTime),
		errors.Is(err, authsvc.ErrPasswordTooShort),
		errors.Is(err, domainuser.ErrEmailRequired),
		errors.Is(err, domainuser.ErrNameRequired):
		return http.StatusBadRequest, "Validation failed", true
	default:
		return http.StatusInternalServerError, "", false
	}
}

// respondError writes the mapped error. Unmapped errors are logged and the
// client only sees fallback.
func respondError(c *gin.Context, logger *slog.Logger, err error, fallback string) {
	status, message, ok := classify(err)
	if !ok {
		if errors.Is(err, commands.ErrNilBus) || errors.Is(err, queries.ErrNilBus) {
			status = http.StatusServiceUnavailable
		}
		if logger != nil {
			logger.ErrorContext(c.Request.Context(), fallback,
				"error", err,
				"request_id", obs.RequestIDFromContext(c.Request.Context()),
			)
		}
		message = fallback
	}
	_ = c.Error(err)
	respondMessage(c, status, message)
}
