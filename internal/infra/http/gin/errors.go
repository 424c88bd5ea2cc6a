package ginserver

import (
	"errors"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"stayhub/internal/app/auth"
	"stayhub/internal/app/reservation"
	"stayhub/internal/domain/booking"
	"stayhub/internal/domain/calendar"
	"stayhub/internal/domain/listing"
	"stayhub/internal/domain/shared/daterange"
)

// respondError translates service-layer sentinels to their HTTP class:
// not-found 404, authorization 403, conflicts 409, validation 400.
func respondError(c *gin.Context, err error) {
	c.JSON(statusForError(err), gin.H{"error": err.Error()})
}

func statusForError(err error) int {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, listing.ErrNotFound),
		errors.Is(err, booking.ErrNotFound),
		errors.Is(err, reservation.ErrInventoryNotConfigured):
		status = http.StatusNotFound
	case errors.Is(err, auth.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, reservation.ErrInsufficientInventory),
		errors.Is(err, listing.ErrInsufficientInventory),
		errors.Is(err, reservation.ErrDuplicateBooking),
		errors.Is(err, reservation.ErrSlotUnavailable),
		errors.Is(err, booking.ErrInvalidStatusTransition),
		errors.Is(err, booking.ErrAlreadyCancelled),
		errors.Is(err, booking.ErrCannotCancelCompleted):
		status = http.StatusConflict
	case errors.Is(err, daterange.ErrInvalidRange),
		errors.Is(err, calendar.ErrInvalidDateRange),
		errors.Is(err, calendar.ErrNoNewDatesToBlock),
		errors.Is(err, calendar.ErrNoDatesWereBlocked),
		errors.Is(err, booking.ErrBookingTooShort),
		errors.Is(err, booking.ErrBookingTooLong),
		errors.Is(err, booking.ErrBookingNotYetOccurred),
		errors.Is(err, booking.ErrDateNotFuture),
		errors.Is(err, booking.ErrInvalidUnits),
		errors.Is(err, booking.ErrNotesTooLong),
		errors.Is(err, listing.ErrInvalidInventoryConfiguration),
		errors.Is(err, listing.ErrTitleRequired),
		errors.Is(err, listing.ErrOwnerRequired):
		status = http.StatusBadRequest
	}
	return status
}
