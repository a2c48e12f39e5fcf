package controller

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Freeeeeet/bookit/internal/service"
	"github.com/gin-gonic/gin"
)

// Тексты ответов клиенту
const (
	msgExperienceNotFound    = "Experience not found."
	msgDateUnavailable       = "Selected date is not available."
	msgTimeUnavailable       = "Selected time is not available."
	msgInsufficientCapacity  = "Not enough spots available. Only %d spot(s) left."
	msgInvalidQuantity       = "Quantity must be a positive integer."
	msgReservationConflict   = "Slot availability changed, please retry."
	msgInvalidBookingRequest = "Invalid booking request."
	msgBookingServerError    = "Server error while creating booking."
	msgBookingNotFound       = "Booking not found."
	msgInvalidPromo          = "Invalid promo code"
	msgInvalidPromoRequest   = "Invalid promo request"
	msgServerError           = "Server error"
)

func messageBody(msg string) gin.H {
	return gin.H{"message": msg}
}

// bookingError переводит исход Book в HTTP-ответ.
// Всё, что не является ожидаемым отказом, - 500 (в том числе ошибки отката).
func bookingError(err error) (int, gin.H) {
	var capacity *service.InsufficientCapacityError

	switch {
	case errors.Is(err, service.ErrExperienceNotFound):
		return http.StatusNotFound, messageBody(msgExperienceNotFound)
	case errors.Is(err, service.ErrInvalidDate), errors.Is(err, service.ErrDateUnavailable):
		return http.StatusBadRequest, messageBody(msgDateUnavailable)
	case errors.Is(err, service.ErrTimeUnavailable):
		return http.StatusBadRequest, messageBody(msgTimeUnavailable)
	case errors.As(err, &capacity):
		return http.StatusBadRequest, gin.H{
			"message":   fmt.Sprintf(msgInsufficientCapacity, capacity.Remaining),
			"spotsLeft": capacity.Remaining,
		}
	case errors.Is(err, service.ErrInvalidQuantity):
		return http.StatusBadRequest, messageBody(msgInvalidQuantity)
	case errors.Is(err, service.ErrReservationConflict):
		return http.StatusConflict, messageBody(msgReservationConflict)
	default:
		return http.StatusInternalServerError, messageBody(msgBookingServerError)
	}
}

func experienceError(err error) (int, gin.H) {
	if errors.Is(err, service.ErrExperienceNotFound) {
		return http.StatusNotFound, messageBody(msgExperienceNotFound)
	}
	return http.StatusInternalServerError, messageBody(msgServerError)
}

func lookupError(err error) (int, gin.H) {
	if errors.Is(err, service.ErrBookingNotFound) {
		return http.StatusNotFound, messageBody(msgBookingNotFound)
	}
	return http.StatusInternalServerError, messageBody(msgServerError)
}
