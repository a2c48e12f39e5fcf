package service

import (
	"errors"
	"fmt"

	"github.com/Freeeeeet/bookit/internal/model"
)

// Ожидаемые исходы для клиента: сервер не повторяет, отвечает 4xx
var (
	ErrExperienceNotFound  = errors.New("experience not found")
	ErrInvalidDate         = errors.New("invalid date")
	ErrInvalidQuantity     = errors.New("quantity must be a positive integer")
	ErrDateUnavailable     = errors.New("date unavailable")
	ErrTimeUnavailable     = errors.New("time unavailable")
	ErrReservationConflict = errors.New("slot availability changed")
	ErrBookingNotFound     = errors.New("booking not found")
	ErrPromoNotFound       = errors.New("promo code not found")
)

// Ошибки записи бронирования: запускают компенсацию
var (
	ErrValidation         = errors.New("booking validation failed")
	ErrDuplicateReference = errors.New("duplicate booking reference")
	ErrBookingConflict    = errors.New("booking uniqueness conflict")
)

// InsufficientCapacityError слот есть, но мест меньше, чем запрошено
type InsufficientCapacityError struct {
	Remaining int
}

func (e *InsufficientCapacityError) Error() string {
	return fmt.Sprintf("insufficient capacity: %d spot(s) left", e.Remaining)
}

// RollbackError компенсация не удалась: в слоте застрял дефицит мест
type RollbackError struct {
	Slot     model.SlotKey
	Quantity int
	Cause    error // ошибка записи бронирования
	Err      error // ошибка самого отката
}

func (e *RollbackError) Error() string {
	return fmt.Sprintf("rollback of %d spot(s) for %s %s %s failed: %v (booking error: %v)",
		e.Quantity, e.Slot.ExperienceID, e.Slot.Date, e.Slot.Time, e.Err, e.Cause)
}

func (e *RollbackError) Unwrap() []error {
	return []error{e.Err, e.Cause}
}
