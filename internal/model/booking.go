package model

import (
	"time"

	"github.com/google/uuid"
)

// BookingRefLength длина публичного кода бронирования
const BookingRefLength = 8

// BookingRefAlphabet алфавит кода бронирования
const BookingRefAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ1234567890"

// Booking запись о завершённом бронировании. После создания не меняется.
type Booking struct {
	ID           uuid.UUID `json:"id"`
	ExperienceID uuid.UUID `json:"experienceId" validate:"required"`
	UserName     string    `json:"userName" validate:"required"`
	UserEmail    string    `json:"userEmail" validate:"required,email"`
	BookingDate  string    `json:"bookingDate" validate:"required,datetime=2006-01-02"`
	BookingTime  string    `json:"bookingTime" validate:"required"`
	Quantity     int       `json:"quantity" validate:"required,gt=0"`
	TotalPrice   float64   `json:"totalPrice" validate:"gte=0"`
	BookingRef   string    `json:"bookingRef" validate:"required,len=8,alphanum,uppercase"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
