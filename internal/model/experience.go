package model

import (
	"time"

	"github.com/google/uuid"
)

// Experience бронируемое предложение со своим календарём мест
type Experience struct {
	ID             uuid.UUID  `json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Price          float64    `json:"price"`
	Location       string     `json:"location"`
	ImageURL       string     `json:"imageUrl"`
	AvailableSlots []DateSlot `json:"availableSlots"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// DateSlot календарный день (YYYY-MM-DD) со списком временных слотов
type DateSlot struct {
	Date      string     `json:"date"`
	TimeSlots []TimeSlot `json:"timeSlots"`
}

// TimeSlot временной слот. Time - свободный текст вида "09:00 AM"
type TimeSlot struct {
	Time      string `json:"time"`
	SpotsLeft int    `json:"spotsLeft"`
}

// SlotKey адрес конкретного слота (experience, дата, время).
// Date всегда хранится в нормализованном виде.
type SlotKey struct {
	ExperienceID uuid.UUID
	Date         string
	Time         string
}

// FindDate ищет день по нормализованной дате
func (e *Experience) FindDate(date string) *DateSlot {
	for i := range e.AvailableSlots {
		if e.AvailableSlots[i].Date == date {
			return &e.AvailableSlots[i]
		}
	}
	return nil
}

// FindTime ищет слот по точному совпадению метки времени
func (d *DateSlot) FindTime(label string) *TimeSlot {
	for i := range d.TimeSlots {
		if d.TimeSlots[i].Time == label {
			return &d.TimeSlots[i]
		}
	}
	return nil
}

// FindSlot возвращает слот по ключу или nil
func (e *Experience) FindSlot(key SlotKey) *TimeSlot {
	day := e.FindDate(key.Date)
	if day == nil {
		return nil
	}
	return day.FindTime(key.Time)
}

// AppendSlot добавляет строку выборки в календарь. Строки должны идти
// отсортированными по дате; slot == nil означает день без слотов.
func (e *Experience) AppendSlot(date string, slot *TimeSlot) {
	n := len(e.AvailableSlots)
	if n == 0 || e.AvailableSlots[n-1].Date != date {
		e.AvailableSlots = append(e.AvailableSlots, DateSlot{
			Date:      date,
			TimeSlots: []TimeSlot{},
		})
		n++
	}

	if slot == nil {
		return
	}

	day := &e.AvailableSlots[n-1]
	day.TimeSlots = append(day.TimeSlots, *slot)
}
