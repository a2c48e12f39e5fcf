package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/bookit/internal/model"
	"github.com/google/uuid"
)

type CatalogStore interface {
	List(ctx context.Context) ([]*model.Experience, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Experience, error)
}

type BookingCounter interface {
	CountByExperience(ctx context.Context, experienceID uuid.UUID) (map[model.SlotKey]int, error)
}

// SlotUsage строка отчёта по загрузке слотов
type SlotUsage struct {
	Date      string
	Time      string
	SpotsLeft int
	Booked    int
}

// CatalogService чтение каталога (только чтение, без изменения мест)
type CatalogService struct {
	experiences CatalogStore
	bookings    BookingCounter
}

func NewCatalogService(experiences CatalogStore, bookings BookingCounter) *CatalogService {
	return &CatalogService{experiences: experiences, bookings: bookings}
}

// List получает все experience
func (s *CatalogService) List(ctx context.Context) ([]*model.Experience, error) {
	experiences, err := s.experiences.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list experiences: %w", err)
	}
	return experiences, nil
}

// Get получает experience по ID
func (s *CatalogService) Get(ctx context.Context, id uuid.UUID) (*model.Experience, error) {
	exp, err := s.experiences.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get experience: %w", err)
	}
	if exp == nil {
		return nil, ErrExperienceNotFound
	}
	return exp, nil
}

// SlotUsage остаток и число забронированных мест по каждому слоту
func (s *CatalogService) SlotUsage(ctx context.Context, id uuid.UUID) (*model.Experience, []SlotUsage, error) {
	exp, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	counts, err := s.bookings.CountByExperience(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("count bookings: %w", err)
	}

	var usage []SlotUsage
	for _, day := range exp.AvailableSlots {
		for _, slot := range day.TimeSlots {
			usage = append(usage, SlotUsage{
				Date:      day.Date,
				Time:      slot.Time,
				SpotsLeft: slot.SpotsLeft,
				Booked:    counts[model.SlotKey{ExperienceID: id, Date: day.Date, Time: slot.Time}],
			})
		}
	}

	return exp, usage, nil
}
