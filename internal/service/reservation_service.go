package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/bookit/internal/model"
	"github.com/Freeeeeet/bookit/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ExperienceStore нужные сервису операции над каталогом.
// Reserve - единственный путь уменьшения spots_left, Release - увеличения.
type ExperienceStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Experience, error)
	Reserve(ctx context.Context, key model.SlotKey, quantity int) error
	Release(ctx context.Context, key model.SlotKey, quantity int) error
}

// BookingRequest данные checkout
type BookingRequest struct {
	ExperienceID uuid.UUID
	UserName     string
	UserEmail    string
	Date         string
	Time         string
	Quantity     int
	TotalPrice   float64
}

type ReservationService struct {
	experiences ExperienceStore
	recorder    *BookingRecorder
	compensator *Compensator
	location    *time.Location
	logger      *zap.Logger
}

func NewReservationService(
	experiences ExperienceStore,
	recorder *BookingRecorder,
	compensator *Compensator,
	location *time.Location,
	logger *zap.Logger,
) *ReservationService {
	if location == nil {
		location = time.UTC
	}
	return &ReservationService{
		experiences: experiences,
		recorder:    recorder,
		compensator: compensator,
		location:    location,
		logger:      logger,
	}
}

// Book резервирует места и создаёт бронирование.
// reserve -> record -> (compensate при ошибке записи)
func (s *ReservationService) Book(ctx context.Context, req BookingRequest) (*model.Booking, error) {
	if req.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	date, err := model.NormalizeDate(req.Date, s.location)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, req.Date)
	}

	key := model.SlotKey{ExperienceID: req.ExperienceID, Date: date, Time: req.Time}
	log := s.logger.With(
		zap.String("experience_id", key.ExperienceID.String()),
		zap.String("date", key.Date),
		zap.String("time", key.Time),
		zap.Int("quantity", req.Quantity),
	)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("reserve slot: %w", err)
	}

	// дальше обрыв клиента попытку не прерывает: отменённый посреди UPDATE
	// запрос оставил бы неизвестным, списаны ли места
	detached := context.WithoutCancel(ctx)

	attempt := model.NewAttempt()
	s.advance(log, attempt, model.AttemptReserving)

	err = s.experiences.Reserve(detached, key, req.Quantity)
	if err != nil {
		s.advance(log, attempt, model.AttemptRejected)
		if !errors.Is(err, repository.ErrNoMatch) {
			log.Error("Failed to reserve slot", zap.Error(err))
			return nil, fmt.Errorf("reserve slot: %w", err)
		}

		reason, err := s.diagnose(detached, key, req.Quantity)
		if err != nil {
			log.Error("Failed to diagnose rejected reservation", zap.Error(err))
			return nil, err
		}
		log.Warn("Reservation rejected", zap.Error(reason))
		return nil, reason
	}
	s.advance(log, attempt, model.AttemptReserved)

	s.advance(log, attempt, model.AttemptRecording)
	booking, err := s.recorder.Record(detached, model.Booking{
		ExperienceID: key.ExperienceID,
		UserName:     req.UserName,
		UserEmail:    req.UserEmail,
		BookingDate:  key.Date,
		BookingTime:  key.Time,
		Quantity:     req.Quantity,
		TotalPrice:   req.TotalPrice,
	})
	if err == nil {
		s.advance(log, attempt, model.AttemptCommitted)
		log.Info("Booking created",
			zap.String("booking_id", booking.ID.String()),
			zap.String("booking_ref", booking.BookingRef),
		)
		return booking, nil
	}

	log.Error("Failed to record booking, rolling back reservation", zap.Error(err))
	s.advance(log, attempt, model.AttemptRollingBack)

	if rbErr := s.compensator.Compensate(detached, key, req.Quantity, err); rbErr != nil {
		s.advance(log, attempt, model.AttemptRollbackFailed)
		return nil, rbErr
	}

	s.advance(log, attempt, model.AttemptRolledBack)
	return nil, fmt.Errorf("record booking: %w", err)
}

// diagnose объясняет, почему условный UPDATE ничего не нашёл.
// Только для сообщения клиенту, в атомарный шаг не входит.
// reason - причина отказа, err - сбой чтения хранилища.
func (s *ReservationService) diagnose(ctx context.Context, key model.SlotKey, quantity int) (reason error, err error) {
	exp, err := s.experiences.GetByID(ctx, key.ExperienceID)
	if err != nil {
		return nil, fmt.Errorf("diagnose reservation: %w", err)
	}
	if exp == nil {
		return ErrExperienceNotFound, nil
	}

	day := exp.FindDate(key.Date)
	if day == nil {
		return ErrDateUnavailable, nil
	}

	slot := day.FindTime(key.Time)
	if slot == nil {
		return ErrTimeUnavailable, nil
	}

	if slot.SpotsLeft < quantity {
		return &InsufficientCapacityError{Remaining: slot.SpotsLeft}, nil
	}

	// между UPDATE и чтением места вернул откат другой попытки
	return ErrReservationConflict, nil
}

// GetBooking получает бронирование по публичному коду
func (s *ReservationService) GetBooking(ctx context.Context, ref string) (*model.Booking, error) {
	return s.recorder.Find(ctx, ref)
}

func (s *ReservationService) advance(log *zap.Logger, attempt *model.Attempt, to model.AttemptState) {
	if err := attempt.Transition(to); err != nil {
		log.DPanic("Booking attempt state machine violated", zap.Error(err))
		return
	}
	if to.IsTerminal() {
		log.Debug("Booking attempt finished", zap.String("state", string(to)))
	}
}
