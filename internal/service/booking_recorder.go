package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/Freeeeeet/bookit/internal/model"
	"github.com/Freeeeeet/bookit/internal/repository"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const maxRefAttempts = 3

type BookingStore interface {
	Create(ctx context.Context, booking *model.Booking) error
	GetByRef(ctx context.Context, ref string) (*model.Booking, error)
}

// RefGenerator выдаёт кандидата в booking_ref
type RefGenerator func() (string, error)

// BookingRecorder сохраняет запись о бронировании после успешного резерва
type BookingRecorder struct {
	store       BookingStore
	validate    *validator.Validate
	generateRef RefGenerator
	logger      *zap.Logger
}

func NewBookingRecorder(store BookingStore, logger *zap.Logger) *BookingRecorder {
	return &BookingRecorder{
		store:       store,
		validate:    validator.New(),
		generateRef: GenerateBookingRef,
		logger:      logger,
	}
}

// WithRefGenerator подменяет генератор кодов
func (r *BookingRecorder) WithRefGenerator(gen RefGenerator) *BookingRecorder {
	r.generateRef = gen
	return r
}

// Record валидирует и сохраняет бронирование со свежим booking_ref.
// Коллизия кода повторяется с новым кодом до maxRefAttempts раз.
func (r *BookingRecorder) Record(ctx context.Context, draft model.Booking) (*model.Booking, error) {
	for attempt := 1; attempt <= maxRefAttempts; attempt++ {
		ref, err := r.generateRef()
		if err != nil {
			return nil, fmt.Errorf("generate booking ref: %w", err)
		}

		booking := draft
		booking.BookingRef = ref

		if err := r.validate.Struct(&booking); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}

		err = r.store.Create(ctx, &booking)
		switch {
		case err == nil:
			return &booking, nil
		case errors.Is(err, repository.ErrDuplicateReference):
			r.logger.Warn("Booking reference collision, regenerating",
				zap.String("booking_ref", ref),
				zap.Int("attempt", attempt),
			)
			continue
		case errors.Is(err, repository.ErrInvalidRecord):
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		case errors.Is(err, repository.ErrConflict):
			return nil, fmt.Errorf("%w: %v", ErrBookingConflict, err)
		default:
			return nil, fmt.Errorf("create booking: %w", err)
		}
	}

	return nil, fmt.Errorf("%w: %d attempts exhausted", ErrDuplicateReference, maxRefAttempts)
}

// Find получает бронирование по коду
func (r *BookingRecorder) Find(ctx context.Context, ref string) (*model.Booking, error) {
	booking, err := r.store.GetByRef(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}
	return booking, nil
}

// GenerateBookingRef случайный код из 8 символов A-Z0-9 (crypto/rand)
func GenerateBookingRef() (string, error) {
	const alphabet = model.BookingRefAlphabet
	// отбрасываем байты >= limit, чтобы распределение было равномерным
	limit := byte(256 - 256%len(alphabet))

	code := make([]byte, 0, model.BookingRefLength)
	buf := make([]byte, model.BookingRefLength*2)
	for len(code) < model.BookingRefLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("generate random bytes: %w", err)
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			code = append(code, alphabet[int(b)%len(alphabet)])
			if len(code) == model.BookingRefLength {
				break
			}
		}
	}

	return string(code), nil
}
