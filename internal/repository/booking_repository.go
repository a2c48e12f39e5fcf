package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/bookit/internal/model"
	"github.com/Freeeeeet/bookit/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingRepository struct {
	*base.Repository
}

func NewBookingRepository(pool *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{Repository: base.NewRepository(pool)}
}

// Create создаёт новое бронирование
func (r *BookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}

	date, err := model.DateToTime(booking.BookingDate)
	if err != nil {
		return fmt.Errorf("create booking: %w: %v", ErrInvalidRecord, err)
	}

	query := `
		INSERT INTO bookings (id, experience_id, user_name, user_email, booking_date, booking_time, quantity, total_price, booking_ref)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`

	err = r.Pool().QueryRow(
		ctx, query,
		booking.ID,
		booking.ExperienceID,
		booking.UserName,
		booking.UserEmail,
		date,
		booking.BookingTime,
		booking.Quantity,
		booking.TotalPrice,
		booking.BookingRef,
	).Scan(&booking.CreatedAt, &booking.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create booking: %w", classify(err))
	}

	return nil
}

// GetByRef получает бронирование по публичному коду (nil если нет)
func (r *BookingRepository) GetByRef(ctx context.Context, ref string) (*model.Booking, error) {
	query := `
		SELECT id, experience_id, user_name, user_email, booking_date, booking_time,
		       quantity, total_price, booking_ref, created_at, updated_at
		FROM bookings
		WHERE booking_ref = $1
	`

	var (
		booking model.Booking
		date    time.Time
	)
	err := r.Pool().QueryRow(ctx, query, ref).Scan(
		&booking.ID,
		&booking.ExperienceID,
		&booking.UserName,
		&booking.UserEmail,
		&date,
		&booking.BookingTime,
		&booking.Quantity,
		&booking.TotalPrice,
		&booking.BookingRef,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get booking by ref: %w", err)
	}

	booking.BookingDate = date.Format(model.DateLayout)
	return &booking, nil
}

// CountByExperience сумма забронированных мест по слотам experience
func (r *BookingRepository) CountByExperience(ctx context.Context, experienceID uuid.UUID) (map[model.SlotKey]int, error) {
	query := `
		SELECT booking_date, booking_time, COALESCE(SUM(quantity), 0)
		FROM bookings
		WHERE experience_id = $1
		GROUP BY booking_date, booking_time
	`

	rows, err := r.Pool().Query(ctx, query, experienceID)
	if err != nil {
		return nil, fmt.Errorf("count bookings by experience: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.SlotKey]int)
	for rows.Next() {
		var (
			date  time.Time
			label string
			total int
		)
		if err := rows.Scan(&date, &label, &total); err != nil {
			return nil, fmt.Errorf("scan booking count: %w", err)
		}
		counts[model.SlotKey{
			ExperienceID: experienceID,
			Date:         date.Format(model.DateLayout),
			Time:         label,
		}] = total
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate booking counts: %w", err)
	}

	return counts, nil
}
