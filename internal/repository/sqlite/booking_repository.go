package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Freeeeeet/bookit/internal/model"
	"github.com/google/uuid"
)

type BookingRepository struct {
	db *sql.DB
}

func NewBookingRepository(db *sql.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// Create создаёт новое бронирование
func (r *BookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	now := time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO bookings (id, experience_id, user_name, user_email, booking_date, booking_time,
		                      quantity, total_price, booking_ref, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		booking.ID.String(),
		booking.ExperienceID.String(),
		booking.UserName,
		booking.UserEmail,
		booking.BookingDate,
		booking.BookingTime,
		booking.Quantity,
		booking.TotalPrice,
		booking.BookingRef,
		formatTime(now),
		formatTime(now),
	)
	if err != nil {
		return fmt.Errorf("create booking: %w", classify(err))
	}

	booking.CreatedAt = now
	booking.UpdatedAt = now
	return nil
}

// GetByRef получает бронирование по публичному коду (nil если нет)
func (r *BookingRepository) GetByRef(ctx context.Context, ref string) (*model.Booking, error) {
	var (
		booking              model.Booking
		createdAt, updatedAt string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, experience_id, user_name, user_email, booking_date, booking_time,
		       quantity, total_price, booking_ref, created_at, updated_at
		FROM bookings
		WHERE booking_ref = ?
	`, ref).Scan(
		&booking.ID,
		&booking.ExperienceID,
		&booking.UserName,
		&booking.UserEmail,
		&booking.BookingDate,
		&booking.BookingTime,
		&booking.Quantity,
		&booking.TotalPrice,
		&booking.BookingRef,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get booking by ref: %w", err)
	}

	if booking.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if booking.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	return &booking, nil
}

// CountByExperience сумма забронированных мест по слотам experience
func (r *BookingRepository) CountByExperience(ctx context.Context, experienceID uuid.UUID) (map[model.SlotKey]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT booking_date, booking_time, COALESCE(SUM(quantity), 0)
		FROM bookings
		WHERE experience_id = ?
		GROUP BY booking_date, booking_time
	`, experienceID.String())
	if err != nil {
		return nil, fmt.Errorf("count bookings by experience: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.SlotKey]int)
	for rows.Next() {
		var (
			date, label string
			total       int
		)
		if err := rows.Scan(&date, &label, &total); err != nil {
			return nil, fmt.Errorf("scan booking count: %w", err)
		}
		counts[model.SlotKey{ExperienceID: experienceID, Date: date, Time: label}] = total
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate booking counts: %w", err)
	}

	return counts, nil
}
