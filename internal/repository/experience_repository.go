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

type ExperienceRepository struct {
	*base.Repository
}

func NewExperienceRepository(pool *pgxpool.Pool) *ExperienceRepository {
	return &ExperienceRepository{Repository: base.NewRepository(pool)}
}

// Create создаёт experience вместе с календарём слотов
func (r *ExperienceRepository) Create(ctx context.Context, exp *model.Experience) error {
	if exp.ID == uuid.Nil {
		exp.ID = uuid.New()
	}

	tx, err := r.Pool().Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO experiences (id, title, description, price, location, image_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	err = tx.QueryRow(
		ctx, query,
		exp.ID,
		exp.Title,
		exp.Description,
		exp.Price,
		exp.Location,
		exp.ImageURL,
	).Scan(&exp.CreatedAt, &exp.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create experience: %w", classify(err))
	}

	for _, day := range exp.AvailableSlots {
		date, err := model.DateToTime(day.Date)
		if err != nil {
			return fmt.Errorf("date slot %q: %w", day.Date, err)
		}

		var dateSlotID int64
		err = tx.QueryRow(ctx,
			`INSERT INTO date_slots (experience_id, slot_date) VALUES ($1, $2) RETURNING id`,
			exp.ID, date,
		).Scan(&dateSlotID)
		if err != nil {
			return fmt.Errorf("create date slot: %w", classify(err))
		}

		for _, slot := range day.TimeSlots {
			_, err = tx.Exec(ctx,
				`INSERT INTO time_slots (date_slot_id, time_label, spots_left) VALUES ($1, $2, $3)`,
				dateSlotID, slot.Time, slot.SpotsLeft,
			)
			if err != nil {
				return fmt.Errorf("create time slot: %w", classify(err))
			}
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// List получает все experience с календарями
func (r *ExperienceRepository) List(ctx context.Context) ([]*model.Experience, error) {
	query := `
		SELECT id, title, description, price, location, image_url, created_at, updated_at
		FROM experiences
		ORDER BY created_at, id
	`

	rows, err := r.Pool().Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list experiences: %w", err)
	}
	defer rows.Close()

	experiences := []*model.Experience{}
	byID := make(map[uuid.UUID]*model.Experience)
	for rows.Next() {
		var exp model.Experience
		err := rows.Scan(
			&exp.ID,
			&exp.Title,
			&exp.Description,
			&exp.Price,
			&exp.Location,
			&exp.ImageURL,
			&exp.CreatedAt,
			&exp.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan experience: %w", err)
		}
		exp.AvailableSlots = []model.DateSlot{}
		experiences = append(experiences, &exp)
		byID[exp.ID] = &exp
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate experiences: %w", err)
	}

	if err := r.loadSlots(ctx, byID, ""); err != nil {
		return nil, err
	}

	return experiences, nil
}

// GetByID получает experience по ID (nil если не найден)
func (r *ExperienceRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Experience, error) {
	query := `
		SELECT id, title, description, price, location, image_url, created_at, updated_at
		FROM experiences
		WHERE id = $1
	`

	var exp model.Experience
	err := r.Pool().QueryRow(ctx, query, id).Scan(
		&exp.ID,
		&exp.Title,
		&exp.Description,
		&exp.Price,
		&exp.Location,
		&exp.ImageURL,
		&exp.CreatedAt,
		&exp.UpdatedAt,
	)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get experience by id: %w", err)
	}
	exp.AvailableSlots = []model.DateSlot{}

	byID := map[uuid.UUID]*model.Experience{exp.ID: &exp}
	if err := r.loadSlots(ctx, byID, "WHERE ds.experience_id = $1", id); err != nil {
		return nil, err
	}

	return &exp, nil
}

// loadSlots подгружает календари в уже прочитанные experience
func (r *ExperienceRepository) loadSlots(ctx context.Context, byID map[uuid.UUID]*model.Experience, where string, args ...interface{}) error {
	query := `
		SELECT ds.experience_id, ds.slot_date, ts.time_label, ts.spots_left
		FROM date_slots ds
		LEFT JOIN time_slots ts ON ts.date_slot_id = ds.id
		` + where + `
		ORDER BY ds.experience_id, ds.slot_date, ts.id
	`

	rows, err := r.Pool().Query(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("load slots: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			experienceID uuid.UUID
			slotDate     time.Time
			label        *string
			spotsLeft    *int
		)
		if err := rows.Scan(&experienceID, &slotDate, &label, &spotsLeft); err != nil {
			return fmt.Errorf("scan slot: %w", err)
		}

		exp, ok := byID[experienceID]
		if !ok {
			continue
		}
		var slot *model.TimeSlot
		if label != nil && spotsLeft != nil {
			slot = &model.TimeSlot{Time: *label, SpotsLeft: *spotsLeft}
		}
		exp.AppendSlot(slotDate.Format(model.DateLayout), slot)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate slots: %w", err)
	}

	return nil
}

// Reserve атомарно уменьшает spots_left на quantity.
// Проверка остатка и декремент - один UPDATE, поэтому параллельные
// попытки сериализуются на блокировке строки и не уводят остаток в минус.
func (r *ExperienceRepository) Reserve(ctx context.Context, key model.SlotKey, quantity int) error {
	date, err := model.DateToTime(key.Date)
	if err != nil {
		return err
	}

	query := `
		UPDATE time_slots AS ts
		SET spots_left = ts.spots_left - $4
		FROM date_slots AS ds
		WHERE ts.date_slot_id = ds.id
		  AND ds.experience_id = $1
		  AND ds.slot_date = $2
		  AND ts.time_label = $3
		  AND ts.spots_left >= $4
	`

	affected, err := r.ExecAffected(ctx, query, key.ExperienceID, date, key.Time, quantity)
	if err != nil {
		return fmt.Errorf("reserve slot: %w", err)
	}

	if affected == 0 {
		return ErrNoMatch
	}

	return nil
}

// Release возвращает quantity мест в слот (компенсация)
func (r *ExperienceRepository) Release(ctx context.Context, key model.SlotKey, quantity int) error {
	date, err := model.DateToTime(key.Date)
	if err != nil {
		return err
	}

	query := `
		UPDATE time_slots AS ts
		SET spots_left = ts.spots_left + $4
		FROM date_slots AS ds
		WHERE ts.date_slot_id = ds.id
		  AND ds.experience_id = $1
		  AND ds.slot_date = $2
		  AND ts.time_label = $3
	`

	affected, err := r.ExecAffected(ctx, query, key.ExperienceID, date, key.Time, quantity)
	if err != nil {
		return fmt.Errorf("release slot: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("release slot: %w", ErrNoMatch)
	}

	return nil
}

// classify переводит ошибки PostgreSQL в ошибки хранилища
func classify(err error) error {
	if constraint, ok := base.UniqueViolation(err); ok {
		if constraint == "bookings_booking_ref_key" {
			return fmt.Errorf("%w: %v", ErrDuplicateReference, err)
		}
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	if base.IsInvalidRecord(err) {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return err
}
