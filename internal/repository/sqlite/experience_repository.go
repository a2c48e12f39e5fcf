package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Freeeeeet/bookit/internal/model"
	"github.com/Freeeeeet/bookit/internal/repository"
	"github.com/google/uuid"
)

type ExperienceRepository struct {
	db *sql.DB
}

func NewExperienceRepository(db *sql.DB) *ExperienceRepository {
	return &ExperienceRepository{db: db}
}

// Create создаёт experience вместе с календарём слотов
func (r *ExperienceRepository) Create(ctx context.Context, exp *model.Experience) error {
	if exp.ID == uuid.Nil {
		exp.ID = uuid.New()
	}
	now := time.Now().UTC()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO experiences (id, title, description, price, location, image_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, exp.ID.String(), exp.Title, exp.Description, exp.Price, exp.Location, exp.ImageURL, formatTime(now), formatTime(now))
	if err != nil {
		return fmt.Errorf("create experience: %w", classify(err))
	}

	for _, day := range exp.AvailableSlots {
		if _, err := model.DateToTime(day.Date); err != nil {
			return fmt.Errorf("date slot %q: %w", day.Date, err)
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO date_slots (experience_id, slot_date) VALUES (?, ?)`,
			exp.ID.String(), day.Date,
		)
		if err != nil {
			return fmt.Errorf("create date slot: %w", classify(err))
		}
		dateSlotID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("date slot id: %w", err)
		}

		for _, slot := range day.TimeSlots {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO time_slots (date_slot_id, time_label, spots_left) VALUES (?, ?, ?)`,
				dateSlotID, slot.Time, slot.SpotsLeft,
			)
			if err != nil {
				return fmt.Errorf("create time slot: %w", classify(err))
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	exp.CreatedAt = now
	exp.UpdatedAt = now
	return nil
}

// List получает все experience с календарями
func (r *ExperienceRepository) List(ctx context.Context) ([]*model.Experience, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, description, price, location, image_url, created_at, updated_at
		FROM experiences
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list experiences: %w", err)
	}

	experiences := []*model.Experience{}
	byID := make(map[uuid.UUID]*model.Experience)
	for rows.Next() {
		exp, err := scanExperience(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		experiences = append(experiences, exp)
		byID[exp.ID] = exp
	}
	err = rows.Err()
	// соединение одно: курсор закрываем до следующего запроса
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("iterate experiences: %w", err)
	}

	if err := r.loadSlots(ctx, byID, ""); err != nil {
		return nil, err
	}

	return experiences, nil
}

// GetByID получает experience по ID (nil если не найден)
func (r *ExperienceRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Experience, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, title, description, price, location, image_url, created_at, updated_at
		FROM experiences
		WHERE id = ?
	`, id.String())

	exp, err := scanExperience(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get experience by id: %w", err)
	}

	byID := map[uuid.UUID]*model.Experience{exp.ID: exp}
	if err := r.loadSlots(ctx, byID, "WHERE ds.experience_id = ?", id.String()); err != nil {
		return nil, err
	}

	return exp, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExperience(row scanner) (*model.Experience, error) {
	var (
		exp                  model.Experience
		createdAt, updatedAt string
	)
	err := row.Scan(
		&exp.ID,
		&exp.Title,
		&exp.Description,
		&exp.Price,
		&exp.Location,
		&exp.ImageURL,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if exp.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if exp.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	exp.AvailableSlots = []model.DateSlot{}

	return &exp, nil
}

func (r *ExperienceRepository) loadSlots(ctx context.Context, byID map[uuid.UUID]*model.Experience, where string, args ...any) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT ds.experience_id, ds.slot_date, ts.time_label, ts.spots_left
		FROM date_slots ds
		LEFT JOIN time_slots ts ON ts.date_slot_id = ds.id
		`+where+`
		ORDER BY ds.experience_id, ds.slot_date, ts.id
	`, args...)
	if err != nil {
		return fmt.Errorf("load slots: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			experienceID uuid.UUID
			slotDate     string
			label        sql.NullString
			spotsLeft    sql.NullInt64
		)
		if err := rows.Scan(&experienceID, &slotDate, &label, &spotsLeft); err != nil {
			return fmt.Errorf("scan slot: %w", err)
		}

		exp, ok := byID[experienceID]
		if !ok {
			continue
		}
		var slot *model.TimeSlot
		if label.Valid && spotsLeft.Valid {
			slot = &model.TimeSlot{Time: label.String, SpotsLeft: int(spotsLeft.Int64)}
		}
		exp.AppendSlot(slotDate, slot)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate slots: %w", err)
	}

	return nil
}

// Reserve атомарно уменьшает spots_left на quantity одним условным UPDATE.
// После успешного UPDATE больше ничего не читается: резерв уже зафиксирован.
func (r *ExperienceRepository) Reserve(ctx context.Context, key model.SlotKey, quantity int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE time_slots
		SET spots_left = spots_left - ?
		WHERE time_label = ?
		  AND spots_left >= ?
		  AND date_slot_id = (
			SELECT id FROM date_slots WHERE experience_id = ? AND slot_date = ?
		  )
	`, quantity, key.Time, quantity, key.ExperienceID.String(), key.Date)
	if err != nil {
		return fmt.Errorf("reserve slot: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reserve slot: %w", err)
	}
	if affected == 0 {
		return repository.ErrNoMatch
	}

	return nil
}

// Release возвращает quantity мест в слот (компенсация)
func (r *ExperienceRepository) Release(ctx context.Context, key model.SlotKey, quantity int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE time_slots
		SET spots_left = spots_left + ?
		WHERE time_label = ?
		  AND date_slot_id = (
			SELECT id FROM date_slots WHERE experience_id = ? AND slot_date = ?
		  )
	`, quantity, key.Time, key.ExperienceID.String(), key.Date)
	if err != nil {
		return fmt.Errorf("release slot: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("release slot: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("release slot: %w", repository.ErrNoMatch)
	}

	return nil
}
