package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Freeeeeet/bookit/internal/config"
	"github.com/Freeeeeet/bookit/internal/model"
	"github.com/Freeeeeet/bookit/internal/repository"
	"github.com/Freeeeeet/bookit/internal/repository/sqlite"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

const (
	connectAttempts = 10
	connectBackoff  = 2 * time.Second
)

// ExperienceStore каталог и единственный путь изменения spots_left
type ExperienceStore interface {
	Create(ctx context.Context, exp *model.Experience) error
	List(ctx context.Context) ([]*model.Experience, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Experience, error)
	Reserve(ctx context.Context, key model.SlotKey, quantity int) error
	Release(ctx context.Context, key model.SlotKey, quantity int) error
}

type BookingStore interface {
	Create(ctx context.Context, booking *model.Booking) error
	GetByRef(ctx context.Context, ref string) (*model.Booking, error)
	CountByExperience(ctx context.Context, experienceID uuid.UUID) (map[model.SlotKey]int, error)
}

// Database открытое хранилище выбранного драйвера
type Database struct {
	Driver      string
	Experiences ExperienceStore
	Bookings    BookingStore

	sql  *sql.DB
	pool *pgxpool.Pool
}

// OpenDatabase подключается к postgres (pgxpool) или sqlite
func OpenDatabase(ctx context.Context, driver, dsn string, logger *zap.Logger) (*Database, error) {
	switch driver {
	case config.DriverPostgres:
		pool, err := connectPostgres(ctx, dsn, logger)
		if err != nil {
			return nil, err
		}
		return &Database{
			Driver:      driver,
			Experiences: repository.NewExperienceRepository(pool),
			Bookings:    repository.NewBookingRepository(pool),
			// goose работает с *sql.DB, поэтому создаём его из пула
			sql:  stdlib.OpenDBFromPool(pool),
			pool: pool,
		}, nil

	case config.DriverSQLite:
		db, err := sqlite.Open(dsn)
		if err != nil {
			return nil, err
		}
		return &Database{
			Driver:      driver,
			Experiences: sqlite.NewExperienceRepository(db),
			Bookings:    sqlite.NewBookingRepository(db),
			sql:         db,
		}, nil
	}

	return nil, fmt.Errorf("unsupported driver %q", driver)
}

func connectPostgres(ctx context.Context, dsn string, logger *zap.Logger) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	for attempt := 1; attempt <= connectAttempts; attempt++ {
		if err = pool.Ping(ctx); err == nil {
			logger.Info("Connected to database")
			return pool, nil
		}

		logger.Warn("Database is not reachable yet",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", connectAttempts),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			pool.Close()
			return nil, ctx.Err()
		case <-time.After(connectBackoff):
		}
	}

	pool.Close()
	return nil, fmt.Errorf("connect after %d attempts: %w", connectAttempts, err)
}

// Migrate применяет встроенные миграции
func (d *Database) Migrate(ctx context.Context, logger *zap.Logger) (int64, error) {
	migrator, err := NewMigrator(d.sql, d.Driver, logger)
	if err != nil {
		return 0, err
	}

	if err := migrator.Run(ctx); err != nil {
		return 0, err
	}

	return migrator.Version(ctx)
}

// DB соединение database/sql (миграции, обслуживание)
func (d *Database) DB() *sql.DB {
	return d.sql
}

// Close закрывает соединения
func (d *Database) Close() error {
	err := d.sql.Close()
	if d.pool != nil {
		d.pool.Close()
	}
	return err
}
