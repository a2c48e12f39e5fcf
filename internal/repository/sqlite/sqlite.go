// Package sqlite хранилище на встроенной SQLite для однонодовых запусков и тестов.
// Все изменения spots_left идут теми же одиночными условными UPDATE, что и в postgres.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/bookit/internal/repository"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const timeLayout = time.RFC3339Nano

// Open открывает базу и включает внешние ключи.
// Одно соединение: SQLite всё равно сериализует запись, а так нет SQLITE_BUSY.
func Open(dsn string) (*sql.DB, error) {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	dsn += sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return db, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

// classify переводит ошибки SQLite в ошибки хранилища
func classify(err error) error {
	var se *sqlite.Error
	if !errors.As(err, &se) || se.Code()&0xff != sqlite3.SQLITE_CONSTRAINT {
		return err
	}

	msg := se.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed: bookings.booking_ref"):
		return fmt.Errorf("%w: %v", repository.ErrDuplicateReference, err)
	case strings.Contains(msg, "UNIQUE constraint failed"),
		strings.Contains(msg, "PRIMARY KEY"):
		return fmt.Errorf("%w: %v", repository.ErrConflict, err)
	default:
		return fmt.Errorf("%w: %v", repository.ErrInvalidRecord, err)
	}
}
