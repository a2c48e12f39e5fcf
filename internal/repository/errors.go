package repository

import "errors"

// Ошибки хранилища, общие для всех реализаций (postgres, sqlite)
var (
	// ErrNoMatch условное обновление не затронуло ни одной строки
	ErrNoMatch = errors.New("no matching slot")
	// ErrDuplicateReference коллизия booking_ref
	ErrDuplicateReference = errors.New("duplicate booking reference")
	// ErrConflict прочее нарушение уникальности
	ErrConflict = errors.New("unique constraint violation")
	// ErrInvalidRecord нарушение NOT NULL / CHECK
	ErrInvalidRecord = errors.New("invalid record")
)
