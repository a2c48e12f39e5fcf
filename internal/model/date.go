package model

import (
	"errors"
	"strings"
	"time"
)

// DateLayout формат нормализованной календарной даты
const DateLayout = "2006-01-02"

// ErrInvalidDate дата не распознана ни одним из поддерживаемых форматов
var ErrInvalidDate = errors.New("invalid date")

// форматы с зоной: момент переводится в локацию сервиса
var zonedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
}

// форматы без зоны трактуются как локальное время сервиса
var localLayouts = []string{
	DateLayout,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// NormalizeDate приводит дату к виду YYYY-MM-DD в локации loc.
// Время суток и смещение отбрасываются, чтобы "2025-01-15T00:00:00.000Z"
// и "2025-01-15" совпадали при сравнении.
func NormalizeDate(raw string, loc *time.Location) (string, error) {
	if loc == nil {
		loc = time.UTC
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalidDate
	}

	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.In(loc).Format(DateLayout), nil
		}
	}

	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t.Format(DateLayout), nil
		}
	}

	return "", ErrInvalidDate
}

// DateToTime парсит нормализованную дату в полночь UTC (для колонок типа DATE)
func DateToTime(date string) (time.Time, error) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}
