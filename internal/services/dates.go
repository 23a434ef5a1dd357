package services

import (
	"errors"
	"strings"
	"time"
)

const (
	dateKeyLayout  = "2006-01-02"
	monthKeyLayout = "2006-01"
	AllMonths      = "all"
)

var (
	ErrInvalidDate  = errors.New("invalid date")
	ErrInvalidMonth = errors.New("invalid month")
)

func DateAtLocation(value time.Time, location *time.Location) time.Time {
	if location == nil {
		location = time.UTC
	}
	localized := value.In(location)
	year, month, day := localized.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, location)
}

// DateKey is the one formatting rule for every date-keyed map: the calendar
// day of value in location, as YYYY-MM-DD.
func DateKey(value time.Time, location *time.Location) string {
	return DateAtLocation(value, location).Format(dateKeyLayout)
}

func ParseDateKey(raw string, location *time.Location) (time.Time, error) {
	if location == nil {
		location = time.UTC
	}
	trimmed := strings.TrimSpace(raw)
	if len(trimmed) != len(dateKeyLayout) {
		return time.Time{}, ErrInvalidDate
	}
	parsed, err := time.ParseInLocation(dateKeyLayout, trimmed, location)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return parsed, nil
}

func NormalizeDateKey(raw string) (string, error) {
	parsed, err := ParseDateKey(raw, time.UTC)
	if err != nil {
		return "", err
	}
	return parsed.Format(dateKeyLayout), nil
}

// ParseMonthKey accepts YYYY-MM and returns the first day of that month.
func ParseMonthKey(raw string, location *time.Location) (time.Time, error) {
	if location == nil {
		location = time.UTC
	}
	trimmed := strings.TrimSpace(raw)
	if len(trimmed) != len(monthKeyLayout) {
		return time.Time{}, ErrInvalidMonth
	}
	parsed, err := time.ParseInLocation(monthKeyLayout, trimmed, location)
	if err != nil {
		return time.Time{}, ErrInvalidMonth
	}
	return parsed, nil
}

func monthOf(dateKey string) string {
	if len(dateKey) < len(monthKeyLayout) {
		return ""
	}
	return dateKey[:len(monthKeyLayout)]
}
