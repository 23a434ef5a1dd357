package services

import (
	"sort"

	"github.com/terraincognita07/dailyvalue/internal/models"
)

// AllDiaryDates returns every date that has nutrients, photos or a memo,
// newest first.
func AllDiaryDates(records models.DailyRecords, photos models.PhotoMap, memos models.MemoMap) []string {
	seen := make(map[string]struct{}, len(records)+len(photos)+len(memos))
	for key := range records {
		seen[key] = struct{}{}
	}
	for key := range photos {
		seen[key] = struct{}{}
	}
	for key := range memos {
		seen[key] = struct{}{}
	}

	dates := make([]string, 0, len(seen))
	for key := range seen {
		dates = append(dates, key)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates
}

func FilterByMonth(dates []string, month string) []string {
	if month == AllMonths {
		return dates
	}

	filtered := make([]string, 0, len(dates))
	for _, date := range dates {
		if monthOf(date) == month {
			filtered = append(filtered, date)
		}
	}
	return filtered
}

func AvailableMonths(dates []string) []string {
	seen := make(map[string]struct{})
	months := make([]string, 0)
	for _, date := range dates {
		month := monthOf(date)
		if month == "" {
			continue
		}
		if _, ok := seen[month]; ok {
			continue
		}
		seen[month] = struct{}{}
		months = append(months, month)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(months)))
	return months
}

// Page returns the first pageSize*pageNumber dates. The window grows with the
// page number; callers detect the end when the length stops growing.
func Page(dates []string, pageSize int, pageNumber int) []string {
	if pageSize <= 0 || pageNumber <= 0 {
		return []string{}
	}

	limit := len(dates)
	if pageNumber <= limit/pageSize {
		limit = pageSize * pageNumber
	}
	return dates[:limit]
}
