package services

import (
	"time"

	"github.com/terraincognita07/dailyvalue/internal/models"
)

type CalendarDayState struct {
	DateString   string `json:"date"`
	Day          int    `json:"day"`
	InMonth      bool   `json:"in_month"`
	IsToday      bool   `json:"is_today"`
	HasNutrients bool   `json:"has_nutrients"`
	HasPhoto     bool   `json:"has_photo"`
	HasMemo      bool   `json:"has_memo"`
	HasData      bool   `json:"has_data"`
}

// BuildCalendarDays lays out the Sunday-first weeks covering monthStart's
// month and flags the days each diary source has data for.
func BuildCalendarDays(monthStart time.Time, records models.DailyRecords, photos models.PhotoMap, memos models.MemoMap, now time.Time, location *time.Location) []CalendarDayState {
	monthStart = DateAtLocation(monthStart, location)
	monthStart = monthStart.AddDate(0, 0, 1-monthStart.Day())
	monthEnd := monthStart.AddDate(0, 1, -1)
	gridStart := monthStart.AddDate(0, 0, -int(monthStart.Weekday()))
	gridEnd := monthEnd.AddDate(0, 0, 6-int(monthEnd.Weekday()))

	todayKey := DateKey(now, location)

	days := make([]CalendarDayState, 0, 42)
	for day := gridStart; !day.After(gridEnd); day = day.AddDate(0, 0, 1) {
		key := day.Format(dateKeyLayout)
		_, hasNutrients := records[key]
		hasPhoto := len(photos[key]) > 0
		hasMemo := memos[key] != ""

		days = append(days, CalendarDayState{
			DateString:   key,
			Day:          day.Day(),
			InMonth:      day.Month() == monthStart.Month(),
			IsToday:      key == todayKey,
			HasNutrients: hasNutrients,
			HasPhoto:     hasPhoto,
			HasMemo:      hasMemo,
			HasData:      hasNutrients || hasPhoto || hasMemo,
		})
	}
	return days
}
