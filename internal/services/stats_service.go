package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/terraincognita07/dailyvalue/internal/models"
)

const (
	WeekWindowDays  = 7
	MonthWindowDays = 30
)

var ErrInvalidTrendSelection = errors.New("invalid trend selection")

var allowedTrendWindows = map[int]bool{7: true, 14: true, 30: true}

type StatisticsGateway interface {
	FetchStatistics(ctx context.Context, userID string) (models.DailyRecords, error)
}

type SnapshotStore interface {
	Find(userID string) (models.DailyRecords, time.Time, bool, error)
	Replace(userID string, records models.DailyRecords, fetchedAt time.Time) error
	Delete(userID string) error
}

type StatsService struct {
	gateway   StatisticsGateway
	snapshots SnapshotStore
	location  *time.Location
	now       func() time.Time
}

type NutrientSummary struct {
	Name         string  `json:"name"`
	Code         string  `json:"code"`
	Unit         string  `json:"unit"`
	Goal         float64 `json:"goal"`
	WeekAverage  Metric  `json:"week_average"`
	WeekPercent  Metric  `json:"week_percent"`
	MonthAverage Metric  `json:"month_average"`
	MonthPercent Metric  `json:"month_percent"`
}

type StatsOverview struct {
	Date          string            `json:"date"`
	HasDayData    bool              `json:"has_day_data"`
	Daily         []SeriesPoint     `json:"daily"`
	Summaries     []NutrientSummary `json:"summaries"`
	RecordedDates []string          `json:"recorded_dates"`
}

type TrendSelection struct {
	Nutrient   string
	WindowDays int
}

type TrendView struct {
	Nutrient   string       `json:"nutrient"`
	Code       string       `json:"code"`
	Unit       string       `json:"unit"`
	WindowDays int          `json:"window_days"`
	Series     []TrendPoint `json:"series"`
	Stats      TrendSummary `json:"stats"`
}

func NewStatsService(gateway StatisticsGateway, snapshots SnapshotStore, location *time.Location) *StatsService {
	if location == nil {
		location = time.UTC
	}
	return &StatsService{
		gateway:   gateway,
		snapshots: snapshots,
		location:  location,
		now:       time.Now,
	}
}

// Records returns the user's nutrient history. The cached snapshot is used
// unless refresh is set; a failed fetch degrades to empty records.
func (service *StatsService) Records(ctx context.Context, userID string, refresh bool) models.DailyRecords {
	if !refresh && service.snapshots != nil {
		records, _, found, err := service.snapshots.Find(userID)
		if err != nil {
			log.Printf("load statistics snapshot for user %s: %v", userID, err)
		}
		if err == nil && found {
			return records
		}
	}

	fetched, err := service.gateway.FetchStatistics(ctx, userID)
	if err != nil {
		log.Printf("fetch statistics for user %s: %v", userID, err)
		return models.DailyRecords{}
	}

	records := NormalizeRecords(fetched)
	if service.snapshots != nil && ctx.Err() == nil {
		if err := service.snapshots.Replace(userID, records, service.now()); err != nil {
			log.Printf("store statistics snapshot for user %s: %v", userID, err)
		}
	}
	return records
}

func (service *StatsService) Invalidate(userID string) error {
	if service.snapshots == nil {
		return nil
	}
	return service.snapshots.Delete(userID)
}

func (service *StatsService) Today() string {
	return DateKey(service.now(), service.location)
}

func (service *StatsService) Overview(ctx context.Context, userID string, date string, refresh bool) StatsOverview {
	if date == "" {
		date = service.Today()
	}
	records := service.Records(ctx, userID, refresh)
	return BuildStatsOverview(records, date)
}

func BuildStatsOverview(records models.DailyRecords, date string) StatsOverview {
	week := RecentWindow(records, WeekWindowDays)
	month := RecentWindow(records, MonthWindowDays)

	summaries := make([]NutrientSummary, 0)
	for _, nutrient := range models.TrackedNutrients() {
		weekAverage := Average(week, nutrient.Name)
		monthAverage := Average(month, nutrient.Name)
		unit := UnitFor(records, nutrient.Name)
		if unit == "" {
			unit = nutrient.Unit
		}
		summaries = append(summaries, NutrientSummary{
			Name:         nutrient.Name,
			Code:         nutrient.Code,
			Unit:         unit,
			Goal:         nutrient.Goal,
			WeekAverage:  weekAverage,
			WeekPercent:  PercentOfGoal(weekAverage, nutrient.Goal),
			MonthAverage: monthAverage,
			MonthPercent: PercentOfGoal(monthAverage, nutrient.Goal),
		})
	}

	_, hasDayData := records[date]
	return StatsOverview{
		Date:          date,
		HasDayData:    hasDayData,
		Daily:         DailySeries(records, date, models.TrackedNutrientNames()),
		Summaries:     summaries,
		RecordedDates: sortedDateKeys(records, false),
	}
}

func (service *StatsService) Trend(ctx context.Context, userID string, selection TrendSelection, refresh bool) (TrendView, error) {
	nutrient, ok := models.LookupTrackedNutrient(selection.Nutrient)
	if !ok || !allowedTrendWindows[selection.WindowDays] {
		return TrendView{}, ErrInvalidTrendSelection
	}

	records := service.Records(ctx, userID, refresh)
	series := TrendSeries(records, nutrient.Name, selection.WindowDays)
	return TrendView{
		Nutrient:   nutrient.Name,
		Code:       nutrient.Code,
		Unit:       UnitFor(records, nutrient.Name),
		WindowDays: selection.WindowDays,
		Series:     series,
		Stats:      TrendStats(series),
	}, nil
}

// NormalizeRecords rewrites keys to the canonical YYYY-MM-DD form, drops keys
// that are not dates and keeps one reading per nutrient name per day.
func NormalizeRecords(raw models.DailyRecords) models.DailyRecords {
	normalized := make(models.DailyRecords, len(raw))
	for key, readings := range raw {
		dateKey, err := NormalizeDateKey(key)
		if err != nil {
			log.Printf("skip statistics entry with invalid date %q", key)
			continue
		}
		normalized[dateKey] = mergeReadings(normalized[dateKey], readings)
	}
	return normalized
}

func mergeReadings(existing []models.NutrientReading, incoming []models.NutrientReading) []models.NutrientReading {
	result := append([]models.NutrientReading(nil), existing...)
	positions := make(map[string]int, len(result))
	for index, reading := range result {
		positions[reading.Name] = index
	}
	for _, reading := range incoming {
		if index, ok := positions[reading.Name]; ok {
			result[index].Value += reading.Value
			continue
		}
		positions[reading.Name] = len(result)
		result = append(result, reading)
	}
	return result
}
