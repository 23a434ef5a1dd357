package services

import (
	"math"
	"sort"

	"github.com/terraincognita07/dailyvalue/internal/models"
)

const (
	GoalBandLow  = "low"
	GoalBandFair = "fair"
	GoalBandGood = "good"
	GoalBandOver = "over"

	maxDisplayedPercent = 999
)

type SeriesPoint struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

type DatedReadings struct {
	Date     string                   `json:"date"`
	Readings []models.NutrientReading `json:"readings"`
}

// Window is the most recent recorded days, newest first. Span is the number
// of days the window was asked to cover and is the averaging denominator.
type Window struct {
	Span int
	Days []DatedReadings
}

type TrendPoint struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

type TrendSummary struct {
	Max    Metric `json:"max"`
	Min    Metric `json:"min"`
	Mean   Metric `json:"mean"`
	StdDev Metric `json:"std_dev"`
}

// DailySeries returns one point per target name, in target order, for the
// readings recorded on date.
func DailySeries(records models.DailyRecords, date string, targetNames []string) []SeriesPoint {
	readings := records[date]
	series := make([]SeriesPoint, 0, len(targetNames))
	for _, name := range targetNames {
		series = append(series, SeriesPoint{Name: name, Amount: readingValue(readings, name)})
	}
	return series
}

func RecentWindow(records models.DailyRecords, days int) Window {
	if days <= 0 {
		return Window{Span: 0, Days: []DatedReadings{}}
	}

	keys := sortedDateKeys(records, true)
	if len(keys) > days {
		keys = keys[:days]
	}

	window := Window{Span: days, Days: make([]DatedReadings, 0, len(keys))}
	for _, key := range keys {
		window.Days = append(window.Days, DatedReadings{Date: key, Readings: records[key]})
	}
	return window
}

// Average divides the nutrient's total over the window by the window span, so
// days without a reading count as zero.
func Average(window Window, nutrientName string) Metric {
	if len(window.Days) == 0 {
		return NoData
	}

	total := 0.0
	for _, day := range window.Days {
		total += readingValue(day.Readings, nutrientName)
	}

	denominator := window.Span
	if denominator < len(window.Days) {
		denominator = len(window.Days)
	}
	return SomeMetric(total / float64(denominator))
}

func PercentOfGoal(average Metric, goal float64) Metric {
	if !average.Valid || goal <= 0 || math.IsNaN(goal) {
		return NoData
	}
	return SomeMetric(roundHalfUp(average.Value / goal * 100))
}

func TrendSeries(records models.DailyRecords, nutrientName string, days int) []TrendPoint {
	if days <= 0 {
		return []TrendPoint{}
	}

	keys := sortedDateKeys(records, false)
	if len(keys) > days {
		keys = keys[len(keys)-days:]
	}

	series := make([]TrendPoint, 0, len(keys))
	for _, key := range keys {
		series = append(series, TrendPoint{Date: key, Value: readingValue(records[key], nutrientName)})
	}
	return series
}

func TrendStats(series []TrendPoint) TrendSummary {
	if len(series) == 0 {
		return TrendSummary{Max: NoData, Min: NoData, Mean: NoData, StdDev: NoData}
	}

	maxValue := series[0].Value
	minValue := series[0].Value
	total := 0.0
	for _, point := range series {
		maxValue = math.Max(maxValue, point.Value)
		minValue = math.Min(minValue, point.Value)
		total += point.Value
	}
	mean := total / float64(len(series))

	squared := 0.0
	for _, point := range series {
		delta := point.Value - mean
		squared += delta * delta
	}

	return TrendSummary{
		Max:    SomeMetric(maxValue),
		Min:    SomeMetric(minValue),
		Mean:   SomeMetric(mean),
		StdDev: SomeMetric(math.Sqrt(squared / float64(len(series)))),
	}
}

// UnitFor returns the unit of the newest reading of nutrientName, or "".
func UnitFor(records models.DailyRecords, nutrientName string) string {
	for _, key := range sortedDateKeys(records, true) {
		for _, reading := range records[key] {
			if reading.Name == nutrientName {
				return reading.Unit
			}
		}
	}
	return ""
}

func DisplayPercent(percent float64) float64 {
	if math.IsNaN(percent) || percent < 0 {
		return 0
	}
	return math.Min(percent, maxDisplayedPercent)
}

func GoalBand(percent float64) string {
	switch {
	case percent < 30:
		return GoalBandLow
	case percent < 80:
		return GoalBandFair
	case percent <= 120:
		return GoalBandGood
	default:
		return GoalBandOver
	}
}

func readingValue(readings []models.NutrientReading, name string) float64 {
	for _, reading := range readings {
		if reading.Name == name {
			if math.IsNaN(reading.Value) || math.IsInf(reading.Value, 0) {
				return 0
			}
			return reading.Value
		}
	}
	return 0
}

// Date keys are YYYY-MM-DD, so lexical order is calendar order.
func sortedDateKeys(records models.DailyRecords, descending bool) []string {
	keys := make([]string, 0, len(records))
	for key := range records {
		keys = append(keys, key)
	}
	if descending {
		sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	} else {
		sort.Strings(keys)
	}
	return keys
}
