package services

import (
	"math"

	"github.com/shopspring/decimal"
)

const metricDisplayPlaces = 2

// Metric is an aggregate that may be absent. The zero value is the no-data
// marker and encodes as JSON null.
type Metric struct {
	Value float64
	Valid bool
}

var NoData = Metric{}

func SomeMetric(value float64) Metric {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return NoData
	}
	return Metric{Value: value, Valid: true}
}

// Rounded returns the value rounded half away from zero to places decimals.
func (metric Metric) Rounded(places int32) float64 {
	if !metric.Valid {
		return 0
	}
	return decimal.NewFromFloat(metric.Value).Round(places).InexactFloat64()
}

func (metric Metric) MarshalJSON() ([]byte, error) {
	if !metric.Valid {
		return []byte("null"), nil
	}
	return []byte(decimal.NewFromFloat(metric.Value).Round(metricDisplayPlaces).String()), nil
}

func roundHalfUp(value float64) float64 {
	return decimal.NewFromFloat(value).Round(0).InexactFloat64()
}
