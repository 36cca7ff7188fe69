package domain

import "time"

// Intent is the analyst's classification of a question
type Intent string

const (
	IntentUnknown    Intent = "unknown"
	IntentPrice      Intent = "price_analysis"
	IntentVolume     Intent = "volume_analysis"
	IntentArbitrage  Intent = "arbitrage_analysis"
	IntentTrend      Intent = "trend_analysis"
	IntentComparison Intent = "comparison"
)

// TimeRange is the look-back window a question refers to
type TimeRange string

const (
	RangeLatest TimeRange = "latest"
	RangeHour   TimeRange = "1_hour"
	RangeDay    TimeRange = "1_day"
	RangeWeek   TimeRange = "1_week"
)

// Duration returns the length of the window
func (r TimeRange) Duration() time.Duration {
	switch r {
	case RangeHour:
		return time.Hour
	case RangeDay:
		return 24 * time.Hour
	case RangeWeek:
		return 7 * 24 * time.Hour
	default:
		return 15 * time.Minute
	}
}

// Analysis is the structured reading of a natural-language question
type Analysis struct {
	Intent     Intent    `json:"intent"`
	Entities   []string  `json:"entities"`
	Exchanges  []string  `json:"exchanges,omitempty"`
	TimeRange  TimeRange `json:"time_range"`
	Comparison bool      `json:"comparison"`
}
