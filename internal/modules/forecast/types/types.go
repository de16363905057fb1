package types

import "time"

// HoursPerRun is the length of every prediction vector: one value per
// clock hour following the generation timestamp.
const HoursPerRun = 24

// SeriesSource selects which hourly vector of a row feeds an aggregation.
// Ozone rows carry a single per-station vector (SourceRaw); the other
// pollutant tables store min/max/avg vectors already reduced across
// stations.
type SeriesSource string

const (
	SourceRaw SeriesSource = "raw"
	SourceMin SeriesSource = "min"
	SourceMax SeriesSource = "max"
	SourceAvg SeriesSource = "avg"
)

// ForecastRow is one generation event: the prediction vector produced at
// GeneratedAt for one station, or one regional statistics record for the
// pre-aggregated pollutant tables (StationID empty).
//
// Hours[k-1] is the predicted concentration at GeneratedAt + k hours.
// A nil slot is a missing prediction and contributes nothing downstream.
type ForecastRow struct {
	GeneratedAt    time.Time
	StationID      string
	ForecastTypeID int

	Hours [HoursPerRun]*float64

	// Populated only for statistics tables.
	MinHours [HoursPerRun]*float64
	MaxHours [HoursPerRun]*float64
	AvgHours [HoursPerRun]*float64
}

// Series returns the hourly vector designated by src.
func (r ForecastRow) Series(src SeriesSource) [HoursPerRun]*float64 {
	switch src {
	case SourceMin:
		return r.MinHours
	case SourceMax:
		return r.MaxHours
	case SourceAvg:
		return r.AvgHours
	default:
		return r.Hours
	}
}

// DailyMaximum is the aggregation result for one calendar day: the single
// highest prediction among all (station, hour) observations landing on
// that day. It is computed per query and never persisted.
type DailyMaximum struct {
	Day         string  // YYYY-MM-DD of the observation, not of the generation run
	Value       float64
	StationID   string // station that produced Value
	Hour        string // HH:MM at which Value occurs
	SampleCount int    // observations that fell into this day's bucket
	LatestHour  int    // clock hour of the latest contributing observation
}

// GenerationDayValue is one point of a historical series: the peak the
// run issued on GenerationDay reached, wherever that peak landed.
type GenerationDayValue struct {
	GenerationDay string  `json:"dia_pron"`
	Value         float64 `json:"valor"`
	StationID     string  `json:"id_est,omitempty"`
	Hour          string  `json:"hora"`
}

// DailyForecast is the serialized form of a DailyMaximum, using the field
// vocabulary of the public API.
type DailyForecast struct {
	Day       string  `json:"dia"`
	Value     float64 `json:"valor"`
	Source    string  `json:"fuente"`
	StationID string  `json:"id_est"`
	Hour      string  `json:"hora"`
}

// GenerationMessage is the MQTT payload published by the upstream model
// pipeline when a generation run for one station (or one regional record)
// has been written out.
type GenerationMessage struct {
	Pollutant   string     `json:"pollutant"`
	Variant     string     `json:"variant"`
	GeneratedAt time.Time  `json:"generated_at"`
	StationID   string     `json:"station_id,omitempty"`
	Hours       []*float64 `json:"hours"`
	MinHours    []*float64 `json:"min_hours,omitempty"`
	MaxHours    []*float64 `json:"max_hours,omitempty"`
	AvgHours    []*float64 `json:"avg_hours,omitempty"`
}
