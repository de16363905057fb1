// Package aggregate holds the daily-maximum aggregation core: resolving
// hourly offsets of a generation run to absolute timestamps, bucketing
// predictions by calendar day, reconciling the morning and afternoon
// runs into one series, and grouping historical runs by generation day.
//
// Everything here is pure arithmetic over rows the repository already
// fetched; there is no store access and no shared state.
package aggregate

import "time"

const (
	// DayFormat keys all day buckets.
	DayFormat  = "2006-01-02"
	hourFormat = "15:04"
)

// OffsetTime resolves hour-offset k of a generation run to the absolute
// timestamp the prediction refers to. Offset k always means
// generated + k hours; Mexico City does not observe DST, so this is a
// pure additive invariant across calendar-day boundaries.
func OffsetTime(generated time.Time, offset int) time.Time {
	return generated.Add(time.Duration(offset) * time.Hour)
}
