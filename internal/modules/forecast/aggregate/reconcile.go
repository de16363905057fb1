package aggregate

import (
	"fmt"
	"time"

	"github.com/PA-Segura/new-forecast-page-prod/internal/modules/forecast/types"
)

const (
	// MorningRunHour and AfternoonRunHour are the two daily generation
	// times of the upstream pipeline.
	MorningRunHour   = 7
	AfternoonRunHour = 16

	// eveningCoverageHour is the clock hour the afternoon run's next-day
	// bucket must reach before next-day is trusted. A stale morning run
	// masquerading as the afternoon one only covers next-day up to 07:00.
	eveningCoverageHour = 16
)

// Reconcile merges the morning and afternoon aggregations of refDay into
// the authoritative current-forecast series.
//
// The morning run is mandatory: an empty morning aggregation fails with
// ErrNoData. Afternoon data is considered only once the wall clock has
// passed AfternoonRunHour, and its next-day entry is included only when
// its observations extend into the evening, confirming a genuine
// afternoon-generated run rather than a partial one. The result is
// ordered ascending and holds at most refDay and refDay+1.
func Reconcile(morning, afternoon map[string]types.DailyMaximum, refDay, now time.Time) ([]types.DailyMaximum, error) {
	if len(morning) == 0 {
		return nil, fmt.Errorf("morning run for %s: %w", refDay.Format(DayFormat), types.ErrNoData)
	}

	out := make([]types.DailyMaximum, 0, 2)
	if today, ok := morning[refDay.Format(DayFormat)]; ok {
		out = append(out, today)
	}

	if now.Hour() >= AfternoonRunHour {
		nextDay := refDay.AddDate(0, 0, 1).Format(DayFormat)
		if next, ok := afternoon[nextDay]; ok && next.LatestHour >= eveningCoverageHour {
			out = append(out, next)
		}
	}

	return out, nil
}
