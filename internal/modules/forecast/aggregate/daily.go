package aggregate

import (
	"sort"

	"github.com/PA-Segura/new-forecast-page-prod/internal/modules/forecast/types"
)

// DailyMax reduces the rows of one generation run (possibly many
// stations) into a per-calendar-day maximum. Every non-nil hourly value
// is bucketed by the day OffsetTime lands it on; each bucket keeps the
// strictly greatest value together with its station and clock hour.
//
// Ties keep the first observation encountered, iterating rows in input
// order and offsets 1→24, so re-running over the same query order is
// deterministic. Days without observations are absent from the result.
func DailyMax(rows []types.ForecastRow, src types.SeriesSource) map[string]types.DailyMaximum {
	out := make(map[string]types.DailyMaximum)

	for _, row := range rows {
		series := row.Series(src)
		for k := 1; k <= types.HoursPerRun; k++ {
			v := series[k-1]
			if v == nil {
				continue
			}

			at := OffsetTime(row.GeneratedAt, k)
			day := at.Format(DayFormat)

			cur, seen := out[day]
			if !seen {
				out[day] = types.DailyMaximum{
					Day:         day,
					Value:       *v,
					StationID:   row.StationID,
					Hour:        at.Format(hourFormat),
					SampleCount: 1,
					LatestHour:  at.Hour(),
				}
				continue
			}

			cur.SampleCount++
			if h := at.Hour(); h > cur.LatestHour {
				cur.LatestHour = h
			}
			if *v > cur.Value {
				cur.Value = *v
				cur.StationID = row.StationID
				cur.Hour = at.Format(hourFormat)
			}
			out[day] = cur
		}
	}

	return out
}

// SortDays flattens a day-bucket mapping into a slice ordered by
// calendar day ascending.
func SortDays(m map[string]types.DailyMaximum) []types.DailyMaximum {
	out := make([]types.DailyMaximum, 0, len(m))
	for _, dm := range m {
		out = append(out, dm)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out
}
