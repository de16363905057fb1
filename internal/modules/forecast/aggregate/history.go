package aggregate

import (
	"sort"

	"github.com/PA-Segura/new-forecast-page-prod/internal/modules/forecast/types"
)

// GenerationDayMax groups rows by the day they were GENERATED on and
// keeps the single maximum across all offsets of each group, answering
// "the forecast issued on day D reached what peak". This deliberately
// differs from DailyMax, which buckets by the day each prediction lands
// on: a value at offset 18 of a 07:00 run belongs to the generation day
// here, and to the following calendar day there.
//
// The max and tie rules are the same as DailyMax: strict comparison,
// first encountered wins, rows in input order, offsets 1→24.
func GenerationDayMax(rows []types.ForecastRow, src types.SeriesSource) []types.GenerationDayValue {
	byDay := make(map[string]types.GenerationDayValue)

	for _, row := range rows {
		genDay := row.GeneratedAt.Format(DayFormat)
		series := row.Series(src)
		for k := 1; k <= types.HoursPerRun; k++ {
			v := series[k-1]
			if v == nil {
				continue
			}

			at := OffsetTime(row.GeneratedAt, k)
			cur, seen := byDay[genDay]
			if !seen || *v > cur.Value {
				if !seen {
					cur.GenerationDay = genDay
				}
				cur.Value = *v
				cur.StationID = row.StationID
				cur.Hour = at.Format(hourFormat)
				byDay[genDay] = cur
			}
		}
	}

	out := make([]types.GenerationDayValue, 0, len(byDay))
	for _, gv := range byDay {
		out = append(out, gv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GenerationDay < out[j].GenerationDay })
	return out
}
