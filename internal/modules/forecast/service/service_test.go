package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/PA-Segura/new-forecast-page-prod/internal/modules/forecast/aggregate"
	"github.com/PA-Segura/new-forecast-page-prod/internal/modules/forecast/types"
)

type fakeRepository struct {
	latest    time.Time
	latestErr error
	// runs is keyed by the run start timestamp.
	runs     map[time.Time][]types.ForecastRow
	rangeAll []types.ForecastRow
	stations []string
	inserted []types.ForecastRow

	fetchedRuns []time.Time
}

func (f *fakeRepository) FetchRun(_ context.Context, _ types.Pollutant, _ int, runStart time.Time, stationID string) ([]types.ForecastRow, error) {
	f.fetchedRuns = append(f.fetchedRuns, runStart)
	rows := f.runs[runStart]
	if stationID == "" {
		return rows, nil
	}
	var out []types.ForecastRow
	for _, row := range rows {
		if row.StationID == stationID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeRepository) FetchRange(_ context.Context, _ types.Pollutant, _ int, from, to time.Time, stationID string) ([]types.ForecastRow, error) {
	var out []types.ForecastRow
	for _, row := range f.rangeAll {
		if row.GeneratedAt.Before(from) || row.GeneratedAt.After(to) {
			continue
		}
		if stationID != "" && row.StationID != stationID {
			continue
		}
		out = append(out, row)
	}
	return out, nil
}

func (f *fakeRepository) LatestGeneratedAt(context.Context, types.Pollutant, int) (time.Time, error) {
	if f.latestErr != nil {
		return time.Time{}, f.latestErr
	}
	return f.latest, nil
}

func (f *fakeRepository) ListStations(context.Context, int) ([]string, error) {
	return f.stations, nil
}

func (f *fakeRepository) InsertRun(_ context.Context, _ types.Pollutant, row types.ForecastRow) error {
	f.inserted = append(f.inserted, row)
	return nil
}

func testService(repo *fakeRepository) *Service {
	return NewService(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func ozoneQuery(station string) CurrentQuery {
	p, _ := types.PollutantByKey("o3")
	v, _ := types.VariantByKey(types.DefaultVariantKey)
	return CurrentQuery{Pollutant: p, Variant: v, StationID: station}
}

func pmQuery() CurrentQuery {
	p, _ := types.PollutantByKey("pm25")
	v, _ := types.VariantByKey(types.DefaultVariantKey)
	return CurrentQuery{Pollutant: p, Variant: v}
}

// runRow builds a raw row whose peak value lands at the given offset.
func runRow(gen time.Time, station string, peakOffset int, peak float64) types.ForecastRow {
	row := types.ForecastRow{GeneratedAt: gen, StationID: station, ForecastTypeID: 7}
	for i := 0; i < types.HoursPerRun; i++ {
		v := 10.0 + float64(i)
		if i+1 == peakOffset {
			v = peak
		}
		row.Hours[i] = &v
	}
	return row
}

func TestCurrentDailyForecast_MorningOnlyBeforeGate(t *testing.T) {
	gen := time.Date(2024, 6, 10, 7, 0, 0, 0, time.UTC)
	repo := &fakeRepository{
		latest: gen,
		runs: map[time.Time][]types.ForecastRow{
			gen: {runRow(gen, "MER", 10, 95.456)},
		},
	}
	svc := testService(repo).WithClock(func() time.Time {
		return time.Date(2024, 6, 10, 11, 30, 0, 0, time.UTC)
	})

	got, err := svc.CurrentDailyForecast(context.Background(), ozoneQuery("MER"))
	if err != nil {
		t.Fatalf("CurrentDailyForecast: %v", err)
	}

	if len(repo.fetchedRuns) != 1 {
		t.Fatalf("before 16:00 only the morning run should be fetched, got %v", repo.fetchedRuns)
	}
	if got.ForecastDay != "2024-06-10" {
		t.Errorf("ForecastDay = %s, want 2024-06-10", got.ForecastDay)
	}
	if got.Units != "ppb" || got.ModelID != "7" {
		t.Errorf("envelope = %s/%s, want ppb/7", got.Units, got.ModelID)
	}
	if len(got.Entries) != 1 {
		t.Fatalf("entries = %d, want 1 (same-day maximum only)", len(got.Entries))
	}
	e := got.Entries[0]
	if e.Day != "2024-06-10" || e.Value != 95.46 || e.StationID != "MER" {
		t.Errorf("entry = %+v, want day 2024-06-10 value 95.46 station MER", e)
	}
	if e.Hour != "17:00" {
		t.Errorf("peak hour = %s, want 17:00 (offset 10 from 07:00)", e.Hour)
	}
}

func TestCurrentDailyForecast_AfternoonExtendsSeries(t *testing.T) {
	morning := time.Date(2024, 6, 10, 7, 0, 0, 0, time.UTC)
	afternoon := time.Date(2024, 6, 10, 16, 0, 0, 0, time.UTC)
	repo := &fakeRepository{
		latest: afternoon,
		runs: map[time.Time][]types.ForecastRow{
			morning:   {runRow(morning, "MER", 10, 95)},
			afternoon: {runRow(afternoon, "MER", 20, 88)},
		},
	}
	svc := testService(repo).WithClock(func() time.Time {
		return time.Date(2024, 6, 10, 17, 0, 0, 0, time.UTC)
	})

	got, err := svc.CurrentDailyForecast(context.Background(), ozoneQuery("MER"))
	if err != nil {
		t.Fatalf("CurrentDailyForecast: %v", err)
	}
	if len(got.Entries) != 2 {
		t.Fatalf("entries = %d, want 2 (today + tomorrow)", len(got.Entries))
	}
	if got.Entries[0].Day != "2024-06-10" || got.Entries[1].Day != "2024-06-11" {
		t.Errorf("days = %s, %s; want 2024-06-10, 2024-06-11", got.Entries[0].Day, got.Entries[1].Day)
	}
	// Offset 20 from 16:00 is 12:00 the next day; the afternoon run covers
	// the next evening so its spill-over day qualifies.
	if got.Entries[1].Value != 88 {
		t.Errorf("tomorrow value = %v, want 88", got.Entries[1].Value)
	}
}

func TestCurrentDailyForecast_PartialAfternoonIsIgnored(t *testing.T) {
	morning := time.Date(2024, 6, 10, 7, 0, 0, 0, time.UTC)
	afternoon := time.Date(2024, 6, 10, 16, 0, 0, 0, time.UTC)

	// Afternoon row with only the first three offsets populated: its
	// next-day coverage stops at 19:00 same day, so there is no next-day
	// bucket at all here and the series stays at one entry.
	partial := types.ForecastRow{GeneratedAt: afternoon, StationID: "MER", ForecastTypeID: 7}
	for i := 0; i < 3; i++ {
		v := 50.0
		partial.Hours[i] = &v
	}

	repo := &fakeRepository{
		latest: afternoon,
		runs: map[time.Time][]types.ForecastRow{
			morning:   {runRow(morning, "MER", 10, 95)},
			afternoon: {partial},
		},
	}
	svc := testService(repo).WithClock(func() time.Time {
		return time.Date(2024, 6, 10, 18, 0, 0, 0, time.UTC)
	})

	got, err := svc.CurrentDailyForecast(context.Background(), ozoneQuery("MER"))
	if err != nil {
		t.Fatalf("CurrentDailyForecast: %v", err)
	}
	if len(got.Entries) != 1 {
		t.Fatalf("entries = %d, want 1 (partial afternoon run must not extend)", len(got.Entries))
	}
}

func TestCurrentDailyForecast_NoDataPassesThrough(t *testing.T) {
	repo := &fakeRepository{latestErr: types.ErrNoData}
	svc := testService(repo)

	_, err := svc.CurrentDailyForecast(context.Background(), ozoneQuery(""))
	if !errors.Is(err, types.ErrNoData) {
		t.Fatalf("err = %v, want ErrNoData", err)
	}
}

func TestCurrentDailyForecast_CityAggregateLabel(t *testing.T) {
	gen := time.Date(2024, 6, 10, 7, 0, 0, 0, time.UTC)
	// Statistics pollutants serve the avg vector, not the raw one.
	row := types.ForecastRow{GeneratedAt: gen, ForecastTypeID: 7}
	for i := 0; i < types.HoursPerRun; i++ {
		v := 20.0 + float64(i)
		row.AvgHours[i] = &v
	}
	repo := &fakeRepository{
		latest: gen,
		runs:   map[time.Time][]types.ForecastRow{gen: {row}},
	}
	svc := testService(repo).WithClock(func() time.Time {
		return time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	})

	got, err := svc.CurrentDailyForecast(context.Background(), pmQuery())
	if err != nil {
		t.Fatalf("CurrentDailyForecast: %v", err)
	}
	if got.City != CityAggregateLabel {
		t.Errorf("City = %q, want %q", got.City, CityAggregateLabel)
	}
	if got.Units != "µg/m³" {
		t.Errorf("Units = %q, want µg/m³", got.Units)
	}
}

func TestDailyRunSummary_ExplicitDay(t *testing.T) {
	day := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	gen := day.Add(aggregate.MorningRunHour * time.Hour)
	repo := &fakeRepository{
		runs: map[time.Time][]types.ForecastRow{
			gen: {runRow(gen, "UIZ", 18, 120)},
		},
	}
	svc := testService(repo)
	p, _ := types.PollutantByKey("o3")
	v, _ := types.VariantByKey(types.DefaultVariantKey)

	got, err := svc.DailyRunSummary(context.Background(), DailyQuery{
		CurrentQuery: CurrentQuery{Pollutant: p, Variant: v, StationID: "UIZ"},
		Day:          day,
	})
	if err != nil {
		t.Fatalf("DailyRunSummary: %v", err)
	}
	// Offset 18 from 07:00 lands at 01:00 the next day, so the summary
	// reports both covered days.
	if len(got.Entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(got.Entries))
	}
	if got.Entries[1].Day != "2024-03-06" || got.Entries[1].Value != 120 {
		t.Errorf("spill-over entry = %+v, want 2024-03-06 / 120", got.Entries[1])
	}
}

func TestDailyRunSummary_MissingRun(t *testing.T) {
	svc := testService(&fakeRepository{runs: map[time.Time][]types.ForecastRow{}})
	p, _ := types.PollutantByKey("o3")
	v, _ := types.VariantByKey(types.DefaultVariantKey)

	_, err := svc.DailyRunSummary(context.Background(), DailyQuery{
		CurrentQuery: CurrentQuery{Pollutant: p, Variant: v},
		Day:          time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
	})
	if !errors.Is(err, types.ErrNoData) {
		t.Fatalf("err = %v, want ErrNoData", err)
	}
}

func TestHistoricalDailySeries_MorningRunsOnly(t *testing.T) {
	day1 := time.Date(2024, 3, 1, 7, 0, 0, 0, time.UTC)
	day1pm := time.Date(2024, 3, 1, 16, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 3, 2, 7, 0, 0, 0, time.UTC)
	repo := &fakeRepository{
		rangeAll: []types.ForecastRow{
			runRow(day1, "MER", 5, 80),
			runRow(day1pm, "MER", 5, 999), // afternoon run must be filtered out
			runRow(day2, "MER", 5, 60),
		},
	}
	svc := testService(repo)
	p, _ := types.PollutantByKey("o3")
	v, _ := types.VariantByKey(types.DefaultVariantKey)

	series, err := svc.HistoricalDailySeries(context.Background(), HistoryQuery{
		CurrentQuery: CurrentQuery{Pollutant: p, Variant: v, StationID: "MER"},
		From:         time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		To:           time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("HistoricalDailySeries: %v", err)
	}
	if len(series) != 2 {
		t.Fatalf("series length = %d, want 2", len(series))
	}
	if series[0].GenerationDay != "2024-03-01" || series[0].Value != 80 {
		t.Errorf("first point = %+v, want 2024-03-01 / 80 (afternoon run leaked in)", series[0])
	}
	if series[1].GenerationDay != "2024-03-02" || series[1].Value != 60 {
		t.Errorf("second point = %+v, want 2024-03-02 / 60", series[1])
	}
}

func TestHistoricalDailySeries_InvalidRange(t *testing.T) {
	svc := testService(&fakeRepository{})
	p, _ := types.PollutantByKey("o3")
	v, _ := types.VariantByKey(types.DefaultVariantKey)

	_, err := svc.HistoricalDailySeries(context.Background(), HistoryQuery{
		CurrentQuery: CurrentQuery{Pollutant: p, Variant: v},
		From:         time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		To:           time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	if !errors.Is(err, types.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestHistoricalDailySeries_EmptyRangeIsNotAnError(t *testing.T) {
	svc := testService(&fakeRepository{})
	p, _ := types.PollutantByKey("o3")
	v, _ := types.VariantByKey(types.DefaultVariantKey)

	series, err := svc.HistoricalDailySeries(context.Background(), HistoryQuery{
		CurrentQuery: CurrentQuery{Pollutant: p, Variant: v},
		From:         time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		To:           time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("HistoricalDailySeries: %v", err)
	}
	if len(series) != 0 {
		t.Fatalf("series length = %d, want 0", len(series))
	}
}

func TestStations_DecoratedFromCatalog(t *testing.T) {
	svc := testService(&fakeRepository{stations: []string{"MER", "XYZ"}})

	stations, err := svc.Stations(context.Background())
	if err != nil {
		t.Fatalf("Stations: %v", err)
	}
	if len(stations) != 2 {
		t.Fatalf("stations = %d, want 2", len(stations))
	}
	if stations[0].Name != "MER - Merced" {
		t.Errorf("MER name = %q, want MER - Merced", stations[0].Name)
	}
	// Unknown ids fall back to the id as name.
	if stations[1].Name != "XYZ" {
		t.Errorf("XYZ name = %q, want XYZ", stations[1].Name)
	}
}

func TestStations_EmptyStoreFallsBackToCatalog(t *testing.T) {
	svc := testService(&fakeRepository{})

	stations, err := svc.Stations(context.Background())
	if err != nil {
		t.Fatalf("Stations: %v", err)
	}
	if len(stations) != len(types.AllStations()) {
		t.Fatalf("stations = %d, want full catalog (%d)", len(stations), len(types.AllStations()))
	}
}

func TestRowFromMessage_PerStation(t *testing.T) {
	hours := make([]*float64, types.HoursPerRun)
	for i := range hours {
		v := float64(i)
		hours[i] = &v
	}
	msg := types.GenerationMessage{
		Pollutant:   "o3",
		Variant:     "ai_vi_transformer01",
		GeneratedAt: time.Date(2024, 6, 10, 7, 0, 0, 0, time.UTC),
		StationID:   "MER",
		Hours:       hours,
	}

	p, v, row, err := rowFromMessage(msg)
	if err != nil {
		t.Fatalf("rowFromMessage: %v", err)
	}
	if p.Key != "o3" || v.ForecastTypeID != 7 {
		t.Errorf("resolved %s/%d, want o3/7", p.Key, v.ForecastTypeID)
	}
	if row.StationID != "MER" || row.ForecastTypeID != 7 {
		t.Errorf("row = %+v", row)
	}
	if row.Hours[23] == nil || *row.Hours[23] != 23 {
		t.Errorf("hour slots not copied through")
	}
}

func TestRowFromMessage_Rejections(t *testing.T) {
	hours := make([]*float64, types.HoursPerRun)
	base := types.GenerationMessage{
		Pollutant:   "o3",
		GeneratedAt: time.Date(2024, 6, 10, 7, 0, 0, 0, time.UTC),
		StationID:   "MER",
		Hours:       hours,
	}

	cases := []struct {
		name   string
		mutate func(*types.GenerationMessage)
	}{
		{"unknown pollutant", func(m *types.GenerationMessage) { m.Pollutant = "lead" }},
		{"unknown variant", func(m *types.GenerationMessage) { m.Variant = "crystal_ball" }},
		{"zero timestamp", func(m *types.GenerationMessage) { m.GeneratedAt = time.Time{} }},
		{"missing station", func(m *types.GenerationMessage) { m.StationID = "" }},
		{"unknown station", func(m *types.GenerationMessage) { m.StationID = "ZZZ" }},
		{"short vector", func(m *types.GenerationMessage) { m.Hours = m.Hours[:5] }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			msg := base
			tc.mutate(&msg)
			if _, _, _, err := rowFromMessage(msg); !errors.Is(err, types.ErrValidation) {
				t.Fatalf("err = %v, want ErrValidation", err)
			}
		})
	}
}

func TestRowFromMessage_StatisticsNeedsAllVectors(t *testing.T) {
	full := make([]*float64, types.HoursPerRun)
	msg := types.GenerationMessage{
		Pollutant:   "pm25",
		GeneratedAt: time.Date(2024, 6, 10, 7, 0, 0, 0, time.UTC),
		MinHours:    full,
		MaxHours:    full,
	}
	if _, _, _, err := rowFromMessage(msg); !errors.Is(err, types.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation for missing avg_hours", err)
	}

	msg.AvgHours = full
	if _, _, _, err := rowFromMessage(msg); err != nil {
		t.Fatalf("rowFromMessage: %v", err)
	}
}
