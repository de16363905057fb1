// Package service orchestrates the forecast queries: it resolves which
// generation runs to fetch, hands the rows to the aggregation core and
// shapes the results for the API layer.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/PA-Segura/new-forecast-page-prod/internal/modules/forecast/aggregate"
	"github.com/PA-Segura/new-forecast-page-prod/internal/modules/forecast/repository"
	"github.com/PA-Segura/new-forecast-page-prod/internal/modules/forecast/types"
	"github.com/PA-Segura/new-forecast-page-prod/internal/mqtt"
)

// CityAggregateLabel names the city-wide series in responses. It is a
// display label, not a station id.
const CityAggregateLabel = "CDMX"

// Service is safe for concurrent use: every query keeps its aggregation
// state local and only the store is shared.
type Service struct {
	repo repository.ForecastRepository
	log  *slog.Logger
	now  func() time.Time
}

func NewService(repo repository.ForecastRepository, logger *slog.Logger) *Service {
	return &Service{repo: repo, log: logger, now: time.Now}
}

// WithClock replaces the wall clock; tests use it to pin the afternoon
// gate to either side of 16:00.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Register attaches the ingest handler to the MQTT subscriber.
func (s *Service) Register(subscriber mqtt.MQTTSubscriber) {
	registerMQTTHandler(subscriber, s.repo, s.log)
}

// CurrentQuery selects the pollutant, model variant and scope of a
// current-forecast request. An empty StationID means the city-wide
// aggregate; Source picks the vector for statistics tables and is
// ignored for per-station pollutants.
type CurrentQuery struct {
	Pollutant types.Pollutant
	Variant   types.ModelVariant
	StationID string
	Source    types.SeriesSource
}

// DailyQuery addresses one explicit generation day instead of "latest".
type DailyQuery struct {
	CurrentQuery
	Day time.Time
}

// HistoryQuery selects a backfilled range of morning runs.
type HistoryQuery struct {
	CurrentQuery
	From time.Time
	To   time.Time
}

// ForecastSummary is the serialized daily-maximum series for one query.
type ForecastSummary struct {
	City        string                `json:"ciudad"`
	ForecastDay string                `json:"fecha_pron"`
	ModelID     string                `json:"modelo_id"`
	Units       string                `json:"unidades"`
	Entries     []types.DailyForecast `json:"pronos"`
}

// CurrentDailyForecast serves the "what does the forecast say for today
// and tomorrow" question. It aggregates the latest morning run, and once
// the wall clock passes 16:00 also fetches the afternoon run so the
// reconciler can extend the series into the next day.
func (s *Service) CurrentDailyForecast(ctx context.Context, q CurrentQuery) (ForecastSummary, error) {
	latest, err := s.repo.LatestGeneratedAt(ctx, q.Pollutant, q.Variant.ForecastTypeID)
	if err != nil {
		return ForecastSummary{}, err
	}
	refDay := dayStart(latest)

	morningRows, err := s.repo.FetchRun(ctx, q.Pollutant, q.Variant.ForecastTypeID, refDay.Add(aggregate.MorningRunHour*time.Hour), q.StationID)
	if err != nil {
		return ForecastSummary{}, err
	}
	src := seriesSource(q.Pollutant, q.Source)
	morning := aggregate.DailyMax(morningRows, src)

	now := s.now()
	var afternoon map[string]types.DailyMaximum
	if now.Hour() >= aggregate.AfternoonRunHour {
		afternoonRows, err := s.repo.FetchRun(ctx, q.Pollutant, q.Variant.ForecastTypeID, refDay.Add(aggregate.AfternoonRunHour*time.Hour), q.StationID)
		if err != nil {
			return ForecastSummary{}, err
		}
		afternoon = aggregate.DailyMax(afternoonRows, src)
	}

	series, err := aggregate.Reconcile(morning, afternoon, refDay, now)
	if err != nil {
		return ForecastSummary{}, err
	}

	s.log.Debug("current forecast assembled",
		"pollutant", q.Pollutant.Key,
		"station", q.StationID,
		"ref_day", refDay.Format(aggregate.DayFormat),
		"days", len(series),
	)
	return s.summary(q, refDay, series), nil
}

// DailyRunSummary aggregates the morning run of one explicit generation
// day into its per-day maxima, spill-over day included.
func (s *Service) DailyRunSummary(ctx context.Context, q DailyQuery) (ForecastSummary, error) {
	day := dayStart(q.Day)
	rows, err := s.repo.FetchRun(ctx, q.Pollutant, q.Variant.ForecastTypeID, day.Add(aggregate.MorningRunHour*time.Hour), q.StationID)
	if err != nil {
		return ForecastSummary{}, err
	}
	if len(rows) == 0 {
		return ForecastSummary{}, fmt.Errorf("run of %s for %s: %w", q.Pollutant.Key, day.Format(aggregate.DayFormat), types.ErrNoData)
	}

	buckets := aggregate.DailyMax(rows, seriesSource(q.Pollutant, q.Source))
	return s.summary(q.CurrentQuery, day, aggregate.SortDays(buckets)), nil
}

// HistoricalDailySeries builds one point per generation day across the
// requested range, always from the 07:00 run. Unlike the current path
// there is no run reconciliation: backfilled dates have no today/tomorrow
// ambiguity, and values are attributed to the day the run was issued.
func (s *Service) HistoricalDailySeries(ctx context.Context, q HistoryQuery) ([]types.GenerationDayValue, error) {
	if q.From.After(q.To) {
		return nil, fmt.Errorf("range %s..%s: %w", q.From.Format(aggregate.DayFormat), q.To.Format(aggregate.DayFormat), types.ErrValidation)
	}

	from := dayStart(q.From).Add(aggregate.MorningRunHour * time.Hour)
	to := dayStart(q.To).Add(aggregate.MorningRunHour * time.Hour)
	rows, err := s.repo.FetchRange(ctx, q.Pollutant, q.Variant.ForecastTypeID, from, to, q.StationID)
	if err != nil {
		return nil, err
	}

	// The range query is hour-agnostic for SQL portability; keep only the
	// morning runs here.
	morning := rows[:0]
	for _, row := range rows {
		if row.GeneratedAt.Hour() == aggregate.MorningRunHour {
			morning = append(morning, row)
		}
	}

	series := aggregate.GenerationDayMax(morning, seriesSource(q.Pollutant, q.Source))
	for i := range series {
		series[i].Value = round2(series[i].Value)
	}
	return series, nil
}

// Stations lists the stations that currently have forecast rows, decorated
// from the catalog; the static catalog is the fallback for an empty store.
func (s *Service) Stations(ctx context.Context) ([]types.Station, error) {
	variant, _ := types.VariantByKey(types.DefaultVariantKey)
	ids, err := s.repo.ListStations(ctx, variant.ForecastTypeID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return types.AllStations(), nil
	}

	out := make([]types.Station, 0, len(ids))
	for _, id := range ids {
		if st, ok := types.StationByID(id); ok {
			out = append(out, st)
			continue
		}
		out = append(out, types.Station{ID: id, Name: id})
	}
	return out, nil
}

// LatestOzoneRun reports the newest production ozone generation
// timestamp; the staleness watchdog polls it.
func (s *Service) LatestOzoneRun(ctx context.Context) (time.Time, error) {
	p, _ := types.PollutantByKey("o3")
	variant, _ := types.VariantByKey(types.DefaultVariantKey)
	return s.repo.LatestGeneratedAt(ctx, p, variant.ForecastTypeID)
}

func (s *Service) summary(q CurrentQuery, refDay time.Time, series []types.DailyMaximum) ForecastSummary {
	entries := make([]types.DailyForecast, 0, len(series))
	for _, dm := range series {
		station := dm.StationID
		if station == "" {
			station = CityAggregateLabel
		}
		entries = append(entries, types.DailyForecast{
			Day:       dm.Day,
			Value:     round2(dm.Value),
			Source:    "pronostico",
			StationID: station,
			Hour:      dm.Hour,
		})
	}

	city := q.StationID
	if city == "" {
		city = CityAggregateLabel
	}
	return ForecastSummary{
		City:        city,
		ForecastDay: refDay.Format(aggregate.DayFormat),
		ModelID:     strconv.Itoa(q.Variant.ForecastTypeID),
		Units:       q.Pollutant.Units,
		Entries:     entries,
	}
}

// seriesSource maps a requested source onto what the table can serve:
// per-station tables only have the raw vector, statistics tables default
// to the avg series.
func seriesSource(p types.Pollutant, requested types.SeriesSource) types.SeriesSource {
	if p.PerStation {
		return types.SourceRaw
	}
	if requested == "" || requested == types.SourceRaw {
		return types.SourceAvg
	}
	return requested
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
