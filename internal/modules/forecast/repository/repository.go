// Package repository reads and writes the forecast_* tables. Queries are
// kept in embedded .sql files; table names and hour-column lists are
// substituted from the static pollutant catalog, never from user input.
package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PA-Segura/new-forecast-page-prod/internal/modules/forecast/types"
)

//go:embed sql/get-run-raw.sql
var getRunRawSQL string

//go:embed sql/get-run-raw-station.sql
var getRunRawStationSQL string

//go:embed sql/get-range-raw.sql
var getRangeRawSQL string

//go:embed sql/get-range-raw-station.sql
var getRangeRawStationSQL string

//go:embed sql/get-run-stats.sql
var getRunStatsSQL string

//go:embed sql/get-range-stats.sql
var getRangeStatsSQL string

//go:embed sql/get-latest-generated.sql
var getLatestGeneratedSQL string

//go:embed sql/get-stations.sql
var getStationsSQL string

//go:embed sql/insert-run-raw.sql
var insertRunRawSQL string

//go:embed sql/insert-run-stats.sql
var insertRunStatsSQL string

// timeLayout is the naive local timestamp format of the forecast tables.
const timeLayout = "2006-01-02 15:04:05"

type ForecastRepository interface {
	// FetchRun returns the rows of one generation run: all rows whose
	// generation timestamp falls in [runStart, runStart+1h). stationID
	// filters per-station tables and is ignored for statistics tables.
	FetchRun(ctx context.Context, p types.Pollutant, forecastTypeID int, runStart time.Time, stationID string) ([]types.ForecastRow, error)
	// FetchRange returns rows with generation timestamp in [from, to],
	// any generation hour.
	FetchRange(ctx context.Context, p types.Pollutant, forecastTypeID int, from, to time.Time, stationID string) ([]types.ForecastRow, error)
	// LatestGeneratedAt returns the newest generation timestamp, or
	// ErrNoData when the table holds no rows for the forecast type.
	LatestGeneratedAt(ctx context.Context, p types.Pollutant, forecastTypeID int) (time.Time, error)
	ListStations(ctx context.Context, forecastTypeID int) ([]string, error)
	InsertRun(ctx context.Context, p types.Pollutant, row types.ForecastRow) error
}

type repositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) ForecastRepository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) FetchRun(ctx context.Context, p types.Pollutant, forecastTypeID int, runStart time.Time, stationID string) ([]types.ForecastRow, error) {
	from := runStart.Format(timeLayout)
	to := runStart.Add(time.Hour).Format(timeLayout)

	if !p.PerStation {
		query := fmt.Sprintf(getRunStatsSQL, p.Table, statColumns())
		rows, err := r.db.QueryContext(ctx, query, from, to, forecastTypeID)
		if err != nil {
			return nil, storeErr("fetch run", err)
		}
		defer closeRows(rows, "run rows")
		return scanStatsRows(rows, forecastTypeID)
	}

	query := fmt.Sprintf(getRunRawSQL, p.Table, hourColumns("hour_p"))
	args := []any{from, to, forecastTypeID}
	if stationID != "" {
		query = fmt.Sprintf(getRunRawStationSQL, p.Table, hourColumns("hour_p"))
		args = append(args, stationID)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr("fetch run", err)
	}
	defer closeRows(rows, "run rows")
	return scanRawRows(rows, forecastTypeID)
}

func (r *repositoryImpl) FetchRange(ctx context.Context, p types.Pollutant, forecastTypeID int, from, to time.Time, stationID string) ([]types.ForecastRow, error) {
	fromStr := from.Format(timeLayout)
	toStr := to.Format(timeLayout)

	if !p.PerStation {
		query := fmt.Sprintf(getRangeStatsSQL, p.Table, statColumns())
		rows, err := r.db.QueryContext(ctx, query, fromStr, toStr, forecastTypeID)
		if err != nil {
			return nil, storeErr("fetch range", err)
		}
		defer closeRows(rows, "range rows")
		return scanStatsRows(rows, forecastTypeID)
	}

	query := fmt.Sprintf(getRangeRawSQL, p.Table, hourColumns("hour_p"))
	args := []any{fromStr, toStr, forecastTypeID}
	if stationID != "" {
		query = fmt.Sprintf(getRangeRawStationSQL, p.Table, hourColumns("hour_p"))
		args = append(args, stationID)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr("fetch range", err)
	}
	defer closeRows(rows, "range rows")
	return scanRawRows(rows, forecastTypeID)
}

func (r *repositoryImpl) LatestGeneratedAt(ctx context.Context, p types.Pollutant, forecastTypeID int) (time.Time, error) {
	query := fmt.Sprintf(getLatestGeneratedSQL, p.Table)

	var latest time.Time
	err := r.db.QueryRowContext(ctx, query, forecastTypeID).Scan(&latest)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, fmt.Errorf("latest run of %s: %w", p.Table, types.ErrNoData)
	}
	if err != nil {
		return time.Time{}, storeErr("latest generated", err)
	}
	return latest, nil
}

func (r *repositoryImpl) ListStations(ctx context.Context, forecastTypeID int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, getStationsSQL, forecastTypeID)
	if err != nil {
		return nil, storeErr("list stations", err)
	}
	defer closeRows(rows, "station rows")

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan station id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) InsertRun(ctx context.Context, p types.Pollutant, row types.ForecastRow) error {
	if p.PerStation {
		query := fmt.Sprintf(insertRunRawSQL, p.Table, hourColumns("hour_p"), placeholders(4, types.HoursPerRun))
		args := make([]any, 0, 3+types.HoursPerRun)
		args = append(args, row.GeneratedAt.Format(timeLayout), row.StationID, row.ForecastTypeID)
		for i := 0; i < types.HoursPerRun; i++ {
			args = append(args, row.Hours[i])
		}
		if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
			return storeErr("insert run", err)
		}
		return nil
	}

	query := fmt.Sprintf(insertRunStatsSQL, p.Table, statColumns(), placeholders(3, 3*types.HoursPerRun))
	args := make([]any, 0, 2+3*types.HoursPerRun)
	args = append(args, row.GeneratedAt.Format(timeLayout), row.ForecastTypeID)
	for i := 0; i < types.HoursPerRun; i++ {
		args = append(args, row.MinHours[i], row.MaxHours[i], row.AvgHours[i])
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return storeErr("insert run", err)
	}
	return nil
}

func scanRawRows(rows *sql.Rows, forecastTypeID int) ([]types.ForecastRow, error) {
	var out []types.ForecastRow
	for rows.Next() {
		rec := types.ForecastRow{ForecastTypeID: forecastTypeID}

		vals := make([]sql.NullFloat64, types.HoursPerRun)
		dest := make([]any, 0, 2+types.HoursPerRun)
		dest = append(dest, &rec.GeneratedAt, &rec.StationID)
		for i := range vals {
			dest = append(dest, &vals[i])
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan forecast row: %w", err)
		}
		for i, v := range vals {
			if v.Valid {
				x := v.Float64
				rec.Hours[i] = &x
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanStatsRows(rows *sql.Rows, forecastTypeID int) ([]types.ForecastRow, error) {
	var out []types.ForecastRow
	for rows.Next() {
		rec := types.ForecastRow{ForecastTypeID: forecastTypeID}

		vals := make([]sql.NullFloat64, 3*types.HoursPerRun)
		dest := make([]any, 0, 1+3*types.HoursPerRun)
		dest = append(dest, &rec.GeneratedAt)
		for i := range vals {
			dest = append(dest, &vals[i])
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan statistics row: %w", err)
		}
		for i := 0; i < types.HoursPerRun; i++ {
			if v := vals[3*i]; v.Valid {
				x := v.Float64
				rec.MinHours[i] = &x
			}
			if v := vals[3*i+1]; v.Valid {
				x := v.Float64
				rec.MaxHours[i] = &x
			}
			if v := vals[3*i+2]; v.Valid {
				x := v.Float64
				rec.AvgHours[i] = &x
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// hourColumns renders "hour_p01, hour_p02, ..." for the given prefix.
func hourColumns(prefix string) string {
	cols := make([]string, 0, types.HoursPerRun)
	for i := 1; i <= types.HoursPerRun; i++ {
		cols = append(cols, fmt.Sprintf("%s%02d", prefix, i))
	}
	return strings.Join(cols, ", ")
}

// statColumns renders the interleaved min/max/avg triplets per hour, the
// column order of the statistics tables.
func statColumns() string {
	cols := make([]string, 0, 3*types.HoursPerRun)
	for i := 1; i <= types.HoursPerRun; i++ {
		cols = append(cols,
			fmt.Sprintf("min_hour_p%02d", i),
			fmt.Sprintf("max_hour_p%02d", i),
			fmt.Sprintf("avg_hour_p%02d", i),
		)
	}
	return strings.Join(cols, ", ")
}

// placeholders renders "$start, $start+1, ..." for n parameters.
func placeholders(start, n int) string {
	ps := make([]string, 0, n)
	for i := 0; i < n; i++ {
		ps = append(ps, fmt.Sprintf("$%d", start+i))
	}
	return strings.Join(ps, ", ")
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, types.ErrStoreUnavailable, err)
}

func closeRows(rows *sql.Rows, what string) {
	if err := rows.Close(); err != nil {
		slog.Error("close "+what, "error", err)
	}
}
