package controller

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/PA-Segura/new-forecast-page-prod/internal/modules/forecast/aggregate"
	"github.com/PA-Segura/new-forecast-page-prod/internal/modules/forecast/service"
	"github.com/PA-Segura/new-forecast-page-prod/internal/modules/forecast/types"
	"github.com/PA-Segura/new-forecast-page-prod/internal/utils"
)

var validate = validator.New()

// queryParams mirrors the shared query string surface of the forecast
// endpoints.
type queryParams struct {
	Station string `validate:"omitempty,alphanum,min=3,max=4"`
	Variant string `validate:"omitempty,oneof=ai_vi_transformer01 statistical_legacy"`
	Source  string `validate:"omitempty,oneof=raw min max avg"`
}

// parseCurrentQuery resolves the pollutant path segment and the shared
// query parameters into a service query.
func parseCurrentQuery(r *http.Request) (service.CurrentQuery, error) {
	var q service.CurrentQuery

	pollutant, ok := types.PollutantByKey(r.PathValue("pollutant"))
	if !ok {
		return q, fmt.Errorf("unknown pollutant %q", r.PathValue("pollutant"))
	}

	params := queryParams{
		Station: r.URL.Query().Get("station"),
		Variant: r.URL.Query().Get("variant"),
		Source:  r.URL.Query().Get("source"),
	}
	if err := validate.Struct(params); err != nil {
		return q, fmt.Errorf("invalid query parameters: %w", err)
	}

	variantKey := params.Variant
	if variantKey == "" {
		variantKey = types.DefaultVariantKey
	}
	variant, ok := types.VariantByKey(variantKey)
	if !ok {
		return q, fmt.Errorf("unknown variant %q", params.Variant)
	}

	if params.Station != "" && !pollutant.PerStation {
		return q, fmt.Errorf("%s has no per-station series", pollutant.Key)
	}

	q.Pollutant = pollutant
	q.Variant = variant
	q.StationID = params.Station
	q.Source = types.SeriesSource(params.Source)
	return q, nil
}

func parseDay(value string) (time.Time, error) {
	day, err := time.Parse(aggregate.DayFormat, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day %q (expected %s)", value, aggregate.DayFormat)
	}
	return day, nil
}

// writeServiceError maps the service sentinel errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, types.ErrNoData):
		utils.WriteError(w, http.StatusNotFound, "no forecast data available")
	case errors.Is(err, types.ErrValidation):
		utils.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, types.ErrStoreUnavailable):
		utils.WriteError(w, http.StatusServiceUnavailable, "forecast store unavailable")
	default:
		utils.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
