package controller

import (
	"context"
	"net/http"

	"github.com/PA-Segura/new-forecast-page-prod/internal/modules/forecast/service"
	"github.com/PA-Segura/new-forecast-page-prod/internal/modules/forecast/types"
)

// ForecastService is the slice of the service layer the HTTP handlers use.
type ForecastService interface {
	CurrentDailyForecast(ctx context.Context, q service.CurrentQuery) (service.ForecastSummary, error)
	DailyRunSummary(ctx context.Context, q service.DailyQuery) (service.ForecastSummary, error)
	HistoricalDailySeries(ctx context.Context, q service.HistoryQuery) ([]types.GenerationDayValue, error)
	Stations(ctx context.Context) ([]types.Station, error)
}

type ForecastController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type forecastControllerImpl struct {
	service ForecastService
}

func NewForecastController(service ForecastService) ForecastController {
	return &forecastControllerImpl{service: service}
}

func (c *forecastControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/forecast/current/{pollutant}", c.handleCurrent)
	mux.HandleFunc("GET /api/v1/forecast/daily/{pollutant}/{day}", c.handleDaily)
	mux.HandleFunc("GET /api/v1/forecast/history/{pollutant}", c.handleHistory)
	mux.HandleFunc("GET /api/v1/stations", c.handleStations)
}
