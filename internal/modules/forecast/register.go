// Package forecast wires the forecast feature: store repository,
// aggregation service, HTTP controller and MQTT ingest handler.
package forecast

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/PA-Segura/new-forecast-page-prod/internal/modules/forecast/controller"
	"github.com/PA-Segura/new-forecast-page-prod/internal/modules/forecast/repository"
	"github.com/PA-Segura/new-forecast-page-prod/internal/modules/forecast/service"
	"github.com/PA-Segura/new-forecast-page-prod/internal/mqtt"
)

// RegisterFeature assembles the forecast module on the shared mux and
// subscriber. The returned service is also used by the staleness watchdog.
func RegisterFeature(mux *http.ServeMux, db *sql.DB, subscriber mqtt.MQTTSubscriber, logger *slog.Logger) *service.Service {
	forecastRepository := repository.NewRepository(db)
	forecastService := service.NewService(forecastRepository, logger)
	forecastService.Register(subscriber)

	forecastController := controller.NewForecastController(forecastService)
	forecastController.RegisterRoutes(mux)
	return forecastService
}
