package controller

import (
	"log/slog"
	"net/http"

	"github.com/PA-Segura/new-forecast-page-prod/internal/modules/forecast/service"
	"github.com/PA-Segura/new-forecast-page-prod/internal/utils"
)

func (c *forecastControllerImpl) handleCurrent(w http.ResponseWriter, r *http.Request) {
	q, err := parseCurrentQuery(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := c.service.CurrentDailyForecast(r.Context(), q)
	if err != nil {
		slog.Error("current forecast failed", "pollutant", q.Pollutant.Key, "station", q.StationID, "error", err)
		writeServiceError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, summary)
}

func (c *forecastControllerImpl) handleDaily(w http.ResponseWriter, r *http.Request) {
	q, err := parseCurrentQuery(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	day, err := parseDay(r.PathValue("day"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := c.service.DailyRunSummary(r.Context(), service.DailyQuery{CurrentQuery: q, Day: day})
	if err != nil {
		slog.Error("daily summary failed", "pollutant", q.Pollutant.Key, "day", r.PathValue("day"), "error", err)
		writeServiceError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, summary)
}

func (c *forecastControllerImpl) handleHistory(w http.ResponseWriter, r *http.Request) {
	q, err := parseCurrentQuery(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	from, err := parseDay(r.URL.Query().Get("from"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := parseDay(r.URL.Query().Get("to"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	series, err := c.service.HistoricalDailySeries(r.Context(), service.HistoryQuery{CurrentQuery: q, From: from, To: to})
	if err != nil {
		slog.Error("history series failed", "pollutant", q.Pollutant.Key, "error", err)
		writeServiceError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, series)
}

func (c *forecastControllerImpl) handleStations(w http.ResponseWriter, r *http.Request) {
	stations, err := c.service.Stations(r.Context())
	if err != nil {
		slog.Error("list stations failed", "error", err)
		writeServiceError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, stations)
}
