package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/PA-Segura/new-forecast-page-prod/internal/config"
	"github.com/PA-Segura/new-forecast-page-prod/internal/db"
	"github.com/PA-Segura/new-forecast-page-prod/internal/httpapi"
	forecast "github.com/PA-Segura/new-forecast-page-prod/internal/modules/forecast"
	"github.com/PA-Segura/new-forecast-page-prod/internal/mqtt"
	"github.com/PA-Segura/new-forecast-page-prod/internal/scheduler"
)

func Run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	slog.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"dbDriver", cfg.Driver,
		"mqttBroker", cfg.MQTTBroker,
		"mqttPort", cfg.MQTTPort,
		"mqttTopic", cfg.MQTTTopic,
		"watchdogInterval", cfg.WatchdogInterval.String(),
		"watchdogMaxAge", cfg.WatchdogMaxAge.String(),
	)

	dbConn, err := db.Open(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(dbConn); closeErr != nil {
			slog.Error("db close", "error", closeErr)
		}
	}()

	if err := db.Migrate(dbConn, cfg); err != nil {
		return err
	}
	slog.Info("database ready", "driver", cfg.Driver)

	// Set the MQTT handler before Connect so OnConnectHandler can subscribe
	// immediately. The broker may send queued messages right after CONNACK;
	// we must be subscribed before that to receive them.
	mqttSubscriber, err := mqtt.NewSubscriber(cfg, logger)
	if err != nil {
		return err
	}
	mux := httpapi.NewMux(dbConn)
	forecastService := forecast.RegisterFeature(mux, dbConn, mqttSubscriber, logger)

	// Use a short timeout for initial MQTT connect so we don't block startup
	// when the broker is down (e.g. E2E).
	connectCtx, connectCancel := context.WithTimeout(ctx, 5*time.Second)
	err = mqttSubscriber.Connect(connectCtx)
	connectCancel()
	if err != nil {
		slog.Warn("mqtt connection failed (continuing without mqtt)", "error", err)
		// Reads and /healthz still work when ingest is unavailable.
	}

	watchdog := scheduler.NewWatchdog(forecastService, cfg.WatchdogInterval, cfg.WatchdogMaxAge, logger)
	if err := watchdog.Start(); err != nil {
		return err
	}
	defer watchdog.Stop()

	srv := httpapi.NewServer(cfg, mux)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	slog.Info("mqtt disconnecting")
	mqttSubscriber.Disconnect()

	slog.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	err = <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}
