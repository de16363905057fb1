package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/PA-Segura/new-forecast-page-prod/internal/modules/forecast/repository"
	"github.com/PA-Segura/new-forecast-page-prod/internal/modules/forecast/types"
	"github.com/PA-Segura/new-forecast-page-prod/internal/mqtt"
)

// registerMQTTHandler sets up the forecast module's MQTT message handler.
// Each message carries one generation run record; it is resolved against
// the catalogs and upserted into the run's table.
func registerMQTTHandler(subscriber mqtt.MQTTSubscriber, repo repository.ForecastRepository, logger *slog.Logger) {
	subscriber.SetMessageHandler(func(msg types.GenerationMessage) error {
		logger.Debug("processing generation message",
			"pollutant", msg.Pollutant,
			"variant", msg.Variant,
			"generated_at", msg.GeneratedAt,
			"station_id", msg.StationID,
		)

		pollutant, variant, row, err := rowFromMessage(msg)
		if err != nil {
			logger.Warn("rejected generation message",
				"pollutant", msg.Pollutant,
				"station_id", msg.StationID,
				"error", err,
			)
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := repo.InsertRun(ctx, pollutant, row); err != nil {
			logger.Error("failed to store generation run",
				"pollutant", pollutant.Key,
				"station_id", row.StationID,
				"error", err,
			)
			return err
		}

		logger.Debug("stored generation run",
			"pollutant", pollutant.Key,
			"variant", variant.Key,
			"generated_at", row.GeneratedAt,
		)
		return nil
	})
}

// rowFromMessage resolves catalogs and converts the wire payload into a
// store row. The hour vectors must carry exactly one slot per forecast
// offset; a per-station pollutant needs a raw vector and a known station,
// a statistics pollutant needs all three statistics vectors.
func rowFromMessage(msg types.GenerationMessage) (types.Pollutant, types.ModelVariant, types.ForecastRow, error) {
	var row types.ForecastRow

	pollutant, ok := types.PollutantByKey(msg.Pollutant)
	if !ok {
		return pollutant, types.ModelVariant{}, row, fmt.Errorf("unknown pollutant %q: %w", msg.Pollutant, types.ErrValidation)
	}
	variantKey := msg.Variant
	if variantKey == "" {
		variantKey = types.DefaultVariantKey
	}
	variant, ok := types.VariantByKey(variantKey)
	if !ok {
		return pollutant, variant, row, fmt.Errorf("unknown variant %q: %w", msg.Variant, types.ErrValidation)
	}
	if msg.GeneratedAt.IsZero() {
		return pollutant, variant, row, fmt.Errorf("generated_at is required: %w", types.ErrValidation)
	}

	row.GeneratedAt = msg.GeneratedAt
	row.ForecastTypeID = variant.ForecastTypeID

	if pollutant.PerStation {
		if msg.StationID == "" {
			return pollutant, variant, row, fmt.Errorf("station_id is required for %s: %w", pollutant.Key, types.ErrValidation)
		}
		if _, known := types.StationByID(msg.StationID); !known && msg.StationID != CityAggregateLabel {
			return pollutant, variant, row, fmt.Errorf("unknown station %q: %w", msg.StationID, types.ErrValidation)
		}
		row.StationID = msg.StationID
		if err := fillHours(&row.Hours, msg.Hours, "hours"); err != nil {
			return pollutant, variant, row, err
		}
		return pollutant, variant, row, nil
	}

	row.StationID = msg.StationID
	if err := fillHours(&row.MinHours, msg.MinHours, "min_hours"); err != nil {
		return pollutant, variant, row, err
	}
	if err := fillHours(&row.MaxHours, msg.MaxHours, "max_hours"); err != nil {
		return pollutant, variant, row, err
	}
	if err := fillHours(&row.AvgHours, msg.AvgHours, "avg_hours"); err != nil {
		return pollutant, variant, row, err
	}
	return pollutant, variant, row, nil
}

func fillHours(dst *[types.HoursPerRun]*float64, src []*float64, field string) error {
	if len(src) != types.HoursPerRun {
		return fmt.Errorf("%s must carry %d slots, got %d: %w", field, types.HoursPerRun, len(src), types.ErrValidation)
	}
	copy(dst[:], src)
	return nil
}
