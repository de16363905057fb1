// Package scheduler runs the staleness watchdog: the model pipeline
// publishes two runs a day, so a latest ozone run older than the
// configured age means the pipeline is stuck.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/PA-Segura/new-forecast-page-prod/internal/modules/forecast/types"
)

// RunProbe reports the newest generation timestamp of the reference series.
type RunProbe interface {
	LatestOzoneRun(ctx context.Context) (time.Time, error)
}

type Watchdog struct {
	scheduler *gocron.Scheduler
	probe     RunProbe
	logger    *slog.Logger
	interval  time.Duration
	maxAge    time.Duration
	now       func() time.Time
}

func NewWatchdog(probe RunProbe, interval, maxAge time.Duration, logger *slog.Logger) *Watchdog {
	return &Watchdog{
		scheduler: gocron.NewScheduler(time.UTC),
		probe:     probe,
		logger:    logger,
		interval:  interval,
		maxAge:    maxAge,
		now:       time.Now,
	}
}

// Start schedules the periodic check and starts the underlying scheduler.
func (w *Watchdog) Start() error {
	seconds := int(w.interval.Seconds())
	if seconds <= 0 {
		seconds = int(time.Hour.Seconds())
	}

	_, err := w.scheduler.Every(seconds).Seconds().Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		w.check(ctx)
	})
	if err != nil {
		return err
	}

	w.scheduler.StartAsync()
	return nil
}

func (w *Watchdog) check(ctx context.Context) {
	latest, err := w.probe.LatestOzoneRun(ctx)
	if err != nil {
		if errors.Is(err, types.ErrNoData) {
			w.logger.Warn("watchdog: no generation runs stored yet")
			return
		}
		w.logger.Error("watchdog: probe failed", "error", err)
		return
	}

	age := w.now().Sub(latest)
	if age > w.maxAge {
		w.logger.Warn("watchdog: latest generation run is stale",
			"generated_at", latest,
			"age", age.Truncate(time.Minute).String(),
			"max_age", w.maxAge.String(),
		)
		return
	}
	w.logger.Debug("watchdog: generation runs fresh", "generated_at", latest, "age", age.Truncate(time.Minute).String())
}

// Stop stops the scheduler and cancels any future jobs.
func (w *Watchdog) Stop() {
	if w.scheduler != nil {
		w.scheduler.Stop()
	}
}
