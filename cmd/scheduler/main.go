package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"forum-letter/cmd/internal/app"
	"forum-letter/events"
	"forum-letter/logger"
	"forum-letter/models"
	"forum-letter/pipeline"
)

// trigger starts one edition, either locally or through the event bus.
type trigger func(ctx context.Context, cadence models.Cadence) error

func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		logger.Log.Errorf("failed to load config: %v", err)
		os.Exit(1)
	}
	loc, err := time.LoadLocation(cfg.Schedule.Timezone)
	if err != nil {
		logger.Log.Errorf("invalid schedule.timezone %q: %v", cfg.Schedule.Timezone, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var fire trigger
	if cfg.Kafka.Enabled() {
		bus, topic, err := app.NewEventBus(ctx, cfg.Kafka)
		if err != nil {
			logger.Log.Errorf("failed to create event bus: %v", err)
			os.Exit(1)
		}
		defer bus.Close()
		dispatcher := events.NewEventDispatcher(bus, topic, "scheduler")
		fire = func(ctx context.Context, cadence models.Cadence) error {
			id, err := dispatcher.PublishEditionRequested(ctx, "", cadence, "scheduler")
			if err == nil {
				logger.Log.Infof("edition requested (id=%s, cadence=%s)", id, cadence)
			}
			return err
		}
	} else {
		a, err := app.New(ctx, cfg)
		if err != nil {
			logger.Log.Errorf("failed to initialize: %v", err)
			os.Exit(1)
		}
		defer a.Close(context.Background())
		fire = func(ctx context.Context, cadence models.Cadence) error {
			report, err := a.Orchestrator.TryRun(ctx, cadence)
			if err != nil {
				return err
			}
			logger.Log.Infof("edition %s created in %s", report.Edition.ID.Hex(), report.Duration)
			return nil
		}
	}

	logger.Log.Infof("scheduler started (%s %s, %s)", cfg.Schedule.Time, cfg.Schedule.Timezone, cfg.Schedule.Cadence)
	if err := loop(ctx, cfg.Schedule.Time, loc, cfg.Schedule.Cadence, fire); err != nil && !errors.Is(err, context.Canceled) {
		logger.Log.Errorf("scheduler stopped: %v", err)
		os.Exit(1)
	}
	logger.Log.Info("scheduler stopped")
}

// loop fires once immediately, then at every scheduled slot until ctx ends.
func loop(ctx context.Context, hhmm string, loc *time.Location, cadence models.Cadence, fire trigger) error {
	runOnce(ctx, cadence, fire)
	for {
		next, err := nextRun(time.Now(), hhmm, loc, cadence)
		if err != nil {
			return err
		}
		logger.Log.Infof("next run at %s", next.Format(time.RFC3339))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
			runOnce(ctx, cadence, fire)
		}
	}
}

func runOnce(ctx context.Context, cadence models.Cadence, fire trigger) {
	err := fire(ctx, cadence)
	switch {
	case err == nil:
	case errors.Is(err, pipeline.ErrRunInProgress):
		logger.Log.Warn("previous run still in progress, skipping this slot")
	default:
		logger.Log.Errorf("scheduled run failed: %v", err)
	}
}
