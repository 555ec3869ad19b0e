package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"forum-letter/cmd/internal/app"
	"forum-letter/cmd/worker/handler"
	"forum-letter/events"
	"forum-letter/logger"
)

func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		logger.Log.Errorf("failed to load config: %v", err)
		os.Exit(1)
	}
	if !cfg.Kafka.Enabled() {
		logger.Log.Error("KAFKA_BOOTSTRAP_SERVERS is required for the worker")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg)
	if err != nil {
		logger.Log.Errorf("failed to initialize: %v", err)
		os.Exit(1)
	}
	defer a.Close(context.Background())

	bus, topic, err := app.NewEventBus(ctx, cfg.Kafka)
	if err != nil {
		logger.Log.Errorf("failed to create event bus: %v", err)
		os.Exit(1)
	}
	defer bus.Close()

	dispatcher := events.NewEventDispatcher(bus, topic, "worker")
	eventHandler := handler.NewEventHandlers(a.Orchestrator, dispatcher, a.Store)

	logger.Log.Info("starting worker service with eventbus...")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := bus.Subscribe(ctx, cfg.Kafka.GroupID, topic, eventHandler.Handle); err != nil && !errors.Is(err, context.Canceled) {
			logger.Log.Errorf("eventbus subscribe error: %v", err)
		}
	}()

	<-sigChan
	logger.Log.Info("received shutdown signal, shutting down worker service...")

	cancel()
	wg.Wait()

	logger.Log.Info("worker service stopped")
}
