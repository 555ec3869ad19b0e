package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"forum-letter/cmd/internal/app"
	"forum-letter/logger"
)

// retryworker 는 재시도 토픽의 이벤트를 지연 시간이 지난 뒤 기본 토픽으로 되돌린다.
func main() {
	// 설정을 읽기 전의 로그도 LOG_LEVEL 을 따른다.
	logger.InitFromEnv("LOG_LEVEL")

	cfg, err := app.LoadConfig()
	if err != nil {
		logger.Log.Errorf("failed to load config: %v", err)
		os.Exit(1)
	}
	if !cfg.Kafka.Enabled() {
		logger.Log.Error("KAFKA_BOOTSTRAP_SERVERS is required for the retry worker")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus, topic, err := app.NewEventBus(ctx, cfg.Kafka)
	if err != nil {
		logger.Log.Errorf("failed to create event bus: %v", err)
		os.Exit(1)
	}
	defer bus.Close()

	groupID := cfg.Kafka.GroupID + "-retry-worker-" + strings.ReplaceAll(topic.Base(), ".", "-")

	logger.Log.Info("starting retry worker service with eventbus...")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := bus.StartRetryReinjector(ctx, groupID, topic); err != nil && !errors.Is(err, context.Canceled) {
			logger.Log.Errorf("eventbus retry reinjector error for %s: %v", topic.Base(), err)
		}
	}()

	<-sigChan
	logger.Log.Info("received shutdown signal, shutting down retry worker service...")
	cancel()
	logger.Log.Info("retry worker service stopped")
}
