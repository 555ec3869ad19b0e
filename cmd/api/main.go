package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"forum-letter/api/router"
	"forum-letter/cmd/internal/app"
	"forum-letter/events"
	"forum-letter/logger"
	"forum-letter/services"
)

// @title           Forum-Letter API
// @version         1.0
// @description     API for browsing synthesized forum newsletter editions
// @BasePath        /api/v1
func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		logger.Log.Errorf("failed to load config: %v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		logger.Log.Errorf("failed to initialize: %v", err)
		os.Exit(1)
	}
	defer a.Close(context.Background())

	// Kafka 가 설정되어 있으면 실행 요청은 worker 로 넘긴다.
	var requester services.RunRequester
	bus, topic, err := app.NewEventBus(ctx, cfg.Kafka)
	if err != nil {
		logger.Log.Errorf("failed to create event bus: %v", err)
		os.Exit(1)
	}
	if bus != nil {
		defer bus.Close()
		requester = events.NewEventDispatcher(bus, topic, "api")
	}

	r := router.New(router.Deps{
		Editions: services.NewEditionService(a.Store, a.Sections, cfg.Web.PerPage),
		Pipeline: services.NewPipelineService(a.Orchestrator, requester),
		Health:   a.Ping,
	})
	srv := &http.Server{
		Addr:              cfg.Web.Addr,
		Handler:           router.WithCORS(r, cfg.Web.AllowOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Infof("api listening on %s", cfg.Web.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Errorf("api server error: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Log.Info("received shutdown signal, shutting down api server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Errorf("api shutdown: %v", err)
	}
	logger.Log.Info("api server stopped")
}
