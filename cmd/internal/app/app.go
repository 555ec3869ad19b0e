// Package app wires config, storage, connectors and pipeline stages for the binaries.
package app

import (
	"context"
	"fmt"
	"os"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"forum-letter/config"
	"forum-letter/db"
	"forum-letter/eventbus"
	"forum-letter/ingest"
	"forum-letter/llm"
	"forum-letter/logger"
	"forum-letter/pipeline"
	"forum-letter/repositories"
)

// App holds every long-lived component of one process.
type App struct {
	Config   *config.AppConfig
	Mongo    *mongo.Client
	Store    *repositories.Store
	Sections []pipeline.Section

	Ingester     *ingest.Ingester
	Categorizer  *pipeline.Categorizer
	Selector     *pipeline.Selector
	Synthesizer  *pipeline.Synthesizer
	Orchestrator *pipeline.Orchestrator
}

// LoadConfig reads config from CONFIG_DIR, or the nearest directory holding config.yaml.
func LoadConfig() (*config.AppConfig, error) {
	cfg, err := config.Load(os.Getenv("CONFIG_DIR"))
	if err != nil {
		return nil, err
	}
	logger.Init(cfg.Logging.Level)
	return cfg, nil
}

// New connects to MongoDB and builds the pipeline. Call Close when done.
func New(ctx context.Context, cfg *config.AppConfig) (*App, error) {
	client, database, err := db.Connect(ctx, cfg.Mongo)
	if err != nil {
		return nil, err
	}
	store := repositories.NewStore(database)

	a := &App{
		Config:   cfg,
		Mongo:    client,
		Store:    store,
		Sections: pipeline.SectionsFromConfig(cfg.Sections),
	}
	if err := a.buildPipeline(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return a, nil
}

func (a *App) buildPipeline(ctx context.Context) error {
	cfg := a.Config

	gen, err := llm.NewGenerator(ctx, cfg.LLM)
	if err != nil {
		return fmt.Errorf("llm generator: %w", err)
	}
	client := llm.NewClient(gen, llm.NewQuotaLimiter(cfg.LLM.Quota), a.Store)

	sources, err := ingest.BuildSources(ctx, cfg)
	if err != nil {
		return fmt.Errorf("ingest sources: %w", err)
	}
	enricher := ingest.NewEnricher(cfg.Enrichment, cfg.PostLimits.BodyMaxChars)
	a.Ingester = ingest.NewIngester(sources, a.Store, enricher, a.Store)

	a.Categorizer = pipeline.NewCategorizer(a.Store, llm.NewScoringClient(client), pipeline.CategorizerOptions{
		BatchSize: cfg.Pipeline.BatchSize,
		Model:     cfg.LLM.CategorizationModel,
		MaxTokens: cfg.LLM.CategorizationMaxTokens,
	})
	a.Selector = pipeline.NewSelector(a.Store, a.Sections, cfg.Selection.ExcludePublished)
	a.Synthesizer = pipeline.NewSynthesizer(a.Selector, llm.NewDraftingClient(client), a.Store, pipeline.SynthesizerOptions{
		Model:             cfg.LLM.SynthesisModel,
		MaxTokens:         cfg.LLM.SynthesisMaxTokens,
		FallbackTitle:     cfg.Newsletter.FallbackTitle,
		EmptyTitle:        cfg.Newsletter.EmptyTitle,
		BodyTruncateChars: cfg.Newsletter.BodyTruncateChars,
		MarkPublished:     cfg.Selection.ExcludePublished,
	})
	a.Orchestrator = pipeline.NewOrchestrator(a.Ingester, a.Categorizer, a.Synthesizer)

	logger.InfoWithFields("pipeline ready", logger.Fields{
		"provider": gen.Provider(),
		"sources":  len(sources),
		"sections": len(a.Sections),
		"enrich":   enricher != nil,
	})
	return nil
}

// Ping checks the MongoDB primary.
func (a *App) Ping(ctx context.Context) error {
	return a.Mongo.Ping(ctx, readpref.Primary())
}

func (a *App) Close(ctx context.Context) {
	if err := a.Mongo.Disconnect(ctx); err != nil {
		logger.Log.Warnf("mongo disconnect: %v", err)
	}
}

// NewEventBus creates the Kafka bus and ensures its topics exist.
// It returns nil when Kafka is not configured.
func NewEventBus(ctx context.Context, cfg config.KafkaConfig) (*eventbus.KafkaEventBus, eventbus.Topic, error) {
	topic := eventbus.TopicFromConfig(cfg)
	if !cfg.Enabled() {
		return nil, topic, nil
	}
	if err := eventbus.EnsureTopics(ctx, cfg, topic); err != nil {
		logger.Log.Errorf("failed to ensure eventbus topics for %s: %v", topic.Base(), err)
	}
	bus, err := eventbus.NewKafkaEventBus(cfg)
	if err != nil {
		return nil, topic, err
	}
	return bus, topic, nil
}
