package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"forum-letter/logger"
	"forum-letter/models"
)

// ErrRunInProgress is returned by TryRun while another run holds the lock.
var ErrRunInProgress = errors.New("pipeline: run already in progress")

// Report summarizes one pipeline run.
type Report struct {
	IngestRun *models.IngestRun
	IngestErr error
	Annotated int
	Edition   *models.Edition
	Duration  time.Duration
}

// Orchestrator runs ingest, categorize and synthesize in sequence.
// Only one run executes at a time per Orchestrator.
type Orchestrator struct {
	ingester    Ingester
	categorizer *Categorizer
	synthesizer *Synthesizer

	mu sync.Mutex
}

// NewOrchestrator builds an orchestrator; ingester may be nil to skip ingest.
func NewOrchestrator(ingester Ingester, categorizer *Categorizer, synthesizer *Synthesizer) *Orchestrator {
	return &Orchestrator{ingester: ingester, categorizer: categorizer, synthesizer: synthesizer}
}

// Run blocks until any in-flight run finishes, then runs the pipeline.
func (o *Orchestrator) Run(ctx context.Context, cadence models.Cadence) (*Report, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.run(ctx, cadence)
}

// TryRun is Run without waiting.
func (o *Orchestrator) TryRun(ctx context.Context, cadence models.Cadence) (*Report, error) {
	if !o.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer o.mu.Unlock()
	return o.run(ctx, cadence)
}

func (o *Orchestrator) run(ctx context.Context, cadence models.Cadence) (*Report, error) {
	start := time.Now()
	report := &Report{}
	logger.InfoWithFields("pipeline run started", logger.Fields{"cadence": string(cadence)})

	if o.ingester != nil {
		run, err := o.ingester.Run(ctx)
		report.IngestRun = run
		if err != nil {
			report.IngestErr = err
			logger.ErrorWithFields("ingest failed, continuing with stored items", logger.Fields{"error": err.Error()})
		}
	}

	n, err := o.categorizer.CategorizePending(ctx)
	report.Annotated = n
	if err != nil {
		return report, fmt.Errorf("categorize: %w", err)
	}

	edition, err := o.synthesizer.Synthesize(ctx, cadence)
	if err != nil {
		return report, fmt.Errorf("synthesize: %w", err)
	}
	report.Edition = edition
	report.Duration = time.Since(start)

	fields := logger.Fields{
		"cadence":     string(cadence),
		"annotated":   n,
		"edition_id":  edition.ID.Hex(),
		"items":       edition.ItemCount,
		"duration_ms": report.Duration.Milliseconds(),
	}
	if report.IngestRun != nil {
		fields["ingested_new"] = report.IngestRun.NewItems
		fields["ingest_errors"] = len(report.IngestRun.Errors)
	}
	logger.InfoWithFields("pipeline run finished", fields)
	return report, nil
}
