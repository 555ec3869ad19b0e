package services

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/google/uuid"

	"forum-letter/logger"
	"forum-letter/models"
	"forum-letter/pipeline"
)

// ErrInvalidCadence is returned for a cadence other than daily or weekly.
var ErrInvalidCadence = errors.New("invalid cadence")

// Runner executes one pipeline run; *pipeline.Orchestrator satisfies it.
type Runner interface {
	Run(ctx context.Context, cadence models.Cadence) (*pipeline.Report, error)
}

// RunRequester hands a run request to a worker, e.g. over Kafka.
type RunRequester interface {
	PublishEditionRequested(ctx context.Context, requestID string, cadence models.Cadence, requestedBy string) (string, error)
}

// TriggerResult describes an accepted run request.
type TriggerResult struct {
	RequestID string
	Cadence   models.Cadence
	Mode      string
}

// PipelineService starts background runs. With a requester the run is
// delegated to the worker; otherwise it runs in-process, one at a time.
type PipelineService struct {
	runner    Runner
	requester RunRequester
	busy      atomic.Bool
}

func NewPipelineService(runner Runner, requester RunRequester) *PipelineService {
	return &PipelineService{runner: runner, requester: requester}
}

// Trigger accepts a run request. In local mode it fails with
// pipeline.ErrRunInProgress while a previous run is still going.
func (s *PipelineService) Trigger(ctx context.Context, cadenceStr, requestID, requestedBy string) (*TriggerResult, error) {
	cadence, ok := models.ParseCadence(cadenceStr)
	if !ok {
		return nil, ErrInvalidCadence
	}
	if requestID == "" {
		requestID = uuid.NewString()
	}

	if s.requester != nil {
		id, err := s.requester.PublishEditionRequested(ctx, requestID, cadence, requestedBy)
		if err != nil {
			return nil, err
		}
		return &TriggerResult{RequestID: id, Cadence: cadence, Mode: "kafka"}, nil
	}

	if !s.busy.CompareAndSwap(false, true) {
		return nil, pipeline.ErrRunInProgress
	}
	go func() {
		defer s.busy.Store(false)
		// the run outlives the request context
		runCtx := context.WithoutCancel(ctx)
		report, err := s.runner.Run(runCtx, cadence)
		if err != nil {
			logger.ErrorWithFields("background pipeline run failed", logger.Fields{
				"request_id": requestID,
				"error":      err.Error(),
			})
			return
		}
		logger.InfoWithFields("background pipeline run finished", logger.Fields{
			"request_id": requestID,
			"edition_id": report.Edition.ID.Hex(),
		})
	}()
	return &TriggerResult{RequestID: requestID, Cadence: cadence, Mode: "local"}, nil
}

// Running reports whether an in-process run is active.
func (s *PipelineService) Running() bool {
	return s.busy.Load()
}
