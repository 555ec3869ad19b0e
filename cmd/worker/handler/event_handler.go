package handler

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"forum-letter/eventbus"
	"forum-letter/events"
	"forum-letter/logger"
	"forum-letter/models"
	"forum-letter/pipeline"
	"forum-letter/repositories"
)

type EditionRunner interface {
	Run(ctx context.Context, cadence models.Cadence) (*pipeline.Report, error)
}

type GeneratedPublisher interface {
	PublishEditionGenerated(ctx context.Context, requestID string, report *pipeline.Report) error
}

type SentMarker interface {
	MarkEditionSent(ctx context.Context, id primitive.ObjectID) error
}

type EventHandlers struct {
	runner    EditionRunner
	publisher GeneratedPublisher
	marker    SentMarker
}

func NewEventHandlers(runner EditionRunner, publisher GeneratedPublisher, marker SentMarker) *EventHandlers {
	return &EventHandlers{runner: runner, publisher: publisher, marker: marker}
}

// Handle 는 payload 의 type 을 먼저 읽고 알맞은 핸들러로 보낸다.
// 알 수 없는 타입이나 다른 서비스용 이벤트는 무시 (커밋).
func (h *EventHandlers) Handle(ctx context.Context, ev eventbus.Event) error {
	typ, err := events.PeekType(ev.Payload)
	if err != nil {
		return fmt.Errorf("%w: %w", eventbus.ErrNonRetryable, err)
	}
	switch typ {
	case events.EditionRequested:
		v, err := eventbus.DecodeJSON[events.EditionRequestedEvent](ev)
		if err != nil {
			return fmt.Errorf("%w: %w", eventbus.ErrNonRetryable, err)
		}
		return h.HandleEditionRequested(ctx, &v)
	case events.EditionSent:
		v, err := eventbus.DecodeJSON[events.EditionSentEvent](ev)
		if err != nil {
			return fmt.Errorf("%w: %w", eventbus.ErrNonRetryable, err)
		}
		return h.HandleEditionSent(ctx, &v)
	default:
		return nil
	}
}

// HandleEditionRequested 는 파이프라인을 한 번 실행하고 결과 이벤트를 발행한다.
func (h *EventHandlers) HandleEditionRequested(ctx context.Context, e *events.EditionRequestedEvent) error {
	cadence, ok := models.ParseCadence(string(e.Cadence))
	if !ok {
		return fmt.Errorf("%w: unknown cadence %q", eventbus.ErrNonRetryable, e.Cadence)
	}

	logger.InfoWithFields("handling edition request", logger.Fields{
		"request_id":   e.ID,
		"cadence":      string(cadence),
		"requested_by": e.RequestedBy,
	})
	report, err := h.runner.Run(ctx, cadence)
	if err != nil {
		// 종료로 중단된 실행만 재처리 대상. 실패한 실행은 재시도 없이 DLQ 로 보낸다.
		if ctx.Err() != nil {
			return fmt.Errorf("pipeline run for %s interrupted: %w", e.ID, err)
		}
		return fmt.Errorf("%w: pipeline run for %s: %w", eventbus.ErrNonRetryable, e.ID, err)
	}

	// 발행 실패로 재시도하면 에디션이 중복 생성되므로 로그만 남긴다.
	if h.publisher != nil {
		if err := h.publisher.PublishEditionGenerated(ctx, e.ID, report); err != nil {
			logger.Log.Errorf("failed to publish edition.generated for %s: %v", e.ID, err)
		}
	}
	return nil
}

// HandleEditionSent 는 외부 발송기가 보낸 완료 이벤트로 sent 플래그를 세운다.
func (h *EventHandlers) HandleEditionSent(ctx context.Context, e *events.EditionSentEvent) error {
	id, err := primitive.ObjectIDFromHex(e.EditionID)
	if err != nil {
		return fmt.Errorf("%w: invalid edition id %q", eventbus.ErrNonRetryable, e.EditionID)
	}
	if err := h.marker.MarkEditionSent(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: edition %s not found", eventbus.ErrNonRetryable, e.EditionID)
		}
		return err
	}
	logger.Log.Infof("edition %s marked sent to %s", e.EditionID, e.SentTo)
	return nil
}
