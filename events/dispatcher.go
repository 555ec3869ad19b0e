package events

import (
	"context"
	"fmt"

	"forum-letter/eventbus"
	"forum-letter/models"
	"forum-letter/pipeline"
)

// EventDispatcher 에디션 이벤트 발행 서비스
type EventDispatcher struct {
	bus    eventbus.EventBus
	topic  eventbus.Topic
	source string
}

// NewEventDispatcher 새로운 이벤트 디스패처 생성. source 는 발행 주체 ("api", "worker" 등).
func NewEventDispatcher(bus eventbus.EventBus, topic eventbus.Topic, source string) *EventDispatcher {
	return &EventDispatcher{bus: bus, topic: topic, source: source}
}

// PublishEditionRequested 파이프라인 실행 요청 이벤트 발행. 이벤트 ID 를 반환한다.
func (d *EventDispatcher) PublishEditionRequested(ctx context.Context, requestID string, cadence models.Cadence, requestedBy string) (string, error) {
	e := EditionRequestedEvent{
		BaseEvent:   NewBaseEvent(EditionRequested, d.source),
		Cadence:     cadence,
		RequestedBy: requestedBy,
	}
	if requestID != "" {
		e.ID = requestID
	}
	if err := d.publish(ctx, e.ID, e); err != nil {
		return "", err
	}
	return e.ID, nil
}

// PublishEditionGenerated 에디션 저장 완료 이벤트 발행
func (d *EventDispatcher) PublishEditionGenerated(ctx context.Context, requestID string, report *pipeline.Report) error {
	if report == nil || report.Edition == nil {
		return fmt.Errorf("edition generated: empty report")
	}
	ed := report.Edition
	e := EditionGeneratedEvent{
		BaseEvent: NewBaseEvent(EditionGenerated, d.source),
		RequestID: requestID,
		EditionID: ed.ID.Hex(),
		Title:     ed.Title,
		Cadence:   ed.Cadence,
		ItemCount: ed.ItemCount,
		Annotated: report.Annotated,
	}
	if report.IngestRun != nil {
		e.NewItems = report.IngestRun.NewItems
	}
	return d.publish(ctx, "", e)
}

func (d *EventDispatcher) publish(ctx context.Context, id string, payload any) error {
	if _, err := eventbus.PublishJSON(ctx, d.bus, d.topic, id, payload); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}
