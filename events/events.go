package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"forum-letter/models"
)

// EventType 이벤트 타입 정의
type EventType string

const (
	EditionRequested EventType = "edition.requested"
	EditionGenerated EventType = "edition.generated"
	EditionSent      EventType = "edition.sent"
)

const eventVersion = "1"

// BaseEvent 모든 이벤트의 기본 구조
type BaseEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"` // "api", "scheduler", "worker" 등
	Version   string    `json:"version"`
}

// GetType 이벤트 타입을 반환
func (e BaseEvent) GetType() EventType {
	return e.Type
}

func NewBaseEvent(t EventType, source string) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      t,
		Timestamp: time.Now().UTC(),
		Source:    source,
		Version:   eventVersion,
	}
}

// EditionRequestedEvent 파이프라인 실행 요청
type EditionRequestedEvent struct {
	BaseEvent
	Cadence     models.Cadence `json:"cadence"`
	RequestedBy string         `json:"requested_by"`
}

// EditionGeneratedEvent 에디션 저장 완료
type EditionGeneratedEvent struct {
	BaseEvent
	RequestID string         `json:"request_id"`
	EditionID string         `json:"edition_id"`
	Title     string         `json:"title"`
	Cadence   models.Cadence `json:"cadence"`
	ItemCount int            `json:"item_count"`
	Annotated int            `json:"annotated"`
	NewItems  int            `json:"new_items"`
}

// EditionSentEvent 발송 완료 (외부 발송기가 발행)
type EditionSentEvent struct {
	BaseEvent
	EditionID string `json:"edition_id"`
	SentTo    string `json:"sent_to"`
}

// PeekType 은 직렬화된 이벤트에서 type 필드만 읽는다.
func PeekType(data []byte) (EventType, error) {
	var peek struct {
		Type EventType `json:"type"`
	}
	if err := json.Unmarshal(data, &peek); err != nil {
		return "", fmt.Errorf("failed to read event type: %w", err)
	}
	return peek.Type, nil
}

// SerializeEvent 이벤트를 JSON으로 직렬화하고 타입 정보 반환
func SerializeEvent(event any) ([]byte, EventType, error) {
	var eventType EventType

	switch e := event.(type) {
	case EditionRequestedEvent:
		eventType = e.Type
	case EditionGeneratedEvent:
		eventType = e.Type
	case EditionSentEvent:
		eventType = e.Type
	default:
		return nil, "", fmt.Errorf("unknown event type: %T", event)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal event: %w", err)
	}
	return data, eventType, nil
}

// DeserializeEvent 이벤트 타입에 따라 적절한 구조체로 역직렬화
func DeserializeEvent(eventType EventType, data []byte) (any, error) {
	var event any

	switch eventType {
	case EditionRequested:
		event = &EditionRequestedEvent{}
	case EditionGenerated:
		event = &EditionGeneratedEvent{}
	case EditionSent:
		event = &EditionSentEvent{}
	default:
		return nil, fmt.Errorf("unknown event type: %s", eventType)
	}

	if err := json.Unmarshal(data, event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	return event, nil
}
