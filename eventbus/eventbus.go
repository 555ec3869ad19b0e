package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// RetryDelays는 재시도 횟수(1-based)별로 사용할 고정된 지연 시간 목록입니다.
// 에디션 생성은 LLM 호출이 길어 짧은 간격의 재시도는 의미가 없다.
var RetryDelays = []time.Duration{
	30 * time.Second, // 1차 재시도
	2 * time.Minute,  // 2차 재시도
	10 * time.Minute, // 3차 재시도
}

// Topic은 토픽의 기본 이름, 재시도 토픽, DLQ 토픽 이름을 관리합니다.
type Topic struct {
	base string
}

func NewTopic(base string) Topic {
	return Topic{base: base}
}

func (t Topic) Base() string {
	return t.base
}

// DLQ는 DLQ 토픽 이름을 반환합니다 (예: my_topic.dlq).
func (t Topic) DLQ() string {
	return t.base + ".dlq"
}

func (t Topic) retryTopic(delay time.Duration) string {
	// 토픽 이름 형식: base.retry.30s
	return fmt.Sprintf("%s.retry.%s", t.base, delay.String())
}

// GetRetryTopics는 모든 재시도 토픽의 이름을 반환합니다.
func (t Topic) GetRetryTopics() []string {
	topics := make([]string, len(RetryDelays))
	for i, delay := range RetryDelays {
		topics[i] = t.retryTopic(delay)
	}
	return topics
}

// GetRetryTopic은 다음 재시도 횟수(1-based)에 해당하는 재시도 토픽 이름을 반환합니다.
func (t Topic) GetRetryTopic(retryCount int) (string, error) {
	if retryCount <= 0 || retryCount > len(RetryDelays) {
		return "", ErrMaxRetryExceeded
	}
	return t.retryTopic(RetryDelays[retryCount-1]), nil
}

// Event는 Kafka 메시지의 페이로드로 사용되는 구조체입니다.
type Event struct {
	ID        string          `json:"id"`
	Payload   json.RawMessage `json:"payload"`
	Retry     int             `json:"retry"` // 현재 재시도 횟수 (0부터 시작)
	MaxRetry  int             `json:"max_retry"`
	LastError string          `json:"last_error,omitempty"`
}

// EventHandler는 이벤트 처리 함수의 시그니처입니다.
type EventHandler func(ctx context.Context, event Event) error

// EventBus 인터페이스는 이벤트 발행 및 구독의 추상화를 정의합니다.
type EventBus interface {
	Publish(ctx context.Context, topic string, event Event) error
	// Subscribe는 기본 토픽을 구독하여 메인 로직을 실행합니다.
	Subscribe(ctx context.Context, groupID string, topic Topic, handler EventHandler) error
	// StartRetryReinjector는 모든 재시도 토픽을 구독하고 기본 토픽으로 이벤트를 재발행합니다.
	StartRetryReinjector(ctx context.Context, groupID string, topic Topic) error
	Close()
}

// ErrMaxRetryExceeded는 최대 재시도 횟수를 초과했을 때 반환되는 오류입니다.
var ErrMaxRetryExceeded = errors.New("최대 재시도 횟수 초과")

// ErrNonRetryable 로 감싼 핸들러 오류는 재시도 없이 곧바로 DLQ 로 보낸다.
var ErrNonRetryable = errors.New("재시도 불가 오류")

// nextTopic 은 핸들러 실패 후 이벤트를 보낼 토픽을 결정한다.
// 재시도 횟수를 소진했거나 재시도 불가 오류면 DLQ 를 반환한다.
func nextTopic(topic Topic, evt Event, handlerErr error) (string, bool) {
	if errors.Is(handlerErr, ErrNonRetryable) {
		return topic.DLQ(), false
	}
	next := evt.Retry + 1
	if next > evt.MaxRetry {
		return topic.DLQ(), false
	}
	name, err := topic.GetRetryTopic(next)
	if err != nil {
		return topic.DLQ(), false
	}
	return name, true
}
