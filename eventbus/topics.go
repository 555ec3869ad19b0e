package eventbus

import "forum-letter/config"

// 기본 토픽 이름. 설정의 kafka.topic 으로 교체할 수 있다.
var TopicEditionEvents = NewTopic("forum-letter.edition.events")

// TopicFromConfig 는 설정된 토픽 이름으로 Topic 을 만든다.
func TopicFromConfig(cfg config.KafkaConfig) Topic {
	if cfg.Topic == "" {
		return TopicEditionEvents
	}
	return NewTopic(cfg.Topic)
}
