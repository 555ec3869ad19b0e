package eventbus

import (
	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"forum-letter/config"
)

// producerConfig 는 설정에서 Producer ConfigMap 을 만든다.
func producerConfig(cfg config.KafkaConfig) *kafka.ConfigMap {
	cm := &kafka.ConfigMap{
		"bootstrap.servers": cfg.BootstrapServers,
		"acks":              "all",
		"retries":           5, // Producer는 일시적인 오류 발생 시 최대 5회 재시도합니다.
	}
	if cfg.MessageMaxBytes > 0 {
		(*cm)["message.max.bytes"] = cfg.MessageMaxBytes
	}
	return cm
}

// consumerConfig 는 수동 커밋 컨슈머 ConfigMap 을 만든다.
func consumerConfig(cfg config.KafkaConfig, groupID string) *kafka.ConfigMap {
	cm := &kafka.ConfigMap{
		"bootstrap.servers":             cfg.BootstrapServers,
		"group.id":                      groupID,
		"auto.offset.reset":             "earliest",
		"enable.auto.commit":            false, // 재시도 로직을 위해 수동 커밋 사용
		"partition.assignment.strategy": "range",
	}
	if cfg.MaxPollIntervalMs > 0 {
		(*cm)["max.poll.interval.ms"] = cfg.MaxPollIntervalMs
	}
	return cm
}
