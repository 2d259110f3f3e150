// Package notify fans completed cycle results and monitoring alerts out
// to external consumers: a Kafka topic for downstream pipelines and a
// Redis queue for alert delivery.
package notify

import (
	"context"

	"TradePulse/internal/domain/models"
	"TradePulse/pkg/kafka"
	applogger "TradePulse/pkg/logger"
)

// KafkaPublisher writes cycle results to a Kafka topic, keyed by cycle
// id so one cycle's records land on one partition.
type KafkaPublisher struct {
	producer *kafka.Producer
	topic    string
	l        *applogger.Logger
}

func NewKafkaPublisher(producer *kafka.Producer, topic string, l *applogger.Logger) *KafkaPublisher {
	if topic == "" {
		topic = "tradepulse.cycles"
	}
	return &KafkaPublisher{producer: producer, topic: topic, l: l}
}

func (p *KafkaPublisher) PublishCycle(ctx context.Context, result *models.CycleResult) error {
	if err := p.producer.Publish(ctx, p.topic, []byte(result.CycleID), result); err != nil {
		return err
	}
	p.l.Debug("cycle published",
		applogger.String("topic", p.topic),
		applogger.String("cycle_id", result.CycleID),
	)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
