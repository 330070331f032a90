package repository

import (
	"context"

	"NewsAlpha/internal/domain/models"
	domrepo "NewsAlpha/internal/domain/repository"
	"NewsAlpha/pkg/kafka"
)

// kafkaSignalPublisher emits labeled-signal events keyed by symbol so one
// symbol's outcomes stay ordered within a partition.
type kafkaSignalPublisher struct {
	producer *kafka.Producer
	topic    string
}

func NewKafkaSignalPublisher(producer *kafka.Producer, topic string) domrepo.SignalPublisher {
	return &kafkaSignalPublisher{producer: producer, topic: topic}
}

func (p *kafkaSignalPublisher) PublishLabeled(ctx context.Context, s *models.TradingSignal) error {
	return p.producer.Publish(ctx, p.topic, []byte(s.Symbol), s)
}

func (p *kafkaSignalPublisher) Close() error {
	return p.producer.Close()
}
