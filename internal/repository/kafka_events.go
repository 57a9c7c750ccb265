package repository

import (
	"context"

	"Boardroom/internal/domain/models"
	pkgkafka "Boardroom/pkg/kafka"
)

const (
	tradesTopic    = "boardroom.trades"
	decisionsTopic = "boardroom.decisions"
)

// KafkaEvents tees trades and decisions onto Kafka topics for downstream
// consumers. The ClickHouse audit log stays the system of record.
type KafkaEvents struct {
	producer *pkgkafka.Producer
}

func NewKafkaEvents(producer *pkgkafka.Producer) *KafkaEvents {
	return &KafkaEvents{producer: producer}
}

func (k *KafkaEvents) PublishTrade(ctx context.Context, t models.TradeRecord) error {
	return k.producer.Publish(ctx, tradesTopic, []byte(t.Symbol), t)
}

func (k *KafkaEvents) PublishDecision(ctx context.Context, d models.GateDecision) error {
	return k.producer.Publish(ctx, decisionsTopic, []byte(d.Symbol), d)
}

func (k *KafkaEvents) Close() error {
	return k.producer.Close()
}

// NopEvents is wired when Kafka is disabled.
type NopEvents struct{}

func (NopEvents) PublishTrade(ctx context.Context, t models.TradeRecord) error     { return nil }
func (NopEvents) PublishDecision(ctx context.Context, d models.GateDecision) error { return nil }
func (NopEvents) Close() error                                                     { return nil }
