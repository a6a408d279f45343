package repository

import (
	"context"

	"PairLab/internal/domain/models"
	domrepo "PairLab/internal/domain/repository"
	pkgkafka "PairLab/pkg/kafka"
)

// KafkaRefreshPublisher announces cache refreshes, keyed by symbol.
type KafkaRefreshPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaRefreshPublisher(p *pkgkafka.Producer, topic string) *KafkaRefreshPublisher {
	return &KafkaRefreshPublisher{producer: p, topic: topic}
}

func (p *KafkaRefreshPublisher) PublishRefresh(ctx context.Context, ev models.SeriesRefreshed) error {
	return p.producer.Publish(ctx, p.topic, []byte(ev.Symbol), ev)
}

func (p *KafkaRefreshPublisher) Close() error { return p.producer.Close() }

// NoopRefreshPublisher is used when events are disabled.
type NoopRefreshPublisher struct{}

func (NoopRefreshPublisher) PublishRefresh(context.Context, models.SeriesRefreshed) error { return nil }
func (NoopRefreshPublisher) Close() error                                                 { return nil }

var (
	_ domrepo.RefreshPublisher = (*KafkaRefreshPublisher)(nil)
	_ domrepo.RefreshPublisher = NoopRefreshPublisher{}
)
