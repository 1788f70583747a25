package repository

import (
	"context"
	"strconv"

	"CommodSim/internal/domain/models"
	domrepo "CommodSim/internal/domain/repository"
	pkgkafka "CommodSim/pkg/kafka"
)

// KafkaSnapshotPublisher implements SnapshotPublisher for Kafka.
type KafkaSnapshotPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaSnapshotPublisher creates a Kafka snapshot publisher.
func NewKafkaSnapshotPublisher(producer *pkgkafka.Producer, topic string) domrepo.SnapshotPublisher {
	return &KafkaSnapshotPublisher{producer: producer, topic: topic}
}

// snapshotMessage keys by sequence so a partition sees ticks in order.
func snapshotMessage(s *models.Snapshot) pkgkafka.Message {
	seq := strconv.FormatUint(s.Seq, 10)
	return pkgkafka.Message{
		Key:     []byte(seq),
		Value:   s,
		Headers: map[string]string{"trace_id": "tick-" + seq},
	}
}

func (p *KafkaSnapshotPublisher) Publish(ctx context.Context, s *models.Snapshot) error {
	return p.producer.PublishBatch(ctx, p.topic, []pkgkafka.Message{snapshotMessage(s)})
}

func (p *KafkaSnapshotPublisher) PublishBatch(ctx context.Context, snaps []*models.Snapshot) error {
	if len(snaps) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, 0, len(snaps))
	for _, s := range snaps {
		if s != nil {
			msgs = append(msgs, snapshotMessage(s))
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaSnapshotPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
