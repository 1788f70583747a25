package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"CommodSim/internal/domain/models"
	drepo "CommodSim/internal/domain/repository"
)

// SnapshotProcessor stores the latest snapshot and publishes it to the bus.
// pub may be nil when Kafka is disabled.
type SnapshotProcessor struct {
	pub     drepo.SnapshotPublisher
	store   drepo.SnapshotStore
	metrics drepo.Metrics
}

func NewSnapshotProcessor(pub drepo.SnapshotPublisher, store drepo.SnapshotStore, metrics drepo.Metrics) *SnapshotProcessor {
	return &SnapshotProcessor{pub: pub, store: store, metrics: metrics}
}

// Process saves then publishes. A store failure does not stop the publish,
// and a snapshot older than the stored one is published without replacing it.
func (p *SnapshotProcessor) Process(ctx context.Context, s *models.Snapshot) error {
	if s == nil {
		return fmt.Errorf("snapshot is nil")
	}
	start := time.Now()

	var errs []error
	if p.store != nil {
		err := p.store.Save(ctx, s)
		switch {
		case errors.Is(err, drepo.ErrStaleSnapshot):
			// a later tick is already stored; only the publish is retried
			p.metrics.RecordError("snapshot_store_stale")
		case err != nil:
			p.metrics.RecordError("snapshot_store")
			errs = append(errs, fmt.Errorf("store snapshot %d: %w", s.Seq, err))
		default:
			p.metrics.RecordSnapshotPublished("store")
		}
	}
	if p.pub != nil {
		if err := p.pub.Publish(ctx, s); err != nil {
			p.metrics.RecordError("snapshot_publish")
			errs = append(errs, fmt.Errorf("publish snapshot %d: %w", s.Seq, err))
		} else {
			p.metrics.RecordSnapshotPublished("kafka")
		}
	}

	p.metrics.RecordLatency("snapshot_process", time.Since(start).Seconds())
	return errors.Join(errs...)
}

// Close closes the publisher.
func (p *SnapshotProcessor) Close() error {
	if p.pub != nil {
		return p.pub.Close()
	}
	return nil
}
