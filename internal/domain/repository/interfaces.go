package repository

import (
	"context"
	"errors"

	"CommodSim/internal/domain/models"
)

// SnapshotPublisher ships tick snapshots to a message bus.
type SnapshotPublisher interface {
	Publish(ctx context.Context, s *models.Snapshot) error
	PublishBatch(ctx context.Context, snaps []*models.Snapshot) error
	Close() error
}

// ErrStaleSnapshot is returned by SnapshotStore.Save when a newer snapshot
// is already stored.
var ErrStaleSnapshot = errors.New("snapshot older than stored")

// SnapshotStore keeps the most recent snapshot for readers that missed the stream.
type SnapshotStore interface {
	Save(ctx context.Context, s *models.Snapshot) error
	Latest(ctx context.Context) (*models.Snapshot, error)
}

type Metrics interface {
	RecordTick(seconds float64)
	RecordSpot(sector, hub string, price float64)
	RecordSnapshotPublished(sink string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
