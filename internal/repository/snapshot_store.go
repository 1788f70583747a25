package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"CommodSim/internal/domain/models"
	domrepo "CommodSim/internal/domain/repository"
	pkgcache "CommodSim/pkg/cache"
)

// ErrNoSnapshot is returned before the first snapshot has been stored.
var ErrNoSnapshot = errors.New("no snapshot stored")

// LatestSnapshotKey is where the most recent snapshot lives.
const LatestSnapshotKey = "snapshot:latest"

// CacheSnapshotStore keeps the latest snapshot in a cache service.
type CacheSnapshotStore struct {
	cache pkgcache.Service
	ttl   time.Duration
	mu    sync.Mutex
}

// NewCacheSnapshotStore stores snapshots under LatestSnapshotKey. A
// non-positive ttl falls back to the cache default.
func NewCacheSnapshotStore(c pkgcache.Service, ttl time.Duration) domrepo.SnapshotStore {
	return &CacheSnapshotStore{cache: c, ttl: ttl}
}

// Save replaces the latest snapshot unless the stored one is newer. Retried
// snapshots can arrive after later ticks, so ordering is by timestamp and
// then by seq; a reseed restarts seq but never moves time back.
func (s *CacheSnapshotStore) Save(ctx context.Context, snap *models.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cur models.Snapshot
	if err := s.cache.Get(ctx, LatestSnapshotKey, &cur); err == nil && newer(&cur, snap) {
		return fmt.Errorf("save snapshot %d: %w (stored %d)", snap.Seq, domrepo.ErrStaleSnapshot, cur.Seq)
	}
	if err := s.cache.Set(ctx, LatestSnapshotKey, snap, s.ttl); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (s *CacheSnapshotStore) Latest(ctx context.Context) (*models.Snapshot, error) {
	var snap models.Snapshot
	if err := s.cache.Get(ctx, LatestSnapshotKey, &snap); err != nil {
		if errors.Is(err, pkgcache.ErrCacheMiss) {
			return nil, ErrNoSnapshot
		}
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return &snap, nil
}

func newer(a, b *models.Snapshot) bool {
	if !a.Timestamp.Equal(b.Timestamp) {
		return a.Timestamp.After(b.Timestamp)
	}
	return a.Seq > b.Seq
}
