package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const snapshotKey = "ledger:snapshot"

// SnapshotCache stores the latest dashboard snapshot in Redis so the
// dashboard endpoint and the background scan share one warm copy.
type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSnapshotCache builds SnapshotCache instance.
func NewSnapshotCache(client *redis.Client, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{client: client, ttl: ttl}
}

// Get returns the cached snapshot, or nil when the key is absent.
func (c *SnapshotCache) Get(ctx context.Context) (*Snapshot, error) {
	raw, err := c.client.Get(ctx, snapshotKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reports: snapshot cache get: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("reports: snapshot cache decode: %w", err)
	}
	return &snap, nil
}

// Set stores the snapshot with the configured TTL.
func (c *SnapshotCache) Set(ctx context.Context, snap *Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("reports: snapshot cache encode: %w", err)
	}
	if err := c.client.Set(ctx, snapshotKey, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("reports: snapshot cache set: %w", err)
	}
	return nil
}
