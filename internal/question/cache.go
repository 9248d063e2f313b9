package question

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultSnapshotKey = "question:deck:snapshot"
	defaultSnapshotTTL = 24 * time.Hour
)

// Cache keeps the last good sanitized deck in Redis so a cold process can still start
// matches while Postgres is unreachable.
type Cache struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

var _ SnapshotCache = (*Cache)(nil)

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultSnapshotTTL
	}
	return &Cache{client: client, key: defaultSnapshotKey, ttl: ttl}
}

// Load returns the stored snapshot, or nil when none exists.
func (c *Cache) Load(ctx context.Context) ([]Record, error) {
	data, err := c.client.Get(ctx, c.key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("load deck snapshot: %w", err)
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode deck snapshot: %w", err)
	}
	return records, nil
}

// Save overwrites the snapshot.
func (c *Cache) Save(ctx context.Context, records []Record) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode deck snapshot: %w", err)
	}
	if err := c.client.Set(ctx, c.key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("save deck snapshot: %w", err)
	}
	return nil
}
