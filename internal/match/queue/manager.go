package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// WaitingKey is the Redis list holding players waiting for a public opponent.
const WaitingKey = "waiting_players"

// Entry is a queued player card (duplicated here to avoid an import cycle with match).
type Entry struct {
	ConnectionID string `json:"connectionId"`
	UserID       string `json:"userId"`
	Name         string `json:"name"`
	Rating       int    `json:"rating"`
	AvatarRef    string `json:"avatarRef,omitempty"`
}

// Manager is a FIFO matchmaking queue stored as a Redis list so every process sees the same line.
type Manager struct {
	redis  *redis.Client
	logger zerolog.Logger
	key    string
}

// NewManager creates a matchmaking queue manager.
func NewManager(redis *redis.Client, logger zerolog.Logger) *Manager {
	return &Manager{
		redis:  redis,
		logger: logger.With().Str("component", "match_queue").Logger(),
		key:    WaitingKey,
	}
}

// Pop removes and returns the oldest waiting entry, or nil when the queue is empty.
// Undecodable entries are discarded.
func (m *Manager) Pop(ctx context.Context) (*Entry, error) {
	for {
		raw, err := m.redis.LPop(ctx, m.key).Result()
		if err == redis.Nil {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("pop waiting player: %w", err)
		}
		var entry Entry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil || entry.ConnectionID == "" {
			m.logger.Warn().Str("raw", raw).Msg("discarding malformed queue entry")
			continue
		}
		return &entry, nil
	}
}

// Push appends an entry to the back of the queue.
func (m *Manager) Push(ctx context.Context, entry Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal queue entry: %w", err)
	}
	if err := m.redis.RPush(ctx, m.key, data).Err(); err != nil {
		return fmt.Errorf("push waiting player: %w", err)
	}
	return nil
}

// PushFront puts an entry at the head of the queue so it is matched next.
func (m *Manager) PushFront(ctx context.Context, entry Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal queue entry: %w", err)
	}
	if err := m.redis.LPush(ctx, m.key, data).Err(); err != nil {
		return fmt.Errorf("requeue waiting player: %w", err)
	}
	return nil
}

// Remove deletes every entry belonging to connID and returns how many were removed.
func (m *Manager) Remove(ctx context.Context, connID string) (int, error) {
	raws, err := m.redis.LRange(ctx, m.key, 0, -1).Result()
	if err != nil {
		return 0, fmt.Errorf("list waiting players: %w", err)
	}
	removed := 0
	for _, raw := range raws {
		var entry Entry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil || entry.ConnectionID != connID {
			continue
		}
		n, err := m.redis.LRem(ctx, m.key, 0, raw).Result()
		if err != nil {
			return removed, fmt.Errorf("remove waiting player: %w", err)
		}
		removed += int(n)
	}
	return removed, nil
}

// Len reports the queue length.
func (m *Manager) Len(ctx context.Context) (int64, error) {
	n, err := m.redis.LLen(ctx, m.key).Result()
	if err != nil {
		return 0, fmt.Errorf("queue length: %w", err)
	}
	return n, nil
}
