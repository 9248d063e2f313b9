package match

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const defaultRoomTTL = 10 * time.Minute

// saveIfState writes ARGV[2] only when the stored document's state equals ARGV[1].
var saveIfState = redis.NewScript(`
local current = redis.call("GET", KEYS[1])
if not current then
	return 0
end
local doc = cjson.decode(current)
if doc["state"] ~= ARGV[1] then
	return 0
end
redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
return 1
`)

// StateManager keeps match documents in Redis. Transitions that can race across
// processes go through SaveIf, a compare-and-swap on the state field.
type StateManager struct {
	redis  *redis.Client
	logger zerolog.Logger
	ttl    time.Duration
}

// NewStateManager creates a state manager backed by Redis.
func NewStateManager(redis *redis.Client, logger zerolog.Logger, ttl time.Duration) *StateManager {
	if ttl <= 0 {
		ttl = defaultRoomTTL
	}
	return &StateManager{
		redis:  redis,
		logger: logger.With().Str("component", "match_state").Logger(),
		ttl:    ttl,
	}
}

func roomKey(id string) string {
	return fmt.Sprintf("room:%s", id)
}

// Get loads a match. A missing room yields (nil, nil).
func (s *StateManager) Get(ctx context.Context, id string) (*Match, error) {
	data, err := s.redis.Get(ctx, roomKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get room %s: %w", ErrStoreUnavailable, id, err)
	}

	var m Match
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: decode room %s: %w", ErrStoreUnavailable, id, err)
	}
	if m.Answers == nil {
		m.Answers = map[string]Answer{}
	}
	return &m, nil
}

// Save writes the match unconditionally and refreshes its TTL.
func (s *StateManager) Save(ctx context.Context, m *Match) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal room %s: %w", m.ID, err)
	}
	if err := s.redis.Set(ctx, roomKey(m.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: save room %s: %w", ErrStoreUnavailable, m.ID, err)
	}
	return nil
}

// SaveIf writes the match only if the stored copy is still in state expected.
// It returns false when another writer got there first or the room is gone.
func (s *StateManager) SaveIf(ctx context.Context, m *Match, expected State) (bool, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return false, fmt.Errorf("marshal room %s: %w", m.ID, err)
	}
	res, err := saveIfState.Run(ctx, s.redis, []string{roomKey(m.ID)}, string(expected), data, s.ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("%w: cas room %s: %w", ErrStoreUnavailable, m.ID, err)
	}
	return res == 1, nil
}

// Delete removes a match document.
func (s *StateManager) Delete(ctx context.Context, id string) error {
	if err := s.redis.Del(ctx, roomKey(id)).Err(); err != nil {
		return fmt.Errorf("%w: delete room %s: %w", ErrStoreUnavailable, id, err)
	}
	return nil
}
