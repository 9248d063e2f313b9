package match

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultRematchOfferTTL   = 2 * time.Minute
	defaultRematchRequestTTL = time.Minute
)

// RematchOffer is opened when a match finishes normally.
type RematchOffer struct {
	RoomName string    `json:"roomName"`
	Players  [2]Player `json:"players"`
}

// RematchStore holds rematch offers and per-player consent flags.
type RematchStore struct {
	redis      *redis.Client
	offerTTL   time.Duration
	requestTTL time.Duration
}

// NewRematchStore creates a rematch store with the given TTLs.
func NewRematchStore(redis *redis.Client, offerTTL, requestTTL time.Duration) *RematchStore {
	if offerTTL <= 0 {
		offerTTL = defaultRematchOfferTTL
	}
	if requestTTL <= 0 {
		requestTTL = defaultRematchRequestTTL
	}
	return &RematchStore{redis: redis, offerTTL: offerTTL, requestTTL: requestTTL}
}

func rematchKey(room string) string {
	return fmt.Sprintf("rematch:%s", room)
}

func rematchRequestKey(room, connID string) string {
	return fmt.Sprintf("rematch_request:%s:%s", room, connID)
}

// Offer opens a rematch window for the finished room.
func (r *RematchStore) Offer(ctx context.Context, offer RematchOffer) error {
	data, err := json.Marshal(offer)
	if err != nil {
		return fmt.Errorf("marshal rematch offer: %w", err)
	}
	if err := r.redis.Set(ctx, rematchKey(offer.RoomName), data, r.offerTTL).Err(); err != nil {
		return fmt.Errorf("%w: open rematch %s: %w", ErrStoreUnavailable, offer.RoomName, err)
	}
	return nil
}

// Get returns the open offer for room, or nil.
func (r *RematchStore) Get(ctx context.Context, room string) (*RematchOffer, error) {
	data, err := r.redis.Get(ctx, rematchKey(room)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get rematch %s: %w", ErrStoreUnavailable, room, err)
	}
	var offer RematchOffer
	if err := json.Unmarshal(data, &offer); err != nil {
		return nil, fmt.Errorf("decode rematch %s: %w", room, err)
	}
	return &offer, nil
}

// Consent records that connID wants a rematch of room.
func (r *RematchStore) Consent(ctx context.Context, room, connID string) error {
	if err := r.redis.Set(ctx, rematchRequestKey(room, connID), "1", r.requestTTL).Err(); err != nil {
		return fmt.Errorf("%w: rematch consent: %w", ErrStoreUnavailable, err)
	}
	return nil
}

// HasConsent reports whether connID has asked for a rematch of room.
func (r *RematchStore) HasConsent(ctx context.Context, room, connID string) (bool, error) {
	n, err := r.redis.Exists(ctx, rematchRequestKey(room, connID)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: rematch consent lookup: %w", ErrStoreUnavailable, err)
	}
	return n == 1, nil
}

// Claim consumes the offer and both consent flags. Exactly one caller observes true.
func (r *RematchStore) Claim(ctx context.Context, room string, connIDs ...string) (bool, error) {
	removed, err := r.redis.Del(ctx, rematchKey(room)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: claim rematch %s: %w", ErrStoreUnavailable, room, err)
	}
	keys := make([]string, 0, len(connIDs))
	for _, id := range connIDs {
		keys = append(keys, rematchRequestKey(room, id))
	}
	if len(keys) > 0 {
		if err := r.redis.Del(ctx, keys...).Err(); err != nil {
			return false, fmt.Errorf("%w: clear rematch consent %s: %w", ErrStoreUnavailable, room, err)
		}
	}
	return removed == 1, nil
}
