package match

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/trivia-duel/internal/match/queue"
)

const (
	defaultInviteTTL  = 5 * time.Minute
	inviteCodeLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	inviteCodeDigits  = "0123456789"
	inviteCodeRetries = 5
)

var inviteCodePattern = regexp.MustCompile(`^[A-Z]{2}-[0-9]{3}$`)

// InviteManager stores private room invites keyed by a short human-typeable code.
type InviteManager struct {
	redis  *redis.Client
	logger zerolog.Logger
	ttl    time.Duration
}

// NewInviteManager creates a private room invite manager.
func NewInviteManager(redis *redis.Client, logger zerolog.Logger, ttl time.Duration) *InviteManager {
	if ttl <= 0 {
		ttl = defaultInviteTTL
	}
	return &InviteManager{
		redis:  redis,
		logger: logger.With().Str("component", "private_rooms").Logger(),
		ttl:    ttl,
	}
}

func inviteKey(code string) string {
	return fmt.Sprintf("private_room:%s", code)
}

// NormalizeCode upper-cases and trims a user-typed code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidCode reports whether code has the AA-000 shape.
func ValidCode(code string) bool {
	return inviteCodePattern.MatchString(code)
}

// Create stores host under a fresh code and returns it.
func (m *InviteManager) Create(ctx context.Context, host queue.Entry) (string, error) {
	data, err := json.Marshal(host)
	if err != nil {
		return "", fmt.Errorf("marshal invite: %w", err)
	}
	for attempt := 0; attempt < inviteCodeRetries; attempt++ {
		code := generateInviteCode()
		ok, err := m.redis.SetNX(ctx, inviteKey(code), data, m.ttl).Result()
		if err != nil {
			return "", fmt.Errorf("%w: create invite: %w", ErrStoreUnavailable, err)
		}
		if ok {
			m.logger.Debug().Str("code", code).Str("connection_id", host.ConnectionID).Msg("private room created")
			return code, nil
		}
	}
	return "", fmt.Errorf("create invite: no free code after %d attempts", inviteCodeRetries)
}

// Get returns the host waiting behind code, or nil.
func (m *InviteManager) Get(ctx context.Context, code string) (*queue.Entry, error) {
	data, err := m.redis.Get(ctx, inviteKey(code)).Bytes()
	return m.decode(code, data, err)
}

// Claim atomically consumes the invite. Only one joiner can win a given code.
func (m *InviteManager) Claim(ctx context.Context, code string) (*queue.Entry, error) {
	data, err := m.redis.GetDel(ctx, inviteKey(code)).Bytes()
	return m.decode(code, data, err)
}

func (m *InviteManager) decode(code string, data []byte, err error) (*queue.Entry, error) {
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read invite %s: %w", ErrStoreUnavailable, code, err)
	}
	var host queue.Entry
	if err := json.Unmarshal(data, &host); err != nil {
		return nil, fmt.Errorf("decode invite %s: %w", code, err)
	}
	return &host, nil
}

func generateInviteCode() string {
	var b strings.Builder
	b.Grow(6)
	for i := 0; i < 2; i++ {
		b.WriteByte(inviteCodeLetters[rand.IntN(len(inviteCodeLetters))])
	}
	b.WriteByte('-')
	for i := 0; i < 3; i++ {
		b.WriteByte(inviteCodeDigits[rand.IntN(len(inviteCodeDigits))])
	}
	return b.String()
}
