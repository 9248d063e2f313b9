package leaderboard

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	ws "github.com/gokatarajesh/trivia-duel/pkg/http/ws"
)

// Supported leaderboard windows.
const (
	WindowDaily   = "daily"
	WindowWeekly  = "weekly"
	WindowMonthly = "monthly"
	WindowAllTime = "all_time"
)

var defaultWindows = []string{WindowDaily, WindowWeekly, WindowMonthly, WindowAllTime}

// Entry represents a leaderboard record sent to clients.
type Entry struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	Score       int    `json:"score"`
	Wins        int    `json:"wins"`
	Games       int    `json:"games"`
	Rounds      int    `json:"rounds"`
}

// RecordRequest captures one player's contribution from a finished duel.
type RecordRequest struct {
	UserID      string
	DisplayName string
	Score       int
	Rounds      int
	Won         bool
	RoomID      string
}

// ServiceOptions configures leaderboard service behavior.
type ServiceOptions struct {
	TopN           int
	PubSubChannel  string
	Windows        []string
	RedisKeyPrefix string
	Clock          clockwork.Clock
}

// Service keeps period rankings in Redis sorted sets and emits updates over Pub/Sub.
// Each window writes to a bucket keyed by the current period, so a new week starts
// from an empty set while the old one expires.
type Service struct {
	redis         *redis.Client
	logger        zerolog.Logger
	topN          int
	pubsubChannel string
	windows       []string
	prefix        string
	clock         clockwork.Clock
}

// NewService constructs a leaderboard service instance.
func NewService(redis *redis.Client, logger zerolog.Logger, opts ServiceOptions) *Service {
	topN := opts.TopN
	if topN <= 0 {
		topN = 10
	}
	channel := opts.PubSubChannel
	if channel == "" {
		channel = "leaderboard:updates"
	}
	windows := opts.Windows
	if len(windows) == 0 {
		windows = defaultWindows
	}
	prefix := opts.RedisKeyPrefix
	if prefix == "" {
		prefix = "lb"
	}
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &Service{
		redis:         redis,
		logger:        logger.With().Str("component", "leaderboard").Logger(),
		topN:          topN,
		pubsubChannel: channel,
		windows:       windows,
		prefix:        prefix,
		clock:         clock,
	}
}

// RecordResult adds a player's duel points to every window and publishes the new tops.
func (s *Service) RecordResult(ctx context.Context, req RecordRequest) error {
	if req.UserID == "" {
		return nil
	}
	now := s.clock.Now().UTC()
	for _, window := range s.windows {
		if err := s.updateWindow(ctx, window, now, req); err != nil {
			return err
		}
	}

	go s.publishUpdate(context.Background(), req.RoomID)
	return nil
}

// Top retrieves the top entries of the current period for a window.
func (s *Service) Top(ctx context.Context, window string, limit int) ([]Entry, error) {
	if limit <= 0 || limit > s.topN {
		limit = s.topN
	}

	bucket := s.bucket(window, s.clock.Now().UTC())
	results, err := s.redis.ZRevRangeWithScores(ctx, s.leaderboardKey(bucket), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch leaderboard: %w", err)
	}

	entries := make([]Entry, 0, len(results))
	for _, z := range results {
		userID, _ := z.Member.(string)
		meta, err := s.readMeta(ctx, bucket, userID)
		if err != nil {
			s.logger.Warn().Err(err).Msg("failed to read leaderboard metadata")
			continue
		}
		meta.Score = int(z.Score)
		entries = append(entries, *meta)
	}
	return entries, nil
}

// PeriodStart returns the instant the current bucket of window began.
func (s *Service) PeriodStart(window string) time.Time {
	now := s.clock.Now().UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	switch window {
	case WindowDaily:
		return day
	case WindowWeekly:
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case WindowMonthly:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Time{}
	}
}

func (s *Service) updateWindow(ctx context.Context, window string, now time.Time, req RecordRequest) error {
	bucket := s.bucket(window, now)
	zKey := s.leaderboardKey(bucket)
	metaKey := s.metaKey(bucket, req.UserID)

	pipe := s.redis.TxPipeline()
	pipe.ZIncrBy(ctx, zKey, float64(req.Score), req.UserID)
	pipe.HIncrBy(ctx, metaKey, "wins", int64(boolToInt(req.Won)))
	pipe.HIncrBy(ctx, metaKey, "games", 1)
	pipe.HIncrBy(ctx, metaKey, "rounds", int64(req.Rounds))
	pipe.HSet(ctx, metaKey, map[string]interface{}{
		"display_name": req.DisplayName,
	})
	if ttl := bucketTTL(window); ttl > 0 {
		pipe.Expire(ctx, zKey, ttl)
		pipe.Expire(ctx, metaKey, ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("update leaderboard window %s: %w", window, err)
	}
	return nil
}

func (s *Service) publishUpdate(ctx context.Context, roomID string) {
	for _, window := range s.windows {
		entries, err := s.Top(ctx, window, s.topN)
		if err != nil {
			s.logger.Warn().Err(err).Str("window", window).Msg("failed to collect leaderboard update")
			continue
		}
		if len(entries) == 0 {
			continue
		}

		payload := ws.LeaderboardUpdatePayload{
			Window: window,
			RoomID: roomID,
			Top:    toWSEntries(entries),
		}
		data, err := json.Marshal(payload)
		if err != nil {
			s.logger.Warn().Err(err).Msg("failed to marshal leaderboard update")
			continue
		}
		if err := s.redis.Publish(ctx, s.pubsubChannel, data).Err(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to publish leaderboard update")
		}
	}
}

func (s *Service) readMeta(ctx context.Context, bucket, userID string) (*Entry, error) {
	data, err := s.redis.HGetAll(ctx, s.metaKey(bucket, userID)).Result()
	if err != nil {
		return nil, err
	}
	entry := &Entry{UserID: userID}
	if len(data) == 0 {
		return entry, nil
	}
	entry.DisplayName = data["display_name"]
	entry.Wins = parseInt(data["wins"])
	entry.Games = parseInt(data["games"])
	entry.Rounds = parseInt(data["rounds"])
	return entry, nil
}

// bucket names the period a window is currently writing to.
func (s *Service) bucket(window string, now time.Time) string {
	switch window {
	case WindowDaily:
		return fmt.Sprintf("%s:%s", window, now.Format("20060102"))
	case WindowWeekly:
		year, week := now.ISOWeek()
		return fmt.Sprintf("%s:%d-W%02d", window, year, week)
	case WindowMonthly:
		return fmt.Sprintf("%s:%s", window, now.Format("2006-01"))
	default:
		return window
	}
}

func bucketTTL(window string) time.Duration {
	switch window {
	case WindowDaily:
		return 48 * time.Hour
	case WindowWeekly:
		return 14 * 24 * time.Hour
	case WindowMonthly:
		return 62 * 24 * time.Hour
	default:
		return 0
	}
}

func (s *Service) leaderboardKey(bucket string) string {
	return fmt.Sprintf("%s:%s", s.prefix, bucket)
}

func (s *Service) metaKey(bucket, userID string) string {
	return fmt.Sprintf("%s:%s:meta:%s", s.prefix, bucket, userID)
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func parseInt(val string) int {
	if val == "" {
		return 0
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return i
}
