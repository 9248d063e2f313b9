package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/gokatarajesh/trivia-duel/internal/db/queries"
)

// MultiplayerTopic is the topic recorded on every duel summary row.
const MultiplayerTopic = "Multiplayer"

type resultStore interface {
	SettleMatch(ctx context.Context, arg queries.SettleMatchParams) error
	GetPlayerRating(ctx context.Context, userID string) (queries.PlayerRating, error)
	ListMatchSummariesByUser(ctx context.Context, arg queries.ListMatchSummariesByUserParams) ([]queries.MatchSummary, error)
	ListTopScorers(ctx context.Context, arg queries.ListTopScorersParams) ([]queries.TopScorer, error)
}

// SettledPlayer is one participant's final state.
type SettledPlayer struct {
	UserID    string
	Name      string
	NewRating int
	Score     int
}

// Settlement describes a finished duel.
type Settlement struct {
	RoomID      string
	TotalRounds int
	Players     [2]SettledPlayer
}

// HistoryItem is a single past result for a player.
type HistoryItem struct {
	Topic    string    `json:"topic"`
	Score    int       `json:"score"`
	Total    int       `json:"total"`
	PlayedAt time.Time `json:"playedAt"`
}

// Scorer is an aggregated ranking row.
type Scorer struct {
	UserID      string
	DisplayName string
	TotalScore  int
	Games       int
}

// ResultRepository persists duel outcomes and serves rating / history reads.
type ResultRepository struct {
	store resultStore
}

func NewResultRepository(store resultStore) *ResultRepository {
	return &ResultRepository{store: store}
}

// Settle writes both ratings and both summary rows in one transaction.
func (r *ResultRepository) Settle(ctx context.Context, s Settlement) error {
	params := queries.SettleMatchParams{
		RoomID:      s.RoomID,
		Topic:       MultiplayerTopic,
		TotalRounds: int32(s.TotalRounds),
	}
	for i, p := range s.Players {
		if p.UserID == "" {
			return fmt.Errorf("settle %s: player %d has no user id", s.RoomID, i)
		}
		params.Players[i] = queries.SettledPlayer{
			UserID:      p.UserID,
			DisplayName: p.Name,
			Rating:      int32(p.NewRating),
			Score:       int32(p.Score),
		}
	}
	if err := r.store.SettleMatch(ctx, params); err != nil {
		return fmt.Errorf("settle %s: %w", s.RoomID, err)
	}
	return nil
}

// Rating returns the stored rating for userID. ok is false when none is stored yet.
func (r *ResultRepository) Rating(ctx context.Context, userID string) (int, bool, error) {
	row, err := r.store.GetPlayerRating(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get rating: %w", err)
	}
	return int(row.Rating), true, nil
}

// History lists the most recent results for userID, newest first.
func (r *ResultRepository) History(ctx context.Context, userID string, limit int) ([]HistoryItem, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.store.ListMatchSummariesByUser(ctx, queries.ListMatchSummariesByUserParams{
		UserID: userID,
		Limit:  int32(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	items := make([]HistoryItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, HistoryItem{
			Topic:    row.Topic,
			Score:    int(row.Score),
			Total:    int(row.TotalRounds),
			PlayedAt: row.PlayedAt.Time,
		})
	}
	return items, nil
}

// TopScorers sums summary points since the given instant.
func (r *ResultRepository) TopScorers(ctx context.Context, since time.Time, limit int) ([]Scorer, error) {
	rows, err := r.store.ListTopScorers(ctx, queries.ListTopScorersParams{
		Since: pgtype.Timestamptz{Time: since, Valid: true},
		Limit: int32(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("list top scorers: %w", err)
	}
	scorers := make([]Scorer, 0, len(rows))
	for _, row := range rows {
		scorers = append(scorers, Scorer{
			UserID:      row.UserID,
			DisplayName: row.DisplayName,
			TotalScore:  int(row.TotalScore),
			Games:       int(row.Games),
		})
	}
	return scorers, nil
}
