package queries

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SettledPlayer is one side of a finished duel as it is written to storage.
type SettledPlayer struct {
	UserID      string
	DisplayName string
	Rating      int32
	Score       int32
}

// SettleMatchParams carries everything written when a duel ends.
type SettleMatchParams struct {
	RoomID      string
	Topic       string
	TotalRounds int32
	Players     [2]SettledPlayer
}

// Store adds transactional operations on top of Queries.
type Store struct {
	*Queries
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{Queries: New(pool), pool: pool}
}

// ExecTx runs fn inside a single transaction, rolling back on error.
func (s *Store) ExecTx(ctx context.Context, fn func(*Queries) error) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(s.WithTx(tx))
	})
}

// SettleMatch writes both rating updates and both summary rows atomically.
func (s *Store) SettleMatch(ctx context.Context, arg SettleMatchParams) error {
	return s.ExecTx(ctx, func(q *Queries) error {
		for _, p := range arg.Players {
			if err := q.UpsertPlayerRating(ctx, UpsertPlayerRatingParams{
				UserID:      p.UserID,
				DisplayName: p.DisplayName,
				Rating:      p.Rating,
			}); err != nil {
				return fmt.Errorf("upsert rating %s: %w", p.UserID, err)
			}
			if err := q.InsertMatchSummary(ctx, InsertMatchSummaryParams{
				RoomID:      arg.RoomID,
				UserID:      p.UserID,
				Topic:       arg.Topic,
				Score:       p.Score,
				TotalRounds: arg.TotalRounds,
			}); err != nil {
				return fmt.Errorf("insert summary %s: %w", p.UserID, err)
			}
		}
		return nil
	})
}
