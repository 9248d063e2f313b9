package queries

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const insertMatchSummary = `-- name: InsertMatchSummary :exec
INSERT INTO match_summaries (room_id, user_id, topic, score, total_rounds, played_at)
VALUES ($1, $2, $3, $4, $5, now())
`

type InsertMatchSummaryParams struct {
	RoomID      string
	UserID      string
	Topic       string
	Score       int32
	TotalRounds int32
}

func (q *Queries) InsertMatchSummary(ctx context.Context, arg InsertMatchSummaryParams) error {
	_, err := q.db.Exec(ctx, insertMatchSummary,
		arg.RoomID,
		arg.UserID,
		arg.Topic,
		arg.Score,
		arg.TotalRounds,
	)
	return err
}

const listMatchSummariesByUser = `-- name: ListMatchSummariesByUser :many
SELECT summary_id, room_id, user_id, topic, score, total_rounds, played_at
FROM match_summaries
WHERE user_id = $1
ORDER BY played_at DESC
LIMIT $2
`

type ListMatchSummariesByUserParams struct {
	UserID string
	Limit  int32
}

func (q *Queries) ListMatchSummariesByUser(ctx context.Context, arg ListMatchSummariesByUserParams) ([]MatchSummary, error) {
	rows, err := q.db.Query(ctx, listMatchSummariesByUser, arg.UserID, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MatchSummary
	for rows.Next() {
		var i MatchSummary
		if err := rows.Scan(
			&i.SummaryID,
			&i.RoomID,
			&i.UserID,
			&i.Topic,
			&i.Score,
			&i.TotalRounds,
			&i.PlayedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listTopScorers = `-- name: ListTopScorers :many
SELECT s.user_id,
       COALESCE(MAX(r.display_name), '') AS display_name,
       SUM(s.score)::int AS total_score,
       COUNT(*)::int AS games
FROM match_summaries s
LEFT JOIN player_ratings r ON r.user_id = s.user_id
WHERE s.played_at >= $1
GROUP BY s.user_id
ORDER BY total_score DESC
LIMIT $2
`

type ListTopScorersParams struct {
	Since pgtype.Timestamptz
	Limit int32
}

func (q *Queries) ListTopScorers(ctx context.Context, arg ListTopScorersParams) ([]TopScorer, error) {
	rows, err := q.db.Query(ctx, listTopScorers, arg.Since, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TopScorer
	for rows.Next() {
		var i TopScorer
		if err := rows.Scan(
			&i.UserID,
			&i.DisplayName,
			&i.TotalScore,
			&i.Games,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
