package queries

import "context"

const getPlayerRating = `-- name: GetPlayerRating :one
SELECT user_id, display_name, rating, updated_at
FROM player_ratings
WHERE user_id = $1
`

func (q *Queries) GetPlayerRating(ctx context.Context, userID string) (PlayerRating, error) {
	row := q.db.QueryRow(ctx, getPlayerRating, userID)
	var i PlayerRating
	err := row.Scan(
		&i.UserID,
		&i.DisplayName,
		&i.Rating,
		&i.UpdatedAt,
	)
	return i, err
}

const upsertPlayerRating = `-- name: UpsertPlayerRating :exec
INSERT INTO player_ratings (user_id, display_name, rating, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (user_id) DO UPDATE
SET display_name = EXCLUDED.display_name,
    rating       = EXCLUDED.rating,
    updated_at   = now()
`

type UpsertPlayerRatingParams struct {
	UserID      string
	DisplayName string
	Rating      int32
}

func (q *Queries) UpsertPlayerRating(ctx context.Context, arg UpsertPlayerRatingParams) error {
	_, err := q.db.Exec(ctx, upsertPlayerRating, arg.UserID, arg.DisplayName, arg.Rating)
	return err
}
