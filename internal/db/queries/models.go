package queries

import "github.com/jackc/pgx/v5/pgtype"

type Question struct {
	QuestionID    int64
	Topic         string
	Prompt        string
	Options       []byte
	CorrectOption string
}

type PlayerRating struct {
	UserID      string
	DisplayName string
	Rating      int32
	UpdatedAt   pgtype.Timestamptz
}

type MatchSummary struct {
	SummaryID   int64
	RoomID      string
	UserID      string
	Topic       string
	Score       int32
	TotalRounds int32
	PlayedAt    pgtype.Timestamptz
}

type TopScorer struct {
	UserID      string
	DisplayName string
	TotalScore  int32
	Games       int32
}
