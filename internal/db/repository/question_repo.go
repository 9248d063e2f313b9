package repository

import (
	"context"
	"fmt"

	"github.com/gokatarajesh/trivia-duel/internal/db/queries"
)

type questionStore interface {
	ListQuestions(ctx context.Context) ([]queries.Question, error)
}

// QuestionRepository reads the question bank.
type QuestionRepository struct {
	store questionStore
}

func NewQuestionRepository(store questionStore) *QuestionRepository {
	return &QuestionRepository{store: store}
}

// LoadAll returns every stored question row, unvalidated.
func (r *QuestionRepository) LoadAll(ctx context.Context) ([]queries.Question, error) {
	rows, err := r.store.ListQuestions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return rows, nil
}
