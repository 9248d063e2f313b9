package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/gokatarajesh/trivia-duel/internal/db/queries"
)

type mockQuestionStore struct {
	mock.Mock
}

func (m *mockQuestionStore) ListQuestions(ctx context.Context) ([]queries.Question, error) {
	args := m.Called(ctx)
	return args.Get(0).([]queries.Question), args.Error(1)
}

func TestQuestionRepository_LoadAll(t *testing.T) {
	store := new(mockQuestionStore)
	repo := NewQuestionRepository(store)

	rows := []queries.Question{{QuestionID: 1, Topic: "Geo", Prompt: "Capital of France?", Options: []byte(`["Paris","Rome","Oslo","Bern"]`), CorrectOption: "Paris"}}
	store.On("ListQuestions", mock.Anything).Return(rows, nil)

	got, err := repo.LoadAll(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, rows, got)
	store.AssertExpectations(t)
}

func TestQuestionRepository_LoadAllError(t *testing.T) {
	store := new(mockQuestionStore)
	repo := NewQuestionRepository(store)

	boom := errors.New("boom")
	store.On("ListQuestions", mock.Anything).Return([]queries.Question(nil), boom)

	_, err := repo.LoadAll(context.Background())
	assert.ErrorIs(t, err, boom)
}
