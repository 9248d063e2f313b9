package match

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/trivia-duel/internal/auth"
	"github.com/gokatarajesh/trivia-duel/internal/auth/jwt"
	"github.com/gokatarajesh/trivia-duel/internal/db/repository"
	httperrors "github.com/gokatarajesh/trivia-duel/pkg/http/errors"
)

type mockHistory struct {
	mock.Mock
}

func (m *mockHistory) History(ctx context.Context, userID string, limit int) ([]repository.HistoryItem, error) {
	args := m.Called(ctx, userID, limit)
	items, _ := args.Get(0).([]repository.HistoryItem)
	return items, args.Error(1)
}

func historyRequest(target string, userID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if userID != "" {
		req = req.WithContext(auth.WithClaims(req.Context(), &jwt.Claims{UserID: userID}))
	}
	return req
}

func TestHistory_ReturnsItems(t *testing.T) {
	played := time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC)
	src := new(mockHistory)
	src.On("History", mock.Anything, "user-1", 50).Return([]repository.HistoryItem{
		{Topic: "duel", Score: 96, Total: 10, PlayedAt: played},
	}, nil)

	h := NewHTTPHandlers(src, zerolog.Nop())
	rec := httptest.NewRecorder()
	h.History(rec, historyRequest("/v1/matches/history", "user-1"))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		UserID  string                   `json:"userId"`
		History []repository.HistoryItem `json:"history"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "user-1", body.UserID)
	require.Len(t, body.History, 1)
	assert.Equal(t, 96, body.History[0].Score)
	assert.True(t, played.Equal(body.History[0].PlayedAt))
	src.AssertExpectations(t)
}

func TestHistory_EmptyListIsNotNull(t *testing.T) {
	src := new(mockHistory)
	src.On("History", mock.Anything, "user-1", 5).Return(nil, nil)

	h := NewHTTPHandlers(src, zerolog.Nop())
	rec := httptest.NewRecorder()
	h.History(rec, historyRequest("/v1/matches/history?limit=5", "user-1"))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"history":[]`)
}

func TestHistory_RejectsBadInput(t *testing.T) {
	h := NewHTTPHandlers(new(mockHistory), zerolog.Nop())

	rec := httptest.NewRecorder()
	h.History(rec, historyRequest("/v1/matches/history", ""))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	h.History(rec, historyRequest("/v1/matches/history?limit=500", "user-1"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var errBody httperrors.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&errBody))
	assert.Equal(t, "limit", errBody.Field)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/matches/history", nil)
	h.History(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHistory_StoreFailure(t *testing.T) {
	src := new(mockHistory)
	src.On("History", mock.Anything, "user-1", 50).Return(nil, errors.New("db down"))

	h := NewHTTPHandlers(src, zerolog.Nop())
	rec := httptest.NewRecorder()
	h.History(rec, historyRequest("/v1/matches/history", "user-1"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var errBody httperrors.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&errBody))
	assert.Equal(t, httperrors.ErrCodeHistoryFetchFailed, errBody.Error)
}
