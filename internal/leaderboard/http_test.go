package leaderboard

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

	"github.com/gokatarajesh/trivia-duel/internal/db/repository"
	ws "github.com/gokatarajesh/trivia-duel/pkg/http/ws"
)

type mockScorers struct {
	mock.Mock
}

func (m *mockScorers) TopScorers(ctx context.Context, since time.Time, limit int) ([]repository.Scorer, error) {
	args := m.Called(ctx, since, limit)
	rows, _ := args.Get(0).([]repository.Scorer)
	return rows, args.Error(1)
}

type leaderboardResponse struct {
	Window string                `json:"window"`
	Source string                `json:"source"`
	Top    []ws.LeaderboardEntry `json:"top"`
}

func get(t *testing.T, h *HTTPHandler, path string) (*httptest.ResponseRecorder, leaderboardResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.HandleGet(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var body leaderboardResponse
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestHTTPHandler_ServesRedis(t *testing.T) {
	svc, _, _, _ := newTestService(t, time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC))
	require.NoError(t, svc.RecordResult(context.Background(), RecordRequest{UserID: "u1", DisplayName: "Ana", Score: 36}))
	scorers := &mockScorers{}
	h := NewHTTPHandler(svc, scorers, zerolog.Nop())

	rec, body := get(t, h, "/v1/leaderboards/weekly")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "redis", body.Source)
	require.Len(t, body.Top, 1)
	assert.Equal(t, "Ana", body.Top[0].DisplayName)
	scorers.AssertNotCalled(t, "TopScorers", mock.Anything, mock.Anything, mock.Anything)
}

func TestHTTPHandler_FallsBackToSummaries(t *testing.T) {
	svc, _, _, _ := newTestService(t, time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC))
	scorers := &mockScorers{}
	scorers.On("TopScorers", mock.Anything, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), 3).
		Return([]repository.Scorer{{UserID: "u9", DisplayName: "Caio", TotalScore: 240, Games: 3}}, nil)
	h := NewHTTPHandler(svc, scorers, zerolog.Nop())

	rec, body := get(t, h, "/v1/leaderboards/monthly?limit=3")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "summaries", body.Source)
	require.Len(t, body.Top, 1)
	assert.Equal(t, ws.LeaderboardEntry{Rank: 1, UserID: "u9", DisplayName: "Caio", Score: 240, Games: 3}, body.Top[0])
	scorers.AssertExpectations(t)
}

func TestHTTPHandler_SummaryFailureIsEmpty(t *testing.T) {
	svc, _, _, _ := newTestService(t, time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC))
	scorers := &mockScorers{}
	scorers.On("TopScorers", mock.Anything, mock.Anything, 10).Return(nil, errors.New("db down"))
	h := NewHTTPHandler(svc, scorers, zerolog.Nop())

	rec, body := get(t, h, "/v1/leaderboards/daily")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, body.Top)
}

func TestHTTPHandler_UnknownWindow(t *testing.T) {
	h := NewHTTPHandler(nil, nil, zerolog.Nop())
	rec, _ := get(t, h, "/v1/leaderboards/yearly")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
