package leaderboard

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/trivia-duel/internal/db/repository"
	httperrors "github.com/gokatarajesh/trivia-duel/pkg/http/errors"
	ws "github.com/gokatarajesh/trivia-duel/pkg/http/ws"
)

// ScorerSource aggregates durable match summaries, used when Redis has nothing for a window.
type ScorerSource interface {
	TopScorers(ctx context.Context, since time.Time, limit int) ([]repository.Scorer, error)
}

// HTTPHandler exposes REST endpoints for leaderboard queries.
type HTTPHandler struct {
	svc     *Service
	scorers ScorerSource
	logger  zerolog.Logger
}

// NewHTTPHandler constructs a leaderboard HTTP handler.
func NewHTTPHandler(svc *Service, scorers ScorerSource, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		svc:     svc,
		scorers: scorers,
		logger:  logger.With().Str("component", "leaderboard_http").Logger(),
	}
}

// HandleGet responds with the current leaderboard for a given window.
// Route: GET /v1/leaderboards/{window}?limit=10
func (h *HTTPHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	window := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/v1/leaderboards/"), "/")
	if window == "" || !isValidWindow(window) {
		httperrors.RespondError(w, http.StatusNotFound, httperrors.ErrCodeUnknownWindow, "unknown leaderboard window")
		return
	}

	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	ctx := r.Context()
	var (
		top    []ws.LeaderboardEntry
		source = "redis"
	)

	if h.svc != nil {
		if entries, err := h.svc.Top(ctx, window, limit); err == nil {
			top = toWSEntries(entries)
		} else {
			h.logger.Warn().Err(err).Str("window", window).Msg("redis leaderboard fetch failed")
		}
	}

	if len(top) == 0 {
		source = "summaries"
		top = h.summaryFallback(ctx, window, limit)
	}

	httperrors.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"window":      window,
		"top":         top,
		"source":      source,
		"retrievedAt": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *HTTPHandler) summaryFallback(ctx context.Context, window string, limit int) []ws.LeaderboardEntry {
	if h.scorers == nil {
		return []ws.LeaderboardEntry{}
	}
	var since time.Time
	if h.svc != nil {
		since = h.svc.PeriodStart(window)
	}
	rows, err := h.scorers.TopScorers(ctx, since, limit)
	if err != nil {
		h.logger.Warn().Err(err).Str("window", window).Msg("summary ranking fetch failed")
		return []ws.LeaderboardEntry{}
	}

	entries := make([]ws.LeaderboardEntry, len(rows))
	for i, row := range rows {
		entries[i] = ws.LeaderboardEntry{
			Rank:        i + 1,
			UserID:      row.UserID,
			DisplayName: row.DisplayName,
			Score:       row.TotalScore,
			Games:       row.Games,
		}
	}
	return entries
}
