package match

import (
	"context"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/trivia-duel/internal/auth"
	"github.com/gokatarajesh/trivia-duel/internal/db/repository"
	httperrors "github.com/gokatarajesh/trivia-duel/pkg/http/errors"
)

// HistorySource lists a player's past match summaries.
type HistorySource interface {
	History(ctx context.Context, userID string, limit int) ([]repository.HistoryItem, error)
}

// HTTPHandlers provides REST endpoints for match data.
type HTTPHandlers struct {
	history HistorySource
	logger  zerolog.Logger
}

// NewHTTPHandlers creates HTTP handlers for match endpoints.
func NewHTTPHandlers(history HistorySource, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		history: history,
		logger:  logger.With().Str("component", "match_http").Logger(),
	}
}

// History handles GET /v1/matches/history?limit=50
func (h *HTTPHandlers) History(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 200 {
			httperrors.RespondValidationError(w, httperrors.ErrCodeInvalidRequest, "limit must be between 1 and 200", "limit")
			return
		}
		limit = parsed
	}

	items, err := h.history.History(r.Context(), claims.UserID, limit)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", claims.UserID).Msg("history fetch failed")
		httperrors.RespondError(w, http.StatusInternalServerError, httperrors.ErrCodeHistoryFetchFailed, "Could not load match history")
		return
	}
	if items == nil {
		items = []repository.HistoryItem{}
	}

	httperrors.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"userId":  claims.UserID,
		"history": items,
	})
}
