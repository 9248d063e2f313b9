package match

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/trivia-duel/internal/auth/jwt"
	"github.com/gokatarajesh/trivia-duel/internal/question"
	httperrors "github.com/gokatarajesh/trivia-duel/pkg/http/errors"
	ws "github.com/gokatarajesh/trivia-duel/pkg/http/ws"
)

const defaultRating = 1000

// TokenValidator verifies the access token presented on the socket upgrade.
type TokenValidator interface {
	Validate(token string) (*jwt.Claims, error)
}

// RatingLookup returns the stored rating for a user, ok=false when none exists.
type RatingLookup interface {
	Rating(ctx context.Context, userID string) (int, bool, error)
}

// Handler manages WebSocket connections and routes duel messages.
type Handler struct {
	service   *Service
	hub       *ws.Hub
	tokens    TokenValidator
	ratings   RatingLookup
	upgrader  websocket.Upgrader
	opTimeout time.Duration
	logger    zerolog.Logger
}

// NewHandler creates a duel WebSocket handler.
func NewHandler(service *Service, hub *ws.Hub, tokens TokenValidator, ratings RatingLookup, logger zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		hub:     hub,
		tokens:  tokens,
		ratings: ratings,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		opTimeout: 5 * time.Second,
		logger:    logger.With().Str("component", "duel_ws").Logger(),
	}
}

// ServeHTTP upgrades GET /ws/duel?token=... and runs the connection until it closes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Missing access token")
		return
	}
	claims, err := h.tokens.Validate(token)
	if err != nil {
		code := httperrors.ErrCodeInvalidToken
		if errors.Is(err, jwt.ErrExpiredToken) {
			code = httperrors.ErrCodeTokenExpired
		}
		httperrors.RespondUnauthorized(w, code, "Invalid or expired token")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	h.HandleConnection(conn, claims)
}

// HandleConnection registers the socket, pumps messages and forfeits on close.
func (h *Handler) HandleConnection(conn *websocket.Conn, claims *jwt.Claims) {
	connID := uuid.NewString()
	wsConn := ws.NewConnection(connID, conn, h.logger)
	h.hub.Register(wsConn)

	go wsConn.WritePump()

	wsConn.ReadPump(func(msg ws.Message) error {
		ctx, cancel := context.WithTimeout(context.Background(), h.opTimeout)
		defer cancel()
		return h.handleMessage(ctx, connID, claims, msg)
	})

	h.hub.Unregister(connID)

	ctx, cancel := context.WithTimeout(context.Background(), h.opTimeout)
	defer cancel()
	if err := h.service.HandleDisconnect(ctx, connID); err != nil {
		h.logger.Warn().Err(err).Str("connection_id", connID).Msg("disconnect handling failed")
	}
}

// handleMessage routes incoming WebSocket messages.
func (h *Handler) handleMessage(ctx context.Context, connID string, claims *jwt.Claims, msg ws.Message) error {
	switch msg.Type {
	case ws.TypeFindMatch:
		return h.handleFindMatch(ctx, connID, claims, msg)
	case ws.TypeCreatePrivateRoom:
		return h.handleCreatePrivateRoom(ctx, connID, claims, msg)
	case ws.TypeJoinPrivateRoom:
		return h.handleJoinPrivateRoom(ctx, connID, claims, msg)
	case ws.TypeSubmitAnswer:
		return h.handleSubmitAnswer(ctx, connID, msg)
	case ws.TypeRequestRematch:
		return h.handleRequestRematch(ctx, connID, msg)
	case ws.TypePing:
		return h.hub.Send(connID, ws.Message{Type: ws.TypePong, RequestID: msg.RequestID})
	default:
		return h.sendError(connID, httperrors.ErrCodeUnknownMessageType, fmt.Sprintf("Unknown message type: %s", msg.Type))
	}
}

func (h *Handler) handleFindMatch(ctx context.Context, connID string, claims *jwt.Claims, msg ws.Message) error {
	var req ws.PlayerPayload
	if len(msg.Payload) > 0 {
		if err := msg.Decode(&req); err != nil {
			return h.sendError(connID, httperrors.ErrCodeInvalidPayload, "Invalid findMatch payload")
		}
	}
	player := h.player(ctx, connID, claims, req)
	if err := h.service.FindMatch(ctx, player); err != nil {
		return h.sendServiceError(connID, httperrors.ErrCodeEnqueueFailed, err)
	}
	return nil
}

func (h *Handler) handleCreatePrivateRoom(ctx context.Context, connID string, claims *jwt.Claims, msg ws.Message) error {
	var req ws.PlayerPayload
	if len(msg.Payload) > 0 {
		if err := msg.Decode(&req); err != nil {
			return h.sendError(connID, httperrors.ErrCodeInvalidPayload, "Invalid createPrivateRoom payload")
		}
	}
	player := h.player(ctx, connID, claims, req)
	if _, err := h.service.CreatePrivateRoom(ctx, player); err != nil {
		return h.sendServiceError(connID, httperrors.ErrCodeRoomCreationFailed, err)
	}
	return nil
}

func (h *Handler) handleJoinPrivateRoom(ctx context.Context, connID string, claims *jwt.Claims, msg ws.Message) error {
	var req ws.JoinPrivateRoomPayload
	if err := msg.Decode(&req); err != nil || req.RoomCode == "" {
		return h.sendError(connID, httperrors.ErrCodeInvalidPayload, "Invalid joinPrivateRoom payload")
	}
	player := h.player(ctx, connID, claims, req.PlayerPayload)
	if err := h.service.JoinPrivateRoom(ctx, player, req.RoomCode); err != nil {
		return h.sendServiceError(connID, httperrors.ErrCodeJoinFailed, err)
	}
	return nil
}

func (h *Handler) handleSubmitAnswer(ctx context.Context, connID string, msg ws.Message) error {
	var req ws.SubmitAnswerPayload
	if err := msg.Decode(&req); err != nil || req.Room == "" {
		return h.sendError(connID, httperrors.ErrCodeInvalidPayload, "Invalid submitAnswer payload")
	}
	if err := h.service.RecordAnswer(ctx, connID, req.Room, req.Answer); err != nil {
		return h.sendServiceError(connID, httperrors.ErrCodeStoreUnavailable, err)
	}
	return nil
}

func (h *Handler) handleRequestRematch(ctx context.Context, connID string, msg ws.Message) error {
	var req ws.RequestRematchPayload
	if err := msg.Decode(&req); err != nil || req.RoomName == "" {
		return h.sendError(connID, httperrors.ErrCodeInvalidPayload, "Invalid requestRematch payload")
	}
	if err := h.service.RequestRematch(ctx, connID, req.RoomName); err != nil {
		return h.sendServiceError(connID, httperrors.ErrCodeMatchCreationFailed, err)
	}
	return nil
}

// player builds the seat card. The token is authoritative for identity; the stored
// rating wins over whatever the client claims.
func (h *Handler) player(ctx context.Context, connID string, claims *jwt.Claims, req ws.PlayerPayload) Player {
	p := Player{
		ConnectionID: connID,
		UserID:       req.UserID,
		Name:         req.Name,
		Rating:       req.Rating,
		AvatarRef:    req.AvatarRef,
	}
	if claims != nil {
		p.UserID = claims.UserID
		if claims.DisplayName != "" {
			p.Name = claims.DisplayName
		}
		if claims.Rating > 0 {
			p.Rating = claims.Rating
		}
		if p.AvatarRef == "" {
			p.AvatarRef = claims.AvatarRef
		}
	}

	if h.ratings != nil && p.UserID != "" {
		stored, ok, err := h.ratings.Rating(ctx, p.UserID)
		switch {
		case err != nil:
			h.logger.Warn().Err(err).Str("user_id", p.UserID).Msg("rating lookup failed")
		case ok:
			p.Rating = stored
		}
	}
	if p.Rating <= 0 {
		p.Rating = defaultRating
	}
	return p
}

func (h *Handler) sendServiceError(connID, fallback string, err error) error {
	code, message := fallback, err.Error()
	switch {
	case errors.Is(err, ErrRoomNotFound):
		code = httperrors.ErrCodeRoomNotFound
	case errors.Is(err, ErrHostUnavailable):
		code = httperrors.ErrCodeHostUnavailable
	case errors.Is(err, ErrOwnRoom):
		code = httperrors.ErrCodeOwnRoom
	case errors.Is(err, question.ErrInsufficientSupply):
		code = httperrors.ErrCodeInsufficientSupply
	case errors.Is(err, ErrStoreUnavailable):
		code, message = httperrors.ErrCodeStoreUnavailable, "Match state is temporarily unavailable"
		h.logger.Error().Err(err).Str("connection_id", connID).Msg("store operation failed")
	}
	return h.sendError(connID, code, message)
}

func (h *Handler) sendError(connID, code, message string) error {
	msg, err := ws.NewMessage(ws.TypeGameError, ws.GameErrorPayload{Code: code, Message: message})
	if err != nil {
		return err
	}
	return h.hub.Send(connID, msg)
}
