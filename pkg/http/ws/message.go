package ws

import (
	"encoding/json"
	"fmt"
)

// MessageType constants for the duel WebSocket protocol.
const (
	// Client -> Server
	TypeFindMatch         = "findMatch"
	TypeCreatePrivateRoom = "createPrivateRoom"
	TypeJoinPrivateRoom   = "joinPrivateRoom"
	TypeSubmitAnswer      = "submitAnswer"
	TypeRequestRematch    = "requestRematch"
	TypePing              = "ping"

	// Server -> Client
	TypeWaitingForOpponent         = "waitingForOpponent"
	TypeMatchFound                 = "matchFound"
	TypeMatchStarting              = "matchStarting"
	TypeNewQuestion                = "newQuestion"
	TypeOpponentAnswered           = "opponentAnswered"
	TypeRoundResult                = "roundResult"
	TypeGameOver                   = "gameOver"
	TypePrivateRoomCreated         = "privateRoomCreated"
	TypeGameError                  = "gameError"
	TypeRematchRequestedByOpponent = "rematchRequestedByOpponent"
	TypeLeaderboardUpdate          = "leaderboardUpdate"
	TypePong                       = "pong"
)

// Message wraps all WebSocket payloads with type and optional request ID.
type Message struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	RequestID string          `json:"requestId,omitempty"`
}

// NewMessage encodes payload into a Message. A nil payload yields a bare event.
func NewMessage(msgType string, payload interface{}) (Message, error) {
	msg := Message{Type: msgType}
	if payload == nil {
		return msg, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("encode %s payload: %w", msgType, err)
	}
	msg.Payload = data
	return msg, nil
}

// Decode unmarshals the payload into v.
func (m Message) Decode(v interface{}) error {
	if len(m.Payload) == 0 {
		return fmt.Errorf("%s: empty payload", m.Type)
	}
	if err := json.Unmarshal(m.Payload, v); err != nil {
		return fmt.Errorf("%s: %w", m.Type, err)
	}
	return nil
}

// Client Messages (incoming)

// PlayerPayload is the identity block sent with findMatch and private room events.
type PlayerPayload struct {
	UserID    string `json:"userId"`
	Name      string `json:"name"`
	Rating    int    `json:"rating"`
	AvatarRef string `json:"avatarRef,omitempty"`
}

type JoinPrivateRoomPayload struct {
	PlayerPayload
	RoomCode string `json:"roomCode"`
}

type SubmitAnswerPayload struct {
	Room   string `json:"room"`
	Answer string `json:"answer"`
}

type RequestRematchPayload struct {
	RoomName string `json:"roomName"`
}

// Server Messages (outgoing)

type PlayerView struct {
	ConnectionID string `json:"connectionId"`
	UserID       string `json:"userId"`
	Name         string `json:"name"`
	Rating       int    `json:"rating"`
	AvatarRef    string `json:"avatarRef,omitempty"`
	Score        int    `json:"score"`
}

type MatchFoundPayload struct {
	Room    string       `json:"room"`
	Players []PlayerView `json:"players"`
}

type MatchStartingPayload struct {
	Players []PlayerView `json:"players"`
}

type NewQuestionPayload struct {
	Prompt         string   `json:"prompt"`
	Options        []string `json:"options"`
	QuestionNumber int      `json:"questionNumber"`
	TotalQuestions int      `json:"totalQuestions"`
}

type OpponentAnsweredPayload struct {
	ConnectionID string `json:"connectionId"`
}

type RoundResultPayload struct {
	Scores        map[string]int     `json:"scores"`
	CorrectAnswer string             `json:"correctAnswer"`
	RoundWinnerID *string            `json:"roundWinnerId"`
	ChosenAnswers map[string]*string `json:"chosenAnswers"`
}

type RatingChange struct {
	Old int `json:"old"`
	New int `json:"new"`
}

type GameOverPayload struct {
	Players              []PlayerView            `json:"players"`
	RatingChanges        map[string]RatingChange `json:"ratingChanges"`
	DisconnectedPlayerID string                  `json:"disconnectedPlayerId,omitempty"`
	RematchAvailable     bool                    `json:"rematchAvailable"`
	RoomName             string                  `json:"roomName"`
}

type PrivateRoomCreatedPayload struct {
	RoomCode string `json:"roomCode"`
}

type GameErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type LeaderboardUpdatePayload struct {
	Window string             `json:"window"`
	Top    []LeaderboardEntry `json:"top"`
	RoomID string             `json:"roomId,omitempty"`
}

type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	Score       int    `json:"score"`
	Wins        int    `json:"wins"`
	Games       int    `json:"games"`
	Rounds      int    `json:"rounds"`
}
