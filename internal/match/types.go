package match

import (
	"time"

	"github.com/gokatarajesh/trivia-duel/internal/match/queue"
	"github.com/gokatarajesh/trivia-duel/internal/question"
	ws "github.com/gokatarajesh/trivia-duel/pkg/http/ws"
)

// State is the lifecycle position of a match.
type State string

// Match lifecycle states.
const (
	StateStarting        State = "STARTING"
	StateInGame          State = "IN_GAME"
	StateAwaitingAnswers State = "AWAITING_ANSWERS"
	StateProcessing      State = "PROCESSING"
	StateEnded           State = "ENDED"
)

// Player is one seat of a match. ConnectionID is the live socket, UserID the durable identity.
type Player struct {
	ConnectionID string `json:"connectionId"`
	UserID       string `json:"userId"`
	Name         string `json:"name"`
	Rating       int    `json:"rating"`
	AvatarRef    string `json:"avatarRef,omitempty"`
	Score        int    `json:"score"`
}

// Answer is a recorded submission for the current round.
type Answer struct {
	Option    string `json:"option"`
	ElapsedMs int64  `json:"elapsedMs"`
}

// Match is the authoritative room document stored under room:{id}.
type Match struct {
	ID             string            `json:"id"`
	Players        [2]Player         `json:"players"`
	State          State             `json:"state"`
	Questions      []question.Record `json:"questions"`
	CurrentRound   int               `json:"currentRound"`
	Answers        map[string]Answer `json:"answers"`
	RoundStartedAt time.Time         `json:"roundStartedAt"`
}

// Seat returns the index of connID in Players, or -1.
func (m *Match) Seat(connID string) int {
	for i, p := range m.Players {
		if p.ConnectionID == connID {
			return i
		}
	}
	return -1
}

func (m *Match) views() []ws.PlayerView {
	return []ws.PlayerView{m.Players[0].View(), m.Players[1].View()}
}

func (m *Match) scores() map[string]int {
	return map[string]int{
		m.Players[0].ConnectionID: m.Players[0].Score,
		m.Players[1].ConnectionID: m.Players[1].Score,
	}
}

// View renders the player for the wire.
func (p Player) View() ws.PlayerView {
	return ws.PlayerView{
		ConnectionID: p.ConnectionID,
		UserID:       p.UserID,
		Name:         p.Name,
		Rating:       p.Rating,
		AvatarRef:    p.AvatarRef,
		Score:        p.Score,
	}
}

func (p Player) entry() queue.Entry {
	return queue.Entry{
		ConnectionID: p.ConnectionID,
		UserID:       p.UserID,
		Name:         p.Name,
		Rating:       p.Rating,
		AvatarRef:    p.AvatarRef,
	}
}

func playerFromEntry(e queue.Entry) Player {
	return Player{
		ConnectionID: e.ConnectionID,
		UserID:       e.UserID,
		Name:         e.Name,
		Rating:       e.Rating,
		AvatarRef:    e.AvatarRef,
	}
}
