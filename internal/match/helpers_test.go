package match

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/trivia-duel/internal/db/repository"
	"github.com/gokatarajesh/trivia-duel/internal/leaderboard"
	"github.com/gokatarajesh/trivia-duel/internal/match/queue"
	"github.com/gokatarajesh/trivia-duel/internal/question"
	ws "github.com/gokatarajesh/trivia-duel/pkg/http/ws"
)

func newTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

type fakeGateway struct {
	mu   sync.Mutex
	dead map[string]bool
	sent map[string][]ws.Message
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{dead: map[string]bool{}, sent: map[string][]ws.Message{}}
}

func (g *fakeGateway) Send(connID string, msg ws.Message) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sent[connID] = append(g.sent[connID], msg)
	return nil
}

func (g *fakeGateway) Live(connID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return !g.dead[connID]
}

func (g *fakeGateway) kill(connID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.dead[connID] = true
}

func (g *fakeGateway) events(connID, msgType string) []ws.Message {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []ws.Message
	for _, msg := range g.sent[connID] {
		if msg.Type == msgType {
			out = append(out, msg)
		}
	}
	return out
}

func (g *fakeGateway) count(connID, msgType string) int {
	return len(g.events(connID, msgType))
}

func lastPayload[T any](t *testing.T, g *fakeGateway, connID, msgType string) T {
	t.Helper()
	events := g.events(connID, msgType)
	require.NotEmpty(t, events, "no %s for %s", msgType, connID)
	var v T
	require.NoError(t, json.Unmarshal(events[len(events)-1].Payload, &v))
	return v
}

// staticDeck serves numbered questions whose correct option is always "A".
type staticDeck struct {
	size int
}

func (d staticDeck) Take(n int) ([]question.Record, error) {
	if d.size < n {
		return nil, question.ErrInsufficientSupply
	}
	records := make([]question.Record, n)
	for i := range records {
		records[i] = question.Record{
			Topic:         question.DefaultTopic,
			Prompt:        fmt.Sprintf("Question %d?", i+1),
			Options:       []string{"A", "B", "C", "D"},
			CorrectOption: "A",
		}
	}
	return records, nil
}

type stubResults struct {
	mu      sync.Mutex
	settled []repository.Settlement
	err     error
}

func (s *stubResults) Settle(_ context.Context, st repository.Settlement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settled = append(s.settled, st)
	return s.err
}

func (s *stubResults) all() []repository.Settlement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]repository.Settlement(nil), s.settled...)
}

type stubLeaderboard struct {
	mu       sync.Mutex
	recorded []leaderboard.RecordRequest
}

func (s *stubLeaderboard) RecordResult(_ context.Context, req leaderboard.RecordRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recorded = append(s.recorded, req)
	return nil
}

func (s *stubLeaderboard) all() []leaderboard.RecordRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]leaderboard.RecordRequest(nil), s.recorded...)
}

const (
	testStartDelay  = 3 * time.Second
	testRoundLength = 16 * time.Second
	testResultDelay = 4 * time.Second
)

type harness struct {
	svc     *Service
	gw      *fakeGateway
	clock   *clockwork.FakeClock
	results *stubResults
	board   *stubLeaderboard
	queue   *queue.Manager
	redis   *redis.Client
}

func newHarness(t *testing.T, deckSize, perMatch int) *harness {
	t.Helper()
	client, _ := newTestRedis(t)
	logger := zerolog.Nop()

	h := &harness{
		gw:      newFakeGateway(),
		clock:   clockwork.NewFakeClock(),
		results: &stubResults{},
		board:   &stubLeaderboard{},
		queue:   queue.NewManager(client, logger),
		redis:   client,
	}
	h.svc = NewService(
		h.gw,
		staticDeck{size: deckSize},
		h.results,
		h.board,
		NewStateManager(client, logger, 0),
		h.queue,
		NewInviteManager(client, logger, 0),
		NewRematchStore(client, 0, 0),
		nil,
		ServiceOptions{
			QuestionsPerMatch: perMatch,
			RoundDuration:     testRoundLength,
			StartDelay:        testStartDelay,
			ResultDelay:       testResultDelay,
			RatingK:           32,
			Clock:             h.clock,
		},
		logger,
	)
	t.Cleanup(h.svc.Shutdown)
	return h
}

func player(connID string) Player {
	return Player{ConnectionID: connID, UserID: "user-" + connID, Name: "Player " + connID, Rating: 1000}
}

func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 5*time.Millisecond, msg)
}

// pair queues a, then b, so the room is room-b-a with b in the first seat.
func (h *harness) pair(t *testing.T, a, b string) string {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, h.svc.FindMatch(ctx, player(a)))
	require.NoError(t, h.svc.FindMatch(ctx, player(b)))
	found := lastPayload[ws.MatchFoundPayload](t, h.gw, a, ws.TypeMatchFound)
	return found.Room
}

// advanceToRound moves the clock by d and waits until question number round is on
// both screens and its deadline is armed.
func (h *harness) advanceToRound(t *testing.T, d time.Duration, round int, a, b string) {
	t.Helper()
	h.clock.Advance(d)
	eventually(t, func() bool {
		return h.gw.count(a, ws.TypeNewQuestion) == round &&
			h.gw.count(b, ws.TypeNewQuestion) == round &&
			h.svc.timers.Pending() == 1
	}, fmt.Sprintf("question %d not delivered", round))
}
