package match

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/trivia-duel/internal/db/repository"
	"github.com/gokatarajesh/trivia-duel/internal/leaderboard"
	"github.com/gokatarajesh/trivia-duel/internal/match/queue"
	"github.com/gokatarajesh/trivia-duel/internal/match/scoring"
	"github.com/gokatarajesh/trivia-duel/internal/question"
	"github.com/gokatarajesh/trivia-duel/internal/rating"
	httperrors "github.com/gokatarajesh/trivia-duel/pkg/http/errors"
	ws "github.com/gokatarajesh/trivia-duel/pkg/http/ws"
)

// Gateway delivers events to connected players.
type Gateway interface {
	Send(connID string, msg ws.Message) error
	Live(connID string) bool
}

// QuestionSource hands out question batches for new matches.
type QuestionSource interface {
	Take(n int) ([]question.Record, error)
}

// ResultRecorder persists ratings and summaries of a finished match.
type ResultRecorder interface {
	Settle(ctx context.Context, s repository.Settlement) error
}

// LeaderboardRecorder feeds finished matches into the period rankings.
type LeaderboardRecorder interface {
	RecordResult(ctx context.Context, req leaderboard.RecordRequest) error
}

// ServiceOptions configures the match service.
type ServiceOptions struct {
	QuestionsPerMatch int
	RoundDuration     time.Duration
	StartDelay        time.Duration
	ResultDelay       time.Duration
	RatingK           float64
	ScoringConfig     scoring.ScoringConfig
	Clock             clockwork.Clock
	// OpTimeout bounds store calls made from timer callbacks.
	OpTimeout time.Duration
}

// Service orchestrates matchmaking, the round loop, settlement and rematches.
type Service struct {
	gateway     Gateway
	questions   QuestionSource
	results     ResultRecorder
	leaderboard LeaderboardRecorder
	stateMgr    *StateManager
	queueMgr    *queue.Manager
	invites     *InviteManager
	rematches   *RematchStore
	metrics     *Metrics

	scorer  *scoring.Engine
	ratings rating.Engine
	timers  *Timers
	clock   clockwork.Clock
	rooms   *keyedMutex

	// queueMu makes pop-then-push on the waiting list atomic for this process.
	queueMu sync.Mutex

	sessionsMu sync.Mutex
	sessions   map[string]string

	questionsPerMatch int
	roundDuration     time.Duration
	startDelay        time.Duration
	resultDelay       time.Duration
	opTimeout         time.Duration

	logger zerolog.Logger
}

// NewService creates a match service with all dependencies.
func NewService(
	gateway Gateway,
	questions QuestionSource,
	results ResultRecorder,
	leaderboardRec LeaderboardRecorder,
	stateMgr *StateManager,
	queueMgr *queue.Manager,
	invites *InviteManager,
	rematches *RematchStore,
	metrics *Metrics,
	opts ServiceOptions,
	logger zerolog.Logger,
) *Service {
	scoringCfg := opts.ScoringConfig
	if scoringCfg.FastPoints == 0 {
		scoringCfg = scoring.DefaultScoringConfig()
	}
	if opts.QuestionsPerMatch <= 0 {
		opts.QuestionsPerMatch = 10
	}
	if opts.RoundDuration <= 0 {
		opts.RoundDuration = 16 * time.Second
	}
	if opts.OpTimeout <= 0 {
		opts.OpTimeout = 5 * time.Second
	}
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}

	return &Service{
		gateway:           gateway,
		questions:         questions,
		results:           results,
		leaderboard:       leaderboardRec,
		stateMgr:          stateMgr,
		queueMgr:          queueMgr,
		invites:           invites,
		rematches:         rematches,
		metrics:           metrics,
		scorer:            scoring.NewEngine(scoringCfg),
		ratings:           rating.NewEngine(opts.RatingK),
		timers:            NewTimers(clock),
		clock:             clock,
		rooms:             newKeyedMutex(),
		sessions:          make(map[string]string),
		questionsPerMatch: opts.QuestionsPerMatch,
		roundDuration:     opts.RoundDuration,
		startDelay:        opts.StartDelay,
		resultDelay:       opts.ResultDelay,
		opTimeout:         opts.OpTimeout,
		logger:            logger.With().Str("component", "match_service").Logger(),
	}
}

// Shutdown drops every pending round timer. In-flight matches stay in Redis.
func (s *Service) Shutdown() {
	s.timers.StopAll()
}

// RoomOf returns the room a connection is currently playing in.
func (s *Service) RoomOf(connID string) (string, bool) {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	room, ok := s.sessions[connID]
	return room, ok
}

// EndMatch forces a room to settle. disconnectedConnID names the leaver, or is empty.
func (s *Service) EndMatch(ctx context.Context, roomID, disconnectedConnID string) error {
	unlock := s.rooms.Lock(roomID)
	defer unlock()

	m, err := s.stateMgr.Get(ctx, roomID)
	if err != nil {
		return err
	}
	if m == nil {
		return nil
	}
	return s.endMatchLocked(ctx, m, disconnectedConnID)
}

// RecordAnswer stores a player's answer for the current round. Late, duplicate and
// foreign answers are ignored.
func (s *Service) RecordAnswer(ctx context.Context, connID, roomID, option string) error {
	unlock := s.rooms.Lock(roomID)
	defer unlock()

	m, err := s.stateMgr.Get(ctx, roomID)
	if err != nil {
		return err
	}
	if m == nil || m.State != StateAwaitingAnswers {
		return nil
	}
	seat := m.Seat(connID)
	if seat < 0 {
		return nil
	}
	if _, answered := m.Answers[connID]; answered {
		return nil
	}

	elapsed := s.clock.Since(m.RoundStartedAt)
	m.Answers[connID] = Answer{Option: option, ElapsedMs: elapsed.Milliseconds()}
	ok, err := s.stateMgr.SaveIf(ctx, m, StateAwaitingAnswers)
	if err != nil || !ok {
		return err
	}

	s.send(m.Players[1-seat].ConnectionID, ws.TypeOpponentAnswered, ws.OpponentAnsweredPayload{ConnectionID: connID})

	if len(m.Answers) == len(m.Players) {
		s.timers.Cancel(m.ID)
		return s.resolveRoundLocked(ctx, m, "both_answered")
	}
	return nil
}

// allocate creates the room document, announces the pairing and starts the match.
func (s *Service) allocate(ctx context.Context, roomID string, a, b Player) error {
	unlock := s.rooms.Lock(roomID)
	defer unlock()

	m := &Match{
		ID:      roomID,
		Players: [2]Player{a, b},
		State:   StateStarting,
		Answers: map[string]Answer{},
	}
	if err := s.stateMgr.Save(ctx, m); err != nil {
		return err
	}
	s.bind(m)

	s.broadcast(m, ws.TypeMatchFound, ws.MatchFoundPayload{Room: m.ID, Players: m.views()})
	s.logger.Info().
		Str("room", m.ID).
		Str("player1", a.UserID).
		Str("player2", b.UserID).
		Msg("match allocated")

	return s.startLocked(ctx, m)
}

func (s *Service) startLocked(ctx context.Context, m *Match) error {
	records, err := s.questions.Take(s.questionsPerMatch)
	if err != nil {
		cause := "supply"
		if !errors.Is(err, question.ErrInsufficientSupply) {
			cause = "unknown"
		}
		s.metrics.StartFailures.WithLabelValues(cause).Inc()
		s.logger.Warn().Err(err).Str("room", m.ID).Msg("match could not start")

		s.broadcastError(m, httperrors.ErrCodeInsufficientSupply, "Not enough questions to start a match")
		s.unbind(m)
		if err := s.stateMgr.Delete(ctx, m.ID); err != nil {
			s.logger.Warn().Err(err).Str("room", m.ID).Msg("failed to delete unstarted room")
		}
		return nil
	}

	m.Questions = records
	m.CurrentRound = 0
	for i := range m.Players {
		m.Players[i].Score = 0
	}
	m.State = StateInGame
	ok, err := s.stateMgr.SaveIf(ctx, m, StateStarting)
	if err != nil || !ok {
		return err
	}

	s.metrics.MatchesStarted.Inc()
	s.metrics.ActiveMatches.Inc()
	s.broadcast(m, ws.TypeMatchStarting, ws.MatchStartingPayload{Players: m.views()})

	roomID := m.ID
	s.timers.Arm(roomID, s.startDelay, func() { s.onRoundDue(roomID, 0) })
	return nil
}

// onRoundDue fires after the start delay and after each round result delay.
func (s *Service) onRoundDue(roomID string, round int) {
	ctx, cancel := context.WithTimeout(context.Background(), s.opTimeout)
	defer cancel()

	unlock := s.rooms.Lock(roomID)
	defer unlock()

	m, err := s.stateMgr.Get(ctx, roomID)
	if err != nil {
		s.logger.Error().Err(err).Str("room", roomID).Int("round", round).Msg("failed to load room for next round")
		return
	}
	if m == nil || m.State != StateInGame || m.CurrentRound != round {
		return
	}
	if err := s.beginRoundLocked(ctx, m); err != nil {
		s.storeFailure(m, err)
	}
}

func (s *Service) beginRoundLocked(ctx context.Context, m *Match) error {
	if m.CurrentRound >= len(m.Questions) {
		return s.endMatchLocked(ctx, m, "")
	}
	s.timers.Cancel(m.ID)

	q := m.Questions[m.CurrentRound]
	options := append([]string(nil), q.Options...)
	rand.Shuffle(len(options), func(i, j int) { options[i], options[j] = options[j], options[i] })

	m.Answers = map[string]Answer{}
	m.RoundStartedAt = s.clock.Now()
	m.State = StateAwaitingAnswers
	ok, err := s.stateMgr.SaveIf(ctx, m, StateInGame)
	if err != nil || !ok {
		return err
	}

	s.broadcast(m, ws.TypeNewQuestion, ws.NewQuestionPayload{
		Prompt:         q.Prompt,
		Options:        options,
		QuestionNumber: m.CurrentRound + 1,
		TotalQuestions: len(m.Questions),
	})

	roomID, round := m.ID, m.CurrentRound
	s.timers.Arm(roomID, s.roundDuration, func() { s.onDeadline(roomID, round) })
	return nil
}

func (s *Service) onDeadline(roomID string, round int) {
	ctx, cancel := context.WithTimeout(context.Background(), s.opTimeout)
	defer cancel()

	unlock := s.rooms.Lock(roomID)
	defer unlock()

	m, err := s.stateMgr.Get(ctx, roomID)
	if err != nil {
		s.logger.Error().Err(err).Str("room", roomID).Int("round", round).Msg("failed to load room at round deadline")
		return
	}
	if m == nil || m.State != StateAwaitingAnswers || m.CurrentRound != round {
		return
	}
	if err := s.resolveRoundLocked(ctx, m, "deadline"); err != nil {
		s.storeFailure(m, err)
	}
}

func (s *Service) resolveRoundLocked(ctx context.Context, m *Match, trigger string) error {
	if m.State != StateAwaitingAnswers || m.CurrentRound >= len(m.Questions) {
		return nil
	}
	m.State = StateProcessing
	ok, err := s.stateMgr.SaveIf(ctx, m, StateAwaitingAnswers)
	if err != nil || !ok {
		return err
	}
	s.timers.Cancel(m.ID)

	q := m.Questions[m.CurrentRound]
	var subs [2]scoring.Submission
	chosen := make(map[string]*string, len(m.Players))
	for i, p := range m.Players {
		a, answered := m.Answers[p.ConnectionID]
		if !answered {
			chosen[p.ConnectionID] = nil
			continue
		}
		option := a.Option
		chosen[p.ConnectionID] = &option
		subs[i] = scoring.Submission{
			Answered: true,
			Option:   a.Option,
			Elapsed:  time.Duration(a.ElapsedMs) * time.Millisecond,
		}
	}

	out := s.scorer.Resolve(q.CorrectOption, subs)
	var winnerID *string
	if out.Winner >= 0 {
		m.Players[out.Winner].Score += out.Award
		id := m.Players[out.Winner].ConnectionID
		winnerID = &id
	}

	m.CurrentRound++
	m.State = StateInGame
	ok, err = s.stateMgr.SaveIf(ctx, m, StateProcessing)
	if err != nil || !ok {
		return err
	}
	s.metrics.RoundsResolved.WithLabelValues(trigger).Inc()

	s.broadcast(m, ws.TypeRoundResult, ws.RoundResultPayload{
		Scores:        m.scores(),
		CorrectAnswer: q.CorrectOption,
		RoundWinnerID: winnerID,
		ChosenAnswers: chosen,
	})
	s.logger.Debug().
		Str("room", m.ID).
		Int("round", m.CurrentRound).
		Str("trigger", trigger).
		Int("winner", out.Winner).
		Msg("round resolved")

	roomID, next := m.ID, m.CurrentRound
	s.timers.Arm(roomID, s.resultDelay, func() { s.onRoundDue(roomID, next) })
	return nil
}

func (s *Service) endMatchLocked(ctx context.Context, m *Match, leaver string) error {
	if m.State == StateEnded {
		return nil
	}
	prev := m.State
	m.State = StateEnded
	ok, err := s.stateMgr.SaveIf(ctx, m, prev)
	if err != nil || !ok {
		return err
	}
	s.timers.Cancel(m.ID)
	s.unbind(m)
	if prev != StateStarting {
		s.metrics.ActiveMatches.Dec()
	}

	p1, p2 := m.Players[0], m.Players[1]
	leaverSeat := m.Seat(leaver)
	reason := "completed"
	var scoreA float64
	switch {
	case leaverSeat == 0:
		scoreA, reason = rating.Loss, "disconnect"
	case leaverSeat == 1:
		scoreA, reason = rating.Win, "disconnect"
	case p1.Score > p2.Score:
		scoreA = rating.Win
	case p1.Score < p2.Score:
		scoreA = rating.Loss
	default:
		scoreA = rating.Draw
	}
	newA, newB := s.ratings.Settle(p1.Rating, p2.Rating, scoreA)
	s.metrics.MatchesEnded.WithLabelValues(reason).Inc()

	s.persistResult(ctx, m, [2]int{newA, newB}, scoreA)

	// The leaver's connection is gone, so an offer after a disconnect could never be claimed.
	rematchAvailable := leaverSeat < 0
	if rematchAvailable {
		offer := RematchOffer{RoomName: m.ID, Players: m.Players}
		offer.Players[0].Rating, offer.Players[1].Rating = newA, newB
		offer.Players[0].Score, offer.Players[1].Score = 0, 0
		if err := s.rematches.Offer(ctx, offer); err != nil {
			s.logger.Warn().Err(err).Str("room", m.ID).Msg("failed to open rematch offer")
			rematchAvailable = false
		}
	}

	s.broadcast(m, ws.TypeGameOver, ws.GameOverPayload{
		Players: m.views(),
		RatingChanges: map[string]ws.RatingChange{
			p1.ConnectionID: {Old: p1.Rating, New: newA},
			p2.ConnectionID: {Old: p2.Rating, New: newB},
		},
		DisconnectedPlayerID: leaver,
		RematchAvailable:     rematchAvailable,
		RoomName:             m.ID,
	})

	s.logger.Info().
		Str("room", m.ID).
		Str("reason", reason).
		Int("score1", p1.Score).
		Int("score2", p2.Score).
		Int("rating1", newA).
		Int("rating2", newB).
		Msg("match ended")
	return nil
}

// persistResult writes the settlement and leaderboard entries. Failures are logged
// only; clients still get gameOver with the computed ratings.
func (s *Service) persistResult(ctx context.Context, m *Match, ratings [2]int, scoreA float64) {
	settlement := repository.Settlement{RoomID: m.ID, TotalRounds: len(m.Questions)}
	for i, p := range m.Players {
		settlement.Players[i] = repository.SettledPlayer{
			UserID:    p.UserID,
			Name:      p.Name,
			NewRating: ratings[i],
			Score:     p.Score,
		}
	}
	if s.results != nil {
		if err := s.results.Settle(ctx, settlement); err != nil {
			s.logger.Error().Err(err).Str("room", m.ID).Msg("failed to persist match result")
		}
	}

	if s.leaderboard == nil {
		return
	}
	won := [2]bool{scoreA == rating.Win, scoreA == rating.Loss}
	for i, p := range m.Players {
		err := s.leaderboard.RecordResult(ctx, leaderboard.RecordRequest{
			UserID:      p.UserID,
			DisplayName: p.Name,
			Score:       p.Score,
			Rounds:      len(m.Questions),
			Won:         won[i],
			RoomID:      m.ID,
		})
		if err != nil {
			s.logger.Warn().Err(err).Str("room", m.ID).Str("user_id", p.UserID).Msg("failed to record leaderboard result")
		}
	}
}

// storeFailure reports a failed timer-driven transition to both players. The room is
// left in its last persisted state.
func (s *Service) storeFailure(m *Match, err error) {
	s.logger.Error().Err(err).Str("room", m.ID).Int("round", m.CurrentRound).Msg("match transition failed")
	s.broadcastError(m, httperrors.ErrCodeStoreUnavailable, "Match state is temporarily unavailable")
}

func (s *Service) bind(m *Match) {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	for _, p := range m.Players {
		s.sessions[p.ConnectionID] = m.ID
	}
}

func (s *Service) unbind(m *Match) {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	for _, p := range m.Players {
		if s.sessions[p.ConnectionID] == m.ID {
			delete(s.sessions, p.ConnectionID)
		}
	}
}

func (s *Service) send(connID, msgType string, payload interface{}) {
	msg, err := ws.NewMessage(msgType, payload)
	if err != nil {
		s.logger.Error().Err(err).Str("type", msgType).Msg("failed to encode event")
		return
	}
	if err := s.gateway.Send(connID, msg); err != nil {
		s.logger.Debug().Err(err).Str("connection_id", connID).Str("type", msgType).Msg("event not delivered")
	}
}

func (s *Service) broadcast(m *Match, msgType string, payload interface{}) {
	for _, p := range m.Players {
		s.send(p.ConnectionID, msgType, payload)
	}
}

func (s *Service) sendError(connID, code, message string) {
	s.send(connID, ws.TypeGameError, ws.GameErrorPayload{Code: code, Message: message})
}

func (s *Service) broadcastError(m *Match, code, message string) {
	for _, p := range m.Players {
		s.sendError(p.ConnectionID, code, message)
	}
}

func pairRoomID(a, b string) string {
	return fmt.Sprintf("room-%s-%s", a, b)
}
