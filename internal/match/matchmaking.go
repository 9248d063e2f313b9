package match

import (
	"context"
	"fmt"

	ws "github.com/gokatarajesh/trivia-duel/pkg/http/ws"
)

// FindMatch pairs the player with the oldest waiting opponent, or queues them.
func (s *Service) FindMatch(ctx context.Context, player Player) error {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()

	s.metrics.QueueJoins.Inc()
	self := player.entry()

	opponent, err := s.queueMgr.Pop(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	switch {
	case opponent == nil:
		if err := s.queueMgr.Push(ctx, self); err != nil {
			return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}
		s.send(self.ConnectionID, ws.TypeWaitingForOpponent, nil)
		return nil

	case opponent.ConnectionID == self.ConnectionID:
		// Our own stale entry: keep a single copy waiting.
		if err := s.queueMgr.Push(ctx, *opponent); err != nil {
			return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}
		s.send(self.ConnectionID, ws.TypeWaitingForOpponent, nil)
		return nil

	case !s.gateway.Live(opponent.ConnectionID):
		s.logger.Debug().Str("connection_id", opponent.ConnectionID).Msg("discarding dead queue entry")
		if err := s.queueMgr.PushFront(ctx, self); err != nil {
			return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}
		s.send(self.ConnectionID, ws.TypeWaitingForOpponent, nil)
		return nil

	case s.seated(opponent.ConnectionID):
		s.logger.Debug().Str("connection_id", opponent.ConnectionID).Msg("discarding queue entry of seated player")
		if err := s.queueMgr.PushFront(ctx, self); err != nil {
			return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}
		s.send(self.ConnectionID, ws.TypeWaitingForOpponent, nil)
		return nil
	}

	opp := playerFromEntry(*opponent)
	s.dequeue(ctx, player, opp)
	roomID := pairRoomID(self.ConnectionID, opponent.ConnectionID)
	return s.allocate(ctx, roomID, player, opp)
}

// CreatePrivateRoom stores an invite for host and returns its code.
func (s *Service) CreatePrivateRoom(ctx context.Context, host Player) (string, error) {
	code, err := s.invites.Create(ctx, host.entry())
	if err != nil {
		return "", err
	}
	s.send(host.ConnectionID, ws.TypePrivateRoomCreated, ws.PrivateRoomCreatedPayload{RoomCode: code})
	return code, nil
}

// JoinPrivateRoom consumes the invite behind code and starts a match with its host.
func (s *Service) JoinPrivateRoom(ctx context.Context, joiner Player, code string) error {
	code = NormalizeCode(code)
	if !ValidCode(code) {
		return ErrRoomNotFound
	}

	host, err := s.invites.Get(ctx, code)
	if err != nil {
		return err
	}
	if host == nil {
		return ErrRoomNotFound
	}
	if host.ConnectionID == joiner.ConnectionID {
		return ErrOwnRoom
	}
	if !s.gateway.Live(host.ConnectionID) {
		return ErrHostUnavailable
	}

	claimed, err := s.invites.Claim(ctx, code)
	if err != nil {
		return err
	}
	if claimed == nil {
		return ErrRoomNotFound
	}

	hostPlayer := playerFromEntry(*claimed)
	s.queueMu.Lock()
	s.dequeue(ctx, joiner, hostPlayer)
	s.queueMu.Unlock()

	roomID := pairRoomID(joiner.ConnectionID, claimed.ConnectionID)
	return s.allocate(ctx, roomID, joiner, hostPlayer)
}

// RequestRematch records the player's consent. When the opponent already agreed the
// offer is consumed and a fresh match starts.
func (s *Service) RequestRematch(ctx context.Context, connID, roomName string) error {
	unlock := s.rooms.Lock(rematchKey(roomName))
	defer unlock()

	if err := s.rematches.Consent(ctx, roomName, connID); err != nil {
		return err
	}

	offer, err := s.rematches.Get(ctx, roomName)
	if err != nil {
		return err
	}
	if offer == nil {
		return nil
	}
	seat := -1
	for i, p := range offer.Players {
		if p.ConnectionID == connID {
			seat = i
		}
	}
	if seat < 0 {
		return nil
	}
	opponent := offer.Players[1-seat]

	agreed, err := s.rematches.HasConsent(ctx, roomName, opponent.ConnectionID)
	if err != nil {
		return err
	}
	if !agreed {
		s.send(opponent.ConnectionID, ws.TypeRematchRequestedByOpponent, nil)
		return nil
	}

	claimed, err := s.rematches.Claim(ctx, roomName, offer.Players[0].ConnectionID, offer.Players[1].ConnectionID)
	if err != nil || !claimed {
		return err
	}
	p1, p2 := offer.Players[0], offer.Players[1]
	if !s.gateway.Live(p1.ConnectionID) || !s.gateway.Live(p2.ConnectionID) {
		s.logger.Debug().Str("room", roomName).Msg("rematch agreed but a player is gone")
		return nil
	}

	s.queueMu.Lock()
	s.dequeue(ctx, p1, p2)
	s.queueMu.Unlock()

	roomID := fmt.Sprintf("%s-%d", pairRoomID(p1.ConnectionID, p2.ConnectionID), s.clock.Now().UnixMilli())
	return s.allocate(ctx, roomID, p1, p2)
}

// HandleDisconnect removes the connection from the queue and forfeits its match.
func (s *Service) HandleDisconnect(ctx context.Context, connID string) error {
	s.queueMu.Lock()
	removed, err := s.queueMgr.Remove(ctx, connID)
	s.queueMu.Unlock()
	if err != nil {
		s.logger.Warn().Err(err).Str("connection_id", connID).Msg("failed to clear queue entries")
	} else if removed > 0 {
		s.logger.Debug().Str("connection_id", connID).Int("removed", removed).Msg("queue entries cleared")
	}

	roomID, ok := s.RoomOf(connID)
	if !ok {
		return nil
	}
	return s.EndMatch(ctx, roomID, connID)
}

// dequeue drops any waiting entries of players about to be seated. Callers hold queueMu.
func (s *Service) dequeue(ctx context.Context, players ...Player) {
	for _, p := range players {
		if _, err := s.queueMgr.Remove(ctx, p.ConnectionID); err != nil {
			s.logger.Warn().Err(err).Str("connection_id", p.ConnectionID).Msg("failed to clear queue entries")
		}
	}
}

func (s *Service) seated(connID string) bool {
	_, ok := s.RoomOf(connID)
	return ok
}
