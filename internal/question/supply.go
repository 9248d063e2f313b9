package question

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/trivia-duel/internal/db/queries"
)

// SnapshotCache persists the last good deck outside the process.
type SnapshotCache interface {
	Load(ctx context.Context) ([]Record, error)
	Save(ctx context.Context, records []Record) error
}

type bankLoader interface {
	LoadAll(ctx context.Context) ([]queries.Question, error)
}

// SupplyOptions tunes a Supply. Zero values pick production defaults.
type SupplyOptions struct {
	// Rand overrides the shuffle source, mainly for tests.
	Rand *rand.Rand
}

// Supply is the in-memory shuffled deck every match draws from. Draws walk a cursor
// through the deck and reshuffle once the tail is too short, so within one shuffle
// no two batches overlap.
type Supply struct {
	loader    bankLoader
	cache     SnapshotCache
	sanitizer *Sanitizer
	logger    zerolog.Logger

	mu     sync.Mutex
	deck   []Record
	cursor int
	rng    *rand.Rand
}

// NewSupply builds an empty supply. cache may be nil.
func NewSupply(loader bankLoader, cache SnapshotCache, logger zerolog.Logger, opts SupplyOptions) *Supply {
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Supply{
		loader:    loader,
		cache:     cache,
		sanitizer: NewSanitizer(),
		logger:    logger.With().Str("component", "question_supply").Logger(),
		rng:       rng,
	}
}

// Refresh reloads the bank. On failure the current deck is kept; a process with no
// deck yet falls back to the Redis snapshot.
func (s *Supply) Refresh(ctx context.Context) error {
	rows, err := s.loader.LoadAll(ctx)
	if err != nil {
		if s.Size() == 0 && s.cache != nil {
			if snap, cerr := s.cache.Load(ctx); cerr == nil && len(snap) > 0 {
				s.install(snap)
				s.logger.Warn().Err(err).Int("size", len(snap)).Msg("bank unavailable, deck restored from snapshot")
				return nil
			}
		}
		return fmt.Errorf("refresh deck: %w", err)
	}

	records := make([]Record, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		rec, err := s.sanitizer.Normalize(row)
		if err != nil {
			dropped++
			s.logger.Debug().Err(err).Int64("question_id", row.QuestionID).Msg("dropping question")
			continue
		}
		records = append(records, rec)
	}

	s.install(records)
	s.logger.Info().Int("size", len(records)).Int("dropped", dropped).Msg("deck refreshed")

	if s.cache != nil && len(records) > 0 {
		if err := s.cache.Save(ctx, records); err != nil {
			s.logger.Warn().Err(err).Msg("deck snapshot not saved")
		}
	}
	return nil
}

// Take returns the next n questions, reshuffling first if fewer than n remain past the cursor.
func (s *Supply) Take(n int) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.deck) < n {
		return nil, fmt.Errorf("%w: need %d, have %d", ErrInsufficientSupply, n, len(s.deck))
	}
	if s.cursor+n > len(s.deck) {
		s.shuffleLocked()
	}

	batch := make([]Record, n)
	for i := range batch {
		batch[i] = s.deck[s.cursor+i].Clone()
	}
	s.cursor += n
	return batch, nil
}

// Size reports how many records the deck holds.
func (s *Supply) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.deck)
}

func (s *Supply) install(records []Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deck = records
	s.shuffleLocked()
}

// shuffleLocked is a Fisher-Yates pass over the deck; it also rewinds the cursor.
func (s *Supply) shuffleLocked() {
	s.rng.Shuffle(len(s.deck), func(i, j int) {
		s.deck[i], s.deck[j] = s.deck[j], s.deck[i]
	})
	s.cursor = 0
}
