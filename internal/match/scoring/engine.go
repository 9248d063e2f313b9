package scoring

import (
	"time"
)

// ScoringConfig holds the speed tiers awarded to a round winner.
type ScoringConfig struct {
	FastPoints    int           // default: 12
	SlowPoints    int           // default: 8
	FastThreshold time.Duration // default: 8s, inclusive
}

// DefaultScoringConfig returns production defaults.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		FastPoints:    12,
		SlowPoints:    8,
		FastThreshold: 8 * time.Second,
	}
}

// Engine decides round winners and awards with configurable constants.
type Engine struct {
	config ScoringConfig
}

// NewEngine creates a scoring engine with the provided config.
func NewEngine(config ScoringConfig) *Engine {
	return &Engine{config: config}
}

// Submission is one player's answer as seen by the scorer. Answered is false when the
// player let the round run out.
type Submission struct {
	Answered bool
	Option   string
	Elapsed  time.Duration
}

// Outcome of a resolved round. Winner is the index of the winning seat or -1.
type Outcome struct {
	Winner  int
	Award   int
	Correct [2]bool
}

// Points returns the award for a correct answer given after elapsed.
func (e *Engine) Points(elapsed time.Duration) int {
	if elapsed <= e.config.FastThreshold {
		return e.config.FastPoints
	}
	return e.config.SlowPoints
}

// Resolve scores a two-seat round. A missing answer counts as wrong. When both seats
// are correct only the faster one is awarded; equal times favour the second seat.
func (e *Engine) Resolve(correctOption string, subs [2]Submission) Outcome {
	out := Outcome{Winner: -1}
	for i, s := range subs {
		out.Correct[i] = s.Answered && s.Option == correctOption
	}

	switch {
	case out.Correct[0] && out.Correct[1]:
		if subs[0].Elapsed < subs[1].Elapsed {
			out.Winner = 0
		} else {
			out.Winner = 1
		}
	case out.Correct[0]:
		out.Winner = 0
	case out.Correct[1]:
		out.Winner = 1
	default:
		return out
	}

	out.Award = e.Points(subs[out.Winner].Elapsed)
	return out
}
