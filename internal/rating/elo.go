// Package rating implements the Elo update applied to both players when a duel ends.
package rating

import "math"

// DefaultK is the update factor used unless configured otherwise.
const DefaultK = 32

// Outcome values for the observed score of a single player.
const (
	Loss = 0.0
	Draw = 0.5
	Win  = 1.0
)

// Expected returns the probability that player beats opponent.
func Expected(player, opponent int) float64 {
	return 1 / (1 + math.Pow(10, float64(opponent-player)/400))
}

// Next returns the player's new rating after observing score against opponent.
func Next(player, opponent int, score float64) int {
	return NextWithK(player, opponent, score, DefaultK)
}

// NextWithK is Next with an explicit update factor.
func NextWithK(player, opponent int, score, k float64) int {
	return int(math.Round(float64(player) + k*(score-Expected(player, opponent))))
}

// Engine applies a fixed K factor.
type Engine struct {
	K float64
}

// NewEngine returns an engine using k, falling back to DefaultK when k is not positive.
func NewEngine(k float64) Engine {
	if k <= 0 {
		k = DefaultK
	}
	return Engine{K: k}
}

// Settle computes both new ratings for a finished duel. scoreA is the first player's
// observed score; the second player observes 1-scoreA.
func (e Engine) Settle(ratingA, ratingB int, scoreA float64) (int, int) {
	return NextWithK(ratingA, ratingB, scoreA, e.K), NextWithK(ratingB, ratingA, 1-scoreA, e.K)
}
