package match

import "github.com/prometheus/client_golang/prometheus"

// Metrics are the match orchestrator's Prometheus instruments.
type Metrics struct {
	QueueJoins     prometheus.Counter
	MatchesStarted prometheus.Counter
	MatchesEnded   *prometheus.CounterVec
	StartFailures  *prometheus.CounterVec
	RoundsResolved *prometheus.CounterVec
	ActiveMatches  prometheus.Gauge
}

// NewMetrics builds the instruments and registers them on reg when it is non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		QueueJoins: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "duel",
			Name:      "queue_joins_total",
			Help:      "Players that entered the public matchmaking queue.",
		}),
		MatchesStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "duel",
			Name:      "matches_started_total",
			Help:      "Matches that received a full question batch.",
		}),
		MatchesEnded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "duel",
			Name:      "matches_ended_total",
			Help:      "Matches settled, by reason.",
		}, []string{"reason"}),
		StartFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "duel",
			Name:      "match_start_failures_total",
			Help:      "Matches that could not start, by cause.",
		}, []string{"cause"}),
		RoundsResolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "duel",
			Name:      "rounds_resolved_total",
			Help:      "Rounds resolved, by what triggered resolution.",
		}, []string{"trigger"}),
		ActiveMatches: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "duel",
			Name:      "active_matches",
			Help:      "Matches started by this process and not yet settled.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.QueueJoins, m.MatchesStarted, m.MatchesEnded, m.StartFailures, m.RoundsResolved, m.ActiveMatches)
	}
	return m
}
