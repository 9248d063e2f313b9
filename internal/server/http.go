package server

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/trivia-duel/internal/auth"
	"github.com/gokatarajesh/trivia-duel/internal/config"
	"github.com/gokatarajesh/trivia-duel/internal/logging"
)

// Pinger is a dependency that can report liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// Routes groups the handlers mounted by NewHTTPServer. Nil entries are skipped.
type Routes struct {
	DuelWS      http.Handler
	Leaderboard http.HandlerFunc
	History     http.HandlerFunc
	Auth        auth.TokenValidator
	Gatherer    prometheus.Gatherer
}

// NewHTTPServer wires base routes (health, metrics, ping) and the duel endpoints.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, pool *pgxpool.Pool, redisClient *redis.Client, routes Routes) *http.Server {
	var deps []Pinger
	if pool != nil {
		deps = append(deps, pool)
	}
	if redisClient != nil {
		deps = append(deps, redisPinger{client: redisClient})
	}
	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: newMux(logger, deps, routes),
	}
}

func newMux(logger zerolog.Logger, deps []Pinger, routes Routes) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	gatherer := routes.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	mux.HandleFunc("/v1/ping", func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.IntoContext(r.Context(), logger)
		if err := pingDependencies(ctx, deps); err != nil {
			l := logging.FromContext(ctx)
			l.Error().Err(err).Msg("dependency ping failed")
			http.Error(w, "upstream error", http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"pong":true}`))
	})

	if routes.DuelWS != nil {
		mux.Handle("/ws/duel", routes.DuelWS)
	} else {
		mux.HandleFunc("/ws/duel", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "WebSocket handler not yet integrated", http.StatusNotImplemented)
		})
	}

	if routes.Leaderboard != nil {
		mux.HandleFunc("/v1/leaderboards/", routes.Leaderboard)
	}

	if routes.History != nil && routes.Auth != nil {
		authenticated := auth.AuthMiddleware(routes.Auth, logger)
		mux.Handle("/v1/matches/history", authenticated(auth.RequireAuth(routes.History)))
	}

	return mux
}

func pingDependencies(ctx context.Context, deps []Pinger) error {
	for _, dep := range deps {
		if err := dep.Ping(ctx); err != nil {
			return err
		}
	}
	return nil
}
