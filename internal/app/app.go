package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/trivia-duel/internal/auth/jwt"
	"github.com/gokatarajesh/trivia-duel/internal/config"
	"github.com/gokatarajesh/trivia-duel/internal/db/queries"
	"github.com/gokatarajesh/trivia-duel/internal/db/repository"
	"github.com/gokatarajesh/trivia-duel/internal/leaderboard"
	"github.com/gokatarajesh/trivia-duel/internal/logging"
	"github.com/gokatarajesh/trivia-duel/internal/match"
	matchqueue "github.com/gokatarajesh/trivia-duel/internal/match/queue"
	"github.com/gokatarajesh/trivia-duel/internal/match/scoring"
	"github.com/gokatarajesh/trivia-duel/internal/question"
	"github.com/gokatarajesh/trivia-duel/internal/server"
	ws "github.com/gokatarajesh/trivia-duel/pkg/http/ws"
)

// Application aggregates shared infrastructure (DB, cache, HTTP server).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool  *pgxpool.Pool
	redis *redis.Client
	http  *http.Server

	supply        *question.Supply
	refresher     *question.Refresher
	matchSvc      *match.Service
	lbBroadcaster *leaderboard.Broadcaster
	bgCancels     []context.CancelFunc
}

// New bootstraps configs, logger, Postgres, Redis and HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env, cfg.LogLevel)
	logger.Info().Msg("starting application bootstrap")

	poolCfg, err := pgxpool.ParseConfig(cfg.Postgres.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	if cfg.Postgres.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.Postgres.MaxConns)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	store := queries.NewStore(pool)
	questionRepo := repository.NewQuestionRepository(store)
	resultRepo := repository.NewResultRepository(store)

	tokens := jwt.NewManager(jwt.TokenConfig{
		Secret: []byte(cfg.Security.JWTSecret),
		Issuer: cfg.Security.JWTIssuer,
	})

	rt := cfg.Runtime
	supply := question.NewSupply(questionRepo, question.NewCache(redisClient, 0), logger, question.SupplyOptions{})
	refresher, err := question.NewRefresher(supply, rt.DeckRefreshInterval, rt.DeckLoadTimeout, logger)
	if err != nil {
		return nil, err
	}

	wsHub := ws.NewHub(logger)
	leaderboardSvc := leaderboard.NewService(redisClient, logger, leaderboard.ServiceOptions{
		TopN:          cfg.Leaderboard.TopN,
		PubSubChannel: cfg.Leaderboard.Channel,
	})

	matchSvc := match.NewService(
		wsHub,
		supply,
		resultRepo,
		leaderboardSvc,
		match.NewStateManager(redisClient, logger, rt.RoomTTL),
		matchqueue.NewManager(redisClient, logger),
		match.NewInviteManager(redisClient, logger, rt.InviteTTL),
		match.NewRematchStore(redisClient, rt.RematchOfferTTL, rt.RematchRequestTTL),
		match.NewMetrics(prometheus.DefaultRegisterer),
		match.ServiceOptions{
			QuestionsPerMatch: rt.QuestionsPerMatch,
			RoundDuration:     rt.RoundDuration,
			StartDelay:        rt.MatchStartDelay,
			ResultDelay:       rt.RoundResultDelay,
			RatingK:           rt.RatingK,
			ScoringConfig: scoring.ScoringConfig{
				FastPoints:    rt.FastPoints,
				SlowPoints:    rt.SlowPoints,
				FastThreshold: rt.FastThreshold,
			},
		},
		logger,
	)

	duelWS := match.NewHandler(matchSvc, wsHub, tokens, resultRepo, logger)
	historyHTTP := match.NewHTTPHandlers(resultRepo, logger)
	lbBroadcaster := leaderboard.NewBroadcaster(redisClient, wsHub, cfg.Leaderboard.Channel, logger)
	lbHTTPHandler := leaderboard.NewHTTPHandler(leaderboardSvc, resultRepo, logger)

	apiServer := server.NewHTTPServer(cfg, logger, pool, redisClient, server.Routes{
		DuelWS:      duelWS,
		Leaderboard: lbHTTPHandler.HandleGet,
		History:     historyHTTP.History,
		Auth:        tokens,
	})

	return &Application{
		cfg:           cfg,
		logger:        logger,
		pool:          pool,
		redis:         redisClient,
		http:          apiServer,
		supply:        supply,
		refresher:     refresher,
		matchSvc:      matchSvc,
		lbBroadcaster: lbBroadcaster,
		bgCancels:     make([]context.CancelFunc, 0, 2),
	}, nil
}

// Run loads the deck, starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	loadCtx, cancelLoad := context.WithTimeout(ctx, a.cfg.Runtime.DeckLoadTimeout)
	if err := a.supply.Refresh(loadCtx); err != nil {
		a.logger.Warn().Err(err).Msg("initial deck load failed; matches will fail until a refresh succeeds")
	}
	cancelLoad()

	errCh := make(chan error, 1)

	a.startBackgroundWorkers(ctx)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Int("deck_size", a.supply.Size()).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}

	a.matchSvc.Shutdown()
	for _, cancel := range a.bgCancels {
		cancel()
	}

	a.pool.Close()
	if err := a.redis.Close(); err != nil {
		a.logger.Error().Err(err).Msg("redis shutdown error")
	}

	a.logger.Info().Msg("shutdown complete")
	return nil
}

func (a *Application) startBackgroundWorkers(ctx context.Context) {
	a.spawn(ctx, "leaderboard broadcaster", a.lbBroadcaster.Run)
	a.spawn(ctx, "deck refresher", a.refresher.Run)
}

func (a *Application) spawn(ctx context.Context, name string, run func(context.Context) error) {
	bgCtx, cancel := context.WithCancel(ctx)
	a.bgCancels = append(a.bgCancels, cancel)
	go func() {
		if err := run(bgCtx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Warn().Err(err).Str("worker", name).Msg("background worker stopped")
		}
	}()
}
