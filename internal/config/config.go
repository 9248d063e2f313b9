package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// App holds core runtime configuration shared across services.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"trivia-duel"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	LogLevel                string        `env:"LOG_LEVEL" envDefault:"info"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s"`

	Postgres    Postgres
	Redis       Redis
	Security    Security
	Runtime     Runtime
	Leaderboard Leaderboard
}

// Postgres captures connection info for the SQL database.
type Postgres struct {
	Host     string `env:"PG_HOST,notEmpty"`
	Port     int    `env:"PG_PORT" envDefault:"5432"`
	User     string `env:"PG_USER,notEmpty"`
	Password string `env:"PG_PASSWORD,notEmpty"`
	Database string `env:"PG_DATABASE,notEmpty"`
	SSLMode  string `env:"PG_SSL_MODE" envDefault:"disable"`
	MaxConns int    `env:"PG_MAX_CONNS" envDefault:"10"`
}

// DSN renders the key/value connection string understood by pgx.
func (p Postgres) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode)
}

// Redis holds match store configuration.
type Redis struct {
	Addr     string `env:"REDIS_ADDR,notEmpty"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"20"`
}

// Security stores the secret used to verify access tokens issued by the identity service.
type Security struct {
	JWTSecret string `env:"JWT_SECRET,notEmpty"`
	JWTIssuer string `env:"JWT_ISSUER" envDefault:""`
}

// Runtime groups gameplay timings and scoring.
type Runtime struct {
	QuestionsPerMatch   int           `env:"QUESTIONS_PER_MATCH" envDefault:"10"`
	RoundDuration       time.Duration `env:"ROUND_DURATION" envDefault:"16s"`
	MatchStartDelay     time.Duration `env:"MATCH_START_DELAY" envDefault:"3s"`
	RoundResultDelay    time.Duration `env:"ROUND_RESULT_DELAY" envDefault:"4s"`
	DeckRefreshInterval time.Duration `env:"DECK_REFRESH_INTERVAL" envDefault:"5m"`
	DeckLoadTimeout     time.Duration `env:"DECK_LOAD_TIMEOUT" envDefault:"10s"`
	RatingK             float64       `env:"RATING_K_FACTOR" envDefault:"32"`
	FastThreshold       time.Duration `env:"FAST_ANSWER_THRESHOLD" envDefault:"8s"`
	FastPoints          int           `env:"FAST_ANSWER_POINTS" envDefault:"12"`
	SlowPoints          int           `env:"SLOW_ANSWER_POINTS" envDefault:"8"`

	RoomTTL           time.Duration `env:"ROOM_TTL" envDefault:"10m"`
	RematchOfferTTL   time.Duration `env:"REMATCH_OFFER_TTL" envDefault:"2m"`
	RematchRequestTTL time.Duration `env:"REMATCH_REQUEST_TTL" envDefault:"1m"`
	InviteTTL         time.Duration `env:"PRIVATE_ROOM_TTL" envDefault:"5m"`
}

// Leaderboard governs ranking windows and broadcast behavior.
type Leaderboard struct {
	Channel string `env:"LEADERBOARD_CHANNEL" envDefault:"leaderboard:updates"`
	TopN    int    `env:"LEADERBOARD_TOP" envDefault:"10"`
}

// Load parses environment variables into App config.
func Load(ctx context.Context) (*App, error) {
	cfg := &App{}
	if err := env.ParseWithOptions(cfg, env.Options{RequiredIfNoDef: true}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Runtime.QuestionsPerMatch <= 0 {
		return nil, fmt.Errorf("parse config: QUESTIONS_PER_MATCH must be positive")
	}
	return cfg, nil
}
