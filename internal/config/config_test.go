package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("PG_HOST", "localhost")
	t.Setenv("PG_USER", "duel")
	t.Setenv("PG_PASSWORD", "secret")
	t.Setenv("PG_DATABASE", "duel")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("JWT_SECRET", "shh")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Runtime.QuestionsPerMatch)
	assert.Equal(t, 16*time.Second, cfg.Runtime.RoundDuration)
	assert.Equal(t, 3*time.Second, cfg.Runtime.MatchStartDelay)
	assert.Equal(t, 4*time.Second, cfg.Runtime.RoundResultDelay)
	assert.Equal(t, 5*time.Minute, cfg.Runtime.DeckRefreshInterval)
	assert.Equal(t, 32.0, cfg.Runtime.RatingK)
	assert.Equal(t, 10*time.Minute, cfg.Runtime.RoomTTL)
	assert.Equal(t, 2*time.Minute, cfg.Runtime.RematchOfferTTL)
	assert.Equal(t, time.Minute, cfg.Runtime.RematchRequestTTL)
	assert.Equal(t, 5*time.Minute, cfg.Runtime.InviteTTL)
	assert.Equal(t, "host=localhost port=5432 user=duel password=secret dbname=duel sslmode=disable", cfg.Postgres.DSN())
}

func TestLoadMissingRequired(t *testing.T) {
	setRequired(t)
	t.Setenv("JWT_SECRET", "")

	_, err := Load(context.Background())
	assert.Error(t, err)
}

func TestLoadRejectsEmptyMatch(t *testing.T) {
	setRequired(t)
	t.Setenv("QUESTIONS_PER_MATCH", "0")

	_, err := Load(context.Background())
	assert.Error(t, err)
}
