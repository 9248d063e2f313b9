package match

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateManager_SaveGetDelete(t *testing.T) {
	client, mr := newTestRedis(t)
	mgr := NewStateManager(client, zerolog.Nop(), time.Minute)
	ctx := context.Background()

	m, err := mgr.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, m)

	in := &Match{ID: "room-a-b", Players: [2]Player{player("a"), player("b")}, State: StateInGame}
	require.NoError(t, mgr.Save(ctx, in))
	assert.True(t, mr.Exists("room:room-a-b"))
	assert.Equal(t, time.Minute, mr.TTL("room:room-a-b"))

	out, err := mgr.Get(ctx, "room-a-b")
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, StateInGame, out.State)
	assert.Equal(t, "b", out.Players[1].ConnectionID)
	assert.NotNil(t, out.Answers)

	require.NoError(t, mgr.Delete(ctx, "room-a-b"))
	assert.False(t, mr.Exists("room:room-a-b"))
}

func TestStateManager_SaveIfComparesState(t *testing.T) {
	client, _ := newTestRedis(t)
	mgr := NewStateManager(client, zerolog.Nop(), 0)
	ctx := context.Background()

	m := &Match{ID: "r", Players: [2]Player{player("a"), player("b")}, State: StateAwaitingAnswers}
	ok, err := mgr.SaveIf(ctx, m, StateAwaitingAnswers)
	require.NoError(t, err)
	assert.False(t, ok, "missing room is never written")

	require.NoError(t, mgr.Save(ctx, m))

	m.State = StateProcessing
	ok, err = mgr.SaveIf(ctx, m, StateAwaitingAnswers)
	require.NoError(t, err)
	assert.True(t, ok)

	// The loser of the race sees PROCESSING and backs off.
	m.State = StateProcessing
	ok, err = mgr.SaveIf(ctx, m, StateAwaitingAnswers)
	require.NoError(t, err)
	assert.False(t, ok)

	stored, err := mgr.Get(ctx, "r")
	require.NoError(t, err)
	assert.Equal(t, StateProcessing, stored.State)
}

func TestStateManager_StoreDown(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mgr := NewStateManager(client, zerolog.Nop(), 0)

	_, err := mgr.Get(context.Background(), "r")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	err = mgr.Save(context.Background(), &Match{ID: "r"})
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}
