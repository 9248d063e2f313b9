package queue

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*Manager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewManager(client, zerolog.Nop()), mr
}

func TestManager_FIFO(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	got, err := m.Pop(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, m.Push(ctx, Entry{ConnectionID: "a", UserID: "u1"}))
	require.NoError(t, m.Push(ctx, Entry{ConnectionID: "b", UserID: "u2"}))
	require.NoError(t, m.PushFront(ctx, Entry{ConnectionID: "c", UserID: "u3"}))

	for _, want := range []string{"c", "a", "b"} {
		got, err := m.Pop(ctx)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, want, got.ConnectionID)
	}
}

func TestManager_PopSkipsMalformed(t *testing.T) {
	m, mr := newTestManager(t)
	ctx := context.Background()

	_, err := mr.Push(WaitingKey, "{not json")
	require.NoError(t, err)
	require.NoError(t, m.Push(ctx, Entry{ConnectionID: "a"}))

	got, err := m.Pop(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "a", got.ConnectionID)
}

func TestManager_Remove(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, m.Push(ctx, Entry{ConnectionID: "a"}))
	require.NoError(t, m.Push(ctx, Entry{ConnectionID: "b"}))
	require.NoError(t, m.Push(ctx, Entry{ConnectionID: "a"}))

	removed, err := m.Remove(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	n, err := m.Len(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
