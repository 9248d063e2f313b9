package match

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRematchStore_ConsentAndClaim(t *testing.T) {
	client, mr := newTestRedis(t)
	store := NewRematchStore(client, 2*time.Minute, time.Minute)
	ctx := context.Background()

	offer := RematchOffer{RoomName: "room-a-b", Players: [2]Player{player("a"), player("b")}}
	require.NoError(t, store.Offer(ctx, offer))
	assert.Equal(t, 2*time.Minute, mr.TTL("rematch:room-a-b"))

	require.NoError(t, store.Consent(ctx, "room-a-b", "a"))
	assert.Equal(t, time.Minute, mr.TTL("rematch_request:room-a-b:a"))

	ok, err := store.HasConsent(ctx, "room-a-b", "a")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = store.HasConsent(ctx, "room-a-b", "b")
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := store.Get(ctx, "room-a-b")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "b", got.Players[1].ConnectionID)

	claimed, err := store.Claim(ctx, "room-a-b", "a", "b")
	require.NoError(t, err)
	assert.True(t, claimed)
	assert.False(t, mr.Exists("rematch_request:room-a-b:a"))

	claimed, err = store.Claim(ctx, "room-a-b", "a", "b")
	require.NoError(t, err)
	assert.False(t, claimed, "only one claimer wins")
}

func TestRematchStore_ConsentExpires(t *testing.T) {
	client, mr := newTestRedis(t)
	store := NewRematchStore(client, 0, 0)
	ctx := context.Background()

	require.NoError(t, store.Consent(ctx, "r", "a"))
	mr.FastForward(61 * time.Second)

	ok, err := store.HasConsent(ctx, "r", "a")
	require.NoError(t, err)
	assert.False(t, ok)
}
