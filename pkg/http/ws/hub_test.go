package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dialHub starts a server that registers every upgraded socket under id and returns the client side.
func dialHub(t *testing.T, hub *Hub, id string, handler func(Message) error) *websocket.Conn {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn := NewConnection(id, raw, zerolog.Nop())
		hub.Register(conn)
		go conn.WritePump()
		conn.ReadPump(handler)
		hub.Unregister(id)
	}))
	t.Cleanup(srv.Close)

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestHub_SendDeliversToClient(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	client := dialHub(t, hub, "c1", func(Message) error { return nil })

	require.Eventually(t, func() bool { return hub.Live("c1") }, 2*time.Second, 10*time.Millisecond)

	msg, err := NewMessage(TypePrivateRoomCreated, PrivateRoomCreatedPayload{RoomCode: "AB-123"})
	require.NoError(t, err)
	require.NoError(t, hub.Send("c1", msg))

	_ = client.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got Message
	require.NoError(t, client.ReadJSON(&got))
	assert.Equal(t, TypePrivateRoomCreated, got.Type)

	var payload PrivateRoomCreatedPayload
	require.NoError(t, got.Decode(&payload))
	assert.Equal(t, "AB-123", payload.RoomCode)
}

func TestHub_ReadPumpDispatches(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	received := make(chan Message, 1)
	client := dialHub(t, hub, "c2", func(m Message) error {
		received <- m
		return nil
	})

	require.NoError(t, client.WriteJSON(Message{Type: TypeFindMatch, Payload: []byte(`{"userId":"u1"}`)}))

	select {
	case m := <-received:
		assert.Equal(t, TypeFindMatch, m.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("message not dispatched")
	}
}

func TestHub_UnregisterOnClientClose(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	client := dialHub(t, hub, "c3", func(Message) error { return nil })
	require.Eventually(t, func() bool { return hub.Live("c3") }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, client.Close())

	require.Eventually(t, func() bool { return !hub.Live("c3") }, 2*time.Second, 10*time.Millisecond)
	assert.ErrorIs(t, hub.Send("c3", Message{Type: TypePong}), ErrConnectionNotFound)
}

func TestMessage_DecodeEmptyPayload(t *testing.T) {
	var p SubmitAnswerPayload
	assert.Error(t, Message{Type: TypeSubmitAnswer}.Decode(&p))

	msg, err := NewMessage(TypeWaitingForOpponent, nil)
	require.NoError(t, err)
	assert.Empty(t, msg.Payload)
}
