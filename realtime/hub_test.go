package realtime

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dialTestHub starts a websocket server backed by a running hub and
// connects one client to it
func dialTestHub(t *testing.T) (*Hub, *websocket.Conn) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub()
	go hub.Run()

	router := gin.New()
	router.GET("/ws", ServeWS(hub))

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return hub, conn
}

func TestHubBroadcastReachesListener(t *testing.T) {
	hub, conn := dialTestHub(t)

	// Registration races the broadcast; give the hub a moment to accept
	// the client before emitting.
	time.Sleep(50 * time.Millisecond)

	hub.Broadcast("newMessage", map[string]string{"content": "hello"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var event Event
	require.NoError(t, json.Unmarshal(raw, &event))
	assert.Equal(t, "newMessage", event.Event)

	data, ok := event.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "hello", data["content"])
}

func TestHubBroadcastFansOut(t *testing.T) {
	hub, first := dialTestHub(t)

	// Second listener on the same hub.
	router := gin.New()
	router.GET("/ws", ServeWS(hub))
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	second, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { second.Close() })

	time.Sleep(50 * time.Millisecond)

	hub.Broadcast("newMessage", map[string]string{"content": "to everyone"})

	for _, conn := range []*websocket.Conn{first, second} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err)

		var event Event
		require.NoError(t, json.Unmarshal(raw, &event))
		assert.Equal(t, "newMessage", event.Event)
	}
}

func TestHubSurvivesDisconnectedListener(t *testing.T) {
	hub, conn := dialTestHub(t)

	time.Sleep(50 * time.Millisecond)
	conn.Close()
	time.Sleep(50 * time.Millisecond)

	// Broadcasting after the listener dropped must not panic or block.
	hub.Broadcast("newMessage", map[string]string{"content": "nobody listening"})
}

func TestBroadcastSkipsUnencodablePayload(t *testing.T) {
	hub := NewHub()

	// Channels cannot be marshalled; the event is dropped, not queued.
	hub.Broadcast("newMessage", make(chan int))

	select {
	case <-hub.broadcast:
		t.Fatal("unencodable payload should not be queued")
	default:
	}
}
