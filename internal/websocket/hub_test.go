package websocket_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"story-playback/internal/websocket"

	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var upgrader = ws.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

func serve(t *testing.T, hub *websocket.Hub, handle websocket.CommandHandler) *ws.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := websocket.NewClient(r.URL.Query().Get("session"), hub, conn, handle)
		hub.RegisterClient(client)
		go client.WritePump()
		go client.ReadPump()
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?session=s1"
	conn, _, err := ws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func runHub(t *testing.T) *websocket.Hub {
	t.Helper()
	hub := websocket.NewHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		hub.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return hub
}

func readJSON(t *testing.T, conn *ws.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestPublishReachesSubscribers(t *testing.T) {
	hub := runHub(t)
	conn := serve(t, hub, nil)

	require.Eventually(t, func() bool { return hub.Subscribers("s1") == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Publish("other", map[string]string{"event": "ignored"})
	hub.Publish("s1", map[string]string{"event": "segment_started"})

	msg := readJSON(t, conn)
	assert.Equal(t, "segment_started", msg["event"])
}

func TestCommandsGetReplies(t *testing.T) {
	hub := runHub(t)
	got := make(chan websocket.Command, 8)
	conn := serve(t, hub, func(cmd websocket.Command) (any, error) {
		got <- cmd
		if cmd.Action == "boom" {
			return nil, errors.New("unknown action")
		}
		return map[string]string{"ack": cmd.Action}, nil
	})

	require.NoError(t, conn.WriteJSON(websocket.Command{Action: "tap", X: 250, Width: 300}))
	assert.Equal(t, "tap", readJSON(t, conn)["ack"])

	require.NoError(t, conn.WriteJSON(websocket.Command{Action: "boom"}))
	reply := readJSON(t, conn)
	assert.Equal(t, "error", reply["type"])
	assert.Equal(t, "unknown action", reply["error"])

	require.NoError(t, conn.WriteMessage(ws.TextMessage, []byte("{")))
	assert.Equal(t, "malformed command", readJSON(t, conn)["error"])

	require.Len(t, got, 2)
	first := <-got
	assert.InDelta(t, 250, first.X, 1e-9)
	assert.InDelta(t, 300, first.Width, 1e-9)
}

func TestDisconnectUnregisters(t *testing.T) {
	hub := runHub(t)
	conn := serve(t, hub, nil)
	require.Eventually(t, func() bool { return hub.Subscribers("s1") == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Subscribers("s1") == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestPublishWithoutSubscribersDoesNotBlock(t *testing.T) {
	hub := websocket.NewHub(nil)
	for i := 0; i < 1000; i++ {
		hub.Publish("s1", i)
	}
	assert.Zero(t, hub.Subscribers("s1"))
}

func TestCloseSessionDisconnectsAfterQueuedMessages(t *testing.T) {
	hub := runHub(t)
	conn := serve(t, hub, nil)
	require.Eventually(t, func() bool { return hub.Subscribers("s1") == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Publish("s1", map[string]string{"event": "closed"})
	hub.CloseSession("s1")

	assert.Equal(t, "closed", readJSON(t, conn)["event"])

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, ws.IsCloseError(err, ws.CloseNormalClosure, ws.CloseNoStatusReceived), "got %v", err)
	assert.Zero(t, hub.Subscribers("s1"))
}
