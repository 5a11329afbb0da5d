package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func (h *Hub) clientCount(seasonID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[seasonID])
}

func dialHub(t *testing.T, srvURL, seasonID string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(srvURL, "http") + "?season=" + seasonID
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHubRequiresSeasonParam(t *testing.T) {
	hub := NewHub(zap.NewNop())
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHubBroadcastReachesSubscribedSeasonOnly(t *testing.T) {
	hub := NewHub(zap.NewNop())
	defer hub.CloseAll()
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()

	connA := dialHub(t, srv.URL, "season-a")
	connB := dialHub(t, srv.URL, "season-b")

	require.Eventually(t, func() bool {
		return hub.clientCount("season-a") == 1 && hub.clientCount("season-b") == 1
	}, time.Second, 10*time.Millisecond)

	hub.Broadcast("season-a", []byte(`{"phase":"VOTING"}`))

	require.NoError(t, connA.SetReadDeadline(time.Now().Add(time.Second)))
	_, msg, err := connA.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"phase":"VOTING"}`, string(msg))

	// The other season's subscriber sees nothing.
	require.NoError(t, connB.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err = connB.ReadMessage()
	assert.Error(t, err)
}

// TestWebsocketUpgradeThroughRouter dials /ws through the fully assembled
// router so the upgrade crosses every middleware layer.
func TestWebsocketUpgradeThroughRouter(t *testing.T) {
	e := newTestEnv(t)
	srv := httptest.NewServer(e.handler)
	defer srv.Close()

	conn := dialHub(t, srv.URL+"/ws", "season-a")
	require.Eventually(t, func() bool {
		return e.srv.hub.clientCount("season-a") == 1
	}, time.Second, 10*time.Millisecond)

	e.srv.hub.Broadcast("season-a", []byte(`{"phase":"DRAFTING"}`))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"phase":"DRAFTING"}`, string(msg))
}

func TestHubUnregistersOnDisconnect(t *testing.T) {
	hub := NewHub(zap.NewNop())
	defer hub.CloseAll()
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()

	conn := dialHub(t, srv.URL, "season-a")
	require.Eventually(t, func() bool {
		return hub.clientCount("season-a") == 1
	}, time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool {
		return hub.clientCount("season-a") == 0
	}, time.Second, 10*time.Millisecond)
}
