package gateway

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/gammaproto/gammakit/phys"
)

func testGateway(t *testing.T) (*Gateway, *httptest.Server) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	g, err := New("127.0.0.1:0", t.TempDir(), logger)
	require.NoError(t, err)

	srv := httptest.NewServer(g.Handler())
	t.Cleanup(srv.Close)
	return g, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	ws, err := websocket.Dial(wsURL, "", srv.URL)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	return ws
}

func recv(t *testing.T, ws *websocket.Conn) map[string]any {
	t.Helper()
	var msg map[string]any
	require.NoError(t, websocket.JSON.Receive(ws, &msg))
	return msg
}

func TestGreetingOnConnect(t *testing.T) {
	_, srv := testGateway(t)
	ws := dial(t, srv)

	msg := recv(t, ws)
	assert.Equal(t, "gateway.connected", msg["type"])
	assert.InDelta(t, phys.PhiInv, msg["coherence"].(float64), 1e-9)
	assert.InDelta(t, Phi3Target, msg["phi_target"].(float64), 1e-9)
	assert.NotEmpty(t, msg["timestamp"])
}

func TestPingPong(t *testing.T) {
	_, srv := testGateway(t)
	ws := dial(t, srv)
	recv(t, ws) // greeting

	require.NoError(t, websocket.JSON.Send(ws, map[string]any{"type": "ping"}))

	msg := recv(t, ws)
	assert.Equal(t, "pong", msg["type"])
	assert.InDelta(t, phys.PhiInv, msg["coherence"].(float64), 1e-9)
}

func TestSessionCreateAndList(t *testing.T) {
	g, srv := testGateway(t)
	ws := dial(t, srv)
	recv(t, ws) // greeting

	require.NoError(t, websocket.JSON.Send(ws, map[string]any{
		"type":       "session.create",
		"session_id": "sess-42",
	}))
	created := recv(t, ws)
	assert.Equal(t, "session.created", created["type"])
	assert.Equal(t, "sess-42", created["session_id"])

	_, ok := g.Sessions().Get("sess-42")
	assert.True(t, ok)

	require.NoError(t, websocket.JSON.Send(ws, map[string]any{"type": "session.list"}))
	list := recv(t, ws)
	assert.Equal(t, "session.list", list["type"])
	assert.Equal(t, []any{"sess-42"}, list["sessions"])
}

func TestSessionCreateGeneratesID(t *testing.T) {
	_, srv := testGateway(t)
	ws := dial(t, srv)
	recv(t, ws) // greeting

	require.NoError(t, websocket.JSON.Send(ws, map[string]any{"type": "session.create"}))
	created := recv(t, ws)
	assert.Equal(t, "session.created", created["type"])
	assert.NotEmpty(t, created["session_id"])
}

func TestInvalidJSON(t *testing.T) {
	_, srv := testGateway(t)
	ws := dial(t, srv)
	recv(t, ws) // greeting

	require.NoError(t, websocket.Message.Send(ws, "{not json"))

	msg := recv(t, ws)
	assert.Equal(t, "error", msg["type"])
	assert.Equal(t, "invalid_json", msg["error"])
}

func TestUnknownTypeIgnored(t *testing.T) {
	_, srv := testGateway(t)
	ws := dial(t, srv)
	recv(t, ws) // greeting

	require.NoError(t, websocket.JSON.Send(ws, map[string]any{"type": "mystery"}))
	// connection stays usable
	require.NoError(t, websocket.JSON.Send(ws, map[string]any{"type": "ping"}))
	msg := recv(t, ws)
	assert.Equal(t, "pong", msg["type"])
}

func TestMetricsEndpoint(t *testing.T) {
	g, srv := testGateway(t)
	g.SetCoherence(0.236)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	text := string(body)
	assert.Contains(t, text, "gamma_gateway_connected_clients")
	assert.Contains(t, text, "gamma_gateway_coherence_phi 0.236")
}

func TestSetCoherence(t *testing.T) {
	g, srv := testGateway(t)
	g.SetCoherence(0.382)
	assert.Equal(t, 0.382, g.Coherence())

	ws := dial(t, srv)
	msg := recv(t, ws)
	assert.InDelta(t, 0.382, msg["coherence"].(float64), 1e-9)
}
