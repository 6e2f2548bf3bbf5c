package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/scythe-bidder/internal/config"
	"github.com/palemoky/scythe-bidder/internal/protocol"
	"github.com/palemoky/scythe-bidder/internal/protocol/codec"
	"github.com/palemoky/scythe-bidder/internal/server/storage"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := config.Default()
	cfg.Auction.Edition = "base"
	cfg.Security.AllowedOrigins = []string{"*"}

	s, err := New(cfg, rdb)
	require.NoError(t, err)

	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)
	return s, ts
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn) *protocol.Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	frameType, data, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, websocket.TextMessage, frameType)
	msg, err := codec.DecodeJSON(data)
	require.NoError(t, err)
	return msg
}

func TestNew_PurgesStaleRooms(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store := storage.NewRedisStore(rdb)
	require.NoError(t, store.SaveRoom(context.Background(), "135791", &storage.RoomData{Code: "135791"}))

	cfg := config.Default()
	cfg.Auction.Edition = "base"
	_, err := New(cfg, rdb)
	require.NoError(t, err)

	assert.False(t, mr.Exists("room:135791"))
}

func TestNew_InvalidEdition(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Auction.Edition = "deluxe"
	_, err := New(cfg, nil)
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	t.Parallel()
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body healthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, 0, body.Online)
	assert.False(t, body.Maintenance)
}

func TestRoomLog_NotFound(t *testing.T) {
	t.Parallel()
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/rooms/999999/log")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var body protocol.ErrorPayload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, protocol.ErrCodeRoomNotFound, body.Code)
}

func TestRoomLog_FromSnapshot(t *testing.T) {
	t.Parallel()
	s, ts := newTestServer(t)

	require.NoError(t, s.redisStore.SaveAuction(context.Background(), &storage.AuctionData{
		RoomCode: "123456",
		Edition:  "base",
		Phase:    "complete",
		Log:      []string{"Ann bid 3 on Nordic Industrial"},
	}, time.Minute))

	resp, err := http.Get(ts.URL + "/rooms/123456/log")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/json")
	var body protocol.AuctionLogPayload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "123456", body.RoomCode)
	assert.Equal(t, []string{"Ann bid 3 on Nordic Industrial"}, body.Log)
}

func TestWebSocket_ConnectAndCreateRoom(t *testing.T) {
	t.Parallel()
	s, ts := newTestServer(t)
	conn := dial(t, ts)

	connected := readJSON(t, conn)
	require.Equal(t, protocol.MsgConnected, connected.Type)
	payload, err := codec.ParsePayload[protocol.ConnectedPayload](connected)
	require.NoError(t, err)
	assert.NotEmpty(t, payload.PlayerID)
	assert.NotEmpty(t, payload.ReconnectToken)
	assert.Equal(t, 1, s.GetOnlineCount())

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"create_room","payload":{"edition":"base"}}`)))

	created := readJSON(t, conn)
	require.Equal(t, protocol.MsgRoomCreated, created.Type)
	room, err := codec.ParsePayload[protocol.RoomCreatedPayload](created)
	require.NoError(t, err)
	assert.Equal(t, "base", room.Edition)
	assert.Equal(t, payload.PlayerID, room.Player.ID)

	resp, err := http.Get(ts.URL + "/rooms")
	require.NoError(t, err)
	defer resp.Body.Close()
	var list protocol.RoomListResultPayload
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list.Rooms, 1)
	assert.Equal(t, room.RoomCode, list.Rooms[0].RoomCode)
	assert.Equal(t, 5, list.Rooms[0].MaxPlayers)
}

func TestWebSocket_BinaryFramesSwitchEncoding(t *testing.T) {
	t.Parallel()
	_, ts := newTestServer(t)
	conn := dial(t, ts)
	_ = readJSON(t, conn) // connected

	ping, err := codec.NewMessage(protocol.MsgPing, protocol.PingPayload{Timestamp: 42})
	require.NoError(t, err)
	data, err := codec.Encode(ping)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, data))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	frameType, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.BinaryMessage, frameType)

	pong, err := codec.Decode(raw)
	require.NoError(t, err)
	require.Equal(t, protocol.MsgPong, pong.Type)
	p, err := codec.ParsePayload[protocol.PongPayload](pong)
	require.NoError(t, err)
	assert.Equal(t, int64(42), p.ClientTimestamp)
}

func TestWebSocket_InvalidMessage(t *testing.T) {
	t.Parallel()
	_, ts := newTestServer(t)
	conn := dial(t, ts)
	_ = readJSON(t, conn)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`not json`)))

	msg := readJSON(t, conn)
	require.Equal(t, protocol.MsgError, msg.Type)
	e, err := codec.ParsePayload[protocol.ErrorPayload](msg)
	require.NoError(t, err)
	assert.Equal(t, protocol.ErrCodeInvalidMsg, e.Code)
}

func TestWebSocket_MaintenanceRejects(t *testing.T) {
	t.Parallel()
	s, ts := newTestServer(t)
	s.EnterMaintenanceMode()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestUnregisterClient_KeepsReplacement(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	old := &Client{ID: "p1", Name: "Ann", server: s}
	replacement := &Client{ID: "p1", Name: "Ann", server: s}

	s.registerClient(old)
	s.registerClient(replacement)

	assert.False(t, s.unregisterClient(old))
	assert.Equal(t, replacement, s.GetClientByID("p1"))
	assert.True(t, s.unregisterClient(replacement))
	assert.Nil(t, s.GetClientByID("p1"))
}

func TestBroadcastToLobby_SkipsRoomMembers(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t)

	lobby := &Client{ID: "a", server: s, send: make(chan outbound, 1)}
	seated := &Client{ID: "b", RoomCode: "123456", server: s, send: make(chan outbound, 1)}
	s.registerClient(lobby)
	s.registerClient(seated)

	s.BroadcastToLobby(codec.MustNewMessage(protocol.MsgMaintenancePush, protocol.MaintenancePayload{Maintenance: true}))

	assert.Len(t, lobby.send, 1)
	assert.Empty(t, seated.send)
}
