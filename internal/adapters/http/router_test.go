package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/CodeLikeBA56/AI-Powered-SkillSwap-Network-sub001/internal/app"
	"github.com/CodeLikeBA56/AI-Powered-SkillSwap-Network-sub001/internal/app/orch"
	"github.com/CodeLikeBA56/AI-Powered-SkillSwap-Network-sub001/internal/config"
	"github.com/CodeLikeBA56/AI-Powered-SkillSwap-Network-sub001/internal/core"
	"github.com/CodeLikeBA56/AI-Powered-SkillSwap-Network-sub001/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newServer(t *testing.T, opts ...func(*config.Config)) *httptest.Server {
	t.Helper()
	cfg := &config.Config{
		Mode:       "test",
		Secret:     "test-secret",
		SendBuffer: 32,
		ReadLimit:  1 << 15,
		RoomTTL:    time.Hour,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	persister, err := store.NewBuntPersister(":memory:", cfg.RoomTTL)
	require.NoError(t, err)

	presence := app.NewDirectory()
	fanout := app.NewDispatcher(presence, nil)
	rooms := app.NewRoomManager(core.Deps{Notifier: fanout}, cfg.RoomTTL)
	o := orch.New(presence, rooms, fanout, persister, 0)

	ctx, cancel := context.WithCancel(context.Background())
	srv := httptest.NewServer(SetupRouter(ctx, cfg, o))
	t.Cleanup(func() {
		cancel()
		srv.Close()
		o.Stop()
		persister.Close()
	})
	return srv
}

type apiResponse struct {
	status int
	body   map[string]any
}

func call(t *testing.T, srv *httptest.Server, method, path, user string, body any) apiResponse {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, srv.URL+path, rd)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set(userHeader, user)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := apiResponse{status: resp.StatusCode}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out.body), string(raw))
	}
	return out
}

func roomIDOf(t *testing.T, r apiResponse) string {
	t.Helper()
	room, ok := r.body["room"].(map[string]any)
	require.True(t, ok, "response has no room: %v", r.body)
	id, _ := room["roomId"].(string)
	require.NotEmpty(t, id)
	return id
}

func openRoom(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	r := call(t, srv, http.MethodPut, "/api/sessions/s1", "host", map[string]any{"title": "Go workshop"})
	require.Equal(t, http.StatusOK, r.status, r.body)
	r = call(t, srv, http.MethodPost, "/api/rooms", "host", map[string]any{"sessionId": "s1"})
	require.Equal(t, http.StatusCreated, r.status, r.body)
	return roomIDOf(t, r)
}

func TestREST_RoomLifecycle(t *testing.T) {
	srv := newServer(t)

	assert.Equal(t, http.StatusOK, call(t, srv, http.MethodGet, "/healthz", "", nil).status)

	t.Run("identity is required", func(t *testing.T) {
		r := call(t, srv, http.MethodPost, "/api/rooms", "", map[string]any{"sessionId": "s1"})
		assert.Equal(t, http.StatusUnauthorized, r.status)
	})

	t.Run("unknown session", func(t *testing.T) {
		r := call(t, srv, http.MethodPost, "/api/rooms", "host", map[string]any{"sessionId": "nope"})
		assert.Equal(t, http.StatusNotFound, r.status)
		assert.Equal(t, "session_not_found", r.body["error"])
	})

	roomID := openRoom(t, srv)

	t.Run("create is idempotent", func(t *testing.T) {
		r := call(t, srv, http.MethodPost, "/api/rooms", "host", map[string]any{"sessionId": "s1"})
		assert.Equal(t, http.StatusOK, r.status)
		assert.Equal(t, roomID, roomIDOf(t, r))
		r = call(t, srv, http.MethodPost, "/api/rooms", "mallory", map[string]any{"sessionId": "s1"})
		assert.Equal(t, http.StatusForbidden, r.status)
	})

	t.Run("join and toggle", func(t *testing.T) {
		r := call(t, srv, http.MethodPut, "/api/rooms/join/s1", "bob", map[string]any{"startWithCameraOff": true})
		require.Equal(t, http.StatusOK, r.status, r.body)
		assert.Equal(t, []any{"host", "bob"}, r.body["members"])

		r = call(t, srv, http.MethodPatch, "/api/sessions/s1/mic", "bob", map[string]any{"value": false})
		require.Equal(t, http.StatusOK, r.status, r.body)
		assert.Equal(t, false, r.body["isMicOn"])

		r = call(t, srv, http.MethodPatch, "/api/sessions/s1/mic", "bob", map[string]any{})
		assert.Equal(t, http.StatusBadRequest, r.status)
	})

	t.Run("host actions", func(t *testing.T) {
		r := call(t, srv, http.MethodPatch, "/api/sessions/s1/attendees/host/kick", "bob", nil)
		assert.Equal(t, http.StatusForbidden, r.status)

		r = call(t, srv, http.MethodPut, "/api/sessions/s1/attendees/bob/cohost", "host", nil)
		require.Equal(t, http.StatusOK, r.status, r.body)

		r = call(t, srv, http.MethodPost, "/api/sessions/s1/recording", "bob", nil)
		require.Equal(t, http.StatusOK, r.status, r.body)
		assert.Equal(t, true, r.body["isBeingRecorded"])

		r = call(t, srv, http.MethodPatch, "/api/sessions/s1/close", "bob", nil)
		assert.Equal(t, http.StatusForbidden, r.status, "closing is host only")
		r = call(t, srv, http.MethodPatch, "/api/sessions/s1/close", "host", nil)
		require.Equal(t, http.StatusOK, r.status)
		assert.Equal(t, true, r.body["isSessionClosed"])

		r = call(t, srv, http.MethodPut, "/api/rooms/join/s1", "carol", nil)
		assert.Equal(t, http.StatusConflict, r.status)
		assert.Equal(t, "session_closed", r.body["error"])
	})

	t.Run("listing", func(t *testing.T) {
		r := call(t, srv, http.MethodGet, "/api/rooms", "", nil)
		require.Equal(t, http.StatusOK, r.status)
		assert.Len(t, r.body["rooms"], 1)

		r = call(t, srv, http.MethodGet, "/api/rooms/"+roomID, "", nil)
		assert.Equal(t, http.StatusOK, r.status)
		r = call(t, srv, http.MethodGet, "/api/rooms/missing", "", nil)
		assert.Equal(t, http.StatusNotFound, r.status)
	})

	t.Run("end", func(t *testing.T) {
		r := call(t, srv, http.MethodDelete, "/api/rooms/"+roomID, "bob", nil)
		assert.Equal(t, http.StatusForbidden, r.status)

		r = call(t, srv, http.MethodDelete, "/api/rooms/"+roomID, "host", map[string]any{"recordingUrl": "https://cdn.example/r.mp4"})
		assert.Equal(t, http.StatusNoContent, r.status)

		r = call(t, srv, http.MethodGet, "/api/rooms/"+roomID, "", nil)
		assert.Equal(t, http.StatusConflict, r.status)
		assert.Equal(t, "room_ended", r.body["error"])
	})
}

type wsPeer struct {
	t    *testing.T
	conn *websocket.Conn
}

func dial(t *testing.T, srv *httptest.Server, authUser string) *wsPeer {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws/signal"
	header := http.Header{}
	if authUser != "" {
		header.Set(userHeader, authUser)
	}
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return &wsPeer{t: t, conn: conn}
}

func (p *wsPeer) send(frame map[string]any) {
	p.t.Helper()
	require.NoError(p.t, p.conn.WriteJSON(frame))
}

// expect reads frames until one of the given type arrives.
func (p *wsPeer) expect(typ string) map[string]any {
	p.t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		require.NoError(p.t, p.conn.SetReadDeadline(deadline))
		var ev struct {
			Type string         `json:"type"`
			Data map[string]any `json:"data"`
		}
		require.NoError(p.t, p.conn.ReadJSON(&ev), "waiting for %s", typ)
		if ev.Type == typ {
			return ev.Data
		}
	}
}

func TestWS_SignalingFlow(t *testing.T) {
	srv := newServer(t)
	roomID := openRoom(t, srv)

	host := dial(t, srv, "")
	host.send(map[string]any{"type": "bind-user", "userId": "host"})
	bound := host.expect("bound")
	assert.Equal(t, "host", bound["userId"])
	hostConn, _ := bound["connectionId"].(string)
	require.NotEmpty(t, hostConn)

	bob := dial(t, srv, "bob")

	t.Run("binding a different user than the gateway asserted fails", func(t *testing.T) {
		bob.send(map[string]any{"type": "bind-user", "userId": "mallory"})
		e := bob.expect("error")
		assert.Equal(t, "identity_mismatch", e["code"])
		assert.Equal(t, "bind-user", e["request"])
	})

	t.Run("unbound connections cannot join", func(t *testing.T) {
		bob.send(map[string]any{"type": "join-room", "roomId": roomID})
		assert.Equal(t, "unbound", bob.expect("error")["code"])
	})

	bob.send(map[string]any{"type": "bind-user", "userId": "bob"})
	bob.expect("bound")

	bob.send(map[string]any{"type": "join-room", "roomId": roomID, "preferences": map[string]any{"muteOnJoin": true}})
	state := bob.expect("room-state")
	assert.Equal(t, []any{"host", "bob"}, state["members"])

	added := host.expect("member-added")
	assert.Equal(t, "bob", added["memberId"])

	t.Run("offer is relayed with the sender connection", func(t *testing.T) {
		bob.send(map[string]any{"type": "signal-offer", "to": "host", "offer": map[string]any{"type": "offer", "sdp": "v=0"}})
		got := host.expect("peer-signal-offer")
		assert.Equal(t, "bob", got["fromUserId"])
		assert.NotEmpty(t, got["from"])
		assert.Equal(t, map[string]any{"type": "offer", "sdp": "v=0"}, got["offer"])

		host.send(map[string]any{"type": "signal-answer", "to": "bob", "answer": map[string]any{"type": "answer", "sdp": "v=0"}})
		back := bob.expect("peer-signal-answer")
		assert.Equal(t, hostConn, back["from"])
	})

	t.Run("room broadcast", func(t *testing.T) {
		bob.send(map[string]any{"type": "room-broadcast", "roomId": roomID, "eventName": "hand-raised", "payload": map[string]any{"up": true}})
		got := host.expect("hand-raised")
		assert.Equal(t, "bob", got["from"])

		bob.send(map[string]any{"type": "room-broadcast", "roomId": roomID, "eventName": "room-ended"})
		assert.Equal(t, "bad_payload", bob.expect("error")["code"])
	})

	t.Run("notify users", func(t *testing.T) {
		bob.send(map[string]any{"type": "notify-users", "to": []string{"host", "dave"}, "eventName": "user-joining-request-accepted", "payload": map[string]any{"sessionId": "s1"}})
		got := host.expect("user-joining-request-accepted")
		assert.Equal(t, "bob", got["from"])
		assert.Equal(t, map[string]any{"sessionId": "s1"}, got["payload"])

		ack := bob.expect("notified")
		assert.EqualValues(t, 1, ack["sentTo"])
		assert.EqualValues(t, 1, ack["offline"], "offline recipients are skipped")

		bob.send(map[string]any{"type": "notify-users", "to": []string{"host"}, "eventName": "member-removed"})
		assert.Equal(t, "bad_payload", bob.expect("error")["code"])
	})

	t.Run("unknown frames keep the connection open", func(t *testing.T) {
		bob.send(map[string]any{"type": "teleport"})
		assert.Equal(t, "unknown_event", bob.expect("error")["code"])
		bob.send(map[string]any{"type": "ping"})
		bob.expect("pong")
	})

	t.Run("whoami", func(t *testing.T) {
		bob.send(map[string]any{"type": "whoami"})
		me := bob.expect("whoami")
		assert.Equal(t, "bob", me["userId"])
		assert.Equal(t, []any{roomID}, me["rooms"])
	})

	bob.send(map[string]any{"type": "leave-room", "roomId": roomID})
	assert.Equal(t, roomID, bob.expect("left")["roomId"])
	removed := host.expect("member-removed")
	assert.Equal(t, "bob", removed["memberId"])

	t.Run("closing the socket leaves the room", func(t *testing.T) {
		bob.send(map[string]any{"type": "join-room", "roomId": roomID})
		bob.expect("room-state")
		host.expect("member-added")

		require.NoError(t, bob.conn.Close())
		removed := host.expect("member-removed")
		assert.Equal(t, "bob", removed["memberId"])
	})
}

func TestWS_RateLimit(t *testing.T) {
	srv := newServer(t, func(cfg *config.Config) {
		cfg.RateLimit = config.RateLimitConfig{Max: 20, Window: time.Minute}
		cfg.SendBuffer = 128
	})
	roomID := openRoom(t, srv)

	host := dial(t, srv, "host")
	host.send(map[string]any{"type": "bind-user", "userId": "host"})
	host.expect("bound")
	bob := dial(t, srv, "bob")
	bob.send(map[string]any{"type": "bind-user", "userId": "bob"})
	bob.expect("bound")
	bob.send(map[string]any{"type": "join-room", "roomId": roomID})
	bob.expect("room-state")
	host.expect("member-added")

	t.Run("a candidate burst is relayed in full", func(t *testing.T) {
		const burst = 30
		for i := 0; i < burst; i++ {
			bob.send(map[string]any{"type": "signal-ice-candidate", "to": "host", "candidate": map[string]any{"candidate": "cand", "sdpMLineIndex": i}})
		}
		for i := 0; i < burst; i++ {
			got := host.expect("peer-signal-ice-candidate")
			cand, _ := got["candidate"].(map[string]any)
			assert.EqualValues(t, i, cand["sdpMLineIndex"])
		}
		bob.send(map[string]any{"type": "ping"})
		bob.expect("pong")
	})

	t.Run("room broadcasts keep their budget", func(t *testing.T) {
		for i := 0; i < 21; i++ {
			bob.send(map[string]any{"type": "room-broadcast", "roomId": roomID, "eventName": "hand-raised"})
		}
		e := bob.expect("error")
		assert.Equal(t, "rate_limited", e["code"])
		assert.Equal(t, "room-broadcast", e["request"])
	})
}
