package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/CodeLikeBA56/AI-Powered-SkillSwap-Network-sub001/internal/app/orch"
	"github.com/CodeLikeBA56/AI-Powered-SkillSwap-Network-sub001/internal/config"
	"github.com/CodeLikeBA56/AI-Powered-SkillSwap-Network-sub001/internal/core"
	"github.com/CodeLikeBA56/AI-Powered-SkillSwap-Network-sub001/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
)

// IdentityKey is the gin context key holding the upstream-authenticated user id.
const IdentityKey = "user_id"

type SignalWSController struct {
	Orch    *orch.Orchestrator
	Limiter *RoomRateLimiter

	readLimit  int64
	pingPeriod time.Duration
	sendBuffer int
}

func NewSignalWSController(o *orch.Orchestrator, cfg *config.Config) *SignalWSController {
	ctl := &SignalWSController{
		Orch:       o,
		readLimit:  cfg.ReadLimit,
		pingPeriod: cfg.PingPeriod,
		sendBuffer: cfg.SendBuffer,
	}
	if cfg.RateLimit.Max > 0 {
		ctl.Limiter = NewRoomRateLimiter(cfg.RateLimit.Max, cfg.RateLimit.Window)
	}
	if ctl.sendBuffer <= 0 {
		ctl.sendBuffer = 32
	}
	return ctl
}

// WsSignalConn is one websocket with a bounded outbound FIFO drained by writePump.
type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrConnClosed
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

// wsClient is the per-connection state the read loop carries around.
type wsClient struct {
	id   core.ConnID
	conn *WsSignalConn
	// auth is the identity asserted by the gateway at upgrade time, if any.
	auth domain.UserID
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	cid := core.ConnID(uuid.NewString())
	auth := domain.UserID(c.GetString(IdentityKey))
	log.Info().Str("module", "signal").Str("conn", string(cid)).Str("auth", string(auth)).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Msg("ws upgrade")
		return
	}
	if ctl.readLimit > 0 {
		ws.SetReadLimit(ctl.readLimit)
	}

	cl := &wsClient{
		id:   cid,
		auth: auth,
		conn: &WsSignalConn{
			conn: ws,
			send: make(chan core.Frame, ctl.sendBuffer),
		},
	}
	ctx, cancel := context.WithCancel(ctx)
	ctl.Orch.OnConnect(cid, cl.conn, cancel)

	go ctl.writePump(ctx, cl.conn)
	go ctl.readPump(ctx, cancel, cl)
}
