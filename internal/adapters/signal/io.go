package signal

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/CodeLikeBA56/AI-Powered-SkillSwap-Network-sub001/internal/core"
	"github.com/CodeLikeBA56/AI-Powered-SkillSwap-Network-sub001/internal/domain"
	"github.com/go-viper/mapstructure/v2"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const writeWait = 5 * time.Second

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	var ping <-chan time.Time
	if ctl.pingPeriod > 0 {
		t := time.NewTicker(ctl.pingPeriod)
		defer t.Stop()
		ping = t.C
	}
	defer c.Close()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Msg("writePump ctx done")
			return
		case <-ping:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Warn().Err(err).Str("module", "signal").Msg("writePump ping")
				return
			}
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signal").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *SignalWSController) readPump(ctx context.Context, cancel context.CancelFunc, cl *wsClient) {
	defer func() {
		log.Info().Str("module", "signal").Str("conn", string(cl.id)).Msg("readPump closing")
		cancel()
		cl.conn.Close()
		ctl.Orch.OnDisconnect(cl.id)
	}()

	if ctl.pingPeriod > 0 {
		wait := ctl.pingPeriod * 10 / 9
		_ = cl.conn.conn.SetReadDeadline(time.Now().Add(wait))
		cl.conn.conn.SetPongHandler(func(string) error {
			return cl.conn.conn.SetReadDeadline(time.Now().Add(wait))
		})
	}

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("conn", string(cl.id)).Msg("readPump ctx done")
			return
		default:
			_, data, err := cl.conn.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Error().Err(err).Str("module", "signal").Str("conn", string(cl.id)).Msg("readPump read error")
				}
				return
			}
			ctl.handleSignal(cl, data)
		}
	}
}

// handleSignal dispatches one inbound frame. A bad frame is answered with an
// error event and never closes the connection.
func (ctl *SignalWSController) handleSignal(cl *wsClient, data []byte) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("conn", string(cl.id)).Msg("bad json")
		ctl.sendError(cl, "", domain.ErrBadPayload)
		return
	}
	typ, _ := raw["type"].(string)

	var err error
	switch typ {
	case "bind-user":
		err = ctl.handleBind(cl, raw)
	case "unbind", "logout":
		ctl.handleUnbind(cl)
	case "whoami":
		ctl.handleWhoAmI(cl)
	case "ping":
		ctl.handlePing(cl)
	case "join-room":
		err = ctl.handleJoin(cl, raw)
	case "leave-room":
		err = ctl.handleLeave(cl, raw)
	case "room-broadcast":
		err = ctl.handleRoomBroadcast(cl, raw)
	case "notify-users":
		err = ctl.handleNotifyUsers(cl, raw)
	case "signal-offer", "signal-answer", "signal-ice-candidate", "signal-nego-offer", "signal-nego-answer":
		err = ctl.handleRelay(cl, typ, raw)
	default:
		log.Warn().Str("module", "signal").Str("type", typ).Msg("unknown signal")
		err = domain.ErrUnknownEvent
	}
	if err != nil {
		ctl.sendError(cl, typ, err)
	}
}

// decode maps a raw frame onto a typed payload using its json tags.
func decode(raw map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		log.Debug().Err(err).Str("module", "signal").Msg("decode payload")
		return domain.ErrBadPayload
	}
	return nil
}

// identify resolves the bound user and applies the rate limit when asked.
func (ctl *SignalWSController) identify(cl *wsClient, limited bool) (domain.UserID, error) {
	user, err := ctl.Orch.Identify(cl.id)
	if err != nil {
		return "", err
	}
	if limited && ctl.Limiter != nil && !ctl.Limiter.Allow(user) {
		return "", domain.ErrRateLimited
	}
	return user, nil
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Request string `json:"request,omitempty"`
}

func (ctl *SignalWSController) sendError(cl *wsClient, request string, err error) {
	body := errorBody{Code: "internal", Message: "internal error", Request: request}
	var de *domain.Error
	if errors.As(err, &de) {
		body.Code, body.Message = de.Code, de.Message
	} else {
		log.Error().Err(err).Str("module", "signal").Str("conn", string(cl.id)).Str("request", request).Msg("handler error")
	}
	ctl.sendJSON(cl.conn, domain.EventError, body)
}

func (ctl *SignalWSController) sendJSON(c *WsSignalConn, typ string, data any) {
	b, err := core.NewEnvelope(typ, data).Encode()
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}
