package signal

import (
	"github.com/CodeLikeBA56/AI-Powered-SkillSwap-Network-sub001/internal/domain"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleJoin(cl *wsClient, raw map[string]any) error {
	user, err := ctl.identify(cl, false)
	if err != nil {
		return err
	}
	var p struct {
		RoomID      string             `json:"roomId"`
		Preferences domain.Preferences `json:"preferences"`
	}
	p.Preferences = domain.DefaultPreferences()
	if err := decode(raw, &p); err != nil {
		return err
	}
	if p.RoomID == "" {
		return domain.ErrBadPayload
	}

	log.Info().Str("module", "signal").Str("conn", string(cl.id)).Str("room", p.RoomID).Msg("join")
	snap, err := ctl.Orch.JoinRoom(domain.RoomID(p.RoomID), user, p.Preferences)
	if err != nil {
		return err
	}
	ctl.sendJSON(cl.conn, domain.EventRoomState, snap)
	return nil
}

// handleLeave leaves one room; the connection itself stays up.
func (ctl *SignalWSController) handleLeave(cl *wsClient, raw map[string]any) error {
	user, err := ctl.identify(cl, false)
	if err != nil {
		return err
	}
	var p struct {
		RoomID string `json:"roomId"`
	}
	if err := decode(raw, &p); err != nil {
		return err
	}
	if p.RoomID == "" {
		return domain.ErrBadPayload
	}

	log.Info().Str("module", "signal").Str("conn", string(cl.id)).Str("room", p.RoomID).Msg("leave")
	if _, err := ctl.Orch.LeaveRoom(domain.RoomID(p.RoomID), user); err != nil {
		return err
	}
	ctl.sendJSON(cl.conn, domain.EventLeft, struct {
		RoomID string `json:"roomId"`
	}{p.RoomID})
	return nil
}

func (ctl *SignalWSController) handleRoomBroadcast(cl *wsClient, raw map[string]any) error {
	if _, err := ctl.identify(cl, true); err != nil {
		return err
	}
	var p struct {
		RoomID    string `json:"roomId"`
		EventName string `json:"eventName"`
		Payload   any    `json:"payload"`
	}
	if err := decode(raw, &p); err != nil {
		return err
	}
	if p.RoomID == "" {
		return domain.ErrBadPayload
	}
	_, err := ctl.Orch.Broadcast(cl.id, domain.RoomID(p.RoomID), p.EventName, p.Payload)
	return err
}
