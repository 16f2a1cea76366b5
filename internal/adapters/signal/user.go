package signal

import (
	"github.com/CodeLikeBA56/AI-Powered-SkillSwap-Network-sub001/internal/core"
	"github.com/CodeLikeBA56/AI-Powered-SkillSwap-Network-sub001/internal/domain"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleBind(cl *wsClient, raw map[string]any) error {
	var p struct {
		UserID string `json:"userId"`
	}
	if err := decode(raw, &p); err != nil {
		return err
	}
	user, err := domain.ParseUserID(p.UserID)
	if err != nil {
		return domain.ErrBadPayload
	}
	if cl.auth != "" && cl.auth != user {
		log.Warn().Str("module", "signal").Str("conn", string(cl.id)).Str("auth", string(cl.auth)).Str("user", string(user)).Msg("bind identity mismatch")
		return domain.ErrIdentityMismatch
	}

	ctl.Orch.BindUser(cl.id, user)
	ctl.sendJSON(cl.conn, domain.EventBound, struct {
		UserID       domain.UserID `json:"userId"`
		ConnectionID core.ConnID   `json:"connectionId"`
	}{user, cl.id})
	return nil
}

func (ctl *SignalWSController) handleUnbind(cl *wsClient) {
	user, ok := ctl.Orch.Unbind(cl.id)
	log.Info().Str("module", "signal").Str("conn", string(cl.id)).Str("user", string(user)).Bool("was_bound", ok).Msg("unbind")
	ctl.sendJSON(cl.conn, domain.EventLeft, struct {
		UserID domain.UserID `json:"userId,omitempty"`
	}{user})
}

func (ctl *SignalWSController) handleWhoAmI(cl *wsClient) {
	resp := struct {
		ConnectionID core.ConnID     `json:"connectionId"`
		UserID       domain.UserID   `json:"userId,omitempty"`
		Rooms        []domain.RoomID `json:"rooms"`
	}{ConnectionID: cl.id, Rooms: []domain.RoomID{}}
	if user, err := ctl.Orch.Identify(cl.id); err == nil {
		resp.UserID = user
		resp.Rooms = ctl.Orch.RoomsOf(user)
	}
	ctl.sendJSON(cl.conn, domain.EventWhoAmI, resp)
}
