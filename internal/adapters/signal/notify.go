package signal

import (
	"github.com/CodeLikeBA56/AI-Powered-SkillSwap-Network-sub001/internal/domain"
	"github.com/rs/zerolog/log"
)

type notifiedBody struct {
	SentTo  int `json:"sentTo"`
	Offline int `json:"offline"`
}

// handleNotifyUsers delivers an application event (follow, join-request
// accepted and the like) to a set of users wherever they are connected.
func (ctl *SignalWSController) handleNotifyUsers(cl *wsClient, raw map[string]any) error {
	if _, err := ctl.identify(cl, true); err != nil {
		return err
	}
	var p struct {
		To        []string `json:"to"`
		EventName string   `json:"eventName"`
		Payload   any      `json:"payload"`
	}
	if err := decode(raw, &p); err != nil {
		return err
	}
	to := make([]domain.UserID, 0, len(p.To))
	for _, u := range p.To {
		to = append(to, domain.UserID(u))
	}

	res, err := ctl.Orch.NotifyUsers(cl.id, to, p.EventName, p.Payload)
	if err != nil {
		return err
	}
	log.Debug().Str("module", "signal").Str("conn", string(cl.id)).Str("event", p.EventName).Int("sent_to", res.SentTo).Msg("notify users")
	ctl.sendJSON(cl.conn, domain.EventNotified, notifiedBody{SentTo: res.SentTo, Offline: res.Offline})
	return nil
}
