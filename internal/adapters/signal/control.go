package signal

import "github.com/CodeLikeBA56/AI-Powered-SkillSwap-Network-sub001/internal/domain"

func (ctl *SignalWSController) handlePing(cl *wsClient) {
	ctl.sendJSON(cl.conn, domain.EventPong, nil)
}
