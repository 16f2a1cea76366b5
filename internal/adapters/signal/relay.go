package signal

import (
	"strings"

	"github.com/CodeLikeBA56/AI-Powered-SkillSwap-Network-sub001/internal/app"
	"github.com/CodeLikeBA56/AI-Powered-SkillSwap-Network-sub001/internal/domain"
)

type signalPayload struct {
	To        string `json:"to"`
	Offer     any    `json:"offer"`
	Answer    any    `json:"answer"`
	Candidate any    `json:"candidate"`
	CallID    string `json:"callId"`
}

func (p signalPayload) field(kind app.SignalKind) any {
	switch kind.Field() {
	case "offer":
		return p.Offer
	case "answer":
		return p.Answer
	case "candidate":
		return p.Candidate
	default:
		return nil
	}
}

// handleRelay forwards signal-<kind> frames to the addressed peer. The SDP and
// ICE bodies are passed through untouched. Negotiation is not rate limited:
// trickle ICE routinely bursts past the broadcast budget.
func (ctl *SignalWSController) handleRelay(cl *wsClient, typ string, raw map[string]any) error {
	if _, err := ctl.identify(cl, false); err != nil {
		return err
	}
	var p signalPayload
	if err := decode(raw, &p); err != nil {
		return err
	}
	kind := app.SignalKind(strings.TrimPrefix(typ, "signal-"))
	_, err := ctl.Orch.Signal(cl.id, app.Signal{
		Kind:    kind,
		To:      domain.UserID(p.To),
		Payload: p.field(kind),
		CallID:  p.CallID,
	})
	return err
}
