package app

import (
	"github.com/CodeLikeBA56/AI-Powered-SkillSwap-Network-sub001/internal/core"
	"github.com/CodeLikeBA56/AI-Powered-SkillSwap-Network-sub001/internal/domain"
	"github.com/rs/zerolog/log"
)

// SignalKind is one step of peer call negotiation.
type SignalKind string

const (
	SignalOffer      SignalKind = "offer"
	SignalAnswer     SignalKind = "answer"
	SignalICE        SignalKind = "ice-candidate"
	SignalNegoOffer  SignalKind = "nego-offer"
	SignalNegoAnswer SignalKind = "nego-answer"
)

// Field names the payload key the kind carries on the wire.
func (k SignalKind) Field() string {
	switch k {
	case SignalOffer, SignalNegoOffer:
		return "offer"
	case SignalAnswer, SignalNegoAnswer:
		return "answer"
	case SignalICE:
		return "candidate"
	default:
		return ""
	}
}

// Signal is an opaque negotiation message addressed to one user.
type Signal struct {
	Kind    SignalKind
	To      domain.UserID
	Payload any
	CallID  string
}

// Relay forwards negotiation messages between two parties without looking inside them.
// It keeps no state; unreachable targets are a silent no-op.
type Relay struct {
	Fanout *Dispatcher
}

func NewRelay(fanout *Dispatcher) *Relay {
	return &Relay{Fanout: fanout}
}

// Forward reports whether the message reached the target's queue.
func (r *Relay) Forward(from core.ConnID, fromUser domain.UserID, sig Signal) (bool, error) {
	field := sig.Kind.Field()
	if field == "" {
		return false, domain.ErrUnknownEvent
	}
	if sig.To == "" || emptyPayload(sig.Payload) {
		log.Debug().Str("module", "app.relay").Str("conn", string(from)).Str("kind", string(sig.Kind)).Msg("dropped signal without target or payload")
		return false, nil
	}

	data := map[string]any{
		"from":       from,
		"fromUserId": fromUser,
		field:        sig.Payload,
	}
	if sig.CallID != "" {
		data["callId"] = sig.CallID
	}
	res := r.Fanout.NotifyUsers([]domain.UserID{sig.To}, core.NewEnvelope(domain.EventPeerSignalPrefix+string(sig.Kind), data))
	log.Debug().Str("module", "app.relay").Str("conn", string(from)).Str("to", string(sig.To)).Str("kind", string(sig.Kind)).Int("sent_to", res.SentTo).Msg("relayed signal")
	return res.SentTo == 1, nil
}

func emptyPayload(v any) bool {
	switch p := v.(type) {
	case nil:
		return true
	case string:
		return p == ""
	case map[string]any:
		return len(p) == 0
	case []any:
		return len(p) == 0
	default:
		return false
	}
}
