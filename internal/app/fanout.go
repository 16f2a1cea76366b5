package app

import (
	"github.com/CodeLikeBA56/AI-Powered-SkillSwap-Network-sub001/internal/core"
	"github.com/CodeLikeBA56/AI-Powered-SkillSwap-Network-sub001/internal/domain"
	"github.com/rs/zerolog/log"
)

// Dispatcher delivers events to whichever of the given users are online.
// Delivery never blocks: frames go onto per-connection queues, and a full
// queue is handed to the backpressure policy.
type Dispatcher struct {
	Presence *Directory
	Policy   Policy
}

func NewDispatcher(presence *Directory, policy Policy) *Dispatcher {
	if policy == nil {
		policy = SimplePolicy{}
	}
	return &Dispatcher{Presence: presence, Policy: policy}
}

func (d *Dispatcher) NotifyUsers(users []domain.UserID, ev core.Envelope) core.PublishResult {
	res := core.PublishResult{}
	if len(users) == 0 {
		return res
	}
	frame, err := ev.Encode()
	if err != nil {
		log.Error().Err(err).Str("module", "app.fanout").Str("event", ev.Type).Msg("encode event")
		return res
	}
	for _, u := range users {
		cid, sc, ok := d.Presence.Route(u)
		if !ok {
			res.Offline++
			continue
		}
		if err := sc.TrySend(frame); err != nil {
			res.Dropped = append(res.Dropped, cid)
			d.backpressure(cid, u, ev.Type)
			continue
		}
		res.SentTo++
	}
	log.Debug().Str("module", "app.fanout").Str("event", ev.Type).Int("sent_to", res.SentTo).Int("offline", res.Offline).Int("dropped", len(res.Dropped)).Msg("notify result")
	return res
}

// NotifyRoom sends to the room's current members except one.
// Must not be called while holding the room lock.
func (d *Dispatcher) NotifyRoom(room core.RoomService, ev core.Envelope, except domain.UserID) core.PublishResult {
	members := room.Members()
	to := make([]domain.UserID, 0, len(members))
	for _, u := range members {
		if u != except {
			to = append(to, u)
		}
	}
	return d.NotifyUsers(to, ev)
}

// SendTo delivers one event to one connection regardless of binding.
func (d *Dispatcher) SendTo(cid core.ConnID, ev core.Envelope) error {
	sc, ok := d.Presence.Handle(cid)
	if !ok {
		return nil
	}
	frame, err := ev.Encode()
	if err != nil {
		return err
	}
	if err := sc.TrySend(frame); err != nil {
		u, _ := d.Presence.UserOf(cid)
		d.backpressure(cid, u, ev.Type)
		return err
	}
	return nil
}

func (d *Dispatcher) backpressure(cid core.ConnID, user domain.UserID, event string) {
	switch d.Policy.OnBackPressure(cid, user) {
	case Disconnect:
		log.Warn().Str("module", "app.fanout").Str("conn", string(cid)).Str("user", string(user)).Str("event", event).Msg("slow consumer, disconnecting")
		d.Presence.Cancel(cid)
	case DropFrame:
		log.Debug().Str("module", "app.fanout").Str("conn", string(cid)).Str("user", string(user)).Str("event", event).Msg("frame dropped")
	case NoAction:
	}
}
