package orch

import (
	"context"
	"sync"
	"time"

	"github.com/CodeLikeBA56/AI-Powered-SkillSwap-Network-sub001/internal/app"
	"github.com/CodeLikeBA56/AI-Powered-SkillSwap-Network-sub001/internal/core"
	"github.com/CodeLikeBA56/AI-Powered-SkillSwap-Network-sub001/internal/domain"
	"github.com/rs/zerolog/log"
)

// SessionStore is the read side of the persistence collaborator plus the
// upsert used to seed session documents.
type SessionStore interface {
	LoadSession(ctx context.Context, id domain.SessionID) (*domain.Session, error)
	SaveSession(ctx context.Context, s *domain.Session) error
	LoadRoom(ctx context.Context, id domain.RoomID) (domain.RoomRecord, error)
}

// Orchestrator coordinates presence, rooms, relay and fan-out. Transport
// adapters and the HTTP surface only talk to it.
type Orchestrator struct {
	Presence *app.Directory
	Rooms    core.RoomManager
	Fanout   *app.Dispatcher
	Relay    *app.Relay
	Sessions SessionStore
	// Grace delays the leave that follows a disconnect; zero leaves at once.
	Grace time.Duration

	mu      sync.Mutex
	pending map[domain.UserID]*time.Timer
}

func New(presence *app.Directory, rooms core.RoomManager, fanout *app.Dispatcher, sessions SessionStore, grace time.Duration) *Orchestrator {
	return &Orchestrator{
		Presence: presence,
		Rooms:    rooms,
		Fanout:   fanout,
		Relay:    app.NewRelay(fanout),
		Sessions: sessions,
		Grace:    grace,
		pending:  make(map[domain.UserID]*time.Timer),
	}
}

// OnConnect registers a freshly upgraded connection.
func (o *Orchestrator) OnConnect(cid core.ConnID, sc core.SignalConnection, cancel context.CancelFunc) {
	o.Presence.Attach(cid, sc, cancel)
}

// BindUser makes cid the live connection of user. A reconnect within the
// grace window cancels the pending leave.
func (o *Orchestrator) BindUser(cid core.ConnID, user domain.UserID) core.ConnID {
	o.cancelPendingLeave(user)
	displaced := o.Presence.Bind(user, cid)
	if displaced != "" {
		log.Info().Str("module", "orch").Str("user", string(user)).Str("conn", string(cid)).Str("displaced", string(displaced)).Msg("connection displaced")
		o.Reply(displaced, domain.EventLeft, map[string]any{"userId": user, "reason": "displaced"})
	}
	return displaced
}

// Unbind is an explicit logout: the user leaves every room immediately.
func (o *Orchestrator) Unbind(cid core.ConnID) (domain.UserID, bool) {
	user, ok := o.Presence.Unbind(cid)
	if !ok {
		return "", false
	}
	o.cancelPendingLeave(user)
	o.leaveAll(user)
	return user, true
}

// OnDisconnect runs when the transport is gone. Only the user's current
// binding leaves rooms; a displaced connection closing changes nothing.
func (o *Orchestrator) OnDisconnect(cid core.ConnID) {
	user, ok := o.Presence.Detach(cid)
	if !ok {
		return
	}
	if o.Grace <= 0 {
		o.leaveAll(user)
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if t, ok := o.pending[user]; ok {
		t.Stop()
	}
	o.pending[user] = time.AfterFunc(o.Grace, func() { o.expireGrace(user) })
	log.Info().Str("module", "orch").Str("user", string(user)).Dur("grace", o.Grace).Msg("leave scheduled")
}

func (o *Orchestrator) expireGrace(user domain.UserID) {
	o.mu.Lock()
	delete(o.pending, user)
	o.mu.Unlock()
	if _, online := o.Presence.Lookup(user); online {
		return
	}
	o.leaveAll(user)
}

func (o *Orchestrator) cancelPendingLeave(user domain.UserID) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if t, ok := o.pending[user]; ok {
		t.Stop()
		delete(o.pending, user)
		log.Info().Str("module", "orch").Str("user", string(user)).Msg("pending leave canceled")
	}
}

func (o *Orchestrator) leaveAll(user domain.UserID) {
	for _, room := range o.Rooms.RoomsOf(user) {
		if _, err := room.Leave(user); err != nil {
			log.Warn().Err(err).Str("module", "orch").Str("room", string(room.Room().ID)).Str("user", string(user)).Msg("leave on disconnect")
		}
	}
}

// Identify resolves the user currently bound to cid.
func (o *Orchestrator) Identify(cid core.ConnID) (domain.UserID, error) {
	user, ok := o.Presence.UserOf(cid)
	if !ok {
		return "", domain.ErrUnbound
	}
	return user, nil
}

// Signal relays one negotiation message from the user bound to cid.
func (o *Orchestrator) Signal(cid core.ConnID, sig app.Signal) (bool, error) {
	user, err := o.Identify(cid)
	if err != nil {
		return false, err
	}
	return o.Relay.Forward(cid, user, sig)
}

// NotifyUsers sends an application event from the user bound to cid to every
// listed user who is online. Offline recipients are counted, never an error.
func (o *Orchestrator) NotifyUsers(cid core.ConnID, to []domain.UserID, eventName string, payload any) (core.PublishResult, error) {
	user, err := o.Identify(cid)
	if err != nil {
		return core.PublishResult{}, err
	}
	if eventName == "" || domain.ReservedEvent(eventName) {
		return core.PublishResult{}, domain.ErrBadPayload
	}
	seen := make(map[domain.UserID]struct{}, len(to))
	recipients := make([]domain.UserID, 0, len(to))
	for _, u := range to {
		if _, dup := seen[u]; dup || u == "" {
			continue
		}
		seen[u] = struct{}{}
		recipients = append(recipients, u)
	}
	if len(recipients) == 0 {
		return core.PublishResult{}, domain.ErrBadPayload
	}
	res := o.Fanout.NotifyUsers(recipients, core.NewEnvelope(eventName, core.NotifyEvent{From: user, Payload: payload}))
	log.Debug().Str("module", "orch").Str("from", string(user)).Str("event", eventName).Int("sent_to", res.SentTo).Int("offline", res.Offline).Msg("notify users")
	return res, nil
}

// Reply sends one event to the connection itself.
func (o *Orchestrator) Reply(cid core.ConnID, typ string, data any) {
	if err := o.Fanout.SendTo(cid, core.NewEnvelope(typ, data)); err != nil {
		log.Debug().Err(err).Str("module", "orch").Str("conn", string(cid)).Str("event", typ).Msg("reply dropped")
	}
}

// Reap ends every room past its TTL on behalf of the system.
func (o *Orchestrator) Reap(now time.Time) int {
	n := 0
	for _, room := range o.Rooms.Expired(now) {
		if _, err := room.End("", ""); err != nil {
			log.Warn().Err(err).Str("module", "orch").Str("room", string(room.Room().ID)).Msg("reap room")
		}
		o.Rooms.Release(room.Room().ID)
		n++
	}
	if n > 0 {
		log.Info().Str("module", "orch").Int("rooms", n).Msg("reaped expired rooms")
	}
	return n
}

// Drain waits for every connection to go away, then runs the leaves still
// waiting out their grace period so they reach the journal before shutdown.
func (o *Orchestrator) Drain(ctx context.Context) error {
	t := time.NewTicker(10 * time.Millisecond)
	defer t.Stop()
	for {
		conns, _ := o.Presence.Count()
		if conns == 0 {
			break
		}
		select {
		case <-ctx.Done():
			log.Warn().Str("module", "orch").Int("conns", conns).Msg("drain timed out")
			return ctx.Err()
		case <-t.C:
		}
	}

	o.mu.Lock()
	users := make([]domain.UserID, 0, len(o.pending))
	for user, timer := range o.pending {
		timer.Stop()
		delete(o.pending, user)
		users = append(users, user)
	}
	o.mu.Unlock()
	for _, user := range users {
		o.leaveAll(user)
	}
	log.Info().Str("module", "orch").Int("pending_leaves", len(users)).Msg("drained")
	return nil
}

// Stop cancels pending grace timers.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	for user, t := range o.pending {
		t.Stop()
		delete(o.pending, user)
	}
}

// RoomsOf lists the rooms the user is currently seated in.
func (o *Orchestrator) RoomsOf(user domain.UserID) []domain.RoomID {
	rooms := o.Rooms.RoomsOf(user)
	out := make([]domain.RoomID, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, r.Room().ID)
	}
	return out
}
