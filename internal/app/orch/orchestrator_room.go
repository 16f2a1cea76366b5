package orch

import (
	"context"
	"errors"
	"fmt"

	"github.com/CodeLikeBA56/AI-Powered-SkillSwap-Network-sub001/internal/core"
	"github.com/CodeLikeBA56/AI-Powered-SkillSwap-Network-sub001/internal/domain"
	"github.com/rs/zerolog/log"
)

// PutSession seeds a session document, or retitles an existing one. Sessions
// with a live room are owned by the room and cannot be touched.
func (o *Orchestrator) PutSession(ctx context.Context, sid domain.SessionID, host domain.UserID, title string) (*domain.Session, error) {
	if _, err := o.Rooms.BySession(sid); err == nil {
		return nil, domain.ErrSessionLive
	}
	s, err := o.Sessions.LoadSession(ctx, sid)
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		s = &domain.Session{ID: sid, Host: host, Attendees: []domain.Attendee{}}
	case err != nil:
		return nil, err
	case s.Host != "" && s.Host != host:
		return nil, domain.ErrNotHost
	}
	s.Host = host
	s.Title = title
	if err := o.Sessions.SaveSession(ctx, s); err != nil {
		return nil, fmt.Errorf("save session %s: %w", sid, err)
	}
	o.Rooms.ForgetSession(sid)
	return s, nil
}

// CreateRoom opens the live room of a session, or returns the one already active.
func (o *Orchestrator) CreateRoom(ctx context.Context, sid domain.SessionID, host domain.UserID) (core.Snapshot, bool, error) {
	if room, err := o.Rooms.BySession(sid); err == nil {
		if room.Room().Host != host {
			return core.Snapshot{}, false, domain.ErrNotHost
		}
		return room.Snapshot(), false, nil
	}

	session, ok := o.Rooms.RecentSession(sid)
	if !ok {
		var err error
		if session, err = o.Sessions.LoadSession(ctx, sid); err != nil {
			return core.Snapshot{}, false, err
		}
	}
	room, created, err := o.Rooms.Create(session, host)
	if err != nil {
		return core.Snapshot{}, false, err
	}
	return room.Snapshot(), created, nil
}

func (o *Orchestrator) ListRooms() []core.RoomInfo {
	return o.Rooms.List()
}

func (o *Orchestrator) RoomSnapshot(id domain.RoomID) (core.Snapshot, error) {
	room, err := o.room(id)
	if err != nil {
		return core.Snapshot{}, err
	}
	return room.Snapshot(), nil
}

func (o *Orchestrator) SessionSnapshot(sid domain.SessionID) (core.Snapshot, error) {
	room, err := o.sessionRoom(sid)
	if err != nil {
		return core.Snapshot{}, err
	}
	return room.Snapshot(), nil
}

func (o *Orchestrator) JoinSession(sid domain.SessionID, user domain.UserID, prefs domain.Preferences) (core.Snapshot, error) {
	room, err := o.sessionRoom(sid)
	if err != nil {
		return core.Snapshot{}, err
	}
	return room.Join(user, prefs)
}

func (o *Orchestrator) JoinRoom(id domain.RoomID, user domain.UserID, prefs domain.Preferences) (core.Snapshot, error) {
	room, err := o.room(id)
	if err != nil {
		return core.Snapshot{}, err
	}
	return room.Join(user, prefs)
}

func (o *Orchestrator) LeaveSession(sid domain.SessionID, user domain.UserID) (bool, error) {
	room, err := o.sessionRoom(sid)
	if err != nil {
		return false, err
	}
	return room.Leave(user)
}

func (o *Orchestrator) LeaveRoom(id domain.RoomID, user domain.UserID) (bool, error) {
	room, err := o.room(id)
	if errors.Is(err, domain.ErrRoomEnded) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return room.Leave(user)
}

func (o *Orchestrator) Kick(sid domain.SessionID, caller, target domain.UserID) error {
	room, err := o.sessionRoom(sid)
	if err != nil {
		return err
	}
	return room.Kick(caller, target)
}

func (o *Orchestrator) Approve(sid domain.SessionID, caller, target domain.UserID) error {
	room, err := o.sessionRoom(sid)
	if err != nil {
		return err
	}
	return room.Approve(caller, target)
}

func (o *Orchestrator) SetCoHost(sid domain.SessionID, caller, target domain.UserID, on bool) error {
	room, err := o.sessionRoom(sid)
	if err != nil {
		return err
	}
	return room.SetCoHost(caller, target, on)
}

func (o *Orchestrator) SetSessionClosed(sid domain.SessionID, caller domain.UserID, closed bool) error {
	room, err := o.sessionRoom(sid)
	if err != nil {
		return err
	}
	return room.SetClosed(caller, closed)
}

// EndRoom ends the room for everyone and drops it from the index.
func (o *Orchestrator) EndRoom(id domain.RoomID, caller domain.UserID, recordingURL string) error {
	room, err := o.room(id)
	if err != nil {
		return err
	}
	former, err := room.End(caller, recordingURL)
	if err != nil {
		return err
	}
	o.Rooms.Release(id)
	log.Info().Str("module", "orch").Str("room", string(id)).Int("notified", len(former)).Msg("room closed")
	return nil
}

// Broadcast relays an opaque client event to the other members of a room.
func (o *Orchestrator) Broadcast(cid core.ConnID, id domain.RoomID, eventName string, payload any) (core.PublishResult, error) {
	user, err := o.Identify(cid)
	if err != nil {
		return core.PublishResult{}, err
	}
	room, err := o.room(id)
	if err != nil {
		return core.PublishResult{}, err
	}
	return room.Broadcast(user, eventName, payload)
}

// room resolves a live room. A room known only to the store was opened by an
// earlier process and reports as ended.
func (o *Orchestrator) room(id domain.RoomID) (core.RoomService, error) {
	room, err := o.Rooms.Get(id)
	if !errors.Is(err, domain.ErrRoomNotFound) {
		return room, err
	}
	if rec, lerr := o.Sessions.LoadRoom(context.Background(), id); lerr == nil && !rec.IsActive {
		return nil, domain.ErrRoomEnded
	}
	return nil, err
}

func (o *Orchestrator) sessionRoom(sid domain.SessionID) (core.RoomService, error) {
	return o.Rooms.BySession(sid)
}
