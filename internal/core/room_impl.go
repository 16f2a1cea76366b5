package core

import (
	"slices"
	"sync"
	"time"

	"github.com/CodeLikeBA56/AI-Powered-SkillSwap-Network-sub001/internal/domain"
	"github.com/rs/zerolog/log"
)

// roomImpl is a threadsafe in-memory room.
// Notifications and journal records are emitted while the room lock is held,
// so every recipient observes events in mutation order.
// It never closes adapter-owned resources.
type roomImpl struct {
	room    *domain.Room
	mu      sync.RWMutex
	state   domain.RoomState
	session *domain.Session
	members map[domain.UserID]struct{}

	notify  Notifier
	journal Journal
	now     func() time.Time
}

func NewRoomService(room *domain.Room, session *domain.Session, deps Deps) RoomService {
	if deps.Notifier == nil {
		deps.Notifier = nopNotifier{}
	}
	if deps.Journal == nil {
		deps.Journal = nopJournal{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &roomImpl{
		room:    room,
		state:   domain.RoomCreated,
		session: session.Clone(),
		members: make(map[domain.UserID]struct{}),
		notify:  deps.Notifier,
		journal: deps.Journal,
		now:     deps.Now,
	}
}

func (r *roomImpl) Room() *domain.Room { return r.room }

func (r *roomImpl) State() domain.RoomState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

func (r *roomImpl) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

func (r *roomImpl) IsMember(user domain.UserID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.members[user]
	return ok
}

func (r *roomImpl) Members() []domain.UserID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.membersLocked()
}

func (r *roomImpl) Info() RoomInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.infoLocked()
}

func (r *roomImpl) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked()
}

func (r *roomImpl) Session() *domain.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.session.Clone()
}

// Open moves the room from Created to Active and seats the host.
// Opening an active room returns its snapshot unchanged.
func (r *roomImpl) Open() (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch r.state {
	case domain.RoomActive:
		return r.snapshotLocked(), nil
	case domain.RoomEnded:
		return Snapshot{}, domain.ErrRoomEnded
	}

	host := r.room.Host
	if r.session.Host != "" && r.session.Host != host {
		return Snapshot{}, domain.ErrNotHost
	}
	r.session.Host = host
	now := r.now()
	if r.session.ActualStartTime == nil {
		r.session.ActualStartTime = &now
	}

	// Nobody but the host is in a fresh room.
	for i := range r.session.Attendees {
		a := &r.session.Attendees[i]
		if a.User != host {
			a.IsHost = false
			if a.Present() {
				a.Leave()
			}
		}
	}
	a := r.session.Attendee(host)
	if a == nil {
		r.session.Attendees = append(r.session.Attendees, domain.Attendee{User: host, JoinedAt: now})
		a = &r.session.Attendees[len(r.session.Attendees)-1]
	}
	a.IsHost = true
	a.IsLeft = false
	a.Approve()

	r.members[host] = struct{}{}
	r.state = domain.RoomActive
	r.recordLocked(domain.ChangeRoomCreated, host, host)
	log.Info().Str("module", "core.room").Str("room", string(r.room.ID)).Str("session", string(r.session.ID)).Str("host", string(host)).Msg("room opened")
	return r.snapshotLocked(), nil
}

func (r *roomImpl) Join(user domain.UserID, prefs domain.Preferences) (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.activeLocked(); err != nil {
		return Snapshot{}, err
	}
	if r.session.IsSessionClosed && user != r.session.Host {
		return Snapshot{}, domain.ErrSessionClosed
	}

	a := r.session.Attendee(user)
	switch {
	case a == nil:
		r.session.Attendees = append(r.session.Attendees, domain.Attendee{
			User:       user,
			JoinedAt:   r.now(),
			IsMicOn:    prefs.MicOnJoin(),
			IsCameraOn: prefs.CameraOnJoin(r.session.IsBeingRecorded),
		})
		a = &r.session.Attendees[len(r.session.Attendees)-1]
	case a.KickedByHost:
		return Snapshot{}, domain.ErrKicked
	default:
		a.Rejoin(prefs, r.session.IsBeingRecorded)
	}

	_, already := r.members[user]
	r.members[user] = struct{}{}
	if already {
		r.emitLocked(r.othersLocked(user), domain.EventAttendeeUpdated, r.attendeeEvent(a))
	} else {
		cp := *a
		r.emitLocked(r.othersLocked(user), domain.EventMemberAdded, MemberEvent{RoomID: r.room.ID, MemberID: user, Attendee: &cp})
	}
	r.recordLocked(domain.ChangeAttendeeJoined, user, user)
	log.Info().Str("module", "core.room").Str("room", string(r.room.ID)).Str("user", string(user)).Bool("rejoin", already).Msg("attendee joined")
	return r.snapshotLocked(), nil
}

// Leave reports whether anything changed; leaving twice is a silent no-op.
func (r *roomImpl) Leave(user domain.UserID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == domain.RoomEnded {
		return false, nil
	}
	if err := r.activeLocked(); err != nil {
		return false, err
	}
	a := r.session.Attendee(user)
	if a == nil {
		return false, domain.ErrNotAttendee
	}
	_, member := r.members[user]
	if !member && a.IsLeft {
		return false, nil
	}

	a.Leave()
	delete(r.members, user)
	cp := *a
	r.emitLocked(r.membersLocked(), domain.EventMemberRemoved, MemberEvent{RoomID: r.room.ID, MemberID: user, Reason: ReasonLeft, Attendee: &cp})
	r.recordLocked(domain.ChangeAttendeeLeft, user, user)
	log.Info().Str("module", "core.room").Str("room", string(r.room.ID)).Str("user", string(user)).Msg("attendee left")
	return true, nil
}

func (r *roomImpl) SetMic(user domain.UserID, on bool) (domain.Attendee, error) {
	return r.updateSelf(user, func(a *domain.Attendee) { a.IsMicOn = on })
}

func (r *roomImpl) SetCamera(user domain.UserID, on bool) (domain.Attendee, error) {
	return r.updateSelf(user, func(a *domain.Attendee) { a.IsCameraOn = on })
}

func (r *roomImpl) SetPresenting(user domain.UserID, on bool) (domain.Attendee, error) {
	return r.updateSelf(user, func(a *domain.Attendee) { a.SetPresenting(on) })
}

func (r *roomImpl) updateSelf(user domain.UserID, mutate func(*domain.Attendee)) (domain.Attendee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.activeLocked(); err != nil {
		return domain.Attendee{}, err
	}
	a, err := r.memberLocked(user)
	if err != nil {
		return domain.Attendee{}, err
	}
	mutate(a)
	r.emitLocked(r.othersLocked(user), domain.EventAttendeeUpdated, r.attendeeEvent(a))
	r.recordLocked(domain.ChangeAttendeeUpdated, user, user)
	return *a, nil
}

func (r *roomImpl) Kick(caller, target domain.UserID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.activeLocked(); err != nil {
		return err
	}
	if err := r.privilegedLocked(caller); err != nil {
		return err
	}
	t := r.session.Attendee(target)
	if t == nil {
		return domain.ErrNotAttendee
	}
	if t.IsHost || target == r.session.Host {
		return domain.ErrCannotKickHost
	}

	t.Kick()
	delete(r.members, target)
	cp := *t
	r.emitLocked(r.membersLocked(), domain.EventMemberRemoved, MemberEvent{RoomID: r.room.ID, MemberID: target, Reason: ReasonKicked, Attendee: &cp})
	r.emitLocked([]domain.UserID{target}, domain.EventAttendeeUpdated, r.attendeeEvent(t))
	r.recordLocked(domain.ChangeAttendeeKicked, caller, target)
	log.Info().Str("module", "core.room").Str("room", string(r.room.ID)).Str("by", string(caller)).Str("user", string(target)).Msg("attendee kicked")
	return nil
}

// Approve lets target back in. It does not seat them; they still have to join.
func (r *roomImpl) Approve(caller, target domain.UserID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.activeLocked(); err != nil {
		return err
	}
	if err := r.privilegedLocked(caller); err != nil {
		return err
	}
	t := r.session.Attendee(target)
	if t == nil {
		return domain.ErrNotAttendee
	}
	t.Approve()
	rcpt := r.othersLocked(caller)
	if _, ok := r.members[target]; !ok {
		rcpt = append(rcpt, target)
	}
	r.emitLocked(rcpt, domain.EventAttendeeUpdated, r.attendeeEvent(t))
	r.recordLocked(domain.ChangeAttendeeUpdated, caller, target)
	return nil
}

func (r *roomImpl) SetCoHost(caller, target domain.UserID, on bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.activeLocked(); err != nil {
		return err
	}
	if err := r.privilegedLocked(caller); err != nil {
		return err
	}
	var t *domain.Attendee
	if on {
		var err error
		if t, err = r.memberLocked(target); err != nil {
			return err
		}
	} else if t = r.session.Attendee(target); t == nil {
		return domain.ErrNotAttendee
	}
	if t.IsHost || t.IsCoHost == on {
		return nil
	}
	t.IsCoHost = on
	r.emitLocked(r.othersLocked(caller), domain.EventAttendeeUpdated, r.attendeeEvent(t))
	r.recordLocked(domain.ChangeAttendeeUpdated, caller, target)
	return nil
}

// StartRecording marks who is present right now. Later joiners are never
// marked retroactively; restarting an ongoing recording is a no-op.
func (r *roomImpl) StartRecording(caller domain.UserID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.activeLocked(); err != nil {
		return err
	}
	if err := r.privilegedLocked(caller); err != nil {
		return err
	}
	if r.session.IsBeingRecorded {
		return nil
	}
	r.session.IsBeingRecorded = true
	for i := range r.session.Attendees {
		a := &r.session.Attendees[i]
		if a.IsHost {
			a.PresentDuringRecording = true
			a.ApprovedRecording = true
			continue
		}
		if a.Present() && a.ApprovedByHost {
			a.PresentDuringRecording = true
		}
	}
	r.emitRecordingLocked()
	r.recordLocked(domain.ChangeRecordingStarted, caller, "")
	log.Info().Str("module", "core.room").Str("room", string(r.room.ID)).Str("by", string(caller)).Msg("recording started")
	return nil
}

func (r *roomImpl) StopRecording(caller domain.UserID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.activeLocked(); err != nil {
		return err
	}
	if err := r.privilegedLocked(caller); err != nil {
		return err
	}
	if !r.session.IsBeingRecorded {
		return nil
	}
	r.session.IsBeingRecorded = false
	r.emitRecordingLocked()
	r.recordLocked(domain.ChangeRecordingStopped, caller, "")
	log.Info().Str("module", "core.room").Str("room", string(r.room.ID)).Str("by", string(caller)).Msg("recording stopped")
	return nil
}

// ConsentRecording records the attendee's approval; the host hears about it
// even when not currently seated.
func (r *roomImpl) ConsentRecording(user domain.UserID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.activeLocked(); err != nil {
		return err
	}
	a, err := r.memberLocked(user)
	if err != nil {
		return err
	}
	a.ApprovedRecording = true
	rcpt := r.othersLocked(user)
	if host := r.session.Host; host != user && !slices.Contains(rcpt, host) {
		rcpt = append(rcpt, host)
	}
	r.emitLocked(rcpt, domain.EventAttendeeUpdated, r.attendeeEvent(a))
	r.recordLocked(domain.ChangeAttendeeUpdated, user, user)
	return nil
}

func (r *roomImpl) SetClosed(caller domain.UserID, closed bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.activeLocked(); err != nil {
		return err
	}
	if caller != r.session.Host {
		return domain.ErrNotHost
	}
	if r.session.IsSessionClosed == closed {
		return nil
	}
	r.session.IsSessionClosed = closed
	r.emitLocked(r.othersLocked(caller), domain.EventSessionStatusChanged, SessionStatusEvent{
		RoomID:          r.room.ID,
		SessionID:       r.session.ID,
		IsSessionClosed: closed,
	})
	r.recordLocked(domain.ChangeSessionStatus, caller, "")
	return nil
}

func (r *roomImpl) End(caller domain.UserID, recordingURL string) ([]domain.UserID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch r.state {
	case domain.RoomEnded:
		return nil, domain.ErrRoomEnded
	case domain.RoomCreated:
		return nil, domain.ErrRoomNotActive
	}
	if caller != "" && caller != r.session.Host {
		return nil, domain.ErrNotHost
	}

	former := r.membersLocked()
	for _, u := range former {
		if a := r.session.Attendee(u); a != nil {
			a.Leave()
		}
	}
	if recordingURL != "" {
		r.session.RecordingURL = recordingURL
	}
	r.session.IsBeingRecorded = false
	r.state = domain.RoomEnded
	r.emitLocked(former, domain.EventRoomEnded, RoomEndedEvent{
		RoomID:       r.room.ID,
		SessionID:    r.session.ID,
		RecordingURL: r.session.RecordingURL,
	})
	clear(r.members)
	r.recordLocked(domain.ChangeRoomEnded, caller, "")
	log.Info().Str("module", "core.room").Str("room", string(r.room.ID)).Str("by", string(caller)).Int("members", len(former)).Msg("room ended")
	return former, nil
}

func (r *roomImpl) Broadcast(from domain.UserID, eventName string, payload any) (PublishResult, error) {
	if eventName == "" || domain.ReservedEvent(eventName) {
		return PublishResult{}, domain.ErrBadPayload
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.activeLocked(); err != nil {
		return PublishResult{}, err
	}
	if _, ok := r.members[from]; !ok {
		return PublishResult{}, domain.ErrNotAttendee
	}
	res := r.emitLocked(r.othersLocked(from), eventName, BroadcastEvent{RoomID: r.room.ID, From: from, Payload: payload})
	log.Debug().Str("module", "core.room").Str("from", string(from)).Str("event", eventName).Int("sent_to", res.SentTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res, nil
}

func (r *roomImpl) activeLocked() error {
	switch r.state {
	case domain.RoomActive:
		return nil
	case domain.RoomEnded:
		return domain.ErrRoomEnded
	default:
		return domain.ErrRoomNotActive
	}
}

// memberLocked resolves a seated attendee.
func (r *roomImpl) memberLocked(user domain.UserID) (*domain.Attendee, error) {
	a := r.session.Attendee(user)
	if a == nil {
		return nil, domain.ErrNotAttendee
	}
	if a.KickedByHost {
		return nil, domain.ErrKicked
	}
	if _, ok := r.members[user]; !ok {
		return nil, domain.ErrNotAttendee
	}
	return a, nil
}

func (r *roomImpl) privilegedLocked(caller domain.UserID) error {
	a := r.session.Attendee(caller)
	if a == nil || !a.Privileged() {
		return domain.ErrNotPrivileged
	}
	if _, ok := r.members[caller]; !ok {
		return domain.ErrNotPrivileged
	}
	return nil
}

func (r *roomImpl) membersLocked() []domain.UserID {
	out := make([]domain.UserID, 0, len(r.members))
	for _, a := range orderAttendees(r.session.Attendees) {
		if _, ok := r.members[a.User]; ok {
			out = append(out, a.User)
		}
	}
	return out
}

func (r *roomImpl) othersLocked(except domain.UserID) []domain.UserID {
	return slices.DeleteFunc(r.membersLocked(), func(u domain.UserID) bool { return u == except })
}

func (r *roomImpl) emitLocked(to []domain.UserID, typ string, data any) PublishResult {
	if len(to) == 0 {
		return PublishResult{}
	}
	return r.notify.NotifyUsers(to, NewEnvelope(typ, data))
}

func (r *roomImpl) emitRecordingLocked() {
	r.emitLocked(r.membersLocked(), domain.EventRecordingStatusChanged, RecordingEvent{
		RoomID:          r.room.ID,
		SessionID:       r.session.ID,
		IsBeingRecorded: r.session.IsBeingRecorded,
		Attendees:       orderAttendees(r.session.Attendees),
	})
}

func (r *roomImpl) attendeeEvent(a *domain.Attendee) AttendeeEvent {
	return AttendeeEvent{RoomID: r.room.ID, SessionID: r.session.ID, Attendee: *a}
}

func (r *roomImpl) recordLocked(kind domain.ChangeKind, actor, target domain.UserID) {
	r.journal.Record(domain.Change{
		Kind: kind,
		Room: domain.RoomRecord{
			ID:           r.room.ID,
			Session:      r.room.Session,
			Host:         r.room.Host,
			Participants: r.membersLocked(),
			IsActive:     r.state == domain.RoomActive,
			CreatedAt:    r.room.CreatedAt,
		},
		Session: r.session.Clone(),
		Actor:   actor,
		Target:  target,
	})
}

func (r *roomImpl) infoLocked() RoomInfo {
	return RoomInfo{
		ID:          r.room.ID,
		Session:     r.room.Session,
		Host:        r.room.Host,
		State:       r.state.String(),
		MemberCount: len(r.members),
		CreatedAt:   r.room.CreatedAt,
		ExpiresAt:   r.room.ExpiresAt,
	}
}

func (r *roomImpl) snapshotLocked() Snapshot {
	s := Snapshot{
		Room:            r.infoLocked(),
		Members:         r.membersLocked(),
		Title:           r.session.Title,
		IsBeingRecorded: r.session.IsBeingRecorded,
		IsSessionClosed: r.session.IsSessionClosed,
		RecordingURL:    r.session.RecordingURL,
		Attendees:       orderAttendees(r.session.Attendees),
	}
	if t := r.session.ActualStartTime; t != nil {
		cp := *t
		s.ActualStartTime = &cp
	}
	return s
}

// orderAttendees copies the list with the host first and everyone else in join order.
func orderAttendees(in []domain.Attendee) []domain.Attendee {
	out := slices.Clone(in)
	slices.SortStableFunc(out, func(a, b domain.Attendee) int {
		switch {
		case a.IsHost == b.IsHost:
			return 0
		case a.IsHost:
			return -1
		default:
			return 1
		}
	})
	return out
}
