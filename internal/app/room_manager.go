package app

import (
	"slices"
	"sync"
	"time"

	"github.com/CodeLikeBA56/AI-Powered-SkillSwap-Network-sub001/internal/core"
	"github.com/CodeLikeBA56/AI-Powered-SkillSwap-Network-sub001/internal/domain"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
)

// RoomManagerImpl holds the active-room index. Its lock guards only the
// index; room state is behind each room's own lock, always taken second.
type RoomManagerImpl struct {
	mu        sync.RWMutex
	rooms     map[domain.RoomID]core.RoomService
	bySession map[domain.SessionID]domain.RoomID
	ended     *cache.Cache

	deps core.Deps
	ttl  time.Duration
}

func NewRoomManager(deps core.Deps, ttl time.Duration) *RoomManagerImpl {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &RoomManagerImpl{
		rooms:     make(map[domain.RoomID]core.RoomService),
		bySession: make(map[domain.SessionID]domain.RoomID),
		ended:     cache.New(ttl, ttl/2),
		deps:      deps,
		ttl:       ttl,
	}
}

func (m *RoomManagerImpl) Create(session *domain.Session, host domain.UserID) (core.RoomService, bool, error) {
	if room, ok := m.activeFor(session.ID); ok {
		if room.Room().Host != host {
			return nil, false, domain.ErrNotHost
		}
		return room, false, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.bySession[session.ID]; ok && m.rooms[id].State() != domain.RoomEnded {
		room := m.rooms[id]
		if room.Room().Host != host {
			return nil, false, domain.ErrNotHost
		}
		return room, false, nil
	}

	room := core.NewRoomService(domain.NewRoom(session.ID, host, m.deps.Now(), m.ttl), session, m.deps)
	if _, err := room.Open(); err != nil {
		return nil, false, err
	}
	id := room.Room().ID
	m.rooms[id] = room
	m.bySession[session.ID] = id
	log.Info().Str("module", "app.rooms").Str("room", string(id)).Str("session", string(session.ID)).Msg("room indexed")
	return room, true, nil
}

func (m *RoomManagerImpl) activeFor(sid domain.SessionID) (core.RoomService, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.bySession[sid]
	if !ok {
		return nil, false
	}
	room := m.rooms[id]
	if room.State() == domain.RoomEnded {
		return nil, false
	}
	return room, true
}

func (m *RoomManagerImpl) Get(id domain.RoomID) (core.RoomService, error) {
	m.mu.RLock()
	room, ok := m.rooms[id]
	m.mu.RUnlock()
	if ok {
		return room, nil
	}
	if _, ok := m.ended.Get(string(id)); ok {
		return nil, domain.ErrRoomEnded
	}
	return nil, domain.ErrRoomNotFound
}

func (m *RoomManagerImpl) BySession(sid domain.SessionID) (core.RoomService, error) {
	if room, ok := m.activeFor(sid); ok {
		return room, nil
	}
	return nil, domain.ErrRoomNotFound
}

func (m *RoomManagerImpl) List() []core.RoomInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]core.RoomInfo, 0, len(m.rooms))
	for _, r := range m.rooms {
		out = append(out, r.Info())
	}
	slices.SortFunc(out, func(a, b core.RoomInfo) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out
}

func (m *RoomManagerImpl) RoomsOf(user domain.UserID) []core.RoomService {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []core.RoomService
	for _, r := range m.rooms {
		if r.IsMember(user) {
			out = append(out, r)
		}
	}
	return out
}

func (m *RoomManagerImpl) Release(id domain.RoomID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.rooms[id]
	if !ok {
		return
	}
	delete(m.rooms, id)
	if m.bySession[room.Room().Session] == id {
		delete(m.bySession, room.Room().Session)
	}
	m.ended.Set(string(id), room.Room().Session, cache.DefaultExpiration)
	m.ended.Set(sessionKey(room.Room().Session), room.Session(), cache.DefaultExpiration)
	log.Info().Str("module", "app.rooms").Str("room", string(id)).Msg("room released")
}

func (m *RoomManagerImpl) Expired(now time.Time) []core.RoomService {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []core.RoomService
	for _, r := range m.rooms {
		if r.Room().Expired(now) {
			out = append(out, r)
		}
	}
	return out
}

func (m *RoomManagerImpl) RecentSession(sid domain.SessionID) (*domain.Session, bool) {
	v, ok := m.ended.Get(sessionKey(sid))
	if !ok {
		return nil, false
	}
	return v.(*domain.Session).Clone(), true
}

func (m *RoomManagerImpl) ForgetSession(sid domain.SessionID) {
	m.ended.Delete(sessionKey(sid))
}

func sessionKey(sid domain.SessionID) string { return "session:" + string(sid) }
