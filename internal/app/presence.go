package app

import (
	"context"
	"sync"

	"github.com/CodeLikeBA56/AI-Powered-SkillSwap-Network-sub001/internal/core"
	"github.com/CodeLikeBA56/AI-Powered-SkillSwap-Network-sub001/internal/domain"
	"github.com/rs/zerolog/log"
)

type connEntry struct {
	Signal core.SignalConnection
	Cancel context.CancelFunc
	User   domain.UserID
}

// Directory maps users to their single live connection and back.
// Both directions are kept in lockstep under one lock.
type Directory struct {
	mu    sync.RWMutex
	conns map[core.ConnID]*connEntry
	users map[domain.UserID]core.ConnID
}

func NewDirectory() *Directory {
	return &Directory{
		conns: make(map[core.ConnID]*connEntry),
		users: make(map[domain.UserID]core.ConnID),
	}
}

// Attach registers the transport handle of a freshly accepted connection.
func (d *Directory) Attach(cid core.ConnID, sc core.SignalConnection, cancel context.CancelFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if e, ok := d.conns[cid]; ok {
		e.Signal, e.Cancel = sc, cancel
		return
	}
	d.conns[cid] = &connEntry{Signal: sc, Cancel: cancel}
	log.Debug().Str("module", "app.presence").Str("conn", string(cid)).Msg("attached connection")
}

// Detach forgets the connection entirely and reports the user it was bound to.
func (d *Directory) Detach(cid core.ConnID) (domain.UserID, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	u, ok := d.unbindLocked(cid)
	delete(d.conns, cid)
	log.Debug().Str("module", "app.presence").Str("conn", string(cid)).Msg("detached connection")
	return u, ok
}

// Bind associates user with cid; the last writer wins. Any previous connection
// of the user and any previous user of the connection are evicted. The displaced
// connection id is returned, empty when there was none.
func (d *Directory) Bind(user domain.UserID, cid core.ConnID) core.ConnID {
	d.mu.Lock()
	defer d.mu.Unlock()

	e, ok := d.conns[cid]
	if !ok {
		e = &connEntry{}
		d.conns[cid] = e
	}
	if e.User != "" && e.User != user && d.users[e.User] == cid {
		delete(d.users, e.User)
	}

	var displaced core.ConnID
	if prev, ok := d.users[user]; ok && prev != cid {
		if pe, ok := d.conns[prev]; ok {
			pe.User = ""
		}
		displaced = prev
	}
	d.users[user] = cid
	e.User = user
	log.Info().Str("module", "app.presence").Str("conn", string(cid)).Str("user", string(user)).Str("displaced", string(displaced)).Msg("bound user")
	return displaced
}

// Unbind is idempotent; it reports the user that was bound, if any.
func (d *Directory) Unbind(cid core.ConnID) (domain.UserID, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.unbindLocked(cid)
}

func (d *Directory) unbindLocked(cid core.ConnID) (domain.UserID, bool) {
	e, ok := d.conns[cid]
	if !ok || e.User == "" {
		return "", false
	}
	u := e.User
	e.User = ""
	if d.users[u] == cid {
		delete(d.users, u)
	}
	log.Info().Str("module", "app.presence").Str("conn", string(cid)).Str("user", string(u)).Msg("unbound user")
	return u, true
}

func (d *Directory) Lookup(user domain.UserID) (core.ConnID, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	cid, ok := d.users[user]
	return cid, ok
}

func (d *Directory) UserOf(cid core.ConnID) (domain.UserID, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.conns[cid]
	if !ok || e.User == "" {
		return "", false
	}
	return e.User, true
}

func (d *Directory) Handle(cid core.ConnID) (core.SignalConnection, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.conns[cid]
	if !ok || e.Signal == nil {
		return nil, false
	}
	return e.Signal, true
}

// Route resolves a user to a deliverable connection in one lookup.
func (d *Directory) Route(user domain.UserID) (core.ConnID, core.SignalConnection, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	cid, ok := d.users[user]
	if !ok {
		return "", nil, false
	}
	e, ok := d.conns[cid]
	if !ok || e.Signal == nil {
		return "", nil, false
	}
	return cid, e.Signal, true
}

// Online filters users down to the ones with a live binding, keeping order.
func (d *Directory) Online(users []domain.UserID) []domain.UserID {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]domain.UserID, 0, len(users))
	for _, u := range users {
		if _, ok := d.users[u]; ok {
			out = append(out, u)
		}
	}
	return out
}

func (d *Directory) Count() (conns, users int) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.conns), len(d.users)
}

// Cancel stops the connection's context; the adapter closes the transport.
func (d *Directory) Cancel(cid core.ConnID) bool {
	d.mu.RLock()
	e, ok := d.conns[cid]
	var cancel context.CancelFunc
	if ok {
		cancel = e.Cancel
	}
	d.mu.RUnlock()
	if !ok {
		return false
	}
	if cancel != nil {
		cancel()
	}
	log.Info().Str("module", "app.presence").Str("conn", string(cid)).Msg("canceled connection")
	return true
}
