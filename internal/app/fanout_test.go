package app

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/CodeLikeBA56/AI-Powered-SkillSwap-Network-sub001/internal/core"
	"github.com/CodeLikeBA56/AI-Powered-SkillSwap-Network-sub001/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func online(d *Directory, user domain.UserID, conn *fakeConn, cancel context.CancelFunc) {
	cid := core.ConnID("conn-" + string(user))
	d.Attach(cid, conn, cancel)
	d.Bind(user, cid)
}

func TestDispatcher_NotifyUsers(t *testing.T) {
	d := NewDirectory()
	alice, bob := &fakeConn{}, &fakeConn{}
	online(d, "alice", alice, nil)
	online(d, "bob", bob, nil)
	f := NewDispatcher(d, nil)

	res := f.NotifyUsers([]domain.UserID{"alice", "bob", "carol"}, core.NewEnvelope("reaction", map[string]any{"n": 1}))
	assert.Equal(t, 2, res.SentTo)
	assert.Equal(t, 1, res.Offline)
	assert.Empty(t, res.Dropped)

	evs := alice.events(t)
	require.Len(t, evs, 1)
	assert.Equal(t, "reaction", evs[0].Type)
	assert.Equal(t, map[string]any{"n": float64(1)}, evs[0].Data)

	t.Run("empty recipient list", func(t *testing.T) {
		assert.Equal(t, core.PublishResult{}, f.NotifyUsers(nil, core.NewEnvelope("x", nil)))
	})
}

func TestDispatcher_PreservesOrder(t *testing.T) {
	d := NewDirectory()
	conn := &fakeConn{}
	online(d, "alice", conn, nil)
	f := NewDispatcher(d, nil)

	var want []string
	for i := range 50 {
		typ := fmt.Sprintf("event-%02d", i)
		want = append(want, typ)
		f.NotifyUsers([]domain.UserID{"alice"}, core.NewEnvelope(typ, nil))
	}
	assert.Equal(t, want, conn.types(t))
}

func TestDispatcher_Backpressure(t *testing.T) {
	t.Run("simple policy disconnects the slow consumer", func(t *testing.T) {
		d := NewDirectory()
		ctx, cancel := context.WithCancel(context.Background())
		slow, fast := &fakeConn{limit: 1}, &fakeConn{}
		online(d, "slow", slow, cancel)
		online(d, "fast", fast, nil)
		f := NewDispatcher(d, SimplePolicy{})

		f.NotifyUsers([]domain.UserID{"slow", "fast"}, core.NewEnvelope("one", nil))
		res := f.NotifyUsers([]domain.UserID{"slow", "fast"}, core.NewEnvelope("two", nil))

		assert.Equal(t, 1, res.SentTo)
		assert.Equal(t, []core.ConnID{"conn-slow"}, res.Dropped)
		assert.ErrorIs(t, ctx.Err(), context.Canceled)
		assert.Equal(t, []string{"one", "two"}, fast.types(t), "other recipients are unaffected")
	})

	t.Run("drop policy keeps the connection", func(t *testing.T) {
		d := NewDirectory()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		slow := &fakeConn{limit: 1}
		online(d, "slow", slow, cancel)
		f := NewDispatcher(d, PolicyByName("drop"))

		f.NotifyUsers([]domain.UserID{"slow"}, core.NewEnvelope("one", nil))
		res := f.NotifyUsers([]domain.UserID{"slow"}, core.NewEnvelope("two", nil))
		assert.Len(t, res.Dropped, 1)
		assert.NoError(t, ctx.Err())
		assert.Equal(t, []string{"one"}, slow.types(t))
	})
}

func TestDispatcher_SendTo(t *testing.T) {
	d := NewDirectory()
	conn := &fakeConn{}
	d.Attach("anon", conn, nil)
	f := NewDispatcher(d, nil)

	require.NoError(t, f.SendTo("anon", core.NewEnvelope(domain.EventPong, nil)))
	assert.Equal(t, []string{domain.EventPong}, conn.types(t), "unbound connections still get direct replies")
	assert.NoError(t, f.SendTo("missing", core.NewEnvelope(domain.EventPong, nil)))
}

func TestDispatcher_NotifyRoom(t *testing.T) {
	d := NewDirectory()
	host, bob := &fakeConn{}, &fakeConn{}
	online(d, "host", host, nil)
	online(d, "bob", bob, nil)
	f := NewDispatcher(d, nil)

	room := core.NewRoomService(domain.NewRoom("s1", "host", time.Now(), time.Hour), &domain.Session{ID: "s1", Host: "host"}, core.Deps{})
	_, err := room.Open()
	require.NoError(t, err)
	_, err = room.Join("bob", domain.Preferences{})
	require.NoError(t, err)

	res := f.NotifyRoom(room, core.NewEnvelope("announcement", nil), "host")
	assert.Equal(t, 1, res.SentTo)
	assert.Empty(t, host.types(t))
	assert.Equal(t, []string{"announcement"}, bob.types(t))
}
