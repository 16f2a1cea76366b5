package store

import (
	"context"
	"testing"
	"time"

	"github.com/CodeLikeBA56/AI-Powered-SkillSwap-Network-sub001/internal/config"
	"github.com/CodeLikeBA56/AI-Powered-SkillSwap-Network-sub001/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMemory(t *testing.T) Persister {
	t.Helper()
	p, err := Open(config.PersistenceConfig{Type: "buntdb"}, time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })
	return p
}

func TestBuntDB_Sessions(t *testing.T) {
	p := openMemory(t)
	ctx := context.Background()

	_, err := p.LoadSession(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	s := &domain.Session{
		ID:              "s1",
		Host:            "host",
		Title:           "Pairing",
		IsSessionClosed: true,
		ActualStartTime: &start,
		Attendees: []domain.Attendee{
			{User: "host", IsHost: true, ApprovedByHost: true},
			{User: "bob", IsLeft: true, KickedByHost: true},
		},
	}
	require.NoError(t, p.SaveSession(ctx, s))

	got, err := p.LoadSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Pairing", got.Title)
	assert.True(t, got.IsSessionClosed)
	require.NotNil(t, got.ActualStartTime)
	assert.True(t, start.Equal(*got.ActualStartTime))
	require.Len(t, got.Attendees, 2)
	assert.True(t, got.Attendees[1].KickedByHost)

	s.Title = "Renamed"
	require.NoError(t, p.SaveSession(ctx, s))
	got, err = p.LoadSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
}

func TestBuntDB_Rooms(t *testing.T) {
	p := openMemory(t)
	ctx := context.Background()

	_, err := p.LoadRoom(ctx, "r1")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)

	now := time.Now().UTC()
	older := domain.RoomRecord{ID: "r-old", Session: "s1", Host: "host", Participants: []domain.UserID{"host"}, IsActive: true, CreatedAt: now.Add(-10 * time.Minute)}
	newer := domain.RoomRecord{ID: "r-new", Session: "s2", Host: "other", Participants: []domain.UserID{"other", "bob"}, IsActive: true, CreatedAt: now}
	require.NoError(t, p.SaveRoom(ctx, newer))
	require.NoError(t, p.SaveRoom(ctx, older))

	got, err := p.LoadRoom(ctx, "r-new")
	require.NoError(t, err)
	assert.Equal(t, []domain.UserID{"other", "bob"}, got.Participants)

	rooms, err := p.ListRooms(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, domain.RoomID("r-old"), rooms[0].ID)
	assert.Equal(t, domain.RoomID("r-new"), rooms[1].ID)
}

func TestDeactivateRooms(t *testing.T) {
	p := openMemory(t)
	ctx := context.Background()

	n, err := DeactivateRooms(ctx, p)
	require.NoError(t, err)
	assert.Zero(t, n, "empty store")

	now := time.Now().UTC()
	require.NoError(t, p.SaveRoom(ctx, domain.RoomRecord{ID: "r1", Session: "s1", Host: "host", Participants: []domain.UserID{"host", "bob"}, IsActive: true, CreatedAt: now.Add(-time.Minute)}))
	require.NoError(t, p.SaveRoom(ctx, domain.RoomRecord{ID: "r2", Session: "s2", Host: "other", IsActive: true, CreatedAt: now}))
	require.NoError(t, p.SaveRoom(ctx, domain.RoomRecord{ID: "r3", Session: "s3", Host: "host", IsActive: false, CreatedAt: now}))

	n, err = DeactivateRooms(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rooms, err := p.ListRooms(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, 3)
	for _, r := range rooms {
		assert.False(t, r.IsActive, "room %s", r.ID)
	}
	r1, err := p.LoadRoom(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, []domain.UserID{"host", "bob"}, r1.Participants, "the rest of the document is kept")

	t.Run("second pass changes nothing", func(t *testing.T) {
		n, err := DeactivateRooms(ctx, p)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestOpen_UnknownType(t *testing.T) {
	_, err := Open(config.PersistenceConfig{Type: "mongo"}, time.Hour)
	assert.Error(t, err)
}
