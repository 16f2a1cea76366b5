package domain

import (
	"time"

	"github.com/google/uuid"
)

type (
	RoomID    string
	SessionID string
)

type RoomState int

const (
	RoomCreated RoomState = iota
	RoomActive
	RoomEnded
)

func (s RoomState) String() string {
	switch s {
	case RoomCreated:
		return "created"
	case RoomActive:
		return "active"
	case RoomEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Room is the live instantiation of a session. Membership lives in core.
type Room struct {
	ID        RoomID
	Session   SessionID
	Host      UserID
	CreatedAt time.Time
	ExpiresAt time.Time
}

// NewRoom allocates a fresh room id; ids are never reused.
func NewRoom(session SessionID, host UserID, now time.Time, ttl time.Duration) *Room {
	return &Room{
		ID:        RoomID(uuid.NewString()),
		Session:   session,
		Host:      host,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// Expired reports whether the room outlived its hard TTL.
func (r *Room) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && !now.Before(r.ExpiresAt)
}
