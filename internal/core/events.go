package core

import "github.com/CodeLikeBA56/AI-Powered-SkillSwap-Network-sub001/internal/domain"

// Member removal reasons.
const (
	ReasonLeft   = "left"
	ReasonKicked = "kicked"
)

type AttendeeEvent struct {
	RoomID    domain.RoomID    `json:"roomId"`
	SessionID domain.SessionID `json:"sessionId"`
	Attendee  domain.Attendee  `json:"attendee"`
}

type MemberEvent struct {
	RoomID   domain.RoomID    `json:"roomId"`
	MemberID domain.UserID    `json:"memberId"`
	Reason   string           `json:"reason,omitempty"`
	Attendee *domain.Attendee `json:"attendee,omitempty"`
}

type RoomEndedEvent struct {
	RoomID       domain.RoomID    `json:"roomId"`
	SessionID    domain.SessionID `json:"sessionId"`
	RecordingURL string           `json:"recordingUrl,omitempty"`
}

type RecordingEvent struct {
	RoomID          domain.RoomID     `json:"roomId"`
	SessionID       domain.SessionID  `json:"sessionId"`
	IsBeingRecorded bool              `json:"isBeingRecorded"`
	Attendees       []domain.Attendee `json:"attendees"`
}

type SessionStatusEvent struct {
	RoomID          domain.RoomID    `json:"roomId"`
	SessionID       domain.SessionID `json:"sessionId"`
	IsSessionClosed bool             `json:"isSessionClosed"`
}

// BroadcastEvent wraps an opaque client payload relayed to the room.
type BroadcastEvent struct {
	RoomID  domain.RoomID `json:"roomId"`
	From    domain.UserID `json:"from"`
	Payload any           `json:"payload,omitempty"`
}

// NotifyEvent wraps an opaque payload one user sends to a set of users.
type NotifyEvent struct {
	From    domain.UserID `json:"from"`
	Payload any           `json:"payload,omitempty"`
}
