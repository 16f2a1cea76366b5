package domain

import "strings"

// Outbound event names.
const (
	EventAttendeeUpdated        = "attendee-updated"
	EventMemberAdded            = "member-added"
	EventMemberRemoved          = "member-removed"
	EventRoomEnded              = "room-ended"
	EventRecordingStatusChanged = "recording-status-changed"
	EventSessionStatusChanged   = "session-status-changed"
	EventRoomState              = "room-state"
	EventBound                  = "bound"
	EventLeft                   = "left"
	EventWhoAmI                 = "whoami"
	EventPong                   = "pong"
	EventNotified               = "notified"
	EventError                  = "error"
	EventPeerSignalPrefix       = "peer-signal-"
)

// ChangeKind names a state transition reported to the journal.
type ChangeKind string

const (
	ChangeRoomCreated      ChangeKind = "room_created"
	ChangeAttendeeJoined   ChangeKind = "attendee_joined"
	ChangeAttendeeLeft     ChangeKind = "attendee_left"
	ChangeAttendeeUpdated  ChangeKind = "attendee_updated"
	ChangeAttendeeKicked   ChangeKind = "attendee_kicked"
	ChangeRecordingStarted ChangeKind = "recording_started"
	ChangeRecordingStopped ChangeKind = "recording_stopped"
	ChangeSessionStatus    ChangeKind = "session_status"
	ChangeRoomEnded        ChangeKind = "room_ended"
)

// Change is one committed transition together with the resulting session copy.
type Change struct {
	Kind    ChangeKind
	Room    RoomRecord
	Session *Session
	Actor   UserID
	Target  UserID
}

var reservedEvents = map[string]struct{}{
	EventAttendeeUpdated:        {},
	EventMemberAdded:            {},
	EventMemberRemoved:          {},
	EventRoomEnded:              {},
	EventRecordingStatusChanged: {},
	EventSessionStatusChanged:   {},
	EventRoomState:              {},
	EventBound:                  {},
	EventLeft:                   {},
	EventWhoAmI:                 {},
	EventPong:                   {},
	EventNotified:               {},
	EventError:                  {},
}

// ReservedEvent reports whether name belongs to the server's own vocabulary,
// which clients may not forge through broadcasts or user notifications.
func ReservedEvent(name string) bool {
	if _, ok := reservedEvents[name]; ok {
		return true
	}
	return strings.HasPrefix(name, EventPeerSignalPrefix)
}
