package domain

import "errors"

type ErrorKind int

const (
	KindInvalidReference ErrorKind = iota + 1
	KindUnauthorized
	KindInvalidState
	KindInvalidPayload
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidReference:
		return "invalid_reference"
	case KindUnauthorized:
		return "unauthorized"
	case KindInvalidState:
		return "invalid_state"
	case KindInvalidPayload:
		return "invalid_payload"
	default:
		return "internal"
	}
}

// Error is the typed failure reported back to the requesting connection.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

// Is matches on Code so wrapped copies still compare equal to the sentinels.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

func newError(kind ErrorKind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

var (
	ErrSessionNotFound  = newError(KindInvalidReference, "session_not_found", "session not found")
	ErrRoomNotFound     = newError(KindInvalidReference, "room_not_found", "room not found")
	ErrNotAttendee      = newError(KindInvalidReference, "not_attendee", "user is not a current attendee")
	ErrNotHost          = newError(KindUnauthorized, "not_host", "only the host can do this")
	ErrNotPrivileged    = newError(KindUnauthorized, "not_privileged", "only the host or a co-host can do this")
	ErrKicked           = newError(KindUnauthorized, "kicked", "removed by the host")
	ErrCannotKickHost   = newError(KindUnauthorized, "cannot_kick_host", "the host cannot be kicked")
	ErrIdentityMismatch = newError(KindUnauthorized, "identity_mismatch", "user id does not match the authenticated identity")
	ErrRoomNotActive    = newError(KindInvalidState, "room_not_active", "room is not active")
	ErrRoomEnded        = newError(KindInvalidState, "room_ended", "room has ended")
	ErrSessionClosed    = newError(KindInvalidState, "session_closed", "session is closed")
	ErrSessionLive      = newError(KindInvalidState, "session_live", "session has a live room")
	ErrUnbound          = newError(KindInvalidState, "unbound", "connection is not bound to a user")
	ErrRateLimited      = newError(KindInvalidState, "rate_limited", "too many requests")
	ErrBadPayload       = newError(KindInvalidPayload, "bad_payload", "malformed payload")
	ErrUnknownEvent     = newError(KindInvalidPayload, "unknown_event", "unknown event type")

	ErrLeftAttendeeActive = errors.New("left attendee holds active flags")
	ErrKickedApproved     = errors.New("kicked attendee still approved")
)

// KindOf extracts the kind of a domain error; zero for foreign errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
