package domain

import "time"

// Attendee is a per-user, per-session participation record.
// Records are never deleted; leaving only flips flags.
type Attendee struct {
	User                   UserID    `json:"user"`
	JoinedAt               time.Time `json:"joinedAt"`
	IsHost                 bool      `json:"isHost"`
	IsCoHost               bool      `json:"isCoHost"`
	IsLeft                 bool      `json:"isLeft"`
	IsMicOn                bool      `json:"isMicOn"`
	IsCameraOn             bool      `json:"isCameraOn"`
	IsPresenting           bool      `json:"isPresenting"`
	ApprovedByHost         bool      `json:"approvedByHost"`
	KickedByHost           bool      `json:"kickedByHost"`
	ApprovedRecording      bool      `json:"approvedRecording"`
	PresentDuringRecording bool      `json:"presentDuringRecording"`
}

// Present reports whether the attendee currently takes part in the room.
func (a *Attendee) Present() bool {
	return !a.IsLeft && !a.KickedByHost
}

// Privileged reports whether the attendee may run host-only transitions.
func (a *Attendee) Privileged() bool {
	return a.Present() && (a.IsHost || a.IsCoHost)
}

// Leave marks the attendee as gone and clears everything a left attendee may not hold.
func (a *Attendee) Leave() {
	a.IsLeft = true
	a.IsCoHost = false
	a.IsMicOn = false
	a.IsCameraOn = false
	a.IsPresenting = false
}

// Kick is Leave plus revoked approval.
func (a *Attendee) Kick() {
	a.Leave()
	a.KickedByHost = true
	a.ApprovedByHost = false
}

// Approve lets a previously kicked or pending attendee in again.
func (a *Attendee) Approve() {
	a.ApprovedByHost = true
	a.KickedByHost = false
}

// Rejoin resets presence and re-applies the join defaults.
func (a *Attendee) Rejoin(prefs Preferences, recording bool) {
	a.IsLeft = false
	a.IsMicOn = prefs.MicOnJoin()
	a.IsCameraOn = prefs.CameraOnJoin(recording)
	a.IsPresenting = false
}

// SetPresenting couples screen share with the camera.
func (a *Attendee) SetPresenting(on bool) {
	a.IsPresenting = on
	if on {
		a.IsCameraOn = true
	}
}

// ConsistencyError returns the first violated invariant, if any.
func (a *Attendee) ConsistencyError() error {
	if a.IsLeft && (a.IsMicOn || a.IsCameraOn || a.IsPresenting || a.IsCoHost) {
		return ErrLeftAttendeeActive
	}
	if a.KickedByHost && a.ApprovedByHost {
		return ErrKickedApproved
	}
	return nil
}
