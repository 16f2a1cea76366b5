package orch

import (
	"github.com/CodeLikeBA56/AI-Powered-SkillSwap-Network-sub001/internal/domain"
)

// MediaToggle names one of the attendee's own media flags.
type MediaToggle string

const (
	ToggleMic        MediaToggle = "mic"
	ToggleCamera     MediaToggle = "camera"
	TogglePresenting MediaToggle = "presenting"
)

// SetMedia flips one of the caller's own media flags. Media itself never
// passes through here; peers exchange it directly.
func (o *Orchestrator) SetMedia(sid domain.SessionID, user domain.UserID, which MediaToggle, on bool) (domain.Attendee, error) {
	room, err := o.sessionRoom(sid)
	if err != nil {
		return domain.Attendee{}, err
	}
	switch which {
	case ToggleMic:
		return room.SetMic(user, on)
	case ToggleCamera:
		return room.SetCamera(user, on)
	case TogglePresenting:
		return room.SetPresenting(user, on)
	default:
		return domain.Attendee{}, domain.ErrBadPayload
	}
}

func (o *Orchestrator) StartRecording(sid domain.SessionID, caller domain.UserID) error {
	room, err := o.sessionRoom(sid)
	if err != nil {
		return err
	}
	return room.StartRecording(caller)
}

func (o *Orchestrator) StopRecording(sid domain.SessionID, caller domain.UserID) error {
	room, err := o.sessionRoom(sid)
	if err != nil {
		return err
	}
	return room.StopRecording(caller)
}

func (o *Orchestrator) ConsentRecording(sid domain.SessionID, user domain.UserID) error {
	room, err := o.sessionRoom(sid)
	if err != nil {
		return err
	}
	return room.ConsentRecording(user)
}
