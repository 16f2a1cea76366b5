package core

import (
	"time"

	"github.com/CodeLikeBA56/AI-Powered-SkillSwap-Network-sub001/internal/domain"
)

// RoomInfo is a read-only view for listings.
type RoomInfo struct {
	ID          domain.RoomID    `json:"roomId"`
	Session     domain.SessionID `json:"sessionId"`
	Host        domain.UserID    `json:"host"`
	State       string           `json:"state"`
	MemberCount int              `json:"memberCount"`
	CreatedAt   time.Time        `json:"createdAt"`
	ExpiresAt   time.Time        `json:"expiresAt"`
}

// Snapshot is a point-in-time copy of a room and its session.
// Attendees are ordered host first, then by join order.
type Snapshot struct {
	Room            RoomInfo          `json:"room"`
	Members         []domain.UserID   `json:"members"`
	Title           string            `json:"title,omitempty"`
	IsBeingRecorded bool              `json:"isBeingRecorded"`
	IsSessionClosed bool              `json:"isSessionClosed"`
	ActualStartTime *time.Time        `json:"actualStartTime,omitempty"`
	RecordingURL    string            `json:"recordingUrl,omitempty"`
	Attendees       []domain.Attendee `json:"attendees"`
}

// Attendee returns the snapshot's copy of one attendee, or nil.
func (s Snapshot) Attendee(id domain.UserID) *domain.Attendee {
	for i := range s.Attendees {
		if s.Attendees[i].User == id {
			return &s.Attendees[i]
		}
	}
	return nil
}

// RoomService is the core-facing API of a live room.
// It owns the membership set and the session document but never touches transport resources.
// Every method is atomic with respect to the room; a failed call leaves state unchanged.
type RoomService interface {
	Room() *domain.Room
	State() domain.RoomState
	MemberCount() int
	IsMember(user domain.UserID) bool
	Members() []domain.UserID
	Info() RoomInfo
	Snapshot() Snapshot
	// Session returns a deep copy of the session document.
	Session() *domain.Session

	Open() (Snapshot, error)
	Join(user domain.UserID, prefs domain.Preferences) (Snapshot, error)
	Leave(user domain.UserID) (bool, error)

	SetMic(user domain.UserID, on bool) (domain.Attendee, error)
	SetCamera(user domain.UserID, on bool) (domain.Attendee, error)
	SetPresenting(user domain.UserID, on bool) (domain.Attendee, error)

	Kick(caller, target domain.UserID) error
	Approve(caller, target domain.UserID) error
	SetCoHost(caller, target domain.UserID, on bool) error

	StartRecording(caller domain.UserID) error
	StopRecording(caller domain.UserID) error
	ConsentRecording(user domain.UserID) error
	SetClosed(caller domain.UserID, closed bool) error

	// End terminates the room. An empty caller means the system ends it.
	End(caller domain.UserID, recordingURL string) ([]domain.UserID, error)

	Broadcast(from domain.UserID, eventName string, payload any) (PublishResult, error)
}

// Deps are the outward capabilities a room is built with.
type Deps struct {
	Notifier Notifier
	Journal  Journal
	Now      func() time.Time
}

// RoomManager indexes live rooms by room id and by session id.
type RoomManager interface {
	// Create opens a room for the session, or returns the session's active
	// room when one exists. The bool reports whether a new room was opened.
	Create(session *domain.Session, host domain.UserID) (RoomService, bool, error)
	Get(id domain.RoomID) (RoomService, error)
	BySession(id domain.SessionID) (RoomService, error)
	List() []RoomInfo
	RoomsOf(user domain.UserID) []RoomService
	// Release drops an ended room from the index and remembers its id.
	Release(id domain.RoomID)
	Expired(now time.Time) []RoomService
	// RecentSession returns the final session copy of a recently ended room,
	// which may be newer than the persisted document.
	RecentSession(id domain.SessionID) (*domain.Session, bool)
	ForgetSession(id domain.SessionID)
}
