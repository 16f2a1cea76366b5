package domain

import "time"

// Session is the persisted document a room instantiates. The persistence
// service owns the durable copy; core owns it while a room is live.
type Session struct {
	ID              SessionID  `json:"id"`
	Host            UserID     `json:"host"`
	Title           string     `json:"title,omitempty"`
	IsBeingRecorded bool       `json:"isBeingRecorded"`
	IsSessionClosed bool       `json:"isSessionClosed"`
	ActualStartTime *time.Time `json:"actualStartTime,omitempty"`
	RecordingURL    string     `json:"recordingUrl,omitempty"`
	Attendees       []Attendee `json:"attendees"`
}

// Clone returns a deep copy safe to hand to another goroutine.
func (s *Session) Clone() *Session {
	out := *s
	out.Attendees = append([]Attendee(nil), s.Attendees...)
	if s.ActualStartTime != nil {
		t := *s.ActualStartTime
		out.ActualStartTime = &t
	}
	return &out
}

// Attendee returns a pointer into the attendee list, or nil.
func (s *Session) Attendee(id UserID) *Attendee {
	for i := range s.Attendees {
		if s.Attendees[i].User == id {
			return &s.Attendees[i]
		}
	}
	return nil
}

// RoomRecord is the persisted room document.
type RoomRecord struct {
	ID           RoomID    `json:"id"`
	Session      SessionID `json:"session"`
	Host         UserID    `json:"host"`
	Participants []UserID  `json:"participants"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
}
