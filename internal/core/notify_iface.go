package core

import "github.com/CodeLikeBA56/AI-Powered-SkillSwap-Network-sub001/internal/domain"

// PublishResult reports delivery stats to the caller.
type PublishResult struct {
	SentTo  int
	Offline int
	Dropped []ConnID
}

// Notifier is the outward fan-out capability a room is given.
// Implementations must not block and must not call back into the room.
type Notifier interface {
	NotifyUsers(users []domain.UserID, ev Envelope) PublishResult
}

// Journal receives committed transitions for persistence and event publishing.
// Record must not block.
type Journal interface {
	Record(domain.Change)
}

type nopNotifier struct{}

func (nopNotifier) NotifyUsers([]domain.UserID, Envelope) PublishResult { return PublishResult{} }

type nopJournal struct{}

func (nopJournal) Record(domain.Change) {}
