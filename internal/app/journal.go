package app

import (
	"context"
	"sync"
	"time"

	"github.com/CodeLikeBA56/AI-Powered-SkillSwap-Network-sub001/internal/domain"
	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"
)

// SnapshotStore is the write side of the persistence collaborator.
type SnapshotStore interface {
	SaveSession(ctx context.Context, s *domain.Session) error
	SaveRoom(ctx context.Context, r domain.RoomRecord) error
}

// EventSink receives every committed transition, uncoalesced.
type EventSink interface {
	Publish(ctx context.Context, c domain.Change) error
}

const maxPendingEvents = 4096

// Journal writes room and session snapshots off the signaling path.
// Pending writes are coalesced per document so only the latest state is
// stored; failed writes are retried with exponential backoff.
type Journal struct {
	store    SnapshotStore
	sinks    []EventSink
	maxTries uint

	mu       sync.Mutex
	sessions map[domain.SessionID]*domain.Session
	rooms    map[domain.RoomID]domain.RoomRecord
	events   []domain.Change
	wake     chan struct{}
}

func NewJournal(store SnapshotStore, maxTries uint, sinks ...EventSink) *Journal {
	if maxTries == 0 {
		maxTries = 5
	}
	return &Journal{
		store:    store,
		sinks:    sinks,
		maxTries: maxTries,
		sessions: make(map[domain.SessionID]*domain.Session),
		rooms:    make(map[domain.RoomID]domain.RoomRecord),
		wake:     make(chan struct{}, 1),
	}
}

// Record implements core.Journal. It never blocks.
func (j *Journal) Record(c domain.Change) {
	j.mu.Lock()
	if c.Session != nil {
		j.sessions[c.Session.ID] = c.Session
	}
	if c.Room.ID != "" {
		j.rooms[c.Room.ID] = c.Room
	}
	if len(j.sinks) > 0 {
		if len(j.events) >= maxPendingEvents {
			j.events = j.events[1:]
			log.Warn().Str("module", "app.journal").Msg("event queue full, dropping oldest")
		}
		j.events = append(j.events, c)
	}
	j.mu.Unlock()

	select {
	case j.wake <- struct{}{}:
	default:
	}
}

// Run drains the journal until ctx is done, then flushes what is left.
func (j *Journal) Run(ctx context.Context) error {
	log.Info().Str("module", "app.journal").Msg("journal started")
	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			j.Flush(flushCtx)
			cancel()
			log.Info().Str("module", "app.journal").Msg("journal stopped")
			return nil
		case <-j.wake:
			j.Flush(ctx)
		}
	}
}

// Flush writes everything pending once. Errors are logged, not returned.
func (j *Journal) Flush(ctx context.Context) {
	j.mu.Lock()
	sessions, rooms, events := j.sessions, j.rooms, j.events
	j.sessions = make(map[domain.SessionID]*domain.Session)
	j.rooms = make(map[domain.RoomID]domain.RoomRecord)
	j.events = nil
	j.mu.Unlock()

	for id, s := range sessions {
		if err := j.retry(ctx, func() error { return j.store.SaveSession(ctx, s) }); err != nil {
			log.Error().Err(err).Str("module", "app.journal").Str("session", string(id)).Msg("save session")
		}
	}
	for id, r := range rooms {
		if err := j.retry(ctx, func() error { return j.store.SaveRoom(ctx, r) }); err != nil {
			log.Error().Err(err).Str("module", "app.journal").Str("room", string(id)).Msg("save room")
		}
	}
	for _, c := range events {
		for _, sink := range j.sinks {
			if err := sink.Publish(ctx, c); err != nil {
				log.Warn().Err(err).Str("module", "app.journal").Str("kind", string(c.Kind)).Msg("publish change")
			}
		}
	}
}

func (j *Journal) retry(ctx context.Context, op func() error) error {
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, op()
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(j.maxTries))
	return err
}
