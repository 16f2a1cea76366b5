package store

import (
	"context"
	"fmt"
	"time"

	"github.com/CodeLikeBA56/AI-Powered-SkillSwap-Network-sub001/internal/config"
	"github.com/CodeLikeBA56/AI-Powered-SkillSwap-Network-sub001/internal/domain"
	"github.com/rs/zerolog/log"
)

// Persister is the session/room document store the live layer reads on
// room creation and writes snapshots to.
type Persister interface {
	LoadSession(ctx context.Context, id domain.SessionID) (*domain.Session, error)
	SaveSession(ctx context.Context, s *domain.Session) error
	LoadRoom(ctx context.Context, id domain.RoomID) (domain.RoomRecord, error)
	SaveRoom(ctx context.Context, r domain.RoomRecord) error
	ListRooms(ctx context.Context) ([]domain.RoomRecord, error)
	Close() error
}

// Open builds the configured persister. Room documents expire after roomTTL.
func Open(cfg config.PersistenceConfig, roomTTL time.Duration) (Persister, error) {
	switch cfg.Type {
	case "", "buntdb":
		path := cfg.Path
		if path == "" {
			path = ":memory:"
		}
		return NewBuntPersister(path, roomTTL)
	case "sqlite", "postgres":
		return NewGormPersister(cfg.Type, cfg.DSN, roomTTL)
	default:
		return nil, fmt.Errorf("unknown persistence type %q", cfg.Type)
	}
}

// DeactivateRooms marks every stored room inactive. Live rooms exist only in
// memory, so any room still flagged active at startup belongs to a process
// that is gone. It returns the number of rooms it changed.
func DeactivateRooms(ctx context.Context, p Persister) (int, error) {
	rooms, err := p.ListRooms(ctx)
	if err != nil {
		return 0, fmt.Errorf("list rooms: %w", err)
	}
	n := 0
	for _, r := range rooms {
		if !r.IsActive {
			continue
		}
		r.IsActive = false
		if err := p.SaveRoom(ctx, r); err != nil {
			return n, fmt.Errorf("deactivate room %s: %w", r.ID, err)
		}
		log.Debug().Str("module", "store").Str("room", string(r.ID)).Str("session", string(r.Session)).Msg("orphaned room deactivated")
		n++
	}
	return n, nil
}
